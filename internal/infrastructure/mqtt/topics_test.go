package mqtt

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateTopic(t *testing.T) {
	tests := []struct {
		topic   string
		wantErr bool
	}{
		{"ok/rx/A1", false},
		{"ok/rx", false},
		{"ok/status", false},
		{"", true},
		{"ok/rx/+", true},
		{"ok/#", true},
		{"ok/\x00", true},
		{strings.Repeat("a", maxTopicLength+1), true},
	}

	for _, tt := range tests {
		err := ValidateTopic(tt.topic)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateTopic(%.20q) error = %v, wantErr %v", tt.topic, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidTopic) {
			t.Errorf("ValidateTopic(%.20q) error = %v, want ErrInvalidTopic", tt.topic, err)
		}
	}
}

func TestValidateFilter(t *testing.T) {
	tests := []struct {
		filter  string
		wantErr bool
	}{
		{"ok/tx/#", false},
		{"#", false},
		{"ok/+/status", false},
		{"+/+", false},
		{"ok/tx/", false},
		{"", true},
		{"ok/tx#", true},
		{"ok/#/rx", true},
		{"ok/a+/rx", true},
	}

	for _, tt := range tests {
		err := ValidateFilter(tt.filter)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFilter(%q) error = %v, wantErr %v", tt.filter, err, tt.wantErr)
		}
	}
}

package mqtt

import (
	"fmt"
	"strings"
)

// maxTopicLength is the MQTT limit on topic names and filters in bytes.
const maxTopicLength = 65535

// ValidateTopic checks a topic name used for publishing.
//
// Topic names must be non-empty, at most 65535 bytes, free of NUL and must
// not contain the wildcards '+' or '#'.
func ValidateTopic(topic string) error {
	if err := validateCommon(topic); err != nil {
		return err
	}
	if strings.ContainsAny(topic, "+#") {
		return fmt.Errorf("%w: wildcard in topic name %q", ErrInvalidTopic, topic)
	}
	return nil
}

// ValidateFilter checks a topic filter used for subscribing.
//
// '+' must occupy a whole level. '#' must occupy a whole level and be the
// last one.
//
// Examples:
//
//	ok/tx/#      valid
//	ok/+/status  valid
//	ok/tx#       invalid
//	ok/#/rx      invalid
func ValidateFilter(filter string) error {
	if err := validateCommon(filter); err != nil {
		return err
	}

	levels := strings.Split(filter, "/")
	for i, level := range levels {
		if strings.Contains(level, "#") && (level != "#" || i != len(levels)-1) {
			return fmt.Errorf("%w: '#' must be the last whole level in %q", ErrInvalidTopic, filter)
		}
		if strings.Contains(level, "+") && level != "+" {
			return fmt.Errorf("%w: '+' must be a whole level in %q", ErrInvalidTopic, filter)
		}
	}
	return nil
}

func validateCommon(topic string) error {
	if topic == "" {
		return fmt.Errorf("%w: topic cannot be empty", ErrInvalidTopic)
	}
	if len(topic) > maxTopicLength {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrInvalidTopic, len(topic), maxTopicLength)
	}
	if strings.ContainsRune(topic, 0) {
		return fmt.Errorf("%w: NUL in %q", ErrInvalidTopic, topic)
	}
	return nil
}

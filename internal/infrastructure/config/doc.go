// Package config handles loading and validating OKMQTT bridge configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Loading a local .env file and overriding with OKMQTT_* environment variables
//   - Validation of required fields and of the MQTT topic contract
//   - Default value handling (the reference OpenKontrol gateway settings)
//
// Security Considerations:
//   - MQTT credentials should be set via OKMQTT_MQTT_USERNAME / OKMQTT_MQTT_PASSWORD
//   - MQTTAuthConfig.String redacts the password for logging
//
// Usage:
//
//	cfg, err := config.Load("configs/okmqtt.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Serial.Port)
package config

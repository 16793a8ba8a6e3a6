// Package logging builds the bridge's log/slog logger.
//
// Every entry carries service=okmqtt and the build version. The bridge adds
// bridge_id at startup and each subsystem adds a component attribute, so a
// single JSON stream can be filtered per subsystem:
//
//	{"level":"WARN","msg":"mqtt connection failed","service":"okmqtt","bridge_id":"okmqtt","component":"bridge",...}
//
// Settings come from the logging section of the config (level, format,
// output). MQTT passwords must never reach a log call; log the auth config
// through its String method, which redacts them.
package logging

// Package llap implements the LLAP radio to MQTT bridge.
//
// LLAP (Lightweight Local Automation Protocol) devices talk over a serial
// radio link (Ciseco XRF and friends) using fixed 12-character ASCII frames:
//
//	a A1 HELLO____
//	│ │  └ payload, 9 characters, padded
//	│ └ device ID, 2 characters
//	└ start marker
//
// This package translates between those frames and an MQTT broker.
//
// # Architecture
//
//	┌──────────────┐  serial  ┌──────────────────┐   MQTT   ┌─────────────┐
//	│ LLAP devices │◄────────►│  Engine (this    │◄────────►│   Broker    │
//	│  (radio)     │          │  package)        │          │             │
//	└──────────────┘          └──────────────────┘          └─────────────┘
//
// Components, leaves first:
//
//   - Codec, Decoder, Reader: frame encoding and byte-stream resynchronisation
//   - Mapper: frame ⇄ topic translation under the configured prefixes
//   - Supervisor: broker session lifecycle with a flat retry interval
//   - Announcer: the retained "Running" status and its "Restart" last will
//   - Engine: the single cooperative control loop tying them together
//
// # Topics
//
//	ok/tx/#      subscribe   command payload for the device named by the suffix
//	ok/tx/       subscribe   a complete 12-character frame, sent as is
//	ok/rx/<ID>   publish     12-character LLAP frame received from the radio
//	ok/status    publish     "Running: OKMQTT" (retained), will "Restart: OKMQTT"
//	ok/status    subscribe   "STATUS" asks for an immediate announcement
//
// # Concurrency
//
// Engine.Tick runs every component in sequence from one goroutine. Nothing
// in this package starts goroutines; the MQTT transport is expected to
// queue received messages for Poll. Types are not safe for concurrent use.
//
// # Known limitations
//
// There is no outbound queue. Frames received while the broker session is
// down are dropped, so nothing is guaranteed to survive a reconnect.
package llap

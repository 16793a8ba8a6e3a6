// OKMQTT - LLAP serial radio to MQTT bridge
//
// This is the main entry point for the okmqtt command. The bridge reads
// LLAP frames from an XRF/URF radio on a serial port, republishes them to
// an MQTT broker and writes commands received over MQTT back to the radio.
//
// Subcommands:
//   - run:    start the bridge (default when no subcommand is given)
//   - frame:  encode or decode LLAP frames offline
//   - ports:  list serial ports on this host
//   - version: print build information
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// configEnvVar overrides the --config default.
const configEnvVar = "OKMQTT_CONFIG"

func main() {
	// Cancel on Ctrl+C or SIGTERM so the bridge can publish its offline status.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "okmqtt",
		Short: "Bridge an LLAP serial radio to an MQTT broker",
		Long: `okmqtt reads LLAP frames from an XRF/URF radio and publishes them to
MQTT under ok/rx/<device id>. Payloads published to ok/tx/<device id> are
written back to the radio as LLAP frames.

With no subcommand, okmqtt runs the bridge.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts.configPath)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", defaultConfigPath(),
		"path to YAML config file (empty for defaults plus environment)")

	cmd.AddCommand(
		newRunCmd(opts),
		newFrameCmd(),
		newPortsCmd(),
		newVersionCmd(),
	)
	return cmd
}

// defaultConfigPath returns $OKMQTT_CONFIG, or "" to run on defaults and
// OKMQTT_* environment overrides alone.
func defaultConfigPath() string {
	return os.Getenv(configEnvVar)
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the bridge",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts.configPath)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "okmqtt %s (commit %s, built %s)\n", version, commit, date)
			return err
		},
	}
}

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nerrad567/okmqtt/internal/bridges/llap"
)

func newPortsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial ports, to help find the radio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ports, err := llap.ListPorts()
			if err != nil {
				return err
			}
			return printPorts(cmd.OutOrStdout(), ports)
		},
	}
}

func printPorts(w io.Writer, ports []llap.PortInfo) error {
	if len(ports) == 0 {
		_, err := fmt.Fprintln(w, "no serial ports found")
		return err
	}
	for _, p := range ports {
		line := p.Name
		if p.IsUSB {
			line = fmt.Sprintf("%s\tusb %s:%s", p.Name, p.VID, p.PID)
			if p.SerialNumber != "" {
				line += " serial " + p.SerialNumber
			}
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

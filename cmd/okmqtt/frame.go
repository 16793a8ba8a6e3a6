package main

import (
	"bufio"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nerrad567/okmqtt/internal/bridges/llap"
)

func newFrameCmd() *cobra.Command {
	var padding string

	cmd := &cobra.Command{
		Use:   "frame",
		Short: "Encode or decode LLAP frames",
	}
	cmd.PersistentFlags().StringVar(&padding, "padding", " ", `payload padding: " " or "-"`)

	encode := &cobra.Command{
		Use:   "encode <device-id> <payload>",
		Short: "Print the 12-byte frame for a device ID and payload",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			codec, err := llap.NewCodec(padding)
			if err != nil {
				return err
			}
			raw, err := codec.Encode(args[0], args[1])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", raw)
			return err
		},
	}

	decode := &cobra.Command{
		Use:   "decode [frame...]",
		Short: "Decode frames given as arguments, or a byte stream on stdin",
		Long: `Decode LLAP frames. Each argument is decoded as one frame. With no
arguments, stdin is scanned as a raw radio capture and every frame found is
printed as "<device-id> <payload>".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			codec, err := llap.NewCodec(padding)
			if err != nil {
				return err
			}
			if len(args) > 0 {
				return decodeArgs(cmd.OutOrStdout(), codec, args)
			}
			return decodeStream(cmd.OutOrStdout(), cmd.ErrOrStderr(), codec, cmd.InOrStdin())
		},
	}

	cmd.AddCommand(encode, decode)
	return cmd
}

func decodeArgs(out io.Writer, codec llap.Codec, args []string) error {
	for _, arg := range args {
		f, err := codec.Decode([]byte(arg))
		if err != nil {
			return fmt.Errorf("%q: %w", arg, err)
		}
		if _, err := fmt.Fprintln(out, f.DeviceID, f.Payload); err != nil {
			return err
		}
	}
	return nil
}

// decodeStream prints every frame in r. Malformed frames are reported on
// errOut and counted; the stream is read to the end either way.
func decodeStream(out, errOut io.Writer, codec llap.Codec, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Split(llap.ScanFrames)

	bad := 0
	for scanner.Scan() {
		f, err := codec.Decode(scanner.Bytes())
		if err != nil {
			bad++
			fmt.Fprintf(errOut, "skipping %q: %v\n", scanner.Bytes(), err) //nolint:errcheck // diagnostics only
			continue
		}
		if _, err := fmt.Fprintln(out, f.DeviceID, f.Payload); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading frames: %w", err)
	}
	if bad > 0 {
		return fmt.Errorf("%d malformed frame(s)", bad)
	}
	return nil
}

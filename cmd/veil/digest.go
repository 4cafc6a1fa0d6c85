package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veilcrypt/veil"
)

func newDigestCmd() *cobra.Command {
	var (
		metadata []string
		check    string
	)

	cmd := &cobra.Command{
		Use:   "digest MESSAGE [OUT]",
		Short: "Generate or check a keyless digest of a message.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := openInput(args[0])
			if err != nil {
				return err
			}
			defer msg.Close()

			d, err := veil.NewDigest(metadata, msg)
			if err != nil {
				return err
			}

			if check != "" {
				want, err := veil.ParseDigest(check)
				if err != nil {
					return err
				}
				if !d.Equal(want) {
					return veil.ErrDigestMismatch
				}
				return nil
			}

			out := stdioPath
			if len(args) > 1 {
				out = args[1]
			}
			w, err := openOutput(out)
			if err != nil {
				return err
			}
			defer w.Close()

			_, err = fmt.Fprintln(w, d.String())
			return err
		},
	}

	cmd.Flags().StringArrayVarP(&metadata, "metadata", "m", nil, "Additional metadata strings to bind into the digest, in order.")
	cmd.Flags().StringVar(&check, "check", "", "An existing digest to check the message against, instead of printing a new one.")

	return cmd
}

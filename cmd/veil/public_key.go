package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPublicKeyCmd() *cobra.Command {
	var pass passphraseInput

	cmd := &cobra.Command{
		Use:   "public-key PRIVATE-KEY [OUT]",
		Short: "Derive the public key for a private key.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			passphrase, err := pass.read()
			if err != nil {
				return err
			}

			sk, err := loadPrivateKey(args[0], passphrase)
			if err != nil {
				return err
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

			_, err = fmt.Fprintln(w, sk.PublicKey().String())
			return err
		},
	}

	pass.registerFlags(cmd)

	return cmd
}

package main

import (
	"crypto/rand"
	"fmt"

	"github.com/spf13/cobra"
)

func newSignCmd() *cobra.Command {
	var pass passphraseInput

	cmd := &cobra.Command{
		Use:   "sign PRIVATE-KEY MESSAGE [OUT]",
		Short: "Sign a message.",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			passphrase, err := pass.read()
			if err != nil {
				return err
			}

			sk, err := loadPrivateKey(args[0], passphrase)
			if err != nil {
				return err
			}

			msg, err := openInput(args[1])
			if err != nil {
				return err
			}
			defer msg.Close()

			sig, err := sk.Sign(rand.Reader, msg)
			if err != nil {
				return err
			}

			out := stdioPath
			if len(args) > 2 {
				out = args[2]
			}
			w, err := openOutput(out)
			if err != nil {
				return err
			}
			defer w.Close()

			_, err = fmt.Fprintln(w, sig.String())
			return err
		},
	}

	pass.registerFlags(cmd)

	return cmd
}

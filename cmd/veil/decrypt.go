package main

import (
	"github.com/spf13/cobra"

	"github.com/veilcrypt/veil"
)

func newDecryptCmd() *cobra.Command {
	var pass passphraseInput

	cmd := &cobra.Command{
		Use:   "decrypt PRIVATE-KEY IN OUT SENDER",
		Short: "Decrypt and verify a message.",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			passphrase, err := pass.read()
			if err != nil {
				return err
			}

			sk, err := loadPrivateKey(args[0], passphrase)
			if err != nil {
				return err
			}

			sender, err := veil.ParsePublicKey(args[3])
			if err != nil {
				return err
			}

			in, err := openInput(args[1])
			if err != nil {
				return err
			}
			defer in.Close()

			out, err := openOutput(args[2])
			if err != nil {
				return err
			}
			defer out.Close()

			_, err = sk.Decrypt(in, out, sender)
			if err != nil && args[2] != stdioPath {
				_ = removeOutput(args[2])
			}
			return err
		},
	}

	pass.registerFlags(cmd)

	return cmd
}

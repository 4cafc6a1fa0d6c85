package main

import (
	"crypto/rand"

	"github.com/spf13/cobra"

	"github.com/veilcrypt/veil"
)

func newEncryptCmd() *cobra.Command {
	var (
		fakes   int
		padding uint64
		pass    passphraseInput
	)

	cmd := &cobra.Command{
		Use:   "encrypt PRIVATE-KEY IN OUT RECEIVER [RECEIVER...]",
		Short: "Encrypt a message for one or more receivers.",
		Args:  cobra.MinimumNArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			passphrase, err := pass.read()
			if err != nil {
				return err
			}

			sk, err := loadPrivateKey(args[0], passphrase)
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

			receivers := make([]*veil.PublicKey, 0, len(args)-3)
			for _, s := range args[3:] {
				pk, err := veil.ParsePublicKey(s)
				if err != nil {
					return err
				}
				receivers = append(receivers, pk)
			}

			_, err = sk.Encrypt(rand.Reader, in, out, receivers, veil.WithFakes(fakes), veil.WithPadding(padding))
			if err != nil && args[2] != stdioPath {
				_ = removeOutput(args[2])
			}
			return err
		},
	}

	cmd.Flags().IntVar(&fakes, "fakes", 0, "The number of fake receivers to add, to obscure the true receiver count.")
	cmd.Flags().Uint64Var(&padding, "padding", 0, "The number of random padding bytes to add, to obscure the true receiver count.")
	pass.registerFlags(cmd)

	return cmd
}

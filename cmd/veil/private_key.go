package main

import (
	"crypto/rand"

	"github.com/spf13/cobra"

	"github.com/veilcrypt/veil"
)

func newPrivateKeyCmd() *cobra.Command {
	var (
		timeCost  uint32
		spaceCost uint32
		// parallelismCost is accepted for flag-surface compatibility with
		// other KDF-backed tools; Veil's balloon-hashing KDF (pbenc) has no
		// parallelism knob, so this flag has no effect.
		parallelismCost uint32
		keyID           string
		pass            passphraseInput
	)

	cmd := &cobra.Command{
		Use:   "private-key OUT",
		Short: "Generate a new private key, encrypted with a passphrase.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			passphrase, err := pass.read()
			if err != nil {
				return err
			}

			sk, err := veil.NewPrivateKey(rand.Reader)
			if err != nil {
				return err
			}
			if keyID != "" {
				sk = sk.Derive(keyID)
			}

			w, err := openOutput(args[0])
			if err != nil {
				return err
			}
			defer w.Close()

			return sk.Store(w, rand.Reader, passphrase, timeCost, spaceCost)
		},
	}

	cmd.Flags().Uint32Var(&timeCost, "time-cost", 20, "The balloon hashing time cost, in rounds.")
	cmd.Flags().Uint32Var(&spaceCost, "memory-cost", 1<<16, "The balloon hashing space cost, in blocks.")
	cmd.Flags().Uint32Var(&parallelismCost, "parallelism-cost", 1, "Unused by Veil's balloon-hashing KDF; accepted for compatibility.")
	cmd.Flags().StringVar(&keyID, "key-id", "", "An optional hierarchical key ID to derive before storing (default: the root key).")
	pass.registerFlags(cmd)

	return cmd
}

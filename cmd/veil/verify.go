package main

import (
	"github.com/spf13/cobra"

	"github.com/veilcrypt/veil"
)

func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify PUBLIC-KEY MESSAGE SIGNATURE",
		Short: "Verify a signature against a message.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			pk, err := veil.ParsePublicKey(args[0])
			if err != nil {
				return err
			}

			msg, err := openInput(args[1])
			if err != nil {
				return err
			}
			defer msg.Close()

			sig, err := veil.ParseSignature(args[2])
			if err != nil {
				return err
			}

			return pk.Verify(msg, sig)
		},
	}

	return cmd
}

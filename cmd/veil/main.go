// Command veil is a command-line tool for encrypting, decrypting, signing,
// and verifying messages using the Veil hybrid cryptosystem.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "veil:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "veil",
		Short:         "Encrypt, decrypt, sign, and verify messages with Veil.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newPrivateKeyCmd(),
		newPublicKeyCmd(),
		newEncryptCmd(),
		newDecryptCmd(),
		newSignCmd(),
		newVerifyCmd(),
		newDigestCmd(),
	)

	return root
}

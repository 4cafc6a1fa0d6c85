package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"golang.org/x/text/unicode/norm"
)

// passphraseInput gathers a passphrase from one of three mutually exclusive
// sources: an interactive terminal prompt (the default), a file, or the
// output of a command. Only one of file or command may be set.
type passphraseInput struct {
	file    string
	command string
}

func (p *passphraseInput) registerFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.file, "passphrase-file", "", "Read the passphrase from the given file.")
	cmd.Flags().StringVar(&p.command, "passphrase-command", "", "Read the passphrase from the output of the given command.")
	cmd.MarkFlagsMutuallyExclusive("passphrase-file", "passphrase-command")
}

// read returns the passphrase. TTY input is NFC-normalized so the same
// human-typed passphrase always produces the same bytes; file and command
// output are returned verbatim, since those sources are expected to supply
// exact bytes rather than human keystrokes.
func (p *passphraseInput) read() (string, error) {
	switch {
	case p.file != "":
		b, err := os.ReadFile(p.file)
		if err != nil {
			return "", fmt.Errorf("reading passphrase file: %w", err)
		}
		return string(b), nil

	case p.command != "":
		fields := strings.Fields(p.command)
		if len(fields) == 0 {
			return "", fmt.Errorf("empty passphrase command")
		}
		out, err := exec.Command(fields[0], fields[1:]...).Output()
		if err != nil {
			return "", fmt.Errorf("running passphrase command: %w", err)
		}
		return string(out), nil

	default:
		fmt.Fprint(os.Stderr, "Enter passphrase: ")
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading passphrase: %w", err)
		}
		return norm.NFC.String(string(b)), nil
	}
}

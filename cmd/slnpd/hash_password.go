package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/stuffbucket/slnpd/internal/auth"
)

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [user]",
	Short: "Hash a password for the [auth.users] config table",
	Long: `Read a password (hidden when typed at a terminal, else one line from stdin)
and print its bcrypt hash. With a user name the output is a ready-made
config line.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHashPassword,
}

func runHashPassword(cmd *cobra.Command, args []string) error {
	password, err := readPassword()
	if err != nil {
		return err
	}
	hash, err := auth.Hash(password)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(args) == 1 {
		fmt.Fprintf(out, "%s = %q\n", args[0], hash)
		return nil
	}
	fmt.Fprintln(out, hash)
	return nil
}

func readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	fmt.Fprint(os.Stderr, "Repeat: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if string(first) != string(second) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(first), nil
}

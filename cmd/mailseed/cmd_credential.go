package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/nhle/mailseed/internal/credential"
)

var credentialCmd = &cobra.Command{
	Use:   "credential",
	Short: "Manage identity credentials in the system keyring",
	Long: `credential stores and removes the per-identity secrets that the
identity feed references through the @keyring indirection.`,
}

var credentialSetCmd = &cobra.Command{
	Use:   "set <address>",
	Short: "Store the credential for an identity address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		secret, err := readSecret(cmd, args[0])
		if err != nil {
			return fmt.Errorf("reading credential: %w", err)
		}
		if secret == "" {
			return fmt.Errorf("credential must not be empty")
		}
		if err := credential.Set(args[0], secret); err != nil {
			return err
		}
		fmt.Printf("credential stored for %s\n", args[0])
		return nil
	},
}

var credentialDeleteCmd = &cobra.Command{
	Use:   "delete <address>",
	Short: "Remove the credential for an identity address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := credential.Delete(args[0]); err != nil {
			return err
		}
		fmt.Printf("credential removed for %s\n", args[0])
		return nil
	},
}

func init() {
	credentialCmd.AddCommand(credentialSetCmd)
	credentialCmd.AddCommand(credentialDeleteCmd)
}

// readSecret reads the credential without echo when stdin is a terminal, and
// as a single line otherwise so the command stays scriptable.
func readSecret(cmd *cobra.Command, address string) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Printf("Credential for %s: ", address)
		secret, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		return string(secret), nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Command seal-secret seals values for the *_ENC environment variables
// (SHOPIFY_ACCESS_TOKEN_ENC, GOOGLE_CREDENTIALS_ENC) with TOKEN_ENC_KEY_B64.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/linearclockworks/shopify-serial--webhook/internal/security"
)

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var keyB64 string

	root := &cobra.Command{
		Use:          "seal-secret",
		Short:        "Seal and open secrets kept in environment variables",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&keyB64, "key", "", "base64 AES-256 key (default $TOKEN_ENC_KEY_B64)")

	sealer := func() (*security.Sealer, error) {
		k := keyB64
		if k == "" {
			k = os.Getenv("TOKEN_ENC_KEY_B64")
		}
		if strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("no key: pass --key or set TOKEN_ENC_KEY_B64")
		}
		return security.NewSealer(k)
	}

	var file string
	seal := &cobra.Command{
		Use:   "seal [value]",
		Short: "Seal a value given as argument, --file, or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sealer()
			if err != nil {
				return err
			}
			plain, err := readValue(cmd, args, file)
			if err != nil {
				return err
			}
			out, err := s.Seal(plain)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}
	seal.Flags().StringVar(&file, "file", "", "read the value from a file, e.g. a service account JSON")

	open := &cobra.Command{
		Use:   "open [sealed]",
		Short: "Open a sealed value to check it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sealer()
			if err != nil {
				return err
			}
			sealed, err := readValue(cmd, args, "")
			if err != nil {
				return err
			}
			plain, err := s.Open(sealed)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), plain)
			return err
		},
	}

	genkey := &cobra.Command{
		Use:   "genkey",
		Short: "Print a new random TOKEN_ENC_KEY_B64",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			k, err := security.NewKey()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), k)
			return err
		},
	}

	root.AddCommand(seal, open, genkey)
	return root
}

func readValue(cmd *cobra.Command, args []string, file string) (string, error) {
	switch {
	case len(args) == 1:
		return args[0], nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return "", err
		}
		return strings.TrimRight(string(b), "\r\n"), nil
	}
	b, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", err
	}
	v := strings.TrimRight(string(b), "\r\n")
	if v == "" {
		return "", fmt.Errorf("empty value")
	}
	return v, nil
}

package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var keygenFlags struct {
	bytes  int
	prefix string
}

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate an API key",
	Long: `Generate a random API key suitable for SHIELD_AUTH.API_KEY.

Examples:
  shield keygen
  shield keygen --bytes 48 --prefix ""`,
	RunE: runKeygen,
}

func init() {
	rootCmd.AddCommand(keygenCmd)

	keygenCmd.Flags().IntVar(&keygenFlags.bytes, "bytes", 32, "number of random bytes")
	keygenCmd.Flags().StringVar(&keygenFlags.prefix, "prefix", "bltz_shield_", "prefix for the key")
}

func runKeygen(cmd *cobra.Command, args []string) error {
	key, err := generateAPIKey(rand.Reader, keygenFlags.bytes, keygenFlags.prefix)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), key)
	return err
}

// generateAPIKey reads n bytes from r and encodes them as unpadded
// URL-safe base64 after prefix.
func generateAPIKey(r io.Reader, n int, prefix string) (string, error) {
	if n < 16 {
		return "", fmt.Errorf("key must have at least 16 random bytes, got %d", n)
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	return prefix + base64.RawURLEncoding.EncodeToString(buf), nil
}

// Package cmd implements the keygen CLI: a wallet-side helper for anyone
// who wants to submit a signed transfer. The node itself never generates or
// holds a private key; a miner is identified by a bare address.
package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var (
	accountName string
	accountPath string
)

const keyExtension = ".ecdsa"

func init() {
	rootCmd.PersistentFlags().StringVarP(&accountName, "account", "a", "private.ecdsa", "name of the private key file")
	rootCmd.PersistentFlags().StringVarP(&accountPath, "account-path", "p", "zblock/accounts/", "directory holding private key files")
}

var rootCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate and inspect HashLine account keys",
}

// Execute runs the keygen CLI, exiting the process with a non-zero status
// on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func privateKeyPath() string {
	if !strings.HasSuffix(accountName, keyExtension) {
		accountName += keyExtension
	}

	return filepath.Join(accountPath, accountName)
}

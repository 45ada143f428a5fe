package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global output flags only
	verbose bool
	quiet   bool

	keybagPath string
	passphrase string
)

var rootCmd = &cobra.Command{
	Use:   "xtstool",
	Short: "XTS-AES sector and stream encryption tool",
	Long: `xtstool encrypts and decrypts files and disk images with XTS-AES
(IEEE P1619 / NIST SP 800-38E), the block-cipher mode used for sector
storage encryption.

Key pairs live in a passphrase-sealed keybag; data is streamed through
the cipher so inputs of any size can be handled, with optional zstd
compression applied before encryption.

Commands:
  keygen      Generate an XTS key pair into the keybag
  encrypt     Encrypt a file
  decrypt     Decrypt a file`,
	Version: "0.1.0-dev",
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output except errors")
	rootCmd.PersistentFlags().StringVar(&keybagPath, "keybag", "", "path to the keybag file (defaults from config)")
	rootCmd.PersistentFlags().StringVar(&passphrase, "passphrase", "", "keybag passphrase (or XTSTOOL_PASSPHRASE)")
}

// report prints progress output unless --quiet is set.
func report(format string, args ...interface{}) {
	if !quiet {
		fmt.Printf(format+"\n", args...)
	}
}

// reportVerbose prints detail output only with --verbose.
func reportVerbose(format string, args ...interface{}) {
	if verbose && !quiet {
		fmt.Printf(format+"\n", args...)
	}
}

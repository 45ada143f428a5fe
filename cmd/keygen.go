package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-xts/internal/helpers"
	"github.com/deploymenttheory/go-xts/pkg/keybag"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate an XTS key pair into the keybag",
	RunE: func(cmd *cobra.Command, args []string) error {
		label, _ := cmd.Flags().GetString("label")
		keySize, _ := cmd.Flags().GetInt("key-size")

		config, err := LoadToolConfig()
		if err != nil {
			return err
		}
		if !cmd.Flags().Changed("key-size") {
			keySize = config.KeySize
		}

		pass, err := resolvePassphrase()
		if err != nil {
			return err
		}

		path := resolveKeybagPath(config)
		kb, err := loadKeybag(path, pass)
		if err != nil {
			return err
		}
		defer kb.Zeroize()

		key1, key2, err := keybag.GenerateKeyPair(keySize)
		if err != nil {
			return err
		}
		defer helpers.Zeroize(key1)
		defer helpers.Zeroize(key2)

		id, err := kb.Add(label, key1, key2)
		if err != nil {
			return err
		}
		if err := saveKeybag(kb, path, pass); err != nil {
			return err
		}

		report("Generated AES-%d XTS key pair %s (%q) in %s", keySize*8, id, label, path)
		return nil
	},
}

func init() {
	keygenCmd.Flags().String("label", "default", "label for the new key pair")
	keygenCmd.Flags().Int("key-size", 32, "AES key size per half in bytes (16 or 32)")

	rootCmd.AddCommand(keygenCmd)
}

// lookupKeyPair resolves a label to a key pair in the configured keybag.
func lookupKeyPair(config *ToolConfig, label string) (key1, key2 []byte, err error) {
	pass, err := resolvePassphrase()
	if err != nil {
		return nil, nil, err
	}

	path := resolveKeybagPath(config)
	kb, err := loadKeybag(path, pass)
	if err != nil {
		return nil, nil, err
	}
	defer kb.Zeroize()

	entry, err := kb.Lookup(label)
	if err != nil {
		return nil, nil, fmt.Errorf("%w (run keygen first?)", err)
	}

	key1 = append([]byte{}, entry.Key1...)
	key2 = append([]byte{}, entry.Key2...)
	return key1, key2, nil
}

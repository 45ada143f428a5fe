package cmd

import (
	"fmt"
	"os"

	"github.com/deploymenttheory/go-xts/pkg/keybag"
)

// loadKeybag opens a sealed keybag file, returning an empty bag when the
// file does not exist yet.
func loadKeybag(path, pass string) (*keybag.Keybag, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return keybag.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read keybag %s: %w", path, err)
	}

	kb, err := keybag.Open(data, pass)
	if err != nil {
		return nil, fmt.Errorf("failed to open keybag %s: %w", path, err)
	}
	return kb, nil
}

// saveKeybag seals and writes the keybag with owner-only permissions.
func saveKeybag(kb *keybag.Keybag, path, pass string) error {
	sealed, err := kb.Seal(pass)
	if err != nil {
		return fmt.Errorf("failed to seal keybag: %w", err)
	}
	if err := os.WriteFile(path, sealed, 0o600); err != nil {
		return fmt.Errorf("failed to write keybag %s: %w", path, err)
	}
	return nil
}

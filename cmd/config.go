package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// ToolConfig holds tool-wide defaults that flags can override.
type ToolConfig struct {
	SectorSize       uint64 `mapstructure:"sector_size"`
	StartSector      uint64 `mapstructure:"start_sector"`
	KeybagPath       string `mapstructure:"keybag_path"`
	KeySize          int    `mapstructure:"key_size"`
	CompressionLevel int    `mapstructure:"compression_level"`
}

// LoadToolConfig loads tool configuration using Viper.
func LoadToolConfig() (*ToolConfig, error) {
	viper.SetConfigName("xtstool-config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("$HOME/.xtstool")
	viper.AddConfigPath("/etc/xtstool")

	// Set defaults
	viper.SetDefault("sector_size", 512)
	viper.SetDefault("start_sector", 0)
	viper.SetDefault("keybag_path", "xtstool.keybag")
	viper.SetDefault("key_size", 32)
	viper.SetDefault("compression_level", 3)

	// Allow environment variables
	viper.SetEnvPrefix("XTSTOOL")
	viper.AutomaticEnv()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	var config ToolConfig
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// resolveKeybagPath applies the flag override to the configured path.
func resolveKeybagPath(config *ToolConfig) string {
	if keybagPath != "" {
		return keybagPath
	}
	return config.KeybagPath
}

// resolvePassphrase applies the flag override to the environment value.
func resolvePassphrase() (string, error) {
	if passphrase != "" {
		return passphrase, nil
	}
	if env := os.Getenv("XTSTOOL_PASSPHRASE"); env != "" {
		return env, nil
	}
	return "", fmt.Errorf("no passphrase given: use --passphrase or XTSTOOL_PASSPHRASE")
}

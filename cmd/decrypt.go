package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-xts/internal/helpers"
	"github.com/deploymenttheory/go-xts/pkg/xts"
)

var decryptCmd = &cobra.Command{
	Use:   "decrypt",
	Short: "Decrypt a file with XTS-AES",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, _ := cmd.Flags().GetString("in")
		out, _ := cmd.Flags().GetString("out")
		label, _ := cmd.Flags().GetString("key")
		compressed, _ := cmd.Flags().GetBool("compress")

		config, err := LoadToolConfig()
		if err != nil {
			return err
		}
		sectorSize, startSector := resolveGeometry(cmd, config)

		key1, key2, err := lookupKeyPair(config, label)
		if err != nil {
			return err
		}
		defer helpers.Zeroize(key1)
		defer helpers.Zeroize(key2)

		src, err := os.Open(in)
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer src.Close()

		dst, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer dst.Close()

		decReader, err := xts.NewReader(src, xts.Params{
			Mode:        xts.Continuous,
			Key1:        key1,
			Key2:        key2,
			SectorSize:  sectorSize,
			StartSector: startSector,
		})
		if err != nil {
			return err
		}

		var n int64
		if compressed {
			zr, err := zstd.NewReader(decReader)
			if err != nil {
				return fmt.Errorf("failed to create decompressor: %w", err)
			}
			defer zr.Close()
			if n, err = io.Copy(dst, zr); err != nil {
				return fmt.Errorf("decryption failed: %w", err)
			}
		} else {
			if n, err = io.Copy(dst, decReader); err != nil {
				return fmt.Errorf("decryption failed: %w", err)
			}
		}

		reportVerbose("sector size %d, start sector %d, compressed=%v", sectorSize, startSector, compressed)
		report("Decrypted %d bytes from %s to %s", n, in, out)
		return nil
	},
}

func init() {
	decryptCmd.Flags().String("in", "", "input file")
	decryptCmd.Flags().String("out", "", "output file")
	decryptCmd.Flags().String("key", "default", "keybag label of the key pair")
	decryptCmd.Flags().Uint64("sector-size", 0, "data unit size in bytes (defaults from config)")
	decryptCmd.Flags().Uint64("start-sector", 0, "first sector index")
	decryptCmd.Flags().Bool("compress", false, "zstd-decompress after decrypting")
	decryptCmd.MarkFlagRequired("in")
	decryptCmd.MarkFlagRequired("out")

	rootCmd.AddCommand(decryptCmd)
}

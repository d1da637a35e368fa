package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"slidecraft/pkg/config"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the image cache",
	Long: `Remove all downloaded images from the cache directory. The cache is
advisory, so the only cost is re-downloading on the next run.`,
	RunE: runClear,
}

func init() {
	rootCmd.AddCommand(clearCmd)
}

func runClear(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	entries, err := os.ReadDir(cfg.Sources.CacheDir)
	if os.IsNotExist(err) {
		fmt.Println("Image cache is already empty")
		return nil
	}
	if err != nil {
		return fmt.Errorf("read cache dir: %w", err)
	}

	if err := os.RemoveAll(cfg.Sources.CacheDir); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}

	fmt.Printf("Cleared %d cached image(s)\n", len(entries))
	return nil
}

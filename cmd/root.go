package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sv4u/tidaldl/config"
	"github.com/sv4u/tidaldl/logging"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "tidaldl",
	Short: "Streaming catalog downloader with tagging and enrichment",
	Long: `A CLI for downloading tracks, albums, artists, playlists and mixes
from a streaming catalog into a local library. Files are transcoded into
clean containers, tagged from catalog metadata, and optionally enriched
with BPM, key, genre and mood data from external sources.`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "tidaldl.yaml", "configuration file")
}

// loadSettings reads the configuration file named by --config.
func loadSettings() (*config.Settings, error) {
	return config.Load(cfgFile)
}

// openLogger creates the JSON file logger under the cache directory.
func openLogger(settings *config.Settings) (*logging.Logger, error) {
	return logging.NewLogger(filepath.Join(settings.CacheDir, "tidaldl.log"))
}

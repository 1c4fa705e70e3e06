package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/sv4u/tidaldl/tidal"
)

var downloadCmd = &cobra.Command{
	Use:   "download <reference>...",
	Short: "Download tracks, videos, albums, artists, playlists or mixes",
	Long: `Download everything the given catalog references resolve to. A
reference may be a url, a kind/id pair, or a bare track id.

Examples:
  tidaldl download track/286266926
  tidaldl download https://tidal.com/browse/album/86076999
  tidaldl download playlist/5a5b0d6f-... album/1234 --skip-errors --enrich`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDownload,
}

var (
	qualityFlag    string
	threadsFlag    int
	skipErrorsFlag bool
	noVerifyFlag   bool
	enrichFlag     bool
	outputFlag     string
)

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().StringVarP(&qualityFlag, "quality", "q", "", "quality tier: LOW, NORMAL, HIGH or MAX")
	downloadCmd.Flags().IntVarP(&threadsFlag, "threads", "t", 0, "worker count (1-16)")
	downloadCmd.Flags().BoolVar(&skipErrorsFlag, "skip-errors", false, "continue past failed items")
	downloadCmd.Flags().BoolVar(&noVerifyFlag, "no-verify", false, "trust existing files without probing them")
	downloadCmd.Flags().BoolVar(&enrichFlag, "enrich", false, "consult external metadata sources")
	downloadCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "library root (overrides download_path)")
}

func runDownload(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if qualityFlag != "" {
		if _, err := tidal.ParseQuality(qualityFlag); err != nil {
			return err
		}
		settings.Quality = qualityFlag
	}
	if threadsFlag != 0 {
		if threadsFlag < 1 || threadsFlag > 16 {
			return fmt.Errorf("invalid --threads %d: must be between 1 and 16", threadsFlag)
		}
		settings.Threads = threadsFlag
	}
	if skipErrorsFlag {
		settings.SkipErrors = true
	}
	if noVerifyFlag {
		settings.SkipVerify = true
	}
	if enrichFlag {
		settings.Enrich = true
	}
	if outputFlag != "" {
		settings.DownloadPath = outputFlag
	}

	refs := make([]tidal.Reference, 0, len(args))
	for _, arg := range args {
		ref, err := tidal.ParseReference(arg)
		if err != nil {
			return err
		}
		refs = append(refs, ref)
	}

	logger, err := openLogger(settings)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	eng, err := buildEngine(settings, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	for _, ref := range refs {
		if err := eng.download(ctx, ref); err != nil {
			return err
		}
	}
	return nil
}

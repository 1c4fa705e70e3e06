package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/sv4u/tidaldl/migrate"
	"github.com/sv4u/tidaldl/ratelimit"
	"github.com/sv4u/tidaldl/tidal"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate <playlist>...",
	Short: "Recreate Spotify playlists in the catalog",
	Long: `Match every track of the given Spotify playlists against the catalog
and recreate them under your account. Tracks are matched through the
song.link cross-platform index first, then by ISRC, then by a fuzzy title
and artist search. Unmatched tracks are reported, never
silently dropped. A playlist with the same name is reused instead of
duplicated.

Examples:
  tidaldl migrate https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M
  tidaldl migrate 37i9dQZF1DXcBWIGoYBM5M --dry-run
  tidaldl migrate 37i9dQZF1DXcBWIGoYBM5M --download`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMigrate,
}

var (
	dryRunFlag    bool
	reportDirFlag string
	downloadAfter bool
)

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "match tracks but create no playlist")
	migrateCmd.Flags().StringVar(&reportDirFlag, "report-dir", "", "directory for the CSV run report (default <cache_dir>/reports)")
	migrateCmd.Flags().BoolVar(&downloadAfter, "download", false, "download each migrated playlist when the run finishes")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if settings.Spotify.ClientID == "" || settings.Spotify.ClientSecret == "" {
		return fmt.Errorf("missing Spotify credentials; set spotify.client_id and spotify.client_secret or the SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET environment variables")
	}
	if !dryRunFlag && settings.UserID == "" {
		return fmt.Errorf("missing user id; set user_id or the TIDAL_USER_ID environment variable to create playlists")
	}
	if downloadAfter && dryRunFlag {
		return fmt.Errorf("--download cannot be combined with --dry-run")
	}

	logger, err := openLogger(settings)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	source, err := migrate.NewSpotifySource(settings.Spotify.ClientID, settings.Spotify.ClientSecret)
	if err != nil {
		return err
	}

	client := tidal.NewClient(settings.Token, settings.UserID, settings.CountryCode)
	// The migrator throttles its own library calls, so the client carries
	// no limiter of its own here.
	registry := ratelimit.NewRegistry()
	if *settings.APIRateLimitEnabled {
		window := time.Duration(settings.APIRateLimitWindow * float64(time.Second))
		registry.Register(migrate.LimiterSource, settings.APIRateLimitRequests, window)
	}

	reportDir := reportDirFlag
	if reportDir == "" {
		reportDir = filepath.Join(settings.CacheDir, "reports")
	}

	migrate.RegisterOdesliLimit(registry)
	migrator := migrate.NewMigrator(source, client, registry)
	migrator.UseConverter(migrate.NewOdesliClient(registry))
	opts := migrate.Options{DryRun: dryRunFlag, ReportDir: reportDir}

	var migrated []string
	for _, arg := range args {
		logger.Info("migrate", "starting run playlist=%s dry_run=%t", arg, dryRunFlag)
		result, err := migrator.Migrate(ctx, arg, opts)
		if err != nil {
			logger.Error("migrate", err, "playlist %s", arg)
			return err
		}
		printMigration(result)
		logger.Info("migrate", "run finished run_id=%s matched=%d missing=%d", result.RunID, result.Matched, result.Missing)
		if result.PlaylistUUID != "" {
			migrated = append(migrated, result.PlaylistUUID)
		}
	}

	if downloadAfter && len(migrated) > 0 {
		// Migrated playlists are downloaded best-effort; missing or
		// region-locked tracks must not abort the batch.
		settings.SkipErrors = true
		eng, err := buildEngine(settings, logger)
		if err != nil {
			return err
		}
		for _, uuid := range migrated {
			if err := eng.download(ctx, tidal.Reference{Kind: tidal.CollectionPlaylist, ID: uuid}); err != nil {
				return err
			}
		}
	}
	return nil
}

func printMigration(result *migrate.Result) {
	fmt.Printf("Playlist: %s\n", result.Title)
	fmt.Printf("Matched:  %d\n", result.Matched)
	fmt.Printf("Missing:  %d\n", result.Missing)
	for _, track := range result.Tracks {
		if track.Status == migrate.StatusNotFound || track.Status == migrate.StatusFailed {
			fmt.Printf("  %s: %s (%s)\n", track.Status, track.Source.Title, track.Reason)
		}
	}
	switch {
	case result.PlaylistUUID != "":
		fmt.Printf("Playlist uuid: %s\n", result.PlaylistUUID)
	case dryRunFlag:
		fmt.Println("Dry run: no playlist created")
	default:
		fmt.Println("No playlist created: no tracks matched")
	}
}

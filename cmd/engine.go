package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sv4u/tidaldl/cache"
	"github.com/sv4u/tidaldl/config"
	"github.com/sv4u/tidaldl/download"
	"github.com/sv4u/tidaldl/enrich"
	"github.com/sv4u/tidaldl/enrich/getsongbpm"
	"github.com/sv4u/tidaldl/enrich/musicbrainz"
	"github.com/sv4u/tidaldl/ffmpeg"
	"github.com/sv4u/tidaldl/logging"
	"github.com/sv4u/tidaldl/metadata"
	"github.com/sv4u/tidaldl/ratelimit"
	"github.com/sv4u/tidaldl/template"
	"github.com/sv4u/tidaldl/tidal"
)

// engine bundles the wired download pipeline for the CLI commands.
type engine struct {
	settings    *config.Settings
	logger      *logging.Logger
	resolver    *tidal.Resolver
	coordinator *download.Coordinator
}

// buildEngine assembles the download pipeline from settings. It fails fast
// when the external tools the pipeline shells out to are missing.
func buildEngine(settings *config.Settings, logger *logging.Logger) (*engine, error) {
	transcoder := ffmpeg.NewTranscoder()
	if !transcoder.Installed() {
		return nil, fmt.Errorf("ffmpeg not found on PATH")
	}
	prober := ffmpeg.NewProber()
	if !settings.SkipVerify && !prober.Installed() {
		return nil, fmt.Errorf("ffprobe not found on PATH; install it or set skip_verify")
	}

	client := tidal.NewClient(settings.Token, settings.UserID, settings.CountryCode)
	registry := ratelimit.NewRegistry()
	if *settings.APIRateLimitEnabled {
		window := time.Duration(settings.APIRateLimitWindow * float64(time.Second))
		client.SetLimiter(registry.Register("tidal", settings.APIRateLimitRequests, window))
	}

	creators := cache.NewNameCache(
		filepath.Join(settings.CacheDir, "creators.json"),
		24*time.Hour,
		func(ctx context.Context, userID string) (string, error) {
			creator, err := client.GetUser(ctx, userID)
			if err != nil {
				return "", err
			}
			return creator.Name, nil
		},
	)

	var enricher download.Enricher
	if settings.Enrich {
		service := enrich.NewService()
		if *settings.UseMusicBrainz {
			musicbrainz.RegisterLimit(registry)
			service.AddSource(enrich.SourceMusicBrainz, musicbrainz.NewClient(registry))
		}
		if settings.GetSongBPMKey != "" {
			getsongbpm.RegisterLimit(registry)
			gsb, err := getsongbpm.NewClient(settings.GetSongBPMKey, registry)
			if err != nil {
				return nil, err
			}
			service.AddSource(enrich.SourceGetSongBPM, gsb)
		}
		enricher = service
	}

	albums := cache.NewLoader(client.GetAlbum)
	coordinator := download.NewCoordinator(client, prober, transcoder, metadata.NewEmbedder(transcoder), enricher, albums)

	return &engine{
		settings:    settings,
		logger:      logger,
		resolver:    tidal.NewResolver(client, creators),
		coordinator: coordinator,
	}, nil
}

// download resolves one reference and runs it through the pipeline.
func (e *engine) download(ctx context.Context, ref tidal.Reference) error {
	settings := e.settings
	e.logger.Info("download", "resolving reference kind=%s id=%s", ref.Kind, ref.ID)
	collection, err := e.resolver.Resolve(ctx, ref)
	if err != nil {
		e.logger.Error("download", err, "resolving reference %s/%s", ref.Kind, ref.ID)
		return err
	}
	fmt.Printf("Resolved %s: %s (%d items)\n", collection.Kind, collection.Title, len(collection.Items))

	rawTemplate := settings.TrackTemplate
	switch ref.Kind {
	case tidal.CollectionVideo:
		rawTemplate = settings.VideoTemplate
	case tidal.CollectionPlaylist, tidal.CollectionMix:
		rawTemplate = settings.PlaylistTemplate
	}
	tmpl, err := template.Parse(rawTemplate)
	if err != nil {
		return err
	}

	playlistDir := ""
	if *settings.SavePlaylists && (ref.Kind == tidal.CollectionPlaylist || ref.Kind == tidal.CollectionMix) {
		playlistDir = filepath.Join(settings.DownloadPath, settings.PlaylistDir)
	}

	opts := download.Options{
		Quality:     settings.Tier(),
		Template:    tmpl,
		Root:        settings.DownloadPath,
		PlaylistDir: playlistDir,
		SkipErrors:  settings.SkipErrors,
		Verify:      !settings.SkipVerify,
		Enrich:      settings.Enrich,
		Concurrency: settings.Threads,
		OnStatus: func(item *tidal.Item, status download.Status) {
			e.logger.Info("download", "track=%s id=%s status=%s", item.Title, item.ID, status)
			if status.Terminal() {
				fmt.Printf("[%s] %s - %s\n", status, item.ArtistName(), item.Title)
			}
		},
	}

	report, err := e.coordinator.Download(ctx, collection, opts)
	if report != nil {
		printReport(report)
	}
	if err != nil {
		e.logger.Error("download", err, "collection %s", collection.Title)
		return err
	}
	return nil
}

func printReport(report *download.Report) {
	fmt.Printf("\n=== SUMMARY ===\n")
	fmt.Printf("Total items:   %d\n", report.Total())
	fmt.Printf("Written:       %d\n", len(report.Written))
	fmt.Printf("Skipped:       %d\n", len(report.Skipped))
	fmt.Printf("Failed:        %d\n", len(report.Failed))
	if len(report.NotAttempted) > 0 {
		fmt.Printf("Not attempted: %d\n", len(report.NotAttempted))
	}
	for _, outcome := range report.Failed {
		fmt.Printf("  failed: %s - %s: %s\n", outcome.Artist, outcome.Title, outcome.Reason)
	}
	for _, outcome := range report.Written {
		if outcome.Warning != "" {
			fmt.Printf("  warning: %s - %s: %s\n", outcome.Artist, outcome.Title, outcome.Warning)
		}
	}
}

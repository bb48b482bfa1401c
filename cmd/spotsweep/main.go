// Package main provides the spotsweep CLI application entry point.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"spotsweep/internal/backoff"
	"spotsweep/internal/core"
	httpserver "spotsweep/internal/http"
	"spotsweep/internal/report"
	"spotsweep/internal/spotify"
	"spotsweep/pkg/text"
)

var (
	cfgFile string
	config  *core.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "spotsweep",
	Short: "Spotsweep - Spotify playlist batch utilities",
	Long: `Spotsweep runs batch maintenance jobs against Spotify playlists:
export track metadata to CSV, remove duplicate tracks, remove arbitrary
tracks by ID, and build filtered playlists from a track list.`,
	SilenceUsage: true,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [playlist]",
	Short: "Export playlist track metadata to CSV",
	Long: `Analyze fetches every track of a playlist and writes one CSV row per
track. The playlist may be given as an open.spotify.com URL, a spotify:
URI, or a bare playlist ID; when omitted it is prompted for.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Remove duplicate tracks from the configured playlist",
	Long: `Dedupe scans the configured playlist in order and removes every
repeat occurrence of a track, keeping the first.`,
	RunE: runDedupe,
}

var removeCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove the given tracks from the configured playlist",
	Long: `Remove deletes the tracks named by --track-ids (or --track-ids-file)
from the configured playlist. IDs not present in the playlist are ignored.`,
	RunE: runRemove,
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a filtered playlist from a track list",
	Long: `Build creates (or reuses) the configured playlist and adds every
track from --track-ids (or --track-ids-file) whose name, album, artists and
record label all avoid the --exclude keyword.`,
	RunE: runBuild,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("spotify-client-id", "", "Spotify client ID")
	rootCmd.PersistentFlags().String("spotify-client-secret", "", "Spotify client secret")
	rootCmd.PersistentFlags().String("spotify-redirect-url", "", "Spotify OAuth redirect URL")
	rootCmd.PersistentFlags().String("spotify-token-path", "", "path for the cached OAuth token")
	rootCmd.PersistentFlags().String("metrics-addr", "", "listen address for the metrics server (disabled when empty)")
	rootCmd.PersistentFlags().Int("max-retries", 0, "attempts per rate-limited API call")
	rootCmd.PersistentFlags().Duration("rate-limit-delay", 0, "backoff wait when the API suggests none")
	rootCmd.PersistentFlags().Duration("pace-interval", 0, "minimum gap between paged API calls")
	rootCmd.PersistentFlags().Int("batch-size", 0, "tracks per playlist mutation call")

	analyzeCmd.Flags().String("output", "", "CSV output path")

	dedupeCmd.Flags().String("playlist-name", "", "playlist to deduplicate")

	removeCmd.Flags().String("playlist-name", "", "playlist to remove tracks from")
	removeCmd.Flags().StringSlice("track-ids", nil, "track IDs to remove")
	removeCmd.Flags().String("track-ids-file", "", "file with one track ID per line")

	buildCmd.Flags().String("playlist-name", "", "playlist to create or reuse")
	buildCmd.Flags().String("playlist-description", "", "description for a newly created playlist")
	buildCmd.Flags().StringSlice("track-ids", nil, "candidate track IDs")
	buildCmd.Flags().String("track-ids-file", "", "file with one track ID per line")
	buildCmd.Flags().String("exclude", "", "keyword that excludes matching tracks")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bind flags: %v\n", err)
		os.Exit(1)
	}
	for _, cmd := range []*cobra.Command{analyzeCmd, dedupeCmd, removeCmd, buildCmd} {
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to bind flags: %v\n", err)
			os.Exit(1)
		}
		rootCmd.AddCommand(cmd)
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(".env")
		viper.SetConfigType("env")
	}

	viper.SetEnvPrefix("SPOTSWEEP")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
			os.Exit(1)
		}
	}

	config = buildConfig()
	logger = buildLogger(config.Log.Level)
}

func buildConfig() *core.Config {
	cfg := core.DefaultConfig()

	cfg.Spotify.ClientID = viper.GetString("spotify-client-id")
	cfg.Spotify.ClientSecret = viper.GetString("spotify-client-secret")
	if v := viper.GetString("spotify-redirect-url"); v != "" {
		cfg.Spotify.RedirectURL = v
	}
	if v := viper.GetString("spotify-token-path"); v != "" {
		cfg.Spotify.TokenPath = v
	}

	cfg.Job.PlaylistName = viper.GetString("playlist-name")
	cfg.Job.PlaylistDescription = viper.GetString("playlist-description")
	cfg.Job.TrackIDs = viper.GetStringSlice("track-ids")
	cfg.Job.ExcludeKeyword = viper.GetString("exclude")
	if v := viper.GetString("output"); v != "" {
		cfg.Job.OutputPath = v
	}

	cfg.Server.Addr = viper.GetString("metrics-addr")

	cfg.Log.Level = viper.GetString("log-level")

	if v := viper.GetInt("max-retries"); v > 0 {
		cfg.App.MaxRetries = v
	}
	if v := viper.GetDuration("rate-limit-delay"); v > 0 {
		cfg.App.RateLimitDelay = v
	}
	if v := viper.GetDuration("pace-interval"); v > 0 {
		cfg.App.PaceInterval = v
	}
	if v := viper.GetInt("batch-size"); v > 0 {
		cfg.App.BatchSize = v
	}

	return cfg
}

func buildLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch strings.ToLower(level) {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	builtLogger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to build logger: %v", err))
	}

	return builtLogger
}

// runJob does the wiring shared by all subcommands: authentication, the
// retry policy, metrics, and the optional metrics server. The workflow
// itself runs in run.
func runJob(scopes []string, run func(ctx context.Context, client *spotify.Client, retry *backoff.Policy, metrics core.Metrics) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := config.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	var metrics core.Metrics = core.NopMetrics{}
	var server *httpserver.Server
	if config.Server.Addr != "" {
		server = httpserver.NewServer(&config.Server, logger.Named("http"))
		metrics = server
	}

	client := spotify.NewClient(&config.Spotify, scopes, metrics, logger.Named("spotify"))
	if err := client.Authenticate(ctx); err != nil {
		return fmt.Errorf("failed to authenticate with Spotify: %w", err)
	}

	retryAfter := func(err error) (time.Duration, bool) {
		wait, limited := spotify.RetryAfter(err)
		if limited {
			metrics.RecordRateLimit()
		}
		return wait, limited
	}
	retry := backoff.NewPolicy(config.App.MaxRetries, config.App.RateLimitDelay, retryAfter, logger.Named("backoff"))

	g, gCtx := errgroup.WithContext(ctx)

	if server != nil {
		g.Go(func() error {
			return server.Start(gCtx)
		})
	}

	g.Go(func() error {
		defer cancel()
		return run(gCtx, client, retry, metrics)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Job failed", zap.Error(err))
		return err
	}
	return nil
}

func runAnalyze(_ *cobra.Command, args []string) error {
	var ref string
	if len(args) > 0 {
		ref = args[0]
	} else {
		var err error
		ref, err = promptPlaylistRef()
		if err != nil {
			return err
		}
	}

	playlistID, err := text.ExtractPlaylistID(ref)
	if err != nil {
		return fmt.Errorf("invalid playlist reference %q: %w", ref, err)
	}

	return runJob(spotify.ReadScopes, func(ctx context.Context, client *spotify.Client, retry *backoff.Policy, metrics core.Metrics) error {
		out, err := os.Create(config.Job.OutputPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer out.Close()

		analyzer := core.NewAnalyzer(client, report.NewCSVWriter(out), retry, config.App, metrics, logger.Named("analyzer"))
		summary, err := analyzer.Run(ctx, playlistID)
		if err != nil {
			return err
		}

		logger.Info("Analysis complete",
			zap.Int("total", summary.Total),
			zap.Int("exported", summary.Exported),
			zap.Int("skipped", summary.Skipped),
			zap.String("output", config.Job.OutputPath))
		fmt.Printf("Exported %d of %d tracks to %s\n", summary.Exported, summary.Total, config.Job.OutputPath)
		return nil
	})
}

func runDedupe(_ *cobra.Command, _ []string) error {
	if config.Job.PlaylistName == "" {
		return fmt.Errorf("playlist name is required")
	}

	return runJob(spotify.ModifyScopes, func(ctx context.Context, client *spotify.Client, retry *backoff.Policy, metrics core.Metrics) error {
		cleaner := core.NewCleaner(client, retry, config.App, metrics, logger.Named("cleaner"))
		summary, err := cleaner.Run(ctx, config.Job.PlaylistName)
		if err != nil {
			return err
		}

		logger.Info("Deduplication complete",
			zap.Int("total", summary.Total),
			zap.Int("duplicates", summary.Duplicates),
			zap.Int("removed", summary.Removed),
			zap.Int("failed_batches", summary.FailedBatches))
		if summary.Duplicates == 0 {
			fmt.Println("No duplicates found.")
		} else {
			fmt.Printf("Removed %d of %d duplicate tracks\n", summary.Removed, summary.Duplicates)
		}
		return nil
	})
}

func runRemove(_ *cobra.Command, _ []string) error {
	if config.Job.PlaylistName == "" {
		return fmt.Errorf("playlist name is required")
	}
	trackIDs, err := resolveTrackIDs()
	if err != nil {
		return err
	}

	return runJob(spotify.ModifyScopes, func(ctx context.Context, client *spotify.Client, retry *backoff.Policy, metrics core.Metrics) error {
		remover := core.NewRemover(client, retry, config.App, metrics, logger.Named("remover"))
		summary, err := remover.Run(ctx, config.Job.PlaylistName, trackIDs)
		if err != nil {
			return err
		}

		logger.Info("Removal complete",
			zap.Int("requested", summary.Requested),
			zap.Int("matched", summary.Matched),
			zap.Int("removed", summary.Removed),
			zap.Int("failed_batches", summary.FailedBatches))
		fmt.Printf("Removed %d of %d requested tracks\n", summary.Removed, summary.Requested)
		return nil
	})
}

func runBuild(_ *cobra.Command, _ []string) error {
	if config.Job.PlaylistName == "" {
		return fmt.Errorf("playlist name is required")
	}
	if config.Job.ExcludeKeyword == "" {
		return fmt.Errorf("exclude keyword is required")
	}
	trackIDs, err := resolveTrackIDs()
	if err != nil {
		return err
	}

	return runJob(spotify.ModifyScopes, func(ctx context.Context, client *spotify.Client, retry *backoff.Policy, metrics core.Metrics) error {
		builder := core.NewBuilder(client, retry, config.App, metrics, logger.Named("builder"))
		summary, err := builder.Run(ctx, config.Job.PlaylistName, config.Job.PlaylistDescription, config.Job.ExcludeKeyword, trackIDs)
		if err != nil {
			return err
		}

		logger.Info("Build complete",
			zap.String("playlist_id", summary.PlaylistID),
			zap.Bool("created", summary.Created),
			zap.Int("requested", summary.Requested),
			zap.Int("excluded", summary.Excluded),
			zap.Int("skipped", summary.Skipped),
			zap.Int("added", summary.Added),
			zap.Int("failed_batches", summary.FailedBatches))
		fmt.Printf("Added %d of %d tracks (%d excluded by keyword)\n", summary.Added, summary.Requested, summary.Excluded)
		return nil
	})
}

func promptPlaylistRef() (string, error) {
	fmt.Print("Enter playlist URL, URI, or ID: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading playlist reference: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// resolveTrackIDs merges the --track-ids flag with the optional one-per-line
// file. Entries may be bare IDs, track URLs, or spotify: URIs. Blank lines
// and #-comments in the file are skipped.
func resolveTrackIDs() ([]string, error) {
	refs := append([]string(nil), config.Job.TrackIDs...)

	if path := viper.GetString("track-ids-file"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening track IDs file: %w", err)
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			refs = append(refs, line)
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("reading track IDs file: %w", err)
		}
	}

	if len(refs) == 0 {
		return nil, fmt.Errorf("no track IDs given: use --track-ids or --track-ids-file")
	}

	trackIDs := make([]string, 0, len(refs))
	for _, ref := range refs {
		id, err := text.ExtractTrackID(ref)
		if err != nil {
			return nil, fmt.Errorf("invalid track reference %q: %w", ref, err)
		}
		trackIDs = append(trackIDs, id)
	}
	return trackIDs, nil
}

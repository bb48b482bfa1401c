package core

import (
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

type Config struct {
	Spotify SpotifyConfig
	Job     JobConfig
	Server  ServerConfig
	Log     LogConfig
	App     AppConfig
}

type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	TokenPath    string
}

// JobConfig carries the per-workflow inputs: which playlist to operate on
// and, for the track-list workflows, which tracks.
type JobConfig struct {
	PlaylistName        string
	PlaylistDescription string
	TrackIDs            []string
	ExcludeKeyword      string
	OutputPath          string
}

// ServerConfig configures the optional metrics server. An empty Addr
// disables it.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LogConfig struct {
	Level string
}

// AppConfig holds the pacing and retry knobs shared by all workflows.
type AppConfig struct {
	// MaxRetries bounds attempts for a rate-limited call.
	MaxRetries int
	// RateLimitDelay is the backoff wait when the API suggests none.
	RateLimitDelay time.Duration
	// PaceInterval is the minimum gap between page fetches and between
	// batch writes.
	PaceInterval time.Duration
	// FetchBurst is how many per-track detail fetches may run back to
	// back before pacing kicks in.
	FetchBurst int
	// BatchSize caps items per mutation call.
	BatchSize int
}

func DefaultConfig() *Config {
	return &Config{
		Spotify: SpotifyConfig{
			RedirectURL: "http://localhost:8080/callback",
			TokenPath:   "./spotify_token.json",
		},
		Job: JobConfig{
			OutputPath: "playlist_analysis.csv",
		},
		Server: ServerConfig{
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
		App: AppConfig{
			MaxRetries:     3,
			RateLimitDelay: 1 * time.Second,
			PaceInterval:   1 * time.Second,
			FetchBurst:     10,
			BatchSize:      WriteBatchSize,
		},
	}
}

// Validate checks the credentials every workflow needs before any network
// call is made.
func (c *Config) Validate() error {
	if c.Spotify.ClientID == "" {
		return fmt.Errorf("spotify client ID is required")
	}
	if c.Spotify.ClientSecret == "" {
		return fmt.Errorf("spotify client secret is required")
	}
	if c.Spotify.RedirectURL == "" {
		return fmt.Errorf("spotify redirect URL is required")
	}
	if c.App.BatchSize <= 0 || c.App.BatchSize > WriteBatchSize {
		return fmt.Errorf("batch size must be between 1 and %d, got %d", WriteBatchSize, c.App.BatchSize)
	}
	return nil
}

// PagePacer spaces out page fetches and batch writes: one call per
// PaceInterval.
func (a AppConfig) PagePacer() *rate.Limiter {
	return rate.NewLimiter(rate.Every(a.PaceInterval), 1)
}

// FetchPacer spaces out per-track detail fetches: bursts of FetchBurst
// calls, refilled over PaceInterval.
func (a AppConfig) FetchPacer() *rate.Limiter {
	burst := a.FetchBurst
	if burst <= 0 {
		burst = 1
	}
	perCall := a.PaceInterval / time.Duration(burst)
	return rate.NewLimiter(rate.Every(perCall), burst)
}

// Package spotify wraps the Spotify Web API client with the page-granular
// reads and batch-granular writes the workflows run against, mapping API
// payloads to typed domain records at the boundary.
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"spotsweep/internal/core"
)

// FilePermission is the permission for token files.
const FilePermission = 0600

// albumLabelCacheSize bounds the per-run album label cache. Labels are
// album-level, so tracks from the same album share one lookup.
const albumLabelCacheSize = 512

// ReadScopes authorizes the analysis workflow: playlist and library reads
// only, no mutation.
var ReadScopes = []string{
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopePlaylistReadCollaborative,
	spotifyauth.ScopeUserLibraryRead,
	spotifyauth.ScopeUserReadPrivate,
	spotifyauth.ScopeUserReadEmail,
}

// ModifyScopes authorizes the mutating workflows.
var ModifyScopes = []string{
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopePlaylistModifyPrivate,
	spotifyauth.ScopePlaylistModifyPublic,
}

type Client struct {
	config     *core.SpotifyConfig
	logger     *zap.Logger
	metrics    core.Metrics
	auth       *spotifyauth.Authenticator
	client     *spotify.Client
	httpClient *http.Client
	userID     string
	labels     *lru.Cache[string, string]
}

type TokenData struct {
	Token *oauth2.Token `json:"token"`
}

// NewClient builds an unauthenticated client requesting the given scopes.
func NewClient(config *core.SpotifyConfig, scopes []string, metrics core.Metrics, logger *zap.Logger) *Client {
	auth := spotifyauth.New(
		spotifyauth.WithRedirectURL(config.RedirectURL),
		spotifyauth.WithScopes(scopes...),
		spotifyauth.WithClientID(config.ClientID),
		spotifyauth.WithClientSecret(config.ClientSecret),
	)

	labels, _ := lru.New[string, string](albumLabelCacheSize)

	return &Client{
		config:  config,
		logger:  logger,
		metrics: metrics,
		auth:    auth,
		labels:  labels,
	}
}

// Authenticate restores a saved token or runs the OAuth flow, then
// resolves the current user's identity.
func (c *Client) Authenticate(ctx context.Context) error {
	token, err := c.loadToken()
	if err != nil {
		c.logger.Info("No saved token found, starting OAuth flow")
		return c.startOAuthFlow(ctx)
	}

	client, httpClient := c.newAPIClient(ctx, token)

	user, err := client.CurrentUser(ctx)
	if err != nil {
		c.logger.Warn("Saved token invalid, starting OAuth flow", zap.Error(err))
		return c.startOAuthFlow(ctx)
	}

	c.client = client
	c.httpClient = httpClient
	c.userID = user.ID
	c.logger.Info("Authenticated successfully", zap.String("user", user.DisplayName))
	return nil
}

// newAPIClient builds the authenticated API client. The underlying HTTP
// transport converts 429 responses into RateLimitError so the retry
// wrapper sees the Retry-After suggestion.
func (c *Client) newAPIClient(ctx context.Context, token *oauth2.Token) (*spotify.Client, *http.Client) {
	httpClient := c.auth.Client(ctx, token)
	httpClient.Transport = &rateLimitTransport{base: httpClient.Transport}
	return spotify.New(httpClient), httpClient
}

// CurrentUserID returns the authenticated user's ID.
func (c *Client) CurrentUserID() string {
	return c.userID
}

// PlaylistsPage returns one page of the current user's playlists.
func (c *Client) PlaylistsPage(ctx context.Context, offset int) ([]core.Playlist, int, error) {
	if c.client == nil {
		return nil, 0, fmt.Errorf("client not authenticated")
	}

	c.metrics.RecordAPICall("playlists")

	result, err := c.client.CurrentUsersPlaylists(ctx,
		spotify.Limit(core.PlaylistPageSize), spotify.Offset(offset))
	if err != nil {
		return nil, 0, fmt.Errorf("listing user playlists: %w", err)
	}

	playlists := make([]core.Playlist, 0, len(result.Playlists))
	for i := range result.Playlists {
		playlists = append(playlists, convertPlaylist(&result.Playlists[i]))
	}

	return playlists, int(result.Total), nil
}

// TracksPage returns one page of a playlist's track refs. Entries without
// a track object map to zero refs so callers' page arithmetic holds.
func (c *Client) TracksPage(ctx context.Context, playlistID string, offset int) ([]core.TrackRef, int, error) {
	if c.client == nil {
		return nil, 0, fmt.Errorf("client not authenticated")
	}

	c.metrics.RecordAPICall("playlist_items")

	items, err := c.client.GetPlaylistItems(ctx, spotify.ID(playlistID),
		spotify.Limit(core.TrackPageSize), spotify.Offset(offset))
	if err != nil {
		return nil, 0, fmt.Errorf("listing playlist items: %w", err)
	}

	refs := make([]core.TrackRef, 0, len(items.Items))
	for i := range items.Items {
		track := items.Items[i].Track.Track
		if track == nil {
			refs = append(refs, core.TrackRef{})
			continue
		}
		refs = append(refs, core.NewTrackRef(string(track.ID)))
	}

	return refs, int(items.Total), nil
}

// CreatePlaylist creates a private playlist owned by the current user.
func (c *Client) CreatePlaylist(ctx context.Context, name, description string) (*core.Playlist, error) {
	if c.client == nil {
		return nil, fmt.Errorf("client not authenticated")
	}

	c.metrics.RecordAPICall("create_playlist")

	playlist, err := c.client.CreatePlaylistForUser(ctx, c.userID, name, description, false, false)
	if err != nil {
		return nil, fmt.Errorf("creating playlist: %w", err)
	}

	c.logger.Info("Created playlist",
		zap.String("playlistID", string(playlist.ID)),
		zap.String("name", name))

	return &core.Playlist{
		ID:    string(playlist.ID),
		Name:  playlist.Name,
		Owner: playlist.Owner.DisplayName,
	}, nil
}

// GetTrack fetches one track's detail record.
func (c *Client) GetTrack(ctx context.Context, trackID string) (*core.Track, error) {
	if c.client == nil {
		return nil, fmt.Errorf("client not authenticated")
	}

	c.metrics.RecordAPICall("track")

	track, err := c.client.GetTrack(ctx, spotify.ID(trackID))
	if err != nil {
		return nil, fmt.Errorf("fetching track %s: %w", trackID, err)
	}

	converted := convertTrack(track)
	return &converted, nil
}

// albumEndpoint is the album detail resource. The client library's album
// type omits the label field, so the label is fetched directly.
const albumEndpoint = "https://api.spotify.com/v1/albums/"

// AlbumLabel fetches the record label of an album, caching results for
// the lifetime of the run.
func (c *Client) AlbumLabel(ctx context.Context, albumID string) (string, error) {
	if c.httpClient == nil {
		return "", fmt.Errorf("client not authenticated")
	}

	if label, ok := c.labels.Get(albumID); ok {
		return label, nil
	}

	c.metrics.RecordAPICall("album")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, albumEndpoint+albumID, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("building album request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching album %s: %w", albumID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching album %s: status %d", albumID, resp.StatusCode)
	}

	var album struct {
		Label string `json:"label"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&album); err != nil {
		return "", fmt.Errorf("decoding album %s: %w", albumID, err)
	}

	c.labels.Add(albumID, album.Label)
	return album.Label, nil
}

// AddTracks appends a batch of tracks to a playlist.
func (c *Client) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	if c.client == nil {
		return fmt.Errorf("client not authenticated")
	}
	if len(trackIDs) > core.WriteBatchSize {
		return fmt.Errorf("batch of %d exceeds add cap %d", len(trackIDs), core.WriteBatchSize)
	}

	c.metrics.RecordAPICall("add_tracks")

	ids := make([]spotify.ID, len(trackIDs))
	for i, id := range trackIDs {
		ids[i] = spotify.ID(id)
	}

	if _, err := c.client.AddTracksToPlaylist(ctx, spotify.ID(playlistID), ids...); err != nil {
		return fmt.Errorf("adding %d tracks: %w", len(ids), err)
	}

	return nil
}

// RemoveTracks removes all occurrences of a batch of tracks from a
// playlist.
func (c *Client) RemoveTracks(ctx context.Context, playlistID string, refs []core.TrackRef) error {
	if c.client == nil {
		return fmt.Errorf("client not authenticated")
	}
	if len(refs) > core.WriteBatchSize {
		return fmt.Errorf("batch of %d exceeds remove cap %d", len(refs), core.WriteBatchSize)
	}

	c.metrics.RecordAPICall("remove_tracks")

	ids := make([]spotify.ID, len(refs))
	for i, ref := range refs {
		ids[i] = spotify.ID(ref.ID)
	}

	if _, err := c.client.RemoveTracksFromPlaylist(ctx, spotify.ID(playlistID), ids...); err != nil {
		return fmt.Errorf("removing %d tracks: %w", len(ids), err)
	}

	return nil
}

func convertPlaylist(playlist *spotify.SimplePlaylist) core.Playlist {
	return core.Playlist{
		ID:         string(playlist.ID),
		Name:       playlist.Name,
		Owner:      playlist.Owner.DisplayName,
		TrackCount: int(playlist.Tracks.Total),
	}
}

func convertTrack(track *spotify.FullTrack) core.Track {
	artists := make([]string, 0, len(track.Artists))
	for _, artist := range track.Artists {
		artists = append(artists, artist.Name)
	}

	return core.Track{
		ID:          string(track.ID),
		Name:        track.Name,
		Artists:     artists,
		Album:       track.Album.Name,
		AlbumID:     string(track.Album.ID),
		AlbumType:   track.Album.AlbumType,
		ReleaseDate: track.Album.ReleaseDate,
		Duration:    time.Duration(track.Duration) * time.Millisecond,
		Popularity:  int(track.Popularity),
		PreviewURL:  track.PreviewURL,
		ExternalURL: track.ExternalURLs["spotify"],
		TrackNumber: int(track.TrackNumber),
	}
}

func (c *Client) startOAuthFlow(ctx context.Context) error {
	state := "spotsweep-auth-state"
	authURL := c.auth.AuthURL(state)

	fmt.Printf("Please visit the following URL to authorize the application:\n%s\n", authURL)
	fmt.Print("Enter the authorization code: ")

	var code string
	if _, err := fmt.Scanln(&code); err != nil {
		return fmt.Errorf("failed to read authorization code: %w", err)
	}

	token, err := c.auth.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange code for token: %w", err)
	}

	if saveErr := c.saveToken(token); saveErr != nil {
		c.logger.Warn("Failed to save token", zap.Error(saveErr))
	}

	client, httpClient := c.newAPIClient(ctx, token)

	user, err := client.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}

	c.client = client
	c.httpClient = httpClient
	c.userID = user.ID
	c.logger.Info("OAuth flow completed successfully", zap.String("user", user.DisplayName))
	return nil
}

func (c *Client) loadToken() (*oauth2.Token, error) {
	file, err := os.Open(c.config.TokenPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	var tokenData TokenData
	if err := json.Unmarshal(data, &tokenData); err != nil {
		return nil, err
	}

	return tokenData.Token, nil
}

func (c *Client) saveToken(token *oauth2.Token) error {
	tokenData := TokenData{Token: token}

	data, err := json.MarshalIndent(tokenData, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(c.config.TokenPath, data, FilePermission)
}

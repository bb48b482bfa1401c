// Package text parses user-supplied playlist references.
package text

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// SpotifyIDLength is the expected length of a Spotify playlist/track ID.
const SpotifyIDLength = 22

var (
	playlistURLRegex = regexp.MustCompile(`(?:https?://)?(?:open\.)?spotify\.com/playlist/([a-zA-Z0-9]+)`)
	playlistURIRegex = regexp.MustCompile(`^spotify:playlist:([a-zA-Z0-9]+)$`)
	bareIDRegex      = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
)

// ErrInvalidPlaylistRef reports a reference in none of the accepted forms.
var ErrInvalidPlaylistRef = errors.New(
	"invalid playlist reference: provide a Spotify URL (https://open.spotify.com/playlist/...), " +
		"a Spotify URI (spotify:playlist:...), or a bare 22-character playlist ID")

// ExtractPlaylistID pulls the playlist ID out of a web link, a
// spotify:playlist: URI, or a bare 22-character ID. Query parameters on
// links are ignored. Anything else is rejected with ErrInvalidPlaylistRef.
func ExtractPlaylistID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%w: empty input", ErrInvalidPlaylistRef)
	}

	if matches := playlistURIRegex.FindStringSubmatch(ref); len(matches) > 1 {
		return matches[1], nil
	}

	if strings.Contains(ref, "spotify.com") {
		if matches := playlistURLRegex.FindStringSubmatch(ref); len(matches) > 1 {
			return matches[1], nil
		}
		return "", fmt.Errorf("%w: no playlist ID in URL %q", ErrInvalidPlaylistRef, ref)
	}

	if len(ref) == SpotifyIDLength && bareIDRegex.MatchString(ref) {
		return ref, nil
	}

	return "", fmt.Errorf("%w: got %q", ErrInvalidPlaylistRef, ref)
}

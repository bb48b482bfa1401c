package text

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	trackURLRegex = regexp.MustCompile(`(?:https?://)?(?:open\.)?spotify\.com/track/([a-zA-Z0-9]+)`)
	trackURIRegex = regexp.MustCompile(`^spotify:track:([a-zA-Z0-9]+)$`)
)

// ErrInvalidTrackRef reports a track reference in none of the accepted forms.
var ErrInvalidTrackRef = errors.New(
	"invalid track reference: provide a Spotify URL (https://open.spotify.com/track/...), " +
		"a Spotify URI (spotify:track:...), or a bare 22-character track ID")

// ExtractTrackID pulls the track ID out of a web link, a spotify:track:
// URI, or a bare 22-character ID. Query parameters on links are ignored.
func ExtractTrackID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%w: empty input", ErrInvalidTrackRef)
	}

	if matches := trackURIRegex.FindStringSubmatch(ref); len(matches) > 1 {
		return matches[1], nil
	}

	if strings.Contains(ref, "spotify.com") {
		if matches := trackURLRegex.FindStringSubmatch(ref); len(matches) > 1 {
			return matches[1], nil
		}
		return "", fmt.Errorf("%w: no track ID in URL %q", ErrInvalidTrackRef, ref)
	}

	if len(ref) == SpotifyIDLength && bareIDRegex.MatchString(ref) {
		return ref, nil
	}

	return "", fmt.Errorf("%w: got %q", ErrInvalidTrackRef, ref)
}

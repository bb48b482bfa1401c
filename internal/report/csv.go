// Package report writes the analyze workflow's tabular snapshot.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"spotsweep/internal/core"
)

// Header is the column set of the analysis report, one row per track.
var Header = []string{
	"Track ID",
	"Track Name",
	"Artists",
	"Album",
	"Release Date",
	"Duration (ms)",
	"Duration (min)",
	"Popularity",
	"Preview URL",
	"External URL",
	"Track Number",
	"Album Type",
}

// CSVWriter renders tracks as delimited rows onto an io.Writer.
type CSVWriter struct {
	w io.Writer
}

func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: w}
}

// WriteTracks writes the header followed by one row per track.
func (c *CSVWriter) WriteTracks(tracks []core.Track) error {
	writer := csv.NewWriter(c.w)

	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	for _, track := range tracks {
		record := []string{
			track.ID,
			track.Name,
			track.ArtistLine(),
			track.Album,
			track.ReleaseDate,
			strconv.FormatInt(track.Duration.Milliseconds(), 10),
			strconv.FormatFloat(track.DurationMinutes(), 'f', 2, 64),
			strconv.Itoa(track.Popularity),
			track.PreviewURL,
			track.ExternalURL,
			strconv.Itoa(track.TrackNumber),
			track.AlbumType,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("writing CSV record for track %s: %w", track.ID, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flushing CSV: %w", err)
	}

	return nil
}

// package formatter renders track listings (discovery candidates, liked tracks) as JSON, CSV, Markdown or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/swipe/internal/models"
	"github.com/desertthunder/swipe/internal/shared"
)

// Format selects an output encoding.
type Format string

const (
	JSON     Format = "json"
	CSV      Format = "csv"
	Markdown Format = "markdown"
	Text     Format = "txt"
)

// ParseFormat accepts a format name or a file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "json":
		return JSON, nil
	case "csv":
		return CSV, nil
	case "md", "markdown":
		return Markdown, nil
	case "txt", "text", "":
		return Text, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (json, csv, markdown, txt)", shared.ErrInvalidArgument, s)
	}
}

// Listing is a titled list of tracks. PreviewURL may be empty.
type Listing struct {
	Title  string                 `json:"title"`
	Tracks []models.PlayableTrack `json:"tracks"`
}

// NewListing builds a [Listing] from tracks without previews.
func NewListing(title string, refs []models.TrackRef) *Listing {
	tracks := make([]models.PlayableTrack, len(refs))
	for i, r := range refs {
		tracks[i] = models.PlayableTrack{TrackRef: r}
	}
	return &Listing{Title: title, Tracks: tracks}
}

// Render encodes l in format f.
func Render(f Format, l *Listing) ([]byte, error) {
	switch f {
	case JSON:
		return ExportToJSON(l)
	case CSV:
		return ExportToCSV(l)
	case Markdown:
		return ExportToMarkdown(l)
	case Text:
		return ExportToText(l)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, f)
	}
}

// ExportToJSON renders l as indented JSON.
func ExportToJSON(l *Listing) ([]byte, error) {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// ExportToCSV renders l with columns: ID, Title, Artist, Album, Artwork, Preview
func ExportToCSV(l *Listing) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artist", "Album", "Artwork", "Preview"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range l.Tracks {
		record := []string{track.ID, track.Title, track.Artist, track.Album, track.ArtworkURL, track.PreviewURL}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders l as a numbered Markdown list with artwork thumbnails.
func ExportToMarkdown(l *Listing) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", l.Title)
	fmt.Fprintf(&buf, "**Tracks**: %d\n\n", len(l.Tracks))

	for i, track := range l.Tracks {
		albumPart := ""
		if track.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", track.Album)
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s\n", i+1, track.Artist, track.Title, albumPart)
		if track.ArtworkURL != "" {
			fmt.Fprintf(&buf, "   ![%s](%s)\n", track.Title, track.ArtworkURL)
		}
		if track.PreviewURL != "" {
			fmt.Fprintf(&buf, "   [Preview](%s)\n", track.PreviewURL)
		}
	}

	return buf.Bytes(), nil
}

// ExportToText renders l as plain text
func ExportToText(l *Listing) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s\n", l.Title)
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(l.Tracks))

	for i, track := range l.Tracks {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, track.Artist, track.Title)
	}

	return buf.Bytes(), nil
}

// WriteExport renders l and writes it to path. An empty format is taken from the extension.
func WriteExport(path string, f Format, l *Listing) error {
	if f == "" {
		var err error
		if f, err = ParseFormat(filepath.Ext(path)); err != nil {
			return err
		}
	}

	data, err := Render(f, l)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// package formatter exports listening history and mood collections to CSV, Markdown and plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/moodring/internal/models"
	"github.com/desertthunder/moodring/internal/shared"
)

// Supported export formats.
const (
	FormatText     = "text"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// Formats lists the accepted --format values.
func Formats() []string {
	return []string{FormatText, FormatCSV, FormatMarkdown, FormatJSON}
}

// Format renders history in the named format.
func Format(format string, history *models.RecentlyPlayed) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", FormatText, "txt":
		return ExportToText(history)
	case FormatCSV:
		return ExportToCSV(history)
	case FormatMarkdown, "md":
		return ExportToMarkdown(history, "")
	case FormatJSON:
		return shared.MarshalJSON(history, true)
	default:
		return nil, fmt.Errorf("%w: unknown format %q (want one of %s)", shared.ErrInvalidArgument, format, strings.Join(Formats(), ", "))
	}
}

func playedAt(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// ExportToCSV writes one row per play with columns: Played At, Title, Artists, Album, Duration, URI
func ExportToCSV(history *models.RecentlyPlayed) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Played At", "Title", "Artists", "Album", "Duration", "URI"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, item := range history.Items {
		record := []string{
			playedAt(item.PlayedAt),
			item.Track.Name,
			item.Track.ArtistNames(),
			item.Track.Album.Name,
			strconv.Itoa(item.Track.DurationMs),
			item.Track.URI,
		}
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

// ExportToMarkdown renders history as a numbered Markdown list with an optional cover image
func ExportToMarkdown(history *models.RecentlyPlayed, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Recently Played\n\n")

	if imageFilename != "" {
		buf.WriteString(fmt.Sprintf("![Cover](%s)\n\n", imageFilename))
	}

	buf.WriteString(fmt.Sprintf("**Plays**: %d\n", len(history.Items)))
	if n := len(history.Items); n > 0 {
		buf.WriteString(fmt.Sprintf("**Latest**: %s\n", playedAt(history.Items[0].PlayedAt)))
	}
	buf.WriteString("\n## Tracks\n\n")

	for i, item := range history.Items {
		duration := shared.FormatDuration(item.Track.DurationMs)
		albumPart := ""
		if item.Track.Album.Name != "" {
			albumPart = fmt.Sprintf(" (%s)", item.Track.Album.Name)
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s [%s]\n", i+1, item.Track.ArtistNames(), item.Track.Name, albumPart, duration))
	}

	return buf.Bytes(), nil
}

// ExportToText renders history as plain text
func ExportToText(history *models.RecentlyPlayed) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Recently played: %d tracks\n\n", len(history.Items)))

	for i, item := range history.Items {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, item.Track.ArtistNames(), item.Track.Name))
	}

	return buf.Bytes(), nil
}

// CollectionsToMarkdown renders mood collections with their sample songs
func CollectionsToMarkdown(collections []models.Collection) []byte {
	var buf bytes.Buffer

	buf.WriteString("# Collections\n\n")
	for _, c := range collections {
		buf.WriteString(fmt.Sprintf("## %s\n\n", c.Name))
		buf.WriteString(fmt.Sprintf("**Mood**: %s | **Songs**: %d | **Updated**: %s\n\n", c.Mood, c.SongCount, c.LastUpdated))
		for _, s := range c.Songs {
			buf.WriteString(fmt.Sprintf("- %s - %s\n", s.Artist, s.Title))
		}
		buf.WriteString("\n")
	}
	return buf.Bytes()
}

// CoverURL returns the largest album image of the most recent play, or "".
func CoverURL(history *models.RecentlyPlayed) string {
	if len(history.Items) == 0 {
		return ""
	}
	best := models.Image{}
	for _, img := range history.Items[0].Track.Album.Images {
		if img.Width >= best.Width {
			best = img
		}
	}
	return best.URL
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
}

// WriteMarkdownExport writes {dir}/README.md and, when the latest play has album art, {dir}/cover.jpg.
//
// A failed cover download is reported through warn and does not fail the export.
func WriteMarkdownExport(history *models.RecentlyPlayed, outputDir string, warn func(error)) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = "recently-played"
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	var coverImageFilename string
	if imageURL := CoverURL(history); imageURL != "" {
		imageData, err := DownloadImage(imageURL)
		if err != nil {
			if warn != nil {
				warn(err)
			}
		} else {
			coverImageFilename = "cover.jpg"
			coverImagePath := filepath.Join(outputDir, coverImageFilename)
			if err := os.WriteFile(coverImagePath, imageData, 0644); err != nil {
				if warn != nil {
					warn(err)
				}
				coverImageFilename = ""
			} else {
				result.CoverImage = coverImagePath
				result.Files = append(result.Files, coverImagePath)
			}
		}
	}

	mdData, err := ExportToMarkdown(history, coverImageFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)

	return result, nil
}

// WriteExport renders history in format and writes it to path.
func WriteExport(format string, history *models.RecentlyPlayed, path string) error {
	data, err := Format(format, history)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s export: %w", format, err)
	}
	return nil
}

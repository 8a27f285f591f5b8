// package formatter exports batch resolution reports to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/rowanvale/tracklink/internal/models"
)

// ResolutionReport pairs a resolved batch with the inputs that produced it.
type ResolutionReport struct {
	Name    string
	Inputs  []models.Metadata
	Results []models.ResolvedTrack
}

// Resolved counts the entries that matched anywhere.
func (r *ResolutionReport) Resolved() int {
	n := 0
	for _, result := range r.Results {
		if result.Resolved() {
			n++
		}
	}
	return n
}

// Duplicates counts the entries suppressed as duplicate local claims.
func (r *ResolutionReport) Duplicates() int {
	n := 0
	for _, result := range r.Results {
		if result.Duplicate {
			n++
		}
	}
	return n
}

// trackID returns the resolved reference of one entry, empty when unresolved.
func trackID(result models.ResolvedTrack) string {
	switch result.Source {
	case models.ResolvedLocal:
		return result.LocalTrackID
	case models.ResolvedTidal:
		return result.TidalTrackID
	case models.ResolvedYouTube:
		return result.YouTubeTrackID
	}
	return ""
}

// ExportToCSV converts a report to CSV format with columns: Index, Title, Artist, Source, Confidence, TrackID, Duplicate
func ExportToCSV(report *ResolutionReport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Index", "Title", "Artist", "Source", "Confidence", "TrackID", "Duplicate"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, result := range report.Results {
		input := models.Metadata{}
		if i < len(report.Inputs) {
			input = report.Inputs[i]
		}

		record := []string{
			strconv.Itoa(result.Index),
			input.Title,
			input.Artist,
			string(result.Source),
			strconv.Itoa(result.Confidence),
			trackID(result),
			strconv.FormatBool(result.Duplicate),
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

// ExportToMarkdown converts a report to Markdown format
func ExportToMarkdown(report *ResolutionReport) ([]byte, error) {
	var buf bytes.Buffer

	name := report.Name
	if name == "" {
		name = "Resolution Report"
	}
	buf.WriteString(fmt.Sprintf("# %s\n\n", name))

	buf.WriteString(fmt.Sprintf("**Inputs**: %d\n", len(report.Results)))
	buf.WriteString(fmt.Sprintf("**Resolved**: %d\n", report.Resolved()))
	buf.WriteString(fmt.Sprintf("**Duplicates**: %d\n\n", report.Duplicates()))

	buf.WriteString("## Entries\n\n")
	buf.WriteString("| # | Title | Artist | Source | Confidence |\n")
	buf.WriteString("|---|-------|--------|--------|------------|\n")
	for i, result := range report.Results {
		input := models.Metadata{}
		if i < len(report.Inputs) {
			input = report.Inputs[i]
		}

		source := string(result.Source)
		if result.Duplicate {
			source = fmt.Sprintf("duplicate of #%d", result.DuplicateOf+1)
		}
		buf.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %d |\n", i+1, input.Title, input.Artist, source, result.Confidence))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a report to plain text format
func ExportToText(report *ResolutionReport) ([]byte, error) {
	var buf bytes.Buffer

	if report.Name != "" {
		buf.WriteString(fmt.Sprintf("Batch: %s\n", report.Name))
	}
	buf.WriteString(fmt.Sprintf("Inputs: %d\n", len(report.Results)))
	buf.WriteString(fmt.Sprintf("Resolved: %d\n\n", report.Resolved()))

	for i, result := range report.Results {
		input := models.Metadata{}
		if i < len(report.Inputs) {
			input = report.Inputs[i]
		}

		status := string(result.Source)
		if result.Duplicate {
			status = fmt.Sprintf("duplicate of %d", result.DuplicateOf+1)
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s [%s]\n", i+1, input.Artist, input.Title, status))
	}

	return buf.Bytes(), nil
}

// WriteCSVExport writes a report to {base}.csv.
//
// Defaults to the report name as the base filename.
func WriteCSVExport(report *ResolutionReport, baseFilepath string) (string, error) {
	if baseFilepath == "" {
		baseFilepath = report.Name
	}
	if baseFilepath == "" {
		baseFilepath = "resolution"
	}

	csvData, err := ExportToCSV(report)
	if err != nil {
		return "", fmt.Errorf("failed to generate CSV: %w", err)
	}

	csvFile := baseFilepath + ".csv"
	if err := os.WriteFile(csvFile, csvData, 0644); err != nil {
		return "", fmt.Errorf("failed to write CSV file: %w", err)
	}

	return csvFile, nil
}

// WriteMarkdownExport writes a report to {base}.md.
func WriteMarkdownExport(report *ResolutionReport, baseFilepath string) (string, error) {
	if baseFilepath == "" {
		baseFilepath = report.Name
	}
	if baseFilepath == "" {
		baseFilepath = "resolution"
	}

	mdData, err := ExportToMarkdown(report)
	if err != nil {
		return "", fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := baseFilepath + ".md"
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return "", fmt.Errorf("failed to write Markdown file: %w", err)
	}

	return mdFile, nil
}

// WriteTextExport writes a report to {base}.txt.
func WriteTextExport(report *ResolutionReport, baseFilepath string) (string, error) {
	if baseFilepath == "" {
		baseFilepath = report.Name
	}
	if baseFilepath == "" {
		baseFilepath = "resolution"
	}

	textData, err := ExportToText(report)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	textFile := baseFilepath + ".txt"
	if err := os.WriteFile(textFile, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return textFile, nil
}

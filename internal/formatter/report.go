package formatter

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/visheshvs/nexportify/internal/models"
	"github.com/visheshvs/nexportify/internal/shared"
)

// ReportMode selects how much detail the HTML report includes.
type ReportMode int

const (
	// SimpleReport renders summary stats and the basic track table.
	SimpleReport ReportMode = iota
	// FullReport additionally renders feature averages, genres, labels, and
	// per-track feature columns.
	FullReport
)

//go:embed report.html.tmpl
var reportTemplateSource string

var reportTemplate = template.Must(template.New("report").Parse(reportTemplateSource))

// reportRow is one table row of the rendered report.
type reportRow struct {
	TrackName    string
	Artists      string
	AlbumName    string
	ReleaseDate  string
	DurationMS   int
	Duration     string
	Popularity   int
	Genres       string
	RecordLabel  string
	Danceability string
	Energy       string
	Valence      string
	Tempo        string
}

// reportData is the root object the embedded template renders.
type reportData struct {
	Playlist      models.Playlist
	Summary       Summary
	Rows          []reportRow
	Full          bool
	TotalDuration string
	GeneratedAt   string
}

// BuildHTMLReport renders rows into a self-contained HTML document with
// summary statistics, top lists, and a sortable/filterable track table.
func BuildHTMLReport(playlist models.Playlist, rows []models.ExportRow, mode ReportMode, w io.Writer) error {
	summary := Summarize(rows)

	data := reportData{
		Playlist:      playlist,
		Summary:       summary,
		Rows:          make([]reportRow, 0, len(rows)),
		Full:          mode == FullReport,
		TotalDuration: shared.FormatDuration(summary.TotalDurationMS),
		GeneratedAt:   time.Now().Format("2006-01-02 15:04"),
	}
	for _, row := range rows {
		data.Rows = append(data.Rows, toReportRow(row))
	}

	if err := reportTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

// WriteHTMLReport renders rows from an export and writes the document to path.
// Path defaults to {playlist.ID}_report.html.
func WriteHTMLReport(export *models.Export, mode ReportMode, path string) error {
	if path == "" {
		path = export.Playlist.ID + "_report.html"
	}

	var buf bytes.Buffer
	if err := BuildHTMLReport(export.Playlist, export.Rows, mode, &buf); err != nil {
		return err
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	return nil
}

func toReportRow(row models.ExportRow) reportRow {
	r := reportRow{
		TrackName:   row.TrackName,
		Artists:     strings.Join(row.ArtistNames, "; "),
		AlbumName:   row.AlbumName,
		ReleaseDate: row.ReleaseDate,
		DurationMS:  row.DurationMS,
		Duration:    shared.FormatDuration(row.DurationMS),
		Popularity:  row.Popularity,
		Genres:      row.Genres,
		RecordLabel: row.RecordLabel,
	}
	if f := row.Features; f != nil {
		r.Danceability = strconv.FormatFloat(f.Danceability, 'f', 2, 64)
		r.Energy = strconv.FormatFloat(f.Energy, 'f', 2, 64)
		r.Valence = strconv.FormatFloat(f.Valence, 'f', 2, 64)
		r.Tempo = strconv.FormatFloat(f.Tempo, 'f', 1, 64)
	}
	return r
}

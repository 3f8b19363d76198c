package tasks

import (
	"context"
	"fmt"

	"github.com/visheshvs/nexportify/internal/formatter"
	"github.com/visheshvs/nexportify/internal/models"
)

// ExportCSV aggregates one playlist and writes the CSV document pair
// ({base}_tracks.csv, {base}_metadata.json).
func (e *Engine) ExportCSV(
	ctx context.Context,
	progress chan<- ProgressUpdate,
	playlist models.Playlist,
	baseFilepath string,
) (*formatter.CSVExportResult, error) {
	rows, err := e.BuildRows(ctx, playlist, progress)
	if err != nil {
		return nil, err
	}

	e.sendProgress(progress, assembleUpdate(playlist.Name, len(rows)))

	export := &models.Export{Playlist: playlist, Rows: rows}
	result, err := formatter.WriteCSVExport(export, baseFilepath)
	if err != nil {
		return nil, fmt.Errorf("failed to export %s: %w", playlist.Name, err)
	}
	return result, nil
}

// ExportReport aggregates one playlist and writes a self-contained HTML
// report to path.
func (e *Engine) ExportReport(
	ctx context.Context,
	progress chan<- ProgressUpdate,
	playlist models.Playlist,
	mode formatter.ReportMode,
	path string,
) error {
	rows, err := e.BuildRows(ctx, playlist, progress)
	if err != nil {
		return err
	}

	e.sendProgress(progress, assembleUpdate(playlist.Name, len(rows)))

	export := &models.Export{Playlist: playlist, Rows: rows}
	return formatter.WriteHTMLReport(export, mode, path)
}

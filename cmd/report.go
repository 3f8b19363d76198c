package main

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"github.com/visheshvs/nexportify/internal/formatter"
	"github.com/visheshvs/nexportify/internal/models"
	"github.com/visheshvs/nexportify/internal/shared"
)

// Report renders an interactive HTML report for a playlist, either by
// aggregating it live or from a previously exported CSV.
func (r *Runner) Report(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.String("id")
	csvPath := cmd.String("from-csv")
	outPath := cmd.String("out")

	mode := formatter.FullReport
	if cmd.Bool("simple") {
		mode = formatter.SimpleReport
	}

	if playlistID == "" && csvPath == "" {
		return fmt.Errorf("%w: one of --id or --from-csv is required", shared.ErrMissingArgument)
	}
	if playlistID != "" && csvPath != "" {
		return fmt.Errorf("%w: --id and --from-csv are mutually exclusive", shared.ErrInvalidArgument)
	}

	if csvPath != "" {
		return r.reportFromCSV(csvPath, outPath, mode)
	}

	engine, err := r.engine()
	if err != nil {
		return err
	}

	playlists, err := engine.EnumeratePlaylists(ctx)
	if err != nil {
		return err
	}

	target, err := findPlaylist(playlists, playlistID, false)
	if err != nil {
		return err
	}

	if outPath == "" {
		outPath = target.ID + "_report.html"
	}

	progress, done := r.printProgress()
	err = engine.ExportReport(ctx, progress, target, mode, outPath)
	close(progress)
	<-done

	if err != nil {
		return err
	}

	return r.writePlainln("✓ Report written to %s", outPath)
}

// reportFromCSV rebuilds the report from an exported tracks CSV without
// touching the API.
func (r *Runner) reportFromCSV(csvPath, outPath string, mode formatter.ReportMode) error {
	data, err := os.ReadFile(csvPath)
	if err != nil {
		return fmt.Errorf("failed to read CSV: %w", err)
	}

	rows, err := formatter.ParseCSV(data)
	if err != nil {
		return err
	}

	if outPath == "" {
		outPath = csvPath + "_report.html"
	}

	playlist := models.Playlist{Name: csvPath, TrackCount: len(rows)}

	var buf bytes.Buffer
	if err := formatter.BuildHTMLReport(playlist, rows, mode, &buf); err != nil {
		return err
	}
	if err := os.WriteFile(outPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return r.writePlainln("✓ Report written to %s", outPath)
}

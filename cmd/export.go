package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"
	"github.com/visheshvs/nexportify/internal/formatter"
	"github.com/visheshvs/nexportify/internal/models"
	"github.com/visheshvs/nexportify/internal/shared"
	"github.com/visheshvs/nexportify/internal/tasks"
	"github.com/visheshvs/nexportify/internal/ui"
)

// Playlists lists the user's playlists with the synthetic Liked Songs entry first.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	engine, err := r.engine()
	if err != nil {
		return err
	}

	r.logger.Info("enumerating playlists")

	playlists, err := engine.EnumeratePlaylists(ctx)
	if err != nil {
		return err
	}

	if limit > 0 && limit < len(playlists) {
		playlists = playlists[:limit]
	}

	if useJSON {
		return r.writeJSON(playlists, pretty)
	}

	r.writePlain("Found %d playlists:\n\n", len(playlists))
	for i, p := range playlists {
		r.writePlain("%d. %s\n", i+1, p.Name)
		r.writePlain("   ID: %s\n", p.ID)
		r.writePlain("   Tracks: %d\n", p.TrackCount)
		if p.Owner != "" {
			r.writePlain("   Owner: %s\n", p.Owner)
		}
		r.writePlain("\n")
	}

	return nil
}

// Export exports one or more playlists as CSV document pairs or HTML reports.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.String("id")
	liked := cmd.Bool("liked")
	all := cmd.Bool("all")
	pick := cmd.Bool("pick")
	outDir := cmd.String("out")
	format := cmd.String("format")

	if format != "csv" && format != "report" {
		return fmt.Errorf("%w: unknown format %q (want csv or report)", shared.ErrInvalidArgument, format)
	}

	selectors := 0
	for _, set := range []bool{playlistID != "", liked, all, pick} {
		if set {
			selectors++
		}
	}
	if selectors == 0 {
		return fmt.Errorf("%w: one of --id, --liked, --all or --pick is required", shared.ErrMissingArgument)
	}
	if selectors > 1 {
		return fmt.Errorf("%w: --id, --liked, --all and --pick are mutually exclusive", shared.ErrInvalidArgument)
	}

	opts := tasks.BulkExportOpts{
		Format:     format,
		OutputDir:  outDir,
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate"),
	}

	if pick {
		return r.exportInteractive(ctx, opts)
	}

	engine, err := r.engine()
	if err != nil {
		return err
	}

	playlists, err := engine.EnumeratePlaylists(ctx)
	if err != nil {
		return err
	}

	if all {
		return r.exportBulk(ctx, engine, playlists, opts)
	}

	target, err := findPlaylist(playlists, playlistID, liked)
	if err != nil {
		return err
	}
	return r.exportSingle(ctx, engine, target, outDir, format)
}

// exportSingle aggregates and writes one playlist, printing progress as it goes.
func (r *Runner) exportSingle(
	ctx context.Context,
	engine *tasks.Engine,
	playlist models.Playlist,
	outDir, format string,
) error {
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	progress, done := r.printProgress()

	var files []string
	var err error
	if format == "report" {
		path := filepath.Join(outDir, playlist.ID+"_report.html")
		if err = engine.ExportReport(ctx, progress, playlist, formatter.FullReport, path); err == nil {
			files = []string{path}
		}
	} else {
		var result *formatter.CSVExportResult
		if result, err = engine.ExportCSV(ctx, progress, playlist, filepath.Join(outDir, playlist.ID)); err == nil {
			files = []string{result.TracksFile, result.MetadataFile}
		}
	}

	close(progress)
	<-done

	if err != nil {
		return err
	}

	r.writePlainln("✓ Exported %q", playlist.Name)
	for _, f := range files {
		r.writePlain("  %s\n", f)
	}
	return nil
}

// exportBulk aggregates and writes every playlist through the worker pool.
func (r *Runner) exportBulk(
	ctx context.Context,
	engine *tasks.Engine,
	playlists []models.Playlist,
	opts tasks.BulkExportOpts,
) error {
	progress, done := r.printProgress()

	result, err := engine.BulkExport(ctx, progress, playlists, opts)

	close(progress)
	<-done

	if err != nil {
		return err
	}

	r.writePlainln("✓ Exported %d/%d playlists to %s",
		result.SuccessfulExports, result.TotalPlaylists, result.OutputDirectory)
	if result.FailedExports > 0 {
		r.writePlain("✗ %d playlists failed, see %s\n", result.FailedExports, result.ManifestPath)
	}
	return nil
}

// exportInteractive launches the terminal UI for playlist selection and export.
func (r *Runner) exportInteractive(ctx context.Context, opts tasks.BulkExportOpts) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/nexportify-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	engine, err := r.engine()
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, engine, opts)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	if err := model.Err(); err != nil {
		return err
	}

	if result := model.Result(); result != nil {
		r.writePlainln("✓ Exported %d/%d playlists to %s",
			result.SuccessfulExports, result.TotalPlaylists, result.OutputDirectory)
	}
	return nil
}

// printProgress starts a goroutine that prints progress updates to the
// runner's output. Close the returned channel and receive from done to drain.
func (r *Runner) printProgress() (chan tasks.ProgressUpdate, <-chan struct{}) {
	progress := make(chan tasks.ProgressUpdate, 64)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for update := range progress {
			r.writePlain("%s\n", update.Message)
		}
	}()

	return progress, done
}

// findPlaylist resolves the export target from the enumerated playlists.
func findPlaylist(playlists []models.Playlist, id string, liked bool) (models.Playlist, error) {
	if liked {
		id = models.LikedSongsID
	}
	for _, p := range playlists {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Playlist{}, fmt.Errorf("%w: %q", shared.ErrPlaylistNotFound, id)
}

package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/visheshvs/nexportify/internal/formatter"
	"github.com/visheshvs/nexportify/internal/models"
	"golang.org/x/time/rate"
)

// BulkExportOpts contains configuration for bulk playlist exports.
type BulkExportOpts struct {
	Format     string  // Export format: csv or report
	OutputDir  string  // Base output directory (default: spotify_export_{epoch})
	NumWorkers int     // Concurrent document writers (default: 3)
	RateLimit  float64 // Playlist aggregations started per second (default: 5)
}

// PlaylistExportJob carries one aggregated playlist to a writer worker.
type PlaylistExportJob struct {
	Playlist models.Playlist
	Rows     []models.ExportRow
}

// PlaylistExportResult records the outcome for one playlist.
type PlaylistExportResult struct {
	PlaylistID   string   `json:"playlist_id"`
	PlaylistName string   `json:"playlist_name"`
	Success      bool     `json:"success"`
	Files        []string `json:"files,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// BulkExportResult summarizes a bulk export run.
type BulkExportResult struct {
	TotalPlaylists    int                    `json:"total_playlists"`
	SuccessfulExports int                    `json:"successful_exports"`
	FailedExports     int                    `json:"failed_exports"`
	OutputDirectory   string                 `json:"output_directory"`
	ManifestPath      string                 `json:"manifest_path,omitempty"`
	Results           []PlaylistExportResult `json:"results"`
}

// BulkExport aggregates and exports multiple playlists with rate limiting and
// per-playlist failure isolation: one playlist's aggregation failure is
// recorded and reported individually while the remaining playlists proceed,
// and the run still produces documents for the ones that succeeded.
func (e *Engine) BulkExport(
	ctx context.Context,
	progress chan<- ProgressUpdate,
	playlists []models.Playlist,
	opts BulkExportOpts,
) (*BulkExportResult, error) {
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("spotify_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 3
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		TotalPlaylists:  len(playlists),
		OutputDirectory: opts.OutputDir,
		Results:         make([]PlaylistExportResult, 0, len(playlists)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan PlaylistExportJob, len(playlists))
	results := make(chan PlaylistExportResult, len(playlists))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for i, playlist := range playlists {
			select {
			case <-ctx.Done():
				return
			default:
			}

			if err := limiter.Wait(ctx); err != nil {
				return
			}

			e.sendProgress(progress, exportingPlaylistUpdate(i+1, len(playlists), playlist.Name))

			rows, err := e.BuildRows(ctx, playlist, progress)
			if err != nil {
				results <- PlaylistExportResult{
					PlaylistID:   playlist.ID,
					PlaylistName: playlist.Name,
					Success:      false,
					Error:        err.Error(),
				}
				continue
			}

			jobs <- PlaylistExportJob{Playlist: playlist, Rows: rows}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(progress, exportCompletedUpdate(completed, len(playlists), res.PlaylistName, len(res.Files)))
		} else {
			result.FailedExports++
			e.sendProgress(progress, exportFailedUpdate(completed, len(playlists), res.PlaylistName, fmt.Errorf("%s", res.Error)))
		}
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// exportWorker writes documents for aggregated playlists from the jobs channel.
func (e *Engine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan PlaylistExportJob,
	results chan<- PlaylistExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		results <- writePlaylistExport(job, opts)
	}
}

// writePlaylistExport writes a single aggregated playlist in the requested format.
func writePlaylistExport(job PlaylistExportJob, opts BulkExportOpts) PlaylistExportResult {
	result := PlaylistExportResult{
		PlaylistID:   job.Playlist.ID,
		PlaylistName: job.Playlist.Name,
	}

	export := &models.Export{Playlist: job.Playlist, Rows: job.Rows}

	switch opts.Format {
	case "report":
		reportPath := filepath.Join(opts.OutputDir, job.Playlist.ID+"_report.html")
		if err := formatter.WriteHTMLReport(export, formatter.FullReport, reportPath); err != nil {
			result.Error = fmt.Sprintf("report export failed: %v", err)
			return result
		}
		result.Files = []string{reportPath}
		result.Success = true

	case "csv":
		fallthrough
	default:
		baseFilepath := filepath.Join(opts.OutputDir, job.Playlist.ID)
		csvRes, err := formatter.WriteCSVExport(export, baseFilepath)
		if err != nil {
			result.Error = fmt.Sprintf("CSV export failed: %v", err)
			return result
		}
		result.Files = []string{csvRes.TracksFile, csvRes.MetadataFile}
		result.Success = true
	}
	return result
}

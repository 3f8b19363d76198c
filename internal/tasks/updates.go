package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
}

// Operation phase enumeration
type Phase int

const (
	Enumerate Phase = iota
	TrackWave
	GenreWave
	LabelWave
	FeatureWave
	Assemble
	ExportPlaylist
)

func (p Phase) String() string {
	switch p {
	case Enumerate:
		return "enumerate"
	case TrackWave:
		return "track_wave"
	case GenreWave:
		return "genre_wave"
	case LabelWave:
		return "label_wave"
	case FeatureWave:
		return "feature_wave"
	case Assemble:
		return "assemble"
	case ExportPlaylist:
		return "export_playlist"
	default:
		return ""
	}
}

func waveUpdate(phase Phase, playlist string, requests int) ProgressUpdate {
	var what string
	switch phase {
	case TrackWave:
		what = "track pages"
	case GenreWave:
		what = "artist chunks"
	case LabelWave:
		what = "album chunks"
	case FeatureWave:
		what = "feature batches"
	}
	return ProgressUpdate{
		Phase:   phase,
		Total:   requests,
		Message: fmt.Sprintf("%s: fetching %d %s...", playlist, requests, what),
	}
}

func assembleUpdate(playlist string, rows int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Assemble,
		Total:   rows,
		Message: fmt.Sprintf("%s: assembling %d rows...", playlist, rows),
	}
}

func exportingPlaylistUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Exporting: %s...", step, total, name),
	}
}

func exportCompletedUpdate(step, total int, name string, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, name, filesCount),
	}
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}

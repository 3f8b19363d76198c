package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/visheshvs/nexportify/internal/models"
)

var _ list.Item = playlistItem{}

// playlistItem wraps [models.Playlist] to implement [list.Item], carrying the
// export-selection mark.
type playlistItem struct {
	playlist models.Playlist
	selected bool
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }

func (i playlistItem) Title() string {
	mark := "[ ]"
	if i.selected {
		mark = "[✓]"
	}
	return fmt.Sprintf("%s %s", mark, i.playlist.Name)
}

func (i playlistItem) Description() string {
	desc := fmt.Sprintf("%d tracks", i.playlist.TrackCount)
	if i.playlist.Owner != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.playlist.Owner)
	}
	return desc
}

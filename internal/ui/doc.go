// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI drives the pick-and-export workflow:
//  1. [PickView] : Browse playlists and toggle which ones to export
//  2. [ConfirmView] : Confirm the selection
//  3. [ExportView] : Monitor real-time aggregation and export progress
//  4. [ResultView] : Display per-playlist outcomes
//
// The [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the export engine, providing
// non-blocking status reporting during the waves.
//
// Keyboard navigation uses vim-style bindings (j/k, space, enter, esc, y/n, q)
// with contextual help displayed via charmbracelet/bubbles/help.
package ui

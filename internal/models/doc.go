// Package models defines the entities that flow through the aggregation pipeline.
//
// The lifecycle is deliberately short: every entity except the session is
// created fresh per export operation and discarded once the document is
// produced.
//
//   - [Playlist] : playlist metadata, including the synthetic liked-songs entry
//   - [TrackEntry] : one playlist membership record from a tracks page
//   - [AudioFeatures] : the ordered 12-tuple from the audio-features resource
//   - [TrackBatch] : one page's rows paired with their feature results, the
//     unit of positional alignment between the track and feature waves
//   - [ExportRow] : the denormalized row matching the CSV header
//   - [Export] : playlist plus rows, consumed by the formatter
package models

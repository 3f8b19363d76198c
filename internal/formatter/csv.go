// package formatter assembles aggregated playlist rows into export documents
// (CSV and self-contained HTML reports) and parses them back.
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/visheshvs/nexportify/internal/models"
	"github.com/visheshvs/nexportify/internal/shared"
)

// utf8BOM prefixes CSV output so spreadsheet applications detect the encoding.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// csvHeader is the fixed 24-column header every exported CSV carries.
var csvHeader = []string{
	"Track URI", "Track Name", "Album Name", "Artist Name(s)",
	"Release Date", "Duration (ms)", "Popularity", "Explicit",
	"Added By", "Added At", "Genres", "Record Label",
	"Danceability", "Energy", "Key", "Loudness", "Mode",
	"Speechiness", "Acousticness", "Instrumentalness",
	"Liveness", "Valence", "Tempo", "Time Signature",
}

// BuildCSV converts export rows to a CSV document with a UTF-8 BOM and the
// fixed 24-column header. Artist names within a row are semicolon separated;
// feature columns are blank when the row carries no audio features.
func BuildCSV(rows []models.ExportRow) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	writer := csv.NewWriter(&buf)
	if err := writer.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range rows {
		if err := writer.Write(csvRecord(row)); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

func csvRecord(row models.ExportRow) []string {
	record := []string{
		row.TrackURI,
		row.TrackName,
		row.AlbumName,
		strings.Join(row.ArtistNames, ";"),
		row.ReleaseDate,
		strconv.Itoa(row.DurationMS),
		strconv.Itoa(row.Popularity),
		strconv.FormatBool(row.Explicit),
		row.AddedBy,
		row.AddedAt,
		row.Genres,
		row.RecordLabel,
	}

	if f := row.Features; f != nil {
		record = append(record,
			formatFloat(f.Danceability),
			formatFloat(f.Energy),
			strconv.Itoa(f.Key),
			formatFloat(f.Loudness),
			strconv.Itoa(f.Mode),
			formatFloat(f.Speechiness),
			formatFloat(f.Acousticness),
			formatFloat(f.Instrumentalness),
			formatFloat(f.Liveness),
			formatFloat(f.Valence),
			formatFloat(f.Tempo),
			strconv.Itoa(f.TimeSignature),
		)
	} else {
		record = append(record, make([]string, 12)...)
	}

	return record
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ParseCSV reads a CSV document produced by BuildCSV back into export rows.
// The BOM is optional; the header row must match the export header.
func ParseCSV(data []byte) ([]models.ExportRow, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = len(csvHeader)

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("CSV document has no header row")
	}
	for i, name := range csvHeader {
		if records[0][i] != name {
			return nil, fmt.Errorf("unexpected CSV column %d: got %q, want %q", i, records[0][i], name)
		}
	}

	rows := make([]models.ExportRow, 0, len(records)-1)
	for i, record := range records[1:] {
		row, err := rowFromRecord(record)
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV row %d: %w", i+1, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func rowFromRecord(record []string) (models.ExportRow, error) {
	duration, err := strconv.Atoi(record[5])
	if err != nil {
		return models.ExportRow{}, fmt.Errorf("duration: %w", err)
	}
	popularity, err := strconv.Atoi(record[6])
	if err != nil {
		return models.ExportRow{}, fmt.Errorf("popularity: %w", err)
	}
	explicit, err := strconv.ParseBool(record[7])
	if err != nil {
		return models.ExportRow{}, fmt.Errorf("explicit: %w", err)
	}

	var artists []string
	if record[3] != "" {
		artists = strings.Split(record[3], ";")
	}

	row := models.ExportRow{
		TrackURI:    record[0],
		TrackName:   record[1],
		AlbumName:   record[2],
		ArtistNames: artists,
		ReleaseDate: record[4],
		DurationMS:  duration,
		Popularity:  popularity,
		Explicit:    explicit,
		AddedBy:     record[8],
		AddedAt:     record[9],
		Genres:      record[10],
		RecordLabel: record[11],
	}

	if record[12] != "" {
		features, err := featuresFromRecord(record)
		if err != nil {
			return models.ExportRow{}, err
		}
		row.Features = features
	}
	return row, nil
}

func featuresFromRecord(record []string) (*models.AudioFeatures, error) {
	floats := make([]float64, 12)
	for i, field := range record[12:24] {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("feature column %q: %w", csvHeader[12+i], err)
		}
		floats[i] = v
	}
	return &models.AudioFeatures{
		Danceability:     floats[0],
		Energy:           floats[1],
		Key:              int(floats[2]),
		Loudness:         floats[3],
		Mode:             int(floats[4]),
		Speechiness:      floats[5],
		Acousticness:     floats[6],
		Instrumentalness: floats[7],
		Liveness:         floats[8],
		Valence:          floats[9],
		Tempo:            floats[10],
		TimeSignature:    int(floats[11]),
	}, nil
}

// ToMetadataJSON generates a JSON representation of playlist metadata (without tracks)
func ToMetadataJSON(playlist models.Playlist) ([]byte, error) {
	return shared.MarshalJSON(playlist, true)
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	TracksFile   string
	MetadataFile string
}

// WriteCSVExport exports a playlist to CSV format with accompanying metadata JSON file.
//
// Defaults to playlist ID as the base filename & creates {base}_tracks.csv and {base}_metadata.json
func WriteCSVExport(export *models.Export, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = export.Playlist.ID
	}

	csvData, err := BuildCSV(export.Rows)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	tracksFile := baseFilepath + "_tracks.csv"
	if err := os.WriteFile(tracksFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(export.Playlist)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		TracksFile:   tracksFile,
		MetadataFile: metadataFile,
	}, nil
}

// WriteManifest serializes a bulk export summary to a JSON file.
func WriteManifest(manifest any, path string) error {
	data, err := shared.MarshalJSON(manifest, true)
	if err != nil {
		return fmt.Errorf("failed to generate manifest JSON: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest file: %w", err)
	}
	return nil
}

package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/orrery/internal/dynamo"
)

type ExportTrack struct {
	Body    dynamo.BodyID `json:"body"`
	Samples []Sample      `json:"samples"`
}

type ExportData struct {
	Meta   RunMetadata   `json:"meta"`
	Tracks []ExportTrack `json:"tracks"`
}

// Export reads a stored run into a single document.
func (s *Store) Export(runID string) (*ExportData, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	tracks, err := s.LoadTracks(runID)
	if err != nil {
		return nil, err
	}

	data := &ExportData{Meta: *meta}
	for _, id := range meta.Bodies {
		data.Tracks = append(data.Tracks, ExportTrack{Body: id, Samples: tracks[id]})
	}
	return data, nil
}

// ExportJSON writes a stored run as indented JSON to w.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	data, err := s.Export(runID)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportJSONFile is ExportJSON to a file path.
func (s *Store) ExportJSONFile(path, runID string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return s.ExportJSON(file, runID)
}

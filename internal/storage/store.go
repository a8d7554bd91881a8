// Package storage writes recorded runs to disk and reads them back for
// plotting and export. A run is a directory holding metadata.json and
// states.csv.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/orrery/internal/dynamo"
)

var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID         string             `json:"id"`
	Catalog    string             `json:"catalog"`
	Epoch      string             `json:"epoch"`
	Timestamp  time.Time          `json:"timestamp"`
	Integrator string             `json:"integrator"`
	Precision  uint               `json:"precision"`
	MaxStep    float64            `json:"max_step"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Frames     int                `json:"frames"`
	Bodies     []dynamo.BodyID    `json:"bodies"`
	Rejected   map[string]string  `json:"rejected,omitempty"`
	Metrics    map[string]float64 `json:"metrics"`
}

var csvHeader = []string{"time", "body", "x", "y", "z", "vx", "vy", "vz", "phase"}

// Save writes the recorder's frames under a new run directory and returns
// the run id. ID, Timestamp, Frames and Bodies are filled in from rec.
func (s *Store) Save(meta RunMetadata, rec *Recorder) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", meta.Catalog, now.UnixMilli())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = now
	meta.Frames = rec.Frames()
	meta.Bodies = rec.Bodies()

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "states.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write(csvHeader); err != nil {
		return "", err
	}
	for _, id := range meta.Bodies {
		for _, sm := range rec.Track(id) {
			if err := w.Write(encodeRow(id, sm)); err != nil {
				return "", err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return runID, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func encodeRow(id dynamo.BodyID, sm Sample) []string {
	p, v := sm.State.Pos, sm.State.Vel
	return []string{
		formatFloat(sm.Time), string(id),
		formatFloat(p.X), formatFloat(p.Y), formatFloat(p.Z),
		formatFloat(v.X), formatFloat(v.Y), formatFloat(v.Z),
		formatFloat(sm.Phase),
	}
}

func decodeRow(rec []string) (dynamo.BodyID, Sample, error) {
	if len(rec) != len(csvHeader) {
		return "", Sample{}, fmt.Errorf("storage: expected %d fields, got %d", len(csvHeader), len(rec))
	}
	var vals [8]float64
	for i, j := range []int{0, 2, 3, 4, 5, 6, 7, 8} {
		v, err := strconv.ParseFloat(rec[j], 64)
		if err != nil {
			return "", Sample{}, fmt.Errorf("storage: field %s: %w", csvHeader[j], err)
		}
		vals[i] = v
	}
	var sm Sample
	sm.Time = vals[0]
	sm.State.Pos.X, sm.State.Pos.Y, sm.State.Pos.Z = vals[1], vals[2], vals[3]
	sm.State.Vel.X, sm.State.Vel.Y, sm.State.Vel.Z = vals[4], vals[5], vals[6]
	sm.Phase = vals[7]
	return dynamo.BodyID(rec[1]), sm, nil
}

// List returns every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadTracks reads every sample of a run grouped by body.
func (s *Store) LoadTracks(runID string) (map[dynamo.BodyID][]Sample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "states.csv"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}

	tracks := make(map[dynamo.BodyID][]Sample)
	for i, rec := range records {
		if i == 0 {
			continue
		}
		id, sm, err := decodeRow(rec)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", runID, i+1, err)
		}
		tracks[id] = append(tracks[id], sm)
	}
	return tracks, nil
}

// LoadTrack reads the samples of a single body.
func (s *Store) LoadTrack(runID string, body dynamo.BodyID) ([]Sample, error) {
	tracks, err := s.LoadTracks(runID)
	if err != nil {
		return nil, err
	}
	track, ok := tracks[body]
	if !ok {
		return nil, dynamo.ForBody(body, dynamo.ErrUnknownBody)
	}
	return track, nil
}

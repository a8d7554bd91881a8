package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/orrery/internal/catalog"
	"github.com/san-kum/orrery/internal/dynamo"
	"github.com/san-kum/orrery/internal/epoch"
	"github.com/san-kum/orrery/internal/sim"
)

func recordRun(t *testing.T, every, ticks int) (*Recorder, *sim.Simulation) {
	t.Helper()
	s, err := sim.New(sim.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Resolve(catalog.Preset("earth-moon"), epoch.Epoch{}); err != nil {
		t.Fatal(err)
	}

	rec := NewRecorder(every)
	rec.Seed(s.Elapsed(), s.Bodies())
	s.AddObserver(rec)
	for i := 0; i < ticks; i++ {
		s.Tick(3600)
	}
	return rec, s
}

func TestRecorder_Every(t *testing.T) {
	rec, _ := recordRun(t, 2, 10)

	if rec.Frames() != 6 {
		t.Errorf("expected 6 frames (seed + 5), got %d", rec.Frames())
	}
	ids := rec.Bodies()
	if len(ids) != 3 || ids[0] != "sun" {
		t.Errorf("bodies = %v", ids)
	}
	track := rec.Track("moon")
	if len(track) != 6 || track[0].Time != 0 || track[5].Time != 36000 {
		t.Errorf("moon track times wrong: %d samples", len(track))
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	rec, s := recordRun(t, 1, 24)
	meta := RunMetadata{
		Catalog:    "earth-moon",
		Epoch:      s.Epoch().String(),
		Integrator: "euler",
		MaxStep:    900,
		Dt:         3600,
		Duration:   24 * 3600,
		Metrics:    map[string]float64{"energy_drift:earth": 1e-9},
	}

	runID, err := st.Save(meta, rec)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !strings.HasPrefix(runID, "earth-moon_") {
		t.Errorf("unexpected run id %q", runID)
	}

	got, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got.Frames != 25 || len(got.Bodies) != 3 {
		t.Errorf("frames=%d bodies=%v", got.Frames, got.Bodies)
	}
	if got.Metrics["energy_drift:earth"] != 1e-9 {
		t.Errorf("metrics = %v", got.Metrics)
	}

	track, err := st.LoadTrack(runID, "moon")
	if err != nil {
		t.Fatal(err)
	}
	want := rec.Track("moon")
	if len(track) != len(want) {
		t.Fatalf("loaded %d samples, want %d", len(track), len(want))
	}
	for i := range want {
		if track[i] != want[i] {
			t.Fatalf("sample %d: got %+v, want %+v", i, track[i], want[i])
		}
	}

	if _, err := st.LoadTrack(runID, "pluto"); !errors.Is(err, dynamo.ErrUnknownBody) {
		t.Errorf("unknown body: got %v", err)
	}
	if _, err := st.Load("nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("missing run: got %v", err)
	}
}

func TestStoreList(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)

	runs, err := st.List()
	if err != nil || len(runs) != 0 {
		t.Fatalf("empty store: %v, %v", runs, err)
	}

	rec, _ := recordRun(t, 1, 1)
	for _, name := range []string{"a", "b"} {
		if _, err := st.Save(RunMetadata{Catalog: name}, rec); err != nil {
			t.Fatal(err)
		}
	}
	os.MkdirAll(filepath.Join(dir, "junk"), 0755)
	os.WriteFile(filepath.Join(dir, "stray.txt"), []byte("x"), 0644)

	runs, err = st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Timestamp.Before(runs[1].Timestamp) {
		t.Error("runs not sorted newest first")
	}
}

func TestLoadTracks_Malformed(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)
	runDir := filepath.Join(dir, "bad")
	os.MkdirAll(runDir, 0755)
	os.WriteFile(filepath.Join(runDir, "states.csv"),
		[]byte("time,body,x,y,z,vx,vy,vz,phase\n0,sun,1,2,3,4,5,6,x\n"), 0644)

	if _, err := st.LoadTracks("bad"); err == nil {
		t.Error("expected parse error")
	}
}

func TestExportJSON(t *testing.T) {
	st := New(t.TempDir())
	rec, _ := recordRun(t, 1, 3)
	runID, err := st.Save(RunMetadata{Catalog: "earth-moon"}, rec)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := st.ExportJSON(&buf, runID); err != nil {
		t.Fatal(err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("export is not valid json: %v", err)
	}
	if data.Meta.ID != runID || len(data.Tracks) != 3 {
		t.Errorf("export meta=%s tracks=%d", data.Meta.ID, len(data.Tracks))
	}
	if len(data.Tracks[2].Samples) != 4 {
		t.Errorf("expected 4 samples, got %d", len(data.Tracks[2].Samples))
	}

	path := filepath.Join(t.TempDir(), "out.json")
	if err := st.ExportJSONFile(path, runID); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Error("export file not written")
	}
}

func TestExportSVG(t *testing.T) {
	st := New(t.TempDir())
	rec, _ := recordRun(t, 1, 48)
	runID, err := st.Save(RunMetadata{Catalog: "earth-moon"}, rec)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "orbit.svg")
	if err := st.ExportSVGFile(path, runID, 400); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	svg := string(raw)
	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>\n") {
		t.Error("not a complete svg document")
	}
	if n := strings.Count(svg, "<path "); n != 3 {
		t.Errorf("paths = %d, want 3", n)
	}
	if !strings.Contains(svg, ">moon</text>") {
		t.Error("moon label missing")
	}

	empty := &ExportData{Meta: RunMetadata{ID: "empty"}}
	if err := WriteSVG(&bytes.Buffer{}, empty, 100); err == nil {
		t.Error("expected error for a run without samples")
	}
}

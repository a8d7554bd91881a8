package stream

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/san-kum/orrery/internal/catalog"
	"github.com/san-kum/orrery/internal/epoch"
	"github.com/san-kum/orrery/internal/sim"
)

func newSim(t *testing.T) *sim.Simulation {
	t.Helper()
	s, err := sim.New(sim.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Resolve(catalog.Preset("earth-moon"), epoch.Epoch{}); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestRunner_Step(t *testing.T) {
	s := newSim(t)
	r := NewRunner(s, nil, 10, 3600, nil)

	f := r.Step()
	if f.Elapsed != 360 {
		t.Errorf("elapsed = %v, want 360", f.Elapsed)
	}
	if len(f.Bodies) != 3 {
		t.Fatalf("bodies = %d, want 3", len(f.Bodies))
	}
	if f.Bodies[0].ID != "sun" {
		t.Errorf("first body = %s, want sun", f.Bodies[0].ID)
	}

	r.Apply(Command{Type: "pause"})
	f = r.Step()
	if !f.Paused || f.Elapsed != 360 {
		t.Errorf("paused step advanced: %+v", f)
	}

	r.Apply(Command{Type: "resume"})
	r.Apply(Command{Type: "rewind"})
	f = r.Step()
	if f.Elapsed != 0 {
		t.Errorf("elapsed after rewind = %v, want 0", f.Elapsed)
	}
}

func TestRunner_Apply(t *testing.T) {
	r := NewRunner(newSim(t), nil, 30, 100, nil)

	r.Apply(Command{Type: "speed", Value: 500})
	if r.Speed() != 500 {
		t.Errorf("speed = %v", r.Speed())
	}
	r.Apply(Command{Type: "speed", Value: math.NaN()})
	if r.Speed() != 500 {
		t.Errorf("NaN speed accepted: %v", r.Speed())
	}
	r.Apply(Command{Type: "toggle"})
	if !r.Paused() {
		t.Error("toggle did not pause")
	}
	r.Apply(Command{Type: "bogus"})
	if !r.Paused() || r.Speed() != 500 {
		t.Error("unknown command changed state")
	}
}

func TestServer_WebSocketFrames(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var clients atomic.Int64
	s := newSim(t)
	hub := NewHub(nil, func(n int) { clients.Store(int64(n)) })
	runner := NewRunner(s, hub, 30, 86400, nil)
	srv := NewServer(":0", s, hub, runner, nil, nil)
	go hub.Run(ctx)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for clients.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	runner.Step()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Type    string       `json:"type"`
		Payload FramePayload `json:"payload"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != "frame" {
		t.Errorf("type = %q, want frame", msg.Type)
	}
	if len(msg.Payload.Bodies) != 3 {
		t.Errorf("bodies = %d, want 3", len(msg.Payload.Bodies))
	}

	if err := conn.WriteJSON(Command{Type: "speed", Value: 42}); err != nil {
		t.Fatal(err)
	}
	select {
	case cmd := <-hub.Commands():
		if cmd.Type != "speed" || cmd.Value != 42 {
			t.Errorf("command = %+v", cmd)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("command not delivered")
	}
}

func TestServer_Bodies(t *testing.T) {
	s := newSim(t)
	hub := NewHub(nil, nil)
	srv := NewServer(":0", s, hub, NewRunner(s, hub, 30, 1, nil), http.NotFoundHandler(), nil)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/bodies")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var out struct {
		Time   string     `json:"time"`
		Bodies []bodyView `json:"bodies"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Bodies) != 3 || out.Bodies[2].Wrt != "earth" {
		t.Errorf("bodies = %+v", out.Bodies)
	}

	health, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	health.Body.Close()
	if health.StatusCode != http.StatusOK {
		t.Errorf("healthz = %d", health.StatusCode)
	}
}

func TestRunner_DrainsSubmittedCommands(t *testing.T) {
	hub := NewHub(nil, nil)
	r := NewRunner(newSim(t), hub, 30, 100, nil)

	if !hub.Submit(Command{Type: "speed", Value: 250}) || !hub.Submit(Command{Type: "pause"}) {
		t.Fatal("submit rejected")
	}
	r.drainCommands()
	if r.Speed() != 250 || !r.Paused() {
		t.Errorf("speed=%v paused=%v", r.Speed(), r.Paused())
	}
}

package storage

import (
	"sync"

	"github.com/san-kum/orrery/internal/dynamo"
	"github.com/san-kum/orrery/internal/sim"
)

// Sample is one body's recorded state at one instant.
type Sample struct {
	Time  float64      `json:"t"` // elapsed seconds
	State dynamo.State `json:"state"`
	Phase float64      `json:"phase,omitempty"`
}

// Recorder is a sim.Observer that keeps every Nth frame.
type Recorder struct {
	mu     sync.Mutex
	every  int
	seen   int
	times  []float64
	order  []dynamo.BodyID
	tracks map[dynamo.BodyID][]Sample
}

// NewRecorder keeps one frame in every. Values below 1 keep all frames.
func NewRecorder(every int) *Recorder {
	if every < 1 {
		every = 1
	}
	return &Recorder{every: every, tracks: make(map[dynamo.BodyID][]Sample)}
}

// Seed records the state before the first tick.
func (r *Recorder) Seed(elapsed float64, bodies []sim.Body) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.times = append(r.times, elapsed)
	for _, b := range bodies {
		r.add(b.ID, Sample{Time: elapsed, State: b.State, Phase: b.Phase})
	}
}

func (r *Recorder) OnTick(f sim.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen++
	if r.seen%r.every != 0 {
		return
	}
	r.times = append(r.times, f.Elapsed)
	for _, id := range f.Order {
		snap := f.Bodies[id]
		r.add(id, Sample{Time: f.Elapsed, State: snap.State, Phase: snap.Phase})
	}
}

func (r *Recorder) add(id dynamo.BodyID, s Sample) {
	if _, ok := r.tracks[id]; !ok {
		r.order = append(r.order, id)
	}
	r.tracks[id] = append(r.tracks[id], s)
}

// Bodies returns recorded body ids in first-seen order.
func (r *Recorder) Bodies() []dynamo.BodyID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]dynamo.BodyID(nil), r.order...)
}

// Track returns a copy of the samples for one body.
func (r *Recorder) Track(id dynamo.BodyID) []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sample(nil), r.tracks[id]...)
}

// Frames is the number of recorded instants.
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.times)
}

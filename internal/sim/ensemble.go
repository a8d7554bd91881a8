package sim

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/san-kum/orrery/internal/catalog"
	"github.com/san-kum/orrery/internal/dynamo"
	"github.com/san-kum/orrery/internal/epoch"
)

// Outcome is the end state of one ensemble member.
type Outcome struct {
	Config   Config
	States   map[dynamo.BodyID]dynamo.State
	Restored int
	Wall     time.Duration
}

// Ensemble runs the same catalog under several configurations in parallel,
// typically to compare integrators or precisions.
type Ensemble struct {
	cat       *catalog.Catalog
	at        epoch.Epoch
	configs   []Config
	observers func(idx int) []Observer
	opts      []Option
}

func NewEnsemble(cat *catalog.Catalog, at epoch.Epoch, configs []Config, opts ...Option) *Ensemble {
	return &Ensemble{cat: cat, at: at, configs: configs, opts: opts}
}

// WithObservers attaches fresh observers to each member run.
func (e *Ensemble) WithObservers(fn func(idx int) []Observer) *Ensemble {
	e.observers = fn
	return e
}

// Run ticks every member for duration seconds in steps of dt.
func (e *Ensemble) Run(ctx context.Context, duration, dt float64) ([]Outcome, error) {
	if !(dt > 0) || !(duration > 0) || math.IsInf(duration, 0) {
		return nil, fmt.Errorf("sim: ensemble needs positive duration and dt, got %g and %g", duration, dt)
	}

	results := make([]Outcome, len(e.configs))
	errs := make([]error, len(e.configs))

	var wg sync.WaitGroup
	for i := range e.configs {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx], errs[idx] = e.runOne(ctx, idx, duration, dt)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}

func (e *Ensemble) runOne(ctx context.Context, idx int, duration, dt float64) (Outcome, error) {
	cfg := e.configs[idx]
	s, err := New(cfg, e.opts...)
	if err != nil {
		return Outcome{}, err
	}
	if e.observers != nil {
		for _, o := range e.observers(idx) {
			s.AddObserver(o)
		}
	}
	if _, err := s.Resolve(e.cat.Clone(), e.at); err != nil {
		return Outcome{}, err
	}

	restored := 0
	s.AddObserver(ObserverFunc(func(f Frame) { restored += len(f.Restored) }))

	start := time.Now()
	for t := 0.0; t < duration; t += dt {
		select {
		case <-ctx.Done():
			return Outcome{}, ctx.Err()
		default:
		}
		s.Tick(math.Min(dt, duration-t))
	}

	states := make(map[dynamo.BodyID]dynamo.State)
	for _, b := range s.Bodies() {
		states[b.ID] = b.State
	}
	return Outcome{Config: s.Config(), States: states, Restored: restored, Wall: time.Since(start)}, nil
}

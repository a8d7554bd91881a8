// Package sim holds the simulation handle: the single owner of the live body
// table. Every mutation goes through a *Simulation; there is no package
// state.
package sim

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/san-kum/orrery/internal/catalog"
	"github.com/san-kum/orrery/internal/dynamo"
	"github.com/san-kum/orrery/internal/epoch"
	"github.com/san-kum/orrery/internal/integrators"
	"github.com/san-kum/orrery/internal/kepler"
	"github.com/san-kum/orrery/internal/resolver"
)

type Simulation struct {
	mu sync.Mutex

	cfg      Config
	logger   *slog.Logger
	stats    Stats
	resolver *resolver.Resolver
	engine   integrators.Engine

	bodies   map[dynamo.BodyID]*Body
	order    []dynamo.BodyID // engine index order
	rejected map[dynamo.BodyID]error

	epoch   epoch.Epoch
	elapsed float64

	observers []Observer
}

type Option func(*Simulation)

func WithLogger(l *slog.Logger) Option {
	return func(s *Simulation) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithStats(st Stats) Option {
	return func(s *Simulation) {
		if st != nil {
			s.stats = st
		}
	}
}

// New creates an empty simulation at J2000.
func New(cfg Config, opts ...Option) (*Simulation, error) {
	if cfg.MaxStep == 0 {
		cfg.MaxStep = DefaultMaxStep
	}
	if !(cfg.MaxStep > 0) || math.IsInf(cfg.MaxStep, 0) {
		return nil, fmt.Errorf("sim: max step must be positive and finite, got %g", cfg.MaxStep)
	}
	method, err := integrators.ParseMethod(string(cfg.Integrator))
	if err != nil {
		return nil, err
	}
	cfg.Integrator = method
	engine, err := integrators.NewEngine(method, cfg.Precision)
	if err != nil {
		return nil, err
	}

	s := &Simulation{
		cfg:      cfg,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		stats:    nopStats{},
		engine:   engine,
		bodies:   make(map[dynamo.BodyID]*Body),
		rejected: make(map[dynamo.BodyID]error),
		epoch:    epoch.J2000(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.resolver = resolver.New(resolver.WithLogger(s.logger))
	return s, nil
}

func (s *Simulation) Config() Config { return s.cfg }

// AddObserver registers an observer called after every tick, outside the
// simulation lock.
func (s *Simulation) AddObserver(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// Resolve replaces the live table with the catalog resolved at the given
// epoch, which becomes the reference epoch. A zero epoch means the
// catalog's own. Configuration faults fail the call and leave the live
// table untouched; individually rejected bodies are reported by Rejected.
func (s *Simulation) Resolve(cat *catalog.Catalog, at epoch.Epoch) (map[dynamo.BodyID]dynamo.State, error) {
	if cat == nil {
		return nil, errors.New("sim: nil catalog")
	}
	if at.IsZero() {
		at = cat.Epoch
	}
	if at.IsZero() {
		at = epoch.J2000()
	}

	res, err := s.resolver.Resolve(cat.Entries, at)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.bodies = make(map[dynamo.BodyID]*Body, len(res.Order))
	s.order = s.order[:0]
	for _, id := range res.Order {
		e, _ := cat.Lookup(id)
		s.insert(e.Clone(), res.States[id])
	}
	s.rejected = res.Rejected
	s.epoch = at
	s.elapsed = 0
	s.rebuild()

	s.stats.BodiesRejected(len(res.Rejected))
	s.logger.Info("catalog resolved",
		"catalog", cat.Name, "epoch", at.String(), "bodies", len(res.Order), "rejected", len(res.Rejected))

	out := make(map[dynamo.BodyID]dynamo.State, len(res.States))
	for id, st := range res.States {
		out[id] = st
	}
	return out, nil
}

// Rejected returns the bodies the last Resolve turned away, with reasons.
func (s *Simulation) Rejected() map[dynamo.BodyID]error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[dynamo.BodyID]error, len(s.rejected))
	for id, err := range s.rejected {
		out[id] = err
	}
	return out
}

// AddBody resolves a new body at the current simulation time against the
// live states of its dependencies and starts integrating it.
func (s *Simulation) AddBody(e catalog.Entry) (dynamo.BodyID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		return "", fmt.Errorf("%w: empty body id", dynamo.ErrUnknownBody)
	}
	if _, ok := s.bodies[e.ID]; ok {
		return "", dynamo.ForBody(e.ID, dynamo.ErrDuplicateBody)
	}

	live := make(resolver.Table, len(s.bodies))
	for id, b := range s.bodies {
		live[id] = resolver.Resolved{Mass: b.Mass, State: b.State}
	}
	st, err := s.resolver.ResolveOne(e, s.now(), live)
	if err != nil {
		s.stats.BodiesRejected(1)
		return "", err
	}

	s.insert(e.Clone(), st)
	s.rebuild()
	s.logger.Info("body added", "body", e.ID, "wrt", e.Wrt(), "at", s.now().String())
	return e.ID, nil
}

// RemoveBody drops a body. Bodies it influenced keep integrating and skip
// it as a source.
func (s *Simulation) RemoveBody(id dynamo.BodyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bodies[id]; !ok {
		return dynamo.ForBody(id, dynamo.ErrUnknownBody)
	}

	delete(s.bodies, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	for _, o := range s.order {
		b := s.bodies[o]
		for _, dep := range dependencies(b) {
			if dep == id {
				s.logger.Warn("influencer removed, skipping it", "body", o, "influencer", id)
				break
			}
		}
	}
	s.rebuild()
	s.logger.Info("body removed", "body", id)
	return nil
}

// Tick advances the simulation by dt seconds. Negative dt runs time
// backwards. Intervals longer than the configured max step are split into
// equal sub-steps. Non-finite dt, or a dt needing more than MaxSubsteps
// sub-steps, leaves the simulation untouched.
func (s *Simulation) Tick(dt float64) map[dynamo.BodyID]dynamo.Snapshot {
	s.mu.Lock()

	if math.IsNaN(dt) || math.IsInf(dt, 0) {
		s.logger.Warn("ignoring non-finite tick", "dt", dt)
		out := s.snapshots()
		s.mu.Unlock()
		return out
	}

	n := math.Ceil(math.Abs(dt) / s.cfg.MaxStep)
	if n > MaxSubsteps {
		s.logger.Warn("ignoring oversized tick", "dt", dt, "substeps", n, "limit", MaxSubsteps)
		out := s.snapshots()
		s.mu.Unlock()
		return out
	}

	start := time.Now()
	steps := 0
	var restored []dynamo.BodyID
	if dt != 0 && len(s.order) > 0 {
		steps = int(n)
		h := dt / float64(steps)

		pre := make([]dynamo.State, len(s.order))
		for i, id := range s.order {
			pre[i] = s.bodies[id].State
		}

		s.engine.Advance(h, steps)

		for i, id := range s.order {
			b := s.bodies[id]
			st := s.engine.State(i)
			if !st.IsValid() {
				s.engine.SetState(i, pre[i])
				restored = append(restored, id)
				s.logger.Warn("non-finite state, restored pre-tick state",
					"body", id, "err", dynamo.ForBody(id, dynamo.ErrInvalidState))
				continue
			}
			b.State = st
			if b.Rotation != nil {
				for k := 0; k < steps; k++ {
					b.Phase = b.Rotation.Advance(b.Phase, h)
				}
			}
		}
	}
	s.elapsed += dt

	frame := Frame{
		Time:     s.now(),
		Elapsed:  s.elapsed,
		Dt:       dt,
		Substeps: steps,
		Bodies:   s.snapshots(),
		Order:    append([]dynamo.BodyID(nil), s.order...),
		Restored: restored,
	}
	observers := append([]Observer(nil), s.observers...)

	s.stats.TickObserved(steps, time.Since(start))
	if len(restored) > 0 {
		s.stats.StatesRestored(len(restored))
	}
	s.mu.Unlock()

	for _, o := range observers {
		o.OnTick(frame)
	}

	out := make(map[dynamo.BodyID]dynamo.Snapshot, len(frame.Bodies))
	for id, snap := range frame.Bodies {
		out[id] = snap
	}
	return out
}

// SetEpoch re-bases the reference instant. Elapsed time restarts at zero
// and live states are kept; later additions propagate to the new epoch.
func (s *Simulation) SetEpoch(e epoch.Epoch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch = e
	s.elapsed = 0
	s.logger.Info("epoch set", "epoch", e.String())
}

// Epoch returns the reference epoch.
func (s *Simulation) Epoch() epoch.Epoch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// Elapsed returns simulated seconds since the reference epoch.
func (s *Simulation) Elapsed() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed
}

// Now returns the current simulation instant.
func (s *Simulation) Now() epoch.Epoch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now()
}

// Bodies returns copies of the live bodies in resolution order.
func (s *Simulation) Bodies() []Body {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Body, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.bodies[id].copy())
	}
	return out
}

func (s *Simulation) Body(id dynamo.BodyID) (Body, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bodies[id]
	if !ok {
		return Body{}, false
	}
	return b.copy(), true
}

// Relative returns the state of a body relative to its wrt parent and the
// parent's gravitational parameter.
func (s *Simulation) Relative(id dynamo.BodyID) (dynamo.State, float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.relative(id)
}

// SpecificEnergy returns v²/2 - μ/r of a body about its wrt parent.
func (s *Simulation) SpecificEnergy(id dynamo.BodyID) (float64, error) {
	rel, mu, err := s.Relative(id)
	if err != nil {
		return 0, err
	}
	r := rel.Radius()
	if r == 0 {
		return 0, dynamo.ForBody(id, dynamo.ErrDegenerateElements)
	}
	v := rel.Speed()
	return 0.5*v*v - mu/r, nil
}

// Elements returns the osculating elements of a body about its wrt parent
// at the current instant.
func (s *Simulation) Elements(id dynamo.BodyID) (kepler.Elements, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rel, mu, err := s.relative(id)
	if err != nil {
		return kepler.Elements{}, err
	}
	el, err := kepler.FromCartesian(rel, mu)
	if err != nil {
		return kepler.Elements{}, dynamo.ForBody(id, err)
	}
	b := s.bodies[id].copy()
	el.Wrt = b.Wrt
	el.Epoch = s.now()
	el.Rotation = b.Rotation
	return el, nil
}

func (s *Simulation) relative(id dynamo.BodyID) (dynamo.State, float64, error) {
	b, ok := s.bodies[id]
	if !ok {
		return dynamo.State{}, 0, dynamo.ForBody(id, dynamo.ErrUnknownBody)
	}
	if b.Wrt == "" {
		return dynamo.State{}, 0, dynamo.ForBody(id, errors.New("root body has no primary"))
	}
	p, ok := s.bodies[b.Wrt]
	if !ok {
		return dynamo.State{}, 0, dynamo.ForBody(id, fmt.Errorf("%w: %s", dynamo.ErrMissingInfluencer, b.Wrt))
	}
	return b.State.Sub(p.State), dynamo.Mu(p.Mass), nil
}

func (s *Simulation) now() epoch.Epoch {
	if s.elapsed == 0 {
		return s.epoch
	}
	return s.epoch.Add(s.elapsed)
}

func (s *Simulation) insert(e catalog.Entry, st dynamo.State) {
	b := &Body{
		ID:         e.ID,
		Name:       e.DisplayName(),
		Mass:       e.Mass,
		Wrt:        e.Wrt(),
		Influences: e.Influences,
		State:      st,
	}
	if e.Elements != nil && e.Elements.Rotation != nil {
		b.Rotation = e.Elements.Rotation
		b.Phase = kepler.NormalizeDegrees(b.Rotation.Initial)
	}
	s.bodies[e.ID] = b
	s.order = append(s.order, e.ID)
	s.stats.BodiesLive(len(s.bodies))
}

// rebuild reloads the engine after the body set changed. Sources that are
// no longer live become -1 and are skipped by the integrator.
func (s *Simulation) rebuild() {
	index := make(map[dynamo.BodyID]int, len(s.order))
	for i, id := range s.order {
		index[id] = i
	}
	ps := make([]integrators.Particle, len(s.order))
	for i, id := range s.order {
		b := s.bodies[id]
		srcs := make([]int, len(b.Influences))
		for k, inf := range b.Influences {
			if j, ok := index[inf]; ok {
				srcs[k] = j
			} else {
				srcs[k] = -1
			}
		}
		ps[i] = integrators.Particle{State: b.State, Mu: dynamo.Mu(b.Mass), Sources: srcs}
	}
	s.engine.Reset(ps)
	s.stats.BodiesLive(len(s.order))
}

func (s *Simulation) snapshots() map[dynamo.BodyID]dynamo.Snapshot {
	out := make(map[dynamo.BodyID]dynamo.Snapshot, len(s.order))
	for _, id := range s.order {
		b := s.bodies[id]
		out[id] = dynamo.Snapshot{ID: id, State: b.State, Phase: b.Phase}
	}
	return out
}

func dependencies(b *Body) []dynamo.BodyID {
	deps := append([]dynamo.BodyID(nil), b.Influences...)
	if b.Wrt != "" {
		deps = append(deps, b.Wrt)
	}
	return deps
}

func (b *Body) copy() Body {
	c := *b
	c.Influences = append([]dynamo.BodyID(nil), b.Influences...)
	if b.Rotation != nil {
		rot := *b.Rotation
		c.Rotation = &rot
	}
	return c
}

// Package resolver turns a catalog into absolute Cartesian states.
//
// Bodies are resolved in dependency order: a body's wrt parent and every
// influencer are resolved before it. Configuration faults (unknown
// references, duplicate ids, cycles) fail the whole resolution. Physical
// faults (degenerate elements, bad masses) reject only the body concerned
// and the bodies depending on it.
package resolver

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/san-kum/orrery/internal/catalog"
	"github.com/san-kum/orrery/internal/dynamo"
	"github.com/san-kum/orrery/internal/epoch"
)

// Resolved is a body already placed in the inertial frame.
type Resolved struct {
	Mass  float64
	State dynamo.State
}

// Table is the set of resolved bodies a new body may depend on.
type Table map[dynamo.BodyID]Resolved

// Result of resolving a catalog.
type Result struct {
	States   map[dynamo.BodyID]dynamo.State
	Order    []dynamo.BodyID // resolved bodies, dependencies first
	Rejected map[dynamo.BodyID]error
}

type Resolver struct {
	logger *slog.Logger
}

type Option func(*Resolver)

func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

func New(opts ...Option) *Resolver {
	r := &Resolver{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// BuildGraph builds the dependency graph of a set of entries. Edges are the
// influence list plus the wrt body.
func BuildGraph(entries []catalog.Entry) (*Graph, error) {
	g := NewGraph()
	for _, e := range entries {
		if e.ID == "" {
			return nil, fmt.Errorf("%w: empty body id", dynamo.ErrUnknownBody)
		}
		if err := g.AddNode(e.ID); err != nil {
			return nil, err
		}
	}
	var errs []error
	for _, e := range entries {
		for _, dep := range e.Dependencies() {
			if err := g.AddEdge(e.ID, dep); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return g, nil
}

// Resolve places every entry at the target epoch. The returned error is
// non-nil only for configuration faults, in which case nothing is
// resolved.
func (r *Resolver) Resolve(entries []catalog.Entry, at epoch.Epoch) (*Result, error) {
	g, err := BuildGraph(entries)
	if err != nil {
		return nil, err
	}
	order, err := g.TopologicalSort()
	if err != nil {
		return nil, err
	}

	byID := make(map[dynamo.BodyID]catalog.Entry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}

	res := &Result{
		States:   make(map[dynamo.BodyID]dynamo.State, len(entries)),
		Order:    make([]dynamo.BodyID, 0, len(entries)),
		Rejected: make(map[dynamo.BodyID]error),
	}
	live := make(Table, len(entries))
	for _, id := range order {
		e := byID[id]
		s, err := r.ResolveOne(e, at, live)
		if err != nil {
			res.Rejected[id] = err
			continue
		}
		live[id] = Resolved{Mass: e.Mass, State: s}
		res.States[id] = s
		res.Order = append(res.Order, id)
	}
	return res, nil
}

// ResolveOne places a single entry against bodies that are already live.
// Every dependency must be present in live; otherwise the entry is
// rejected with ErrMissingInfluencer.
func (r *Resolver) ResolveOne(e catalog.Entry, at epoch.Epoch, live Table) (dynamo.State, error) {
	for _, dep := range e.Dependencies() {
		if dep == e.ID {
			return r.reject(e.ID, fmt.Errorf("%w: depends on itself", dynamo.ErrUnresolvable))
		}
		if _, ok := live[dep]; !ok {
			return r.reject(e.ID, fmt.Errorf("%w: %s", dynamo.ErrMissingInfluencer, dep))
		}
	}

	if math.IsNaN(e.Mass) || math.IsInf(e.Mass, 0) || e.Mass < 0 {
		return r.reject(e.ID, fmt.Errorf("%w: mass %g", dynamo.ErrDegenerateElements, e.Mass))
	}
	if e.IsRoot() {
		return dynamo.State{}, nil
	}

	parent := live[e.Wrt()]
	mu := dynamo.Mu(parent.Mass)
	el, err := e.Elements.Propagate(mu, at)
	if err != nil {
		return r.reject(e.ID, err)
	}
	rel, converged, err := el.ToCartesianConverged(mu)
	if err != nil {
		return r.reject(e.ID, err)
	}
	if !converged {
		r.logger.Debug("kepler solve did not converge, using best estimate",
			"body", e.ID, "e", el.Eccentricity, "m", el.MeanAnomaly)
	}
	return parent.State.Add(rel), nil
}

func (r *Resolver) reject(id dynamo.BodyID, err error) (dynamo.State, error) {
	err = dynamo.ForBody(id, err)
	r.logger.Warn("body rejected", "body", id, "err", err)
	return dynamo.State{}, err
}

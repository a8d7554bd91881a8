package resolver

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/san-kum/orrery/internal/catalog"
	"github.com/san-kum/orrery/internal/dynamo"
	"github.com/san-kum/orrery/internal/epoch"
	"github.com/san-kum/orrery/internal/kepler"
	"gonum.org/v1/gonum/spatial/r3"
)

func orbiting(id, wrt dynamo.BodyID, mass, a, e float64, influences ...dynamo.BodyID) catalog.Entry {
	return catalog.Entry{
		ID:   id,
		Mass: mass,
		Elements: &kepler.Elements{
			SemiMajorAxis: a,
			Eccentricity:  e,
			MeanAnomaly:   30,
			Epoch:         epoch.J2000(),
			Wrt:           wrt,
		},
		Influences: influences,
	}
}

func TestGraph_TopologicalSort(t *testing.T) {
	g := NewGraph()
	for _, id := range []dynamo.BodyID{"moon", "earth", "mars", "sun"} {
		if err := g.AddNode(id); err != nil {
			t.Fatal(err)
		}
	}
	edges := [][2]dynamo.BodyID{{"moon", "earth"}, {"moon", "sun"}, {"earth", "sun"}, {"mars", "sun"}, {"moon", "earth"}}
	for _, e := range edges {
		if err := g.AddEdge(e[0], e[1]); err != nil {
			t.Fatal(err)
		}
	}

	order, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pos := make(map[dynamo.BodyID]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	for _, e := range edges {
		if pos[e[1]] >= pos[e[0]] {
			t.Errorf("%s resolved after its dependent %s: %v", e[1], e[0], order)
		}
	}

	// Among ready bodies the earliest inserted goes first.
	want := []dynamo.BodyID{"sun", "earth", "moon", "mars"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
	if deps := g.Dependencies("moon"); len(deps) != 2 {
		t.Errorf("duplicate edge not ignored: %v", deps)
	}
}

func TestGraph_Cycle(t *testing.T) {
	g := NewGraph()
	for _, id := range []dynamo.BodyID{"root", "a", "b", "c"} {
		g.AddNode(id)
	}
	g.AddEdge("a", "b")
	g.AddEdge("b", "c")
	g.AddEdge("c", "a")

	order, err := g.TopologicalSort()
	if !errors.Is(err, dynamo.ErrUnresolvable) {
		t.Fatalf("expected ErrUnresolvable, got %v", err)
	}
	if len(order) != 1 || order[0] != "root" {
		t.Errorf("partial order = %v", order)
	}
	for _, id := range []string{"a", "b", "c"} {
		if !strings.Contains(err.Error(), id) {
			t.Errorf("error %q does not name %s", err, id)
		}
	}
}

func TestGraph_Errors(t *testing.T) {
	g := NewGraph()
	g.AddNode("a")
	if err := g.AddNode("a"); !errors.Is(err, dynamo.ErrDuplicateBody) {
		t.Errorf("duplicate: got %v", err)
	}
	if err := g.AddEdge("a", "ghost"); !errors.Is(err, dynamo.ErrUnknownBody) {
		t.Errorf("unknown target: got %v", err)
	}
	if err := g.AddEdge("ghost", "a"); !errors.Is(err, dynamo.ErrUnknownBody) {
		t.Errorf("unknown source: got %v", err)
	}
}

func TestResolve_OrderIndependent(t *testing.T) {
	cat := catalog.Preset("earth-moon")
	reversed := make([]catalog.Entry, len(cat.Entries))
	for i, e := range cat.Entries {
		reversed[len(cat.Entries)-1-i] = e
	}

	r := New()
	a, err := r.Resolve(cat.Entries, cat.Epoch)
	if err != nil {
		t.Fatal(err)
	}
	b, err := r.Resolve(reversed, cat.Epoch)
	if err != nil {
		t.Fatal(err)
	}

	for _, res := range []*Result{a, b} {
		if len(res.Rejected) != 0 {
			t.Fatalf("unexpected rejections: %v", res.Rejected)
		}
		pos := make(map[dynamo.BodyID]int)
		for i, id := range res.Order {
			pos[id] = i
		}
		if !(pos["sun"] < pos["earth"] && pos["earth"] < pos["moon"]) {
			t.Errorf("bad resolution order %v", res.Order)
		}
	}
	for id, s := range a.States {
		if b.States[id] != s {
			t.Errorf("%s differs between orderings: %v vs %v", id, s, b.States[id])
		}
	}
}

func TestResolve_RelativeToParent(t *testing.T) {
	entries := []catalog.Entry{
		{ID: "sun", Mass: 1.98847e30},
		orbiting("earth", "sun", 5.9722e24, dynamo.AU, 0.0167, "sun"),
		orbiting("moon", "earth", 7.342e22, 3.844e8, 0.0549, "sun", "earth"),
	}

	res, err := New().Resolve(entries, epoch.J2000())
	if err != nil {
		t.Fatal(err)
	}
	if res.States["sun"] != (dynamo.State{}) {
		t.Errorf("root not at origin: %v", res.States["sun"])
	}

	rel, err := entries[2].Elements.ToCartesian(dynamo.Mu(5.9722e24))
	if err != nil {
		t.Fatal(err)
	}
	got := res.States["moon"].Sub(res.States["earth"])
	if r3.Norm(r3.Sub(got.Pos, rel.Pos)) > 1e-3 || r3.Norm(r3.Sub(got.Vel, rel.Vel)) > 1e-9 {
		t.Errorf("moon not placed relative to earth: got %v want %v", got, rel)
	}
}

func TestResolve_PropagatesToTarget(t *testing.T) {
	entries := []catalog.Entry{
		{ID: "sun", Mass: 1.98847e30},
		orbiting("earth", "sun", 5.9722e24, dynamo.AU, 0, "sun"),
	}
	at := epoch.J2000().Add(30 * epoch.SecondsPerDay)

	res, err := New().Resolve(entries, at)
	if err != nil {
		t.Fatal(err)
	}
	want, _ := entries[1].Elements.Propagate(dynamo.Mu(1.98847e30), at)
	s, _ := want.ToCartesian(dynamo.Mu(1.98847e30))
	if r3.Norm(r3.Sub(res.States["earth"].Pos, s.Pos)) > 1 {
		t.Errorf("earth not propagated to target epoch")
	}
	if entries[1].Elements.MeanAnomaly != 30 {
		t.Error("template elements were mutated")
	}
}

func TestResolve_ConfigurationErrors(t *testing.T) {
	sun := catalog.Entry{ID: "sun", Mass: 1.98847e30}
	tests := []struct {
		name    string
		entries []catalog.Entry
		want    error
	}{
		{"unknown wrt", []catalog.Entry{sun, orbiting("p", "ghost", 1, dynamo.AU, 0)}, dynamo.ErrUnknownBody},
		{"unknown influencer", []catalog.Entry{sun, orbiting("p", "sun", 1, dynamo.AU, 0, "ghost")}, dynamo.ErrUnknownBody},
		{"duplicate", []catalog.Entry{sun, sun}, dynamo.ErrDuplicateBody},
		{"wrt cycle", []catalog.Entry{sun, orbiting("a", "b", 1, 1e9, 0), orbiting("b", "a", 1, 1e9, 0)}, dynamo.ErrUnresolvable},
		{"influence cycle", []catalog.Entry{sun, orbiting("a", "sun", 1, 1e9, 0, "b"), orbiting("b", "sun", 1, 1e9, 0, "a")}, dynamo.ErrUnresolvable},
		{"self", []catalog.Entry{sun, orbiting("a", "a", 1, 1e9, 0)}, dynamo.ErrUnresolvable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := New().Resolve(tt.entries, epoch.J2000())
			if !errors.Is(err, tt.want) {
				t.Errorf("Resolve() error = %v, want %v", err, tt.want)
			}
			if res != nil {
				t.Error("expected no result on configuration error")
			}
		})
	}
}

func TestResolve_RejectsIndividually(t *testing.T) {
	entries := []catalog.Entry{
		{ID: "sun", Mass: 1.98847e30},
		orbiting("comet", "sun", 1e14, 5*dynamo.AU, 1.2, "sun"),
		orbiting("shard", "comet", 1e3, 1e5, 0, "comet"),
		orbiting("flat", "sun", 1e20, 0, 0, "sun"),
		orbiting("ghostmass", "sun", math.NaN(), dynamo.AU, 0, "sun"),
		orbiting("earth", "sun", 5.9722e24, dynamo.AU, 0.0167, "sun"),
	}

	res, err := New().Resolve(entries, epoch.J2000())
	if err != nil {
		t.Fatalf("unexpected configuration error: %v", err)
	}

	want := map[dynamo.BodyID]error{
		"comet":     dynamo.ErrUnboundOrbit,
		"shard":     dynamo.ErrMissingInfluencer,
		"flat":      dynamo.ErrDegenerateElements,
		"ghostmass": dynamo.ErrDegenerateElements,
	}
	for id, sentinel := range want {
		if !errors.Is(res.Rejected[id], sentinel) {
			t.Errorf("%s: rejected with %v, want %v", id, res.Rejected[id], sentinel)
		}
		var be *dynamo.BodyError
		if !errors.As(res.Rejected[id], &be) || be.Body != id {
			t.Errorf("%s: error not attributed to body: %v", id, res.Rejected[id])
		}
		if _, ok := res.States[id]; ok {
			t.Errorf("%s: rejected body has a state", id)
		}
	}
	if _, ok := res.States["earth"]; !ok {
		t.Error("earth should resolve despite bad siblings")
	}
	if !res.States["earth"].IsValid() {
		t.Error("earth state not finite")
	}
}

func TestResolveOne_MissingInfluencer(t *testing.T) {
	live := Table{"sun": {Mass: 1.98847e30}}
	moon := orbiting("moon", "earth", 7.342e22, 3.844e8, 0.0549, "sun", "earth")

	_, err := New().ResolveOne(moon, epoch.J2000(), live)
	if !errors.Is(err, dynamo.ErrMissingInfluencer) {
		t.Fatalf("expected ErrMissingInfluencer, got %v", err)
	}

	earth := orbiting("earth", "sun", 5.9722e24, dynamo.AU, 0.0167, "sun")
	s, err := New().ResolveOne(earth, epoch.J2000(), live)
	if err != nil {
		t.Fatal(err)
	}
	live["earth"] = Resolved{Mass: earth.Mass, State: s}

	if _, err := New().ResolveOne(moon, epoch.J2000(), live); err != nil {
		t.Errorf("moon should resolve once earth is live: %v", err)
	}
}

func BenchmarkResolveSolar(b *testing.B) {
	cat := catalog.Preset("solar")
	r := New()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Resolve(cat.Entries, cat.Epoch)
	}
}

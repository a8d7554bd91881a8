package resolver

import (
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/orrery/internal/dynamo"
)

// Graph is a dependency graph over bodies. Edges point from a body to the
// bodies it depends on. Unlike a strict DAG it accepts cycles on insert and
// reports them from TopologicalSort, so that a bad catalog is described
// rather than refused edge by edge.
type Graph struct {
	index map[dynamo.BodyID]int
	ids   []dynamo.BodyID
	// deps[i] lists the nodes i depends on; users[i] the nodes depending on i.
	deps  [][]int
	users [][]int
}

func NewGraph() *Graph {
	return &Graph{index: make(map[dynamo.BodyID]int)}
}

// AddNode appends a node. Insertion order breaks ties in TopologicalSort.
func (g *Graph) AddNode(id dynamo.BodyID) error {
	if _, ok := g.index[id]; ok {
		return dynamo.ForBody(id, dynamo.ErrDuplicateBody)
	}
	g.index[id] = len(g.ids)
	g.ids = append(g.ids, id)
	g.deps = append(g.deps, nil)
	g.users = append(g.users, nil)
	return nil
}

// AddEdge records that from depends on to. Both nodes must exist. Repeated
// edges are ignored.
func (g *Graph) AddEdge(from, to dynamo.BodyID) error {
	f, ok := g.index[from]
	if !ok {
		return dynamo.ForBody(from, dynamo.ErrUnknownBody)
	}
	t, ok := g.index[to]
	if !ok {
		return dynamo.ForBody(from, fmt.Errorf("%w: %s", dynamo.ErrUnknownBody, to))
	}
	for _, d := range g.deps[f] {
		if d == t {
			return nil
		}
	}
	g.deps[f] = append(g.deps[f], t)
	g.users[t] = append(g.users[t], f)
	return nil
}

func (g *Graph) Len() int { return len(g.ids) }

// Dependencies returns the direct dependencies of id in insertion order.
func (g *Graph) Dependencies(id dynamo.BodyID) []dynamo.BodyID {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	out := make([]dynamo.BodyID, len(g.deps[i]))
	for k, d := range g.deps[i] {
		out[k] = g.ids[d]
	}
	return out
}

// TopologicalSort orders nodes so that every dependency precedes its
// dependents, using Kahn's algorithm. Among ready nodes the one inserted
// first goes first. If a cycle exists the partial order is returned with an
// error wrapping ErrUnresolvable that names the nodes left over.
func (g *Graph) TopologicalSort() ([]dynamo.BodyID, error) {
	n := len(g.ids)
	inDegree := make([]int, n)
	var ready []int
	for i := range g.ids {
		inDegree[i] = len(g.deps[i])
		if inDegree[i] == 0 {
			ready = append(ready, i)
		}
	}

	order := make([]dynamo.BodyID, 0, n)
	for len(ready) > 0 {
		i := ready[0]
		ready = ready[1:]
		order = append(order, g.ids[i])

		freed := false
		for _, u := range g.users[i] {
			inDegree[u]--
			if inDegree[u] == 0 {
				ready = append(ready, u)
				freed = true
			}
		}
		if freed {
			sort.Ints(ready)
		}
	}

	if len(order) != n {
		var stuck []string
		for i, d := range inDegree {
			if d > 0 {
				stuck = append(stuck, string(g.ids[i]))
			}
		}
		return order, fmt.Errorf("%w: cycle among %s", dynamo.ErrUnresolvable, strings.Join(stuck, ", "))
	}
	return order, nil
}

// Package depgraph builds the model dependency graph, detects cycles,
// and produces the topological order that seeds both SQL emission and
// plan application (spec §4.4).
//
// Cycle detection follows Tarjan's strongly-connected-components
// algorithm; the topological order follows Kahn's algorithm with
// alphabetical tie-breaking, adapted from the deterministic-ordering
// pattern used for table/view/type sorting in pgschema's
// internal/diff/topological.go (retrieval pack, other_examples).
package depgraph

import (
	"sort"

	"github.com/shubham184/fabric-compiler/internal/cerrors"
	"github.com/shubham184/fabric-compiler/internal/model"
)

// Graph is the directed "depends-on" multigraph over every corpus
// model and every name a model depends on. External tables are nodes
// with no dependencies of their own.
type Graph struct {
	nodes map[string]bool
	edges map[string][]string // name -> depended-on names, authored order
}

// Build constructs the graph from a corpus. Every DependsOn entry
// becomes an edge; an external table reference becomes a node with no
// outgoing edges.
func Build(corpus model.Corpus) *Graph {
	g := &Graph{
		nodes: make(map[string]bool, len(corpus)),
		edges: make(map[string][]string, len(corpus)),
	}
	for name := range corpus {
		g.nodes[name] = true
	}
	for name, m := range corpus {
		for _, dep := range m.DependsOn {
			g.nodes[dep] = true
			g.edges[name] = append(g.edges[name], dep)
		}
	}
	return g
}

// DependsOn returns the authored-order list of names that name
// depends on directly.
func (g *Graph) DependsOn(name string) []string {
	return g.edges[name]
}

// Cycles returns every strongly-connected component of size > 1, plus
// every self-loop, each as a member list in deterministic
// (alphabetical-start) order. An empty result means the graph is
// acyclic (P2).
func (g *Graph) Cycles() [][]string {
	t := &tarjan{
		graph:   g,
		index:   make(map[string]int),
		lowlink: make(map[string]int),
		onStack: make(map[string]bool),
	}

	// Iterate nodes in sorted order so that, when multiple SCCs exist,
	// they are discovered (and thus reported) in a deterministic order.
	names := make([]string, 0, len(g.nodes))
	for n := range g.nodes {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		if _, seen := t.index[n]; !seen {
			t.strongConnect(n)
		}
	}

	var cycles [][]string
	for _, scc := range t.sccs {
		if len(scc) > 1 || selfLoop(g, scc) {
			sort.Strings(scc)
			cycles = append(cycles, scc)
		}
	}
	sort.Slice(cycles, func(i, j int) bool { return cycles[i][0] < cycles[j][0] })
	return cycles
}

func selfLoop(g *Graph, scc []string) bool {
	if len(scc) != 1 {
		return false
	}
	n := scc[0]
	for _, dep := range g.edges[n] {
		if dep == n {
			return true
		}
	}
	return false
}

type tarjan struct {
	graph   *Graph
	counter int
	index   map[string]int
	lowlink map[string]int
	onStack map[string]bool
	stack   []string
	sccs    [][]string
}

func (t *tarjan) strongConnect(v string) {
	t.index[v] = t.counter
	t.lowlink[v] = t.counter
	t.counter++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	deps := append([]string(nil), t.graph.edges[v]...)
	sort.Strings(deps)
	for _, w := range deps {
		if _, seen := t.index[w]; !seen {
			t.strongConnect(w)
			if t.lowlink[w] < t.lowlink[v] {
				t.lowlink[v] = t.lowlink[w]
			}
		} else if t.onStack[w] {
			if t.index[w] < t.lowlink[v] {
				t.lowlink[v] = t.index[w]
			}
		}
	}

	if t.lowlink[v] == t.index[v] {
		var scc []string
		for {
			n := len(t.stack) - 1
			w := t.stack[n]
			t.stack = t.stack[:n]
			t.onStack[w] = false
			scc = append(scc, w)
			if w == v {
				break
			}
		}
		t.sccs = append(t.sccs, scc)
	}
}

// TopoOrder returns a topological order of every node in the graph,
// dependencies before dependents, breaking ties between siblings by
// lexicographically smaller name first. It runs Cycles first and, if
// any cycle exists, returns a CycleError for the first one only,
// mirroring the pipeline's Resolver-halts-on-first-cycle policy.
func (g *Graph) TopoOrder() ([]string, error) {
	if cycles := g.Cycles(); len(cycles) > 0 {
		return nil, &cerrors.CycleError{Members: cycles[0]}
	}

	inDegree := make(map[string]int, len(g.nodes))
	for n := range g.nodes {
		inDegree[n] = 0
	}
	// An edge name -> dep means "name depends on dep", i.e. dep must
	// come first. So dep has an outgoing edge to name in Kahn terms.
	forward := make(map[string][]string, len(g.nodes))
	for name, deps := range g.edges {
		for _, dep := range deps {
			forward[dep] = append(forward[dep], name)
			inDegree[name]++
		}
	}

	var queue []string
	for n, d := range inDegree {
		if d == 0 {
			queue = append(queue, n)
		}
	}
	sort.Strings(queue)

	result := make([]string, 0, len(g.nodes))
	for len(queue) > 0 {
		sort.Strings(queue)
		cur := queue[0]
		queue = queue[1:]
		result = append(result, cur)

		next := append([]string(nil), forward[cur]...)
		sort.Strings(next)
		for _, n := range next {
			inDegree[n]--
			if inDegree[n] == 0 {
				queue = append(queue, n)
			}
		}
	}

	return result, nil
}

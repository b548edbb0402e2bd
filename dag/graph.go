package dag

import (
	"fmt"
	"sort"

	"github.com/kbukum/starschema/errors"
)

// Graph declares nodes and edges (dependency relationships).
type Graph struct {
	Nodes map[string]Node
	Edges []Edge
}

// Edge represents a dependency: To depends on From.
type Edge struct {
	From string
	To   string
}

// NewGraph builds a graph from nodes and edges and validates it.
func NewGraph(nodes []Node, edges []Edge) (*Graph, error) {
	g := &Graph{Nodes: make(map[string]Node, len(nodes))}
	for _, n := range nodes {
		if n == nil || n.Name() == "" {
			return nil, errors.MalformedGraph("node without a name")
		}
		if _, dup := g.Nodes[n.Name()]; dup {
			return nil, errors.MalformedGraph(fmt.Sprintf("duplicate node %q", n.Name()))
		}
		g.Nodes[n.Name()] = n
	}
	g.Edges = append(g.Edges, edges...)
	if err := Validate(g); err != nil {
		return nil, err
	}
	return g, nil
}

// Validate checks that g is a connected DAG with exactly one source and one sink.
// Any cycle is reported as a cycle, before the source and sink rules apply.
func Validate(g *Graph) error {
	if g == nil || len(g.Nodes) == 0 {
		return errors.MalformedGraph("graph has no nodes")
	}
	seen := make(map[Edge]bool, len(g.Edges))
	for _, e := range g.Edges {
		if _, ok := g.Nodes[e.From]; !ok {
			return errors.MalformedGraph(fmt.Sprintf("edge references unknown node %q", e.From))
		}
		if _, ok := g.Nodes[e.To]; !ok {
			return errors.MalformedGraph(fmt.Sprintf("edge references unknown node %q", e.To))
		}
		if e.From == e.To {
			return errors.CyclicGraph([]string{e.From, e.To})
		}
		if seen[e] {
			return errors.MalformedGraph(fmt.Sprintf("duplicate edge %s -> %s", e.From, e.To))
		}
		seen[e] = true
	}

	if cycle := findCycle(g); cycle != nil {
		return errors.CyclicGraph(cycle)
	}

	if src := Sources(g); len(src) != 1 {
		return errors.MalformedGraph(fmt.Sprintf("graph must have exactly one source, found %d %v", len(src), src))
	}
	if sinks := Sinks(g); len(sinks) != 1 {
		return errors.MalformedGraph(fmt.Sprintf("graph must have exactly one sink, found %d %v", len(sinks), sinks))
	}
	if !connected(g) {
		return errors.MalformedGraph("graph is not connected")
	}
	return nil
}

const (
	unvisited = iota
	inProgress
	done
)

// findCycle returns the nodes of the first cycle found, first node repeated last.
func findCycle(g *Graph) []string {
	down := Downstream(g)
	state := make(map[string]int, len(g.Nodes))
	var stack []string

	var visit func(name string) []string
	visit = func(name string) []string {
		state[name] = inProgress
		stack = append(stack, name)
		for _, next := range down[name] {
			switch state[next] {
			case inProgress:
				for i, n := range stack {
					if n == next {
						cycle := append([]string(nil), stack[i:]...)
						return append(cycle, next)
					}
				}
			case unvisited:
				if c := visit(next); c != nil {
					return c
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[name] = done
		return nil
	}

	for _, name := range sortedNames(g) {
		if state[name] == unvisited {
			if c := visit(name); c != nil {
				return c
			}
		}
	}
	return nil
}

// connected reports whether g is weakly connected.
func connected(g *Graph) bool {
	adj := make(map[string][]string, len(g.Nodes))
	for _, e := range g.Edges {
		adj[e.From] = append(adj[e.From], e.To)
		adj[e.To] = append(adj[e.To], e.From)
	}
	start := sortedNames(g)[0]
	seen := map[string]bool{start: true}
	queue := []string{start}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, m := range adj[n] {
			if !seen[m] {
				seen[m] = true
				queue = append(queue, m)
			}
		}
	}
	return len(seen) == len(g.Nodes)
}

// BuildLevels uses Kahn's algorithm to group nodes by dependency level.
// Nodes within the same level can execute in parallel; names are sorted
// within a level. Returns an error if a cycle is detected.
func BuildLevels(g *Graph) ([][]string, error) {
	inDegree := make(map[string]int, len(g.Nodes))
	for name := range g.Nodes {
		inDegree[name] = 0
	}
	for _, e := range g.Edges {
		if _, ok := g.Nodes[e.From]; !ok {
			return nil, errors.MalformedGraph(fmt.Sprintf("edge references unknown node %q", e.From))
		}
		if _, ok := g.Nodes[e.To]; !ok {
			return nil, errors.MalformedGraph(fmt.Sprintf("edge references unknown node %q", e.To))
		}
		inDegree[e.To]++
	}
	dependents := Downstream(g)

	var queue []string
	for name, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	var levels [][]string
	visited := 0

	for len(queue) > 0 {
		levels = append(levels, queue)
		visited += len(queue)

		var next []string
		for _, name := range queue {
			for _, dep := range dependents[name] {
				inDegree[dep]--
				if inDegree[dep] == 0 {
					next = append(next, dep)
				}
			}
		}
		sort.Strings(next)
		queue = next
	}

	if visited != len(g.Nodes) {
		if cycle := findCycle(g); cycle != nil {
			return nil, errors.CyclicGraph(cycle)
		}
		return nil, errors.CyclicGraph(nil)
	}
	return levels, nil
}

// Upstream maps each node to the sorted names of the nodes it depends on.
func Upstream(g *Graph) map[string][]string {
	up := make(map[string][]string, len(g.Nodes))
	for _, e := range g.Edges {
		up[e.To] = append(up[e.To], e.From)
	}
	for _, v := range up {
		sort.Strings(v)
	}
	return up
}

// Downstream maps each node to the sorted names of the nodes that depend on it.
func Downstream(g *Graph) map[string][]string {
	down := make(map[string][]string, len(g.Nodes))
	for _, e := range g.Edges {
		down[e.From] = append(down[e.From], e.To)
	}
	for _, v := range down {
		sort.Strings(v)
	}
	return down
}

// Descendants returns every node reachable from name, sorted.
func Descendants(g *Graph, name string) []string {
	down := Downstream(g)
	seen := make(map[string]bool)
	stack := append([]string(nil), down[name]...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[n] {
			continue
		}
		seen[n] = true
		stack = append(stack, down[n]...)
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Sources returns the sorted names of nodes without dependencies.
func Sources(g *Graph) []string {
	up := Upstream(g)
	var out []string
	for _, name := range sortedNames(g) {
		if len(up[name]) == 0 {
			out = append(out, name)
		}
	}
	return out
}

// Sinks returns the sorted names of nodes nothing depends on.
func Sinks(g *Graph) []string {
	down := Downstream(g)
	var out []string
	for _, name := range sortedNames(g) {
		if len(down[name]) == 0 {
			out = append(out, name)
		}
	}
	return out
}

func sortedNames(g *Graph) []string {
	names := make([]string, 0, len(g.Nodes))
	for name := range g.Nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package dag

import (
	"fmt"

	"github.com/kbukum/starschema/errors"
)

// Builder assembles a Graph declaratively.
//
//	g, err := dag.NewBuilder().
//		Add(begin, create, events, songs, end).
//		Then("begin", "create").
//		Then("create", "events", "songs").
//		Join([]string{"events", "songs"}, "end").
//		Build()
type Builder struct {
	nodes []Node
	names map[string]bool
	edges []Edge
	err   error
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{names: make(map[string]bool)}
}

// Add registers nodes. A duplicate name fails Build.
func (b *Builder) Add(nodes ...Node) *Builder {
	for _, n := range nodes {
		if b.err != nil {
			return b
		}
		if n == nil {
			b.err = errors.MalformedGraph("nil node")
			return b
		}
		if b.names[n.Name()] {
			b.err = errors.MalformedGraph(fmt.Sprintf("duplicate node %q", n.Name()))
			return b
		}
		b.names[n.Name()] = true
		b.nodes = append(b.nodes, n)
	}
	return b
}

// Then makes every node in to depend on from.
func (b *Builder) Then(from string, to ...string) *Builder {
	for _, t := range to {
		b.edges = append(b.edges, Edge{From: from, To: t})
	}
	return b
}

// Join makes to depend on every node in from.
func (b *Builder) Join(from []string, to string) *Builder {
	for _, f := range from {
		b.edges = append(b.edges, Edge{From: f, To: to})
	}
	return b
}

// Build validates and returns the graph.
func (b *Builder) Build() (*Graph, error) {
	if b.err != nil {
		return nil, b.err
	}
	return NewGraph(b.nodes, b.edges)
}

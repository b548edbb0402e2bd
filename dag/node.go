package dag

import "context"

// Node is the execution unit in a DAG.
type Node interface {
	Name() string
	Run(ctx context.Context) error
}

// Sentinel returns a node that does no work, used to bracket a graph.
func Sentinel(name string) Node {
	return sentinel(name)
}

type sentinel string

func (s sentinel) Name() string                { return string(s) }
func (s sentinel) Run(_ context.Context) error { return nil }

// IsSentinel reports whether n was created by Sentinel.
func IsSentinel(n Node) bool {
	_, ok := n.(sentinel)
	return ok
}

// unwrapper is implemented by decorators so IsSentinel sees through them.
type unwrapper interface {
	Unwrap() Node
}

// Unwrap strips decorators from n.
func Unwrap(n Node) Node {
	for {
		u, ok := n.(unwrapper)
		if !ok {
			return n
		}
		n = u.Unwrap()
	}
}

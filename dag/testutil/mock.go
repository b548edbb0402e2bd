package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/kbukum/starschema/dag"
)

// MockNode is a configurable test node for DAG testing.
// It records calls and returns queued errors, then nil.
type MockNode struct {
	name  string
	errs  []error
	fn    func(ctx context.Context) error
	delay time.Duration

	mu    sync.Mutex
	calls int
	ran   time.Time
}

var _ dag.Node = (*MockNode)(nil)

// NewMockNode creates a mock node whose attempts return errs in order.
// Once errs is exhausted every further attempt succeeds.
func NewMockNode(name string, errs ...error) *MockNode {
	return &MockNode{name: name, errs: errs}
}

// NewMockNodeFunc creates a mock node backed by a custom function.
func NewMockNodeFunc(name string, fn func(ctx context.Context) error) *MockNode {
	return &MockNode{name: name, fn: fn}
}

// WithDelay makes every attempt take at least d, or until ctx is done.
func (n *MockNode) WithDelay(d time.Duration) *MockNode {
	n.delay = d
	return n
}

func (n *MockNode) Name() string { return n.name }

func (n *MockNode) Run(ctx context.Context) error {
	n.mu.Lock()
	attempt := n.calls
	n.calls++
	n.ran = time.Now()
	n.mu.Unlock()

	if n.delay > 0 {
		select {
		case <-time.After(n.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if n.fn != nil {
		return n.fn(ctx)
	}
	if attempt < len(n.errs) {
		return n.errs[attempt]
	}
	return nil
}

// Calls returns how many times Run was invoked.
func (n *MockNode) Calls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls
}

// LastRun returns when Run was last invoked.
func (n *MockNode) LastRun() time.Time {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ran
}

// Reset clears the call counter.
func (n *MockNode) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = 0
	n.ran = time.Time{}
}

// Concurrency tracks how many nodes run at once.
type Concurrency struct {
	mu      sync.Mutex
	current int
	peak    int
}

// Track wraps fn so that its executions are counted.
func (c *Concurrency) Track(fn func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		c.mu.Lock()
		c.current++
		if c.current > c.peak {
			c.peak = c.current
		}
		c.mu.Unlock()
		defer func() {
			c.mu.Lock()
			c.current--
			c.mu.Unlock()
		}()
		return fn(ctx)
	}
}

// Peak returns the highest number of concurrent executions seen.
func (c *Concurrency) Peak() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.peak
}

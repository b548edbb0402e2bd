package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/kbukum/starschema/warehouse"
)

// Call records one round-trip made against a Fake.
type Call struct {
	Method    string
	Statement string
}

type rule struct {
	match     string
	remaining int // < 0 means unlimited
	err       error
	row       warehouse.Row
	isRow     bool
}

// Fake is an in-memory warehouse.Client that records every call.
// Statements succeed unless a rule registered with Fail or Respond matches.
type Fake struct {
	mu     sync.Mutex
	calls  []Call
	rules  []*rule
	closed bool
}

var _ warehouse.Client = (*Fake)(nil)

// NewFake creates a Fake that accepts every statement.
func NewFake() *Fake {
	return &Fake{}
}

// Fail makes the next n statements containing match fail with err (n < 0: always).
func (f *Fake) Fail(match string, n int, err error) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, &rule{match: match, remaining: n, err: err})
	return f
}

// Respond makes queries containing match return row.
func (f *Fake) Respond(match string, row warehouse.Row) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, &rule{match: match, remaining: -1, row: row, isRow: true})
	return f
}

// Execute records statement and applies the first matching failure rule.
func (f *Fake) Execute(ctx context.Context, statement string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Method: "Execute", Statement: statement})
	if r := f.match(statement, false); r != nil {
		return r.err
	}
	return nil
}

// QueryFirstRow records statement and returns the matching row, or Row{1}.
func (f *Fake) QueryFirstRow(ctx context.Context, statement string) (warehouse.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Method: "QueryFirstRow", Statement: statement})
	if r := f.match(statement, false); r != nil {
		return nil, r.err
	}
	if r := f.match(statement, true); r != nil {
		return r.row, nil
	}
	return warehouse.Row{int64(1)}, nil
}

func (f *Fake) match(statement string, rows bool) *rule {
	for _, r := range f.rules {
		if r.isRow != rows || r.remaining == 0 || !strings.Contains(statement, r.match) {
			continue
		}
		if r.remaining > 0 {
			r.remaining--
		}
		return r
	}
	return nil
}

// Calls returns every recorded call in order.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// Statements returns the statements of every recorded call in order.
func (f *Fake) Statements() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Statement
	}
	return out
}

// Count returns how many recorded statements contain match.
func (f *Fake) Count(match string) int {
	n := 0
	for _, s := range f.Statements() {
		if strings.Contains(s, match) {
			n++
		}
	}
	return n
}

// Close marks the fake closed.
func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Closed reports whether Close was called.
func (f *Fake) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

package dag

import (
	"sort"
	"time"
)

// Status is the state of a node within a run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Terminal reports whether s is a final state.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusSkipped
}

// CauseRunCanceled is the skip cause of nodes left undispatched by cancellation.
const CauseRunCanceled = "run canceled"

// NodeResult holds the outcome of a single node execution.
type NodeResult struct {
	Name     string
	Status   Status
	Attempts int
	Duration time.Duration
	// Err is the last error of a failed node.
	Err error
	// Cause explains why a node was skipped.
	Cause string
	// Sentinel marks the no-op nodes that bracket a graph.
	Sentinel bool
}

// RunReport holds the outcome of a graph execution.
type RunReport struct {
	RunID    string
	Started  time.Time
	Duration time.Duration
	Status   Status
	Nodes    map[string]NodeResult
	// Order lists node names level by level, as they were scheduled.
	Order []string
}

// Succeeded reports whether every node succeeded.
func (r *RunReport) Succeeded() bool {
	if len(r.Nodes) == 0 {
		return false
	}
	for _, n := range r.Nodes {
		if n.Status != StatusSucceeded {
			return false
		}
	}
	return true
}

// Failures returns the failed nodes in schedule order.
func (r *RunReport) Failures() []NodeResult {
	return r.filter(StatusFailed)
}

// Skipped returns the skipped nodes in schedule order.
func (r *RunReport) Skipped() []NodeResult {
	return r.filter(StatusSkipped)
}

// Results returns every node result in schedule order.
func (r *RunReport) Results() []NodeResult {
	out := make([]NodeResult, 0, len(r.Nodes))
	for _, name := range r.names() {
		out = append(out, r.Nodes[name])
	}
	return out
}

func (r *RunReport) filter(status Status) []NodeResult {
	var out []NodeResult
	for _, name := range r.names() {
		if n := r.Nodes[name]; n.Status == status {
			out = append(out, n)
		}
	}
	return out
}

func (r *RunReport) names() []string {
	if len(r.Order) == len(r.Nodes) {
		return r.Order
	}
	names := make([]string, 0, len(r.Nodes))
	for name := range r.Nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

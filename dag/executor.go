package dag

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kbukum/starschema/errors"
	"github.com/kbukum/starschema/logger"
	"github.com/kbukum/starschema/observability"
	"github.com/kbukum/starschema/resilience"
)

// RetryPolicy retries retryable node failures with a fixed delay between attempts.
type RetryPolicy struct {
	// MaxAttempts includes the first attempt; zero or less means one attempt.
	MaxAttempts int
	Delay       time.Duration
}

// Executor runs a graph level by level.
type Executor struct {
	// Name identifies the pipeline in logs, spans and metrics.
	Name string
	// MaxParallel limits concurrent nodes per level (0 = level width).
	MaxParallel int
	Retry       RetryPolicy
	// Log is the executor's component logger; nil discards logs.
	Log *logger.Logger
	// Metrics records run totals; nil disables them.
	Metrics *observability.Metrics
	// Observe, when set, receives every node state change: running on
	// dispatch, then the terminal result. Calls are serialized.
	Observe func(NodeResult)
}

// Run executes every node of g in dependency order and reports the outcome.
// It returns an error only when g is structurally invalid, in which case
// no node runs. A node runs only when all of its upstreams succeeded;
// otherwise it is skipped and the skip spreads to its descendants.
func (e *Executor) Run(ctx context.Context, g *Graph) (*RunReport, error) {
	if err := Validate(g); err != nil {
		return nil, err
	}
	levels, err := BuildLevels(g)
	if err != nil {
		return nil, err
	}

	report := &RunReport{
		RunID:   uuid.NewString(),
		Started: time.Now(),
		Status:  StatusRunning,
		Nodes:   make(map[string]NodeResult, len(g.Nodes)),
	}
	for name, node := range g.Nodes {
		report.Nodes[name] = NodeResult{Name: name, Status: StatusPending, Sentinel: IsSentinel(Unwrap(node))}
	}
	rec := &recorder{report: report, observe: e.Observe}

	ctx = logger.ContextWithRunID(ctx, report.RunID)
	ctx, span := observability.StartSpan(ctx, observability.SpanPipelineRun)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrRunID, report.RunID)
	observability.SetSpanAttribute(ctx, observability.AttrPipeline, e.Name)

	log := e.logger().WithContext(ctx)
	log.Info("pipeline run started", logger.Fields(
		logger.FieldPipeline, e.Name,
		"nodes", len(g.Nodes),
		"levels", len(levels),
	))

	up := Upstream(g)
	for _, level := range levels {
		report.Order = append(report.Order, level...)

		var ready []string
		for _, name := range level {
			if ctx.Err() != nil {
				rec.set(skipped(name, CauseRunCanceled))
				continue
			}
			if cause := blockedBy(report, up[name]); cause != "" {
				rec.set(skipped(name, cause))
				log.Warn("node skipped", logger.Fields(logger.FieldStage, name, "cause", cause))
				continue
			}
			ready = append(ready, name)
		}
		e.runLevel(ctx, g, ready, rec, log)
	}

	report.Duration = time.Since(report.Started)
	report.Status = StatusFailed
	if report.Succeeded() {
		report.Status = StatusSucceeded
	}
	observability.SetSpanAttribute(ctx, observability.AttrStatus, string(report.Status))
	if e.Metrics != nil {
		e.Metrics.RecordRun(ctx, e.Name, string(report.Status), report.Duration)
	}

	fields := logger.Fields(
		logger.FieldPipeline, e.Name,
		logger.FieldStatus, string(report.Status),
		"failed", len(report.Failures()),
		"skipped", len(report.Skipped()),
	)
	if report.Status == StatusSucceeded {
		log.Info("pipeline run finished", logger.MergeWithDuration(fields, report.Duration))
	} else {
		log.Error("pipeline run finished", logger.MergeWithDuration(fields, report.Duration))
	}
	return report, nil
}

// runLevel runs names concurrently and waits for all of them.
// A failing node does not cancel its siblings.
func (e *Executor) runLevel(ctx context.Context, g *Graph, names []string, rec *recorder, log *logger.Logger) {
	if len(names) == 0 {
		return
	}
	var grp errgroup.Group
	grp.SetLimit(e.concurrency(len(names)))
	for _, name := range names {
		grp.Go(func() error {
			rec.set(rec.running(name))
			rec.set(e.runNode(ctx, g.Nodes[name], log))
			return nil
		})
	}
	_ = grp.Wait()
}

// recorder applies node state changes to a report from concurrent nodes.
type recorder struct {
	mu      sync.Mutex
	report  *RunReport
	observe func(NodeResult)
}

func (r *recorder) running(name string) NodeResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := r.report.Nodes[name]
	res.Status = StatusRunning
	return res
}

// set records res, keeping the sentinel flag set at the start of the run.
// A terminal state is never overwritten.
func (r *recorder) set(res NodeResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.report.Nodes[res.Name]
	if prev.Status.Terminal() {
		return
	}
	res.Sentinel = prev.Sentinel
	r.report.Nodes[res.Name] = res
	if r.observe != nil {
		r.observe(res)
	}
}

func (e *Executor) runNode(ctx context.Context, node Node, log *logger.Logger) NodeResult {
	name := node.Name()
	if ctx.Err() != nil {
		return skipped(name, CauseRunCanceled)
	}
	log = log.WithFields(logger.Fields(logger.FieldStage, name))

	policy := resilience.FixedDelay(e.maxAttempts(), e.Retry.Delay, errors.IsRetryable)
	policy.OnRetry = func(attempt int, err error, delay time.Duration) {
		log.Warn("node attempt failed, retrying", logger.MergeWithError(logger.Fields(
			logger.FieldAttempt, attempt,
			"retry_in", delay.String(),
		), err))
	}

	start := time.Now()
	attempts := 0
	err := resilience.RetryFunc(ctx, policy, func() error {
		attempts++
		return node.Run(ctx)
	})
	result := NodeResult{Name: name, Attempts: attempts, Duration: time.Since(start)}

	switch {
	case err == nil:
		result.Status = StatusSucceeded
	case attempts == 0:
		return skipped(name, CauseRunCanceled)
	default:
		result.Status = StatusFailed
		result.Err = err
		log.Error("node failed", logger.MergeWithError(logger.Fields(
			logger.FieldAttempt, attempts,
			"code", string(errorCode(err)),
		), err))
	}
	return result
}

func (e *Executor) maxAttempts() int {
	if e.Retry.MaxAttempts <= 0 {
		return 1
	}
	return e.Retry.MaxAttempts
}

func (e *Executor) concurrency(levelSize int) int {
	if e.MaxParallel <= 0 || e.MaxParallel > levelSize {
		return levelSize
	}
	return e.MaxParallel
}

func (e *Executor) logger() *logger.Logger {
	if e.Log == nil {
		return logger.NewNop()
	}
	return e.Log
}

// blockedBy names the first upstream that did not succeed, or returns "".
func blockedBy(report *RunReport, upstream []string) string {
	for _, u := range upstream {
		if st := report.Nodes[u].Status; st != StatusSucceeded {
			return fmt.Sprintf("upstream %s %s", u, st)
		}
	}
	return ""
}

func skipped(name, cause string) NodeResult {
	return NodeResult{Name: name, Status: StatusSkipped, Cause: cause}
}

func errorCode(err error) errors.ErrorCode {
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr.Code
	}
	return errors.ErrCodeInternal
}

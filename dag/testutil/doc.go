// Package testutil provides test helpers and mock implementations
// for the dag package.
//
// Example:
//
//	func TestRetry(t *testing.T) {
//	    flaky := testutil.NewMockNode("stage_events", errors.ExecutionFailed("redshift", io.EOF))
//	    g, _ := dag.NewBuilder().
//	        Add(dag.Sentinel("begin"), flaky, dag.Sentinel("end")).
//	        Then("begin", "stage_events").
//	        Then("stage_events", "end").
//	        Build()
//
//	    exec := &dag.Executor{Retry: dag.RetryPolicy{MaxAttempts: 2}}
//	    report, err := exec.Run(context.Background(), g)
//	    // ... assertions
//	}
package testutil

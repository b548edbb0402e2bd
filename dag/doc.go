// Package dag runs a directed acyclic graph of nodes in dependency order.
//
// A Graph is validated on construction: it must be acyclic, connected and
// have exactly one source and one sink. The Executor walks the graph in
// Kahn levels. Nodes of a level run concurrently; a node runs only when
// every upstream succeeded and is skipped otherwise, so a failure skips
// exactly its descendants. Retryable failures are retried with a fixed
// delay.
//
//	g, err := dag.NewBuilder().
//		Add(dag.Sentinel("begin"), load, check, dag.Sentinel("end")).
//		Then("begin", "load").
//		Then("load", "check").
//		Then("check", "end").
//		Build()
//	report, err := (&dag.Executor{Retry: dag.RetryPolicy{MaxAttempts: 4, Delay: 5 * time.Minute}}).Run(ctx, g)
package dag

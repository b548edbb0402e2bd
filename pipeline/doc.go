// Package pipeline turns a declarative pipeline definition into an
// executable graph.
//
// A Definition lists stages by kind, the catalog templates they run, their
// parameters and their dependencies. Build constructs each stage, binds it
// to the warehouse client of its connection and returns a Plan whose graph
// is bracketed by begin_execution and end_execution:
//
//	def := pipeline.Sparkify(pipeline.Settings{Bucket: "sparkify-raw", IAMRole: role})
//	plan, err := pipeline.Build(def, catalog.Sparkify(), conns, pipeline.Options{})
//	report, err := executor.Run(ctx, plan.Graph)
//
// Definitions can also be read from YAML with LoadDefinition or a FileLoader.
package pipeline

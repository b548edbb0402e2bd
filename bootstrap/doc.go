// Package bootstrap runs a finite starschema task with a uniform lifecycle.
//
// NewApp applies config defaults, validates, and initializes the logger.
// RunTask runs OnStart and OnReady hooks, executes the task under a context
// canceled by SIGINT or SIGTERM, and always runs OnStop hooks afterwards so
// warehouse connections and telemetry exporters are released.
//
//	app, err := bootstrap.NewApp(&cfg, bootstrap.WithSummary(os.Stderr))
//	app.OnStart(openConnections)
//	app.OnStop(closeConnections)
//	err = app.RunTask(ctx, runPipeline)
package bootstrap

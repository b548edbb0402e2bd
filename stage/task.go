package stage

import (
	"context"

	"github.com/kbukum/starschema/warehouse"
)

// Task binds a stage to its resolved client so an executor can run it by name.
type Task struct {
	stage  *Stage
	client warehouse.Client
	opts   RunOptions
}

// NewTask creates a Task for s on client.
func NewTask(s *Stage, client warehouse.Client, opts RunOptions) *Task {
	return &Task{stage: s, client: client, opts: opts}
}

// Name returns the stage id.
func (t *Task) Name() string { return t.stage.ID() }

// Run runs the stage once.
func (t *Task) Run(ctx context.Context) error {
	return t.stage.Run(ctx, t.client, t.opts)
}

// Stage returns the bound stage.
func (t *Task) Stage() *Stage { return t.stage }

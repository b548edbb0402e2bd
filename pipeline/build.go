package pipeline

import (
	stderrors "errors"
	"fmt"

	"github.com/kbukum/starschema/catalog"
	"github.com/kbukum/starschema/dag"
	"github.com/kbukum/starschema/logger"
	"github.com/kbukum/starschema/observability"
	"github.com/kbukum/starschema/stage"
	"github.com/kbukum/starschema/warehouse"
)

// Resolver resolves a connection id to its warehouse client.
type Resolver interface {
	Resolve(id string) (warehouse.Client, error)
}

// Options configures how stages are wrapped into graph nodes.
type Options struct {
	// Run is passed to every stage run.
	Run stage.RunOptions
	// Log enables per-attempt logging when set.
	Log *logger.Logger
	// Metrics enables per-attempt metrics when set.
	Metrics *observability.Metrics
	// Tracing wraps every attempt in a span.
	Tracing bool
}

// Plan is a built pipeline ready for an executor.
type Plan struct {
	Name  string
	Graph *dag.Graph
	// Stages holds the constructed stages in definition order.
	Stages []*stage.Stage
}

// Rendered is the dry-run output of one stage.
type Rendered struct {
	Stage      string
	Statements []string
	Err        error
}

// Build constructs every stage of def, binds it to its connection and
// assembles the graph, bracketed by begin_execution and end_execution.
func Build(def *Definition, cat *catalog.Catalog, conns Resolver, opts Options) (*Plan, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	plan := &Plan{Name: def.Name}
	b := dag.NewBuilder().Add(dag.Sentinel(BeginExecution), dag.Sentinel(EndExecution))
	hasDependents := make(map[string]bool)
	for _, sd := range def.Stages {
		for _, dep := range sd.DependsOn {
			hasDependents[dep] = true
		}
	}

	for _, sd := range def.Stages {
		st, err := NewStage(def, sd, cat)
		if err != nil {
			return nil, err
		}
		client, err := conns.Resolve(st.Connection())
		if err != nil {
			return nil, fmt.Errorf("pipeline: stage %s: %w", sd.ID, err)
		}
		plan.Stages = append(plan.Stages, st)
		b.Add(wrap(stage.NewTask(st, client, opts.Run), opts))

		if len(sd.DependsOn) == 0 {
			b.Then(BeginExecution, sd.ID)
		}
		b.Join(sd.DependsOn, sd.ID)
		if !hasDependents[sd.ID] {
			b.Then(sd.ID, EndExecution)
		}
	}

	g, err := b.Build()
	if err != nil {
		return nil, err
	}
	plan.Graph = g
	return plan, nil
}

func wrap(n dag.Node, opts Options) dag.Node {
	if opts.Metrics != nil {
		n = dag.WithMetrics(n, opts.Metrics)
	}
	if opts.Tracing {
		n = dag.WithTracing(n)
	}
	if opts.Log != nil {
		n = dag.WithLogging(n, opts.Log)
	}
	return n
}

// NewStage constructs the stage sd describes, resolving its templates in cat.
func NewStage(def *Definition, sd StageDef, cat *catalog.Catalog) (*stage.Stage, error) {
	kind, err := stage.ParseKind(sd.Kind)
	if err != nil {
		return nil, err
	}
	params := def.parameters(sd)
	conn := def.connection(sd)

	st, err := newStage(kind, sd, conn, params, cat)
	if err != nil {
		return nil, fmt.Errorf("pipeline: stage %s: %w", sd.ID, err)
	}
	return st, nil
}

func newStage(kind stage.Kind, sd StageDef, conn string, params map[string]string, cat *catalog.Catalog) (*stage.Stage, error) {
	switch kind {
	case stage.KindProvision:
		drop, err := cat.Lookup(sd.Drop...)
		if err != nil {
			return nil, err
		}
		create, err := cat.Lookup(sd.Create...)
		if err != nil {
			return nil, err
		}
		return stage.NewProvision(stage.ProvisionConfig{
			ID: sd.ID, Connection: conn, Drop: drop, Create: create, Params: params,
		})

	case stage.KindBulkLoad:
		copyTmpl, err := single(cat, sd.Statements, "")
		if err != nil {
			return nil, err
		}
		return stage.NewBulkLoad(stage.BulkLoadConfig{
			ID:           sd.ID,
			Connection:   conn,
			Copy:         copyTmpl,
			Bucket:       params[stage.ParamBucket],
			IAMRole:      params[stage.ParamIAMRole],
			Region:       params[stage.ParamRegion],
			Format:       params[stage.ParamFormat],
			SourcePrefix: sd.SourcePrefix,
			Params:       params,
		})

	case stage.KindFactLoad:
		insert, err := single(cat, sd.Statements, "")
		if err != nil {
			return nil, err
		}
		return stage.NewFactLoad(stage.FactLoadConfig{
			ID: sd.ID, Connection: conn, Table: sd.Table, Insert: insert, Params: params,
		})

	case stage.KindDimensionLoad:
		insert, err := single(cat, sd.Statements, "")
		if err != nil {
			return nil, err
		}
		cfg := stage.DimensionLoadConfig{
			ID: sd.ID, Connection: conn, Table: sd.Table, Insert: insert, Mode: sd.Mode, Params: params,
		}
		if sd.Mode == stage.ModeTruncate {
			name := sd.Truncate
			if name == "" {
				name = catalog.TruncateTable
			}
			if cfg.Truncate, err = cat.Template(name); err != nil {
				return nil, err
			}
		}
		return stage.NewDimensionLoad(cfg)

	default:
		check, err := single(cat, sd.Statements, catalog.DataQualityCheck)
		if err != nil {
			return nil, err
		}
		return stage.NewQualityCheck(stage.QualityCheckConfig{
			ID: sd.ID, Connection: conn, Check: check, Tables: sd.Tables, Params: params,
		})
	}
}

// single resolves the one template a stage names, or fallback when it names none.
func single(cat *catalog.Catalog, names []string, fallback string) (catalog.Template, error) {
	switch {
	case len(names) == 1:
		return cat.Template(names[0])
	case len(names) == 0 && fallback != "":
		return cat.Template(fallback)
	default:
		return catalog.Template{}, fmt.Errorf("expected one statement, got %d", len(names))
	}
}

// Levels returns the node names of the plan grouped by dependency level.
func (p *Plan) Levels() ([][]string, error) {
	return dag.BuildLevels(p.Graph)
}

// Stage returns the stage with the given id.
func (p *Plan) Stage(id string) (*stage.Stage, bool) {
	for _, s := range p.Stages {
		if s.ID() == id {
			return s, true
		}
	}
	return nil, false
}

// DryRun renders every stage without contacting a warehouse. Sensitive
// parameters such as the IAM role are masked in the statements.
// The error joins every render failure.
func (p *Plan) DryRun() ([]Rendered, error) {
	return p.dryRun((*stage.Stage).RenderRedacted)
}

// DryRunRevealed is DryRun with parameters rendered as they will execute.
func (p *Plan) DryRunRevealed() ([]Rendered, error) {
	return p.dryRun((*stage.Stage).Render)
}

func (p *Plan) dryRun(render func(*stage.Stage) ([]string, error)) ([]Rendered, error) {
	out := make([]Rendered, 0, len(p.Stages))
	var errs []error
	for _, s := range p.Stages {
		stmts, err := render(s)
		out = append(out, Rendered{Stage: s.ID(), Statements: stmts, Err: err})
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.ID(), err))
		}
	}
	return out, stderrors.Join(errs...)
}

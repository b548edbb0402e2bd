package stage

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/kbukum/starschema/catalog"
	"github.com/kbukum/starschema/errors"
	"github.com/kbukum/starschema/logger"
	"github.com/kbukum/starschema/observability"
	"github.com/kbukum/starschema/storage"
	"github.com/kbukum/starschema/validation"
	"github.com/kbukum/starschema/warehouse"
)

// statement is a template with the parameters it renders against.
type statement struct {
	template catalog.Template
	params   map[string]string
}

// Stage is one schedulable unit of warehouse work. It is immutable once built.
type Stage struct {
	id         string
	kind       Kind
	connection string
	statements []statement
	tables     []string
	params     map[string]string
	source     *storage.Location
}

// RunOptions carries the collaborators a stage needs at run time.
type RunOptions struct {
	// StatementTimeout bounds each warehouse round-trip; zero means no limit.
	StatementTimeout time.Duration
	// Prober checks bulk load sources; nil skips the check.
	Prober storage.Prober
	// Log receives stage events; nil discards them.
	Log *logger.Logger
}

// NewProvision builds a stage that runs every drop, then every create.
func NewProvision(cfg ProvisionConfig) (*Stage, error) {
	if err := validation.Validate(cfg); err != nil {
		return nil, err
	}
	params := copyParams(cfg.Params)
	s := &Stage{id: cfg.ID, kind: KindProvision, connection: cfg.Connection, params: params}
	for _, t := range cfg.Drop {
		s.statements = append(s.statements, statement{template: t, params: params})
	}
	for _, t := range cfg.Create {
		s.statements = append(s.statements, statement{template: t, params: params})
	}
	return s, nil
}

// NewBulkLoad builds a stage that copies objects into a staging table.
func NewBulkLoad(cfg BulkLoadConfig) (*Stage, error) {
	if err := validation.Validate(cfg); err != nil {
		return nil, err
	}
	params := copyParams(cfg.Params)
	bind(params, ParamBucket, cfg.Bucket)
	bind(params, ParamIAMRole, cfg.IAMRole)
	bind(params, ParamRegion, cfg.Region)
	bind(params, ParamFormat, cfg.Format)

	s := &Stage{
		id:         cfg.ID,
		kind:       KindBulkLoad,
		connection: cfg.Connection,
		params:     params,
		statements: []statement{{template: cfg.Copy, params: params}},
	}
	if cfg.SourcePrefix != "" {
		loc, err := storage.ParseLocation(cfg.SourcePrefix)
		if err != nil {
			return nil, errors.InvalidInput("source_prefix", err.Error())
		}
		s.source = &loc
	}
	return s, nil
}

// NewFactLoad builds a stage that runs the fact insert.
func NewFactLoad(cfg FactLoadConfig) (*Stage, error) {
	if err := validation.Validate(cfg); err != nil {
		return nil, err
	}
	params := copyParams(cfg.Params)
	s := &Stage{
		id:         cfg.ID,
		kind:       KindFactLoad,
		connection: cfg.Connection,
		params:     params,
		statements: []statement{{template: cfg.Insert, params: params}},
	}
	if cfg.Table != "" {
		s.tables = []string{cfg.Table}
	}
	return s, nil
}

// NewDimensionLoad builds a stage that fills one dimension table.
func NewDimensionLoad(cfg DimensionLoadConfig) (*Stage, error) {
	if err := validation.Validate(cfg); err != nil {
		return nil, err
	}
	params := copyParams(cfg.Params)
	bind(params, ParamTable, cfg.Table)

	s := &Stage{
		id:         cfg.ID,
		kind:       KindDimensionLoad,
		connection: cfg.Connection,
		params:     params,
		tables:     []string{cfg.Table},
	}
	if cfg.Mode == ModeTruncate {
		s.statements = append(s.statements, statement{template: cfg.Truncate, params: params})
	}
	s.statements = append(s.statements, statement{template: cfg.Insert, params: params})
	return s, nil
}

// NewQualityCheck builds a stage that checks each table in order.
func NewQualityCheck(cfg QualityCheckConfig) (*Stage, error) {
	if err := validation.Validate(cfg); err != nil {
		return nil, err
	}
	params := copyParams(cfg.Params)
	s := &Stage{
		id:         cfg.ID,
		kind:       KindQualityCheck,
		connection: cfg.Connection,
		params:     params,
		tables:     append([]string(nil), cfg.Tables...),
	}
	for _, table := range cfg.Tables {
		p := copyParams(params)
		p[ParamTable] = table
		s.statements = append(s.statements, statement{template: cfg.Check, params: p})
	}
	return s, nil
}

// ID returns the stage id, unique within a pipeline.
func (s *Stage) ID() string { return s.id }

// Kind returns the stage kind.
func (s *Stage) Kind() Kind { return s.kind }

// Connection returns the id of the warehouse connection the stage runs on.
func (s *Stage) Connection() string { return s.connection }

// Tables returns the tables the stage loads or checks.
func (s *Stage) Tables() []string { return append([]string(nil), s.tables...) }

// Parameters returns a copy of the stage's shared parameters.
func (s *Stage) Parameters() map[string]string { return copyParams(s.params) }

// Source returns the bulk load source checked before the copy, if any.
func (s *Stage) Source() (storage.Location, bool) {
	if s.source == nil {
		return storage.Location{}, false
	}
	return *s.source, true
}

// Render renders every statement. Nothing is returned unless all of them render.
func (s *Stage) Render() ([]string, error) {
	return s.render(func(p map[string]string) map[string]string { return p })
}

// RenderRedacted renders like Render with sensitive parameters masked.
// Missing parameters fail the same way.
func (s *Stage) RenderRedacted() ([]string, error) {
	return s.render(logger.Redact)
}

func (s *Stage) render(params func(map[string]string) map[string]string) ([]string, error) {
	out := make([]string, 0, len(s.statements))
	for _, st := range s.statements {
		sql, err := catalog.Render(st.template, params(st.params))
		if err != nil {
			return nil, err
		}
		out = append(out, sql)
	}
	return out, nil
}

// Run renders, checks and executes the stage against client.
// Statements already executed stay committed when a later one fails.
func (s *Stage) Run(ctx context.Context, client warehouse.Client, opts RunOptions) error {
	log := opts.Log
	if log == nil {
		log = logger.NewNop()
	}
	log = log.WithContext(ctx).WithFields(logger.Fields(
		logger.FieldStage, s.id,
		logger.FieldKind, string(s.kind),
		logger.FieldConnection, s.connection,
	))
	start := time.Now()
	log.Info("stage started", logger.Fields("statements", len(s.statements)))

	err := s.run(ctx, client, opts, log)
	if err != nil {
		log.Error("stage failed", logger.MergeWithDuration(logger.MergeWithError(nil, err), time.Since(start)))
		return err
	}
	log.Info("stage succeeded", logger.MergeWithDuration(nil, time.Since(start)))
	return nil
}

func (s *Stage) run(ctx context.Context, client warehouse.Client, opts RunOptions, log *logger.Logger) error {
	rendered, err := s.Render()
	if err != nil {
		return err
	}
	if err := s.preflight(ctx, opts.Prober, log); err != nil {
		return err
	}
	if s.kind == KindQualityCheck {
		return s.runQualityCheck(ctx, client, rendered, opts, log)
	}
	for i, sql := range rendered {
		log.Debug("executing statement", logger.Fields(
			logger.FieldStatement, s.redacted(i),
			"index", i+1,
		))
		err := withTimeout(ctx, opts.StatementTimeout, func(ctx context.Context) error {
			return s.traced(ctx, func(ctx context.Context) error {
				return client.Execute(ctx, sql)
			})
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// preflight fails the stage when its bulk load source holds no objects.
func (s *Stage) preflight(ctx context.Context, prober storage.Prober, log *logger.Logger) error {
	if s.source == nil || prober == nil {
		return nil
	}
	ok, err := prober.HasObjects(ctx, s.source.Bucket, s.source.Prefix)
	if err != nil {
		return errors.ExternalServiceError("object storage", err)
	}
	if !ok {
		return errors.NotFound("source objects", s.source.String())
	}
	log.Debug("source prefix has objects", logger.Fields("source", s.source.String()))
	return nil
}

// redacted renders statement i with sensitive parameters masked, for logs.
func (s *Stage) redacted(i int) string {
	st := s.statements[i]
	sql, err := catalog.Render(st.template, logger.Redact(st.params))
	if err != nil {
		return st.template.Name()
	}
	return sql
}

// withTimeout runs fn under the per-statement timeout and reports an
// expired deadline as a retryable timeout.
func withTimeout(ctx context.Context, timeout time.Duration, fn func(context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	stmtCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	err := fn(stmtCtx)
	if err != nil && ctx.Err() == nil && stderrors.Is(stmtCtx.Err(), context.DeadlineExceeded) {
		return errors.Timeout("statement").WithCause(err)
	}
	return err
}

// traced runs one warehouse round-trip inside a statement span.
func (s *Stage) traced(ctx context.Context, fn func(context.Context) error) error {
	ctx, span := observability.StartSpan(ctx, observability.SpanStatement)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrStage, s.id)
	observability.SetSpanAttribute(ctx, observability.AttrConnection, s.connection)
	err := fn(ctx)
	if err != nil {
		observability.SetSpanError(ctx, err)
	}
	return err
}

func copyParams(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// bind sets key only for non-empty values so missing settings fail rendering.
func bind(params map[string]string, key, value string) {
	if value != "" {
		params[key] = value
	}
}

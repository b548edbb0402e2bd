package stage

import (
	"bytes"
	"context"
	stderrors "errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/starschema/catalog"
	"github.com/kbukum/starschema/errors"
	"github.com/kbukum/starschema/logger"
	"github.com/kbukum/starschema/warehouse"
	"github.com/kbukum/starschema/warehouse/testutil"
)

var sparkify = catalog.Sparkify()

func tmpl(t *testing.T, name string) catalog.Template {
	t.Helper()
	tp, err := sparkify.Template(name)
	if err != nil {
		t.Fatalf("template %s: %v", name, err)
	}
	return tp
}

func bulkLoadConfig(t *testing.T) BulkLoadConfig {
	return BulkLoadConfig{
		ID:         "stage_events",
		Connection: "redshift",
		Copy:       tmpl(t, catalog.CopyStagingEvents),
		Bucket:     "udacity-dend",
		IAMRole:    "arn:aws:iam::123456789012:role/dwhRole",
		Region:     "us-west-2",
		Format:     "s3://udacity-dend/log_json_path.json",
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds {
		got, err := ParseKind(string(k))
		if err != nil || got != k {
			t.Errorf("ParseKind(%q) = %q, %v", k, got, err)
		}
	}
	if _, err := ParseKind("merge"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestConstructionValidation(t *testing.T) {
	insert := tmpl(t, catalog.InsertUsers)
	check := tmpl(t, catalog.DataQualityCheck)

	tests := []struct {
		name   string
		build  func() error
		errMsg string
	}{
		{"provision without creates", func() error {
			_, err := NewProvision(ProvisionConfig{ID: "create_tables", Connection: "redshift"})
			return err
		}, "create"},
		{"bulk load without id", func() error {
			cfg := bulkLoadConfig(t)
			cfg.ID = ""
			_, err := NewBulkLoad(cfg)
			return err
		}, "id: is required"},
		{"bulk load bad source", func() error {
			cfg := bulkLoadConfig(t)
			cfg.SourcePrefix = "udacity-dend/log-data"
			_, err := NewBulkLoad(cfg)
			return err
		}, "source_prefix"},
		{"fact load without template", func() error {
			_, err := NewFactLoad(FactLoadConfig{ID: "load_songplays", Connection: "redshift"})
			return err
		}, "insert: is required"},
		{"dimension bad mode", func() error {
			_, err := NewDimensionLoad(DimensionLoadConfig{ID: "d", Connection: "c", Table: "users", Insert: insert, Mode: "upsert"})
			return err
		}, "mode"},
		{"dimension truncate without template", func() error {
			_, err := NewDimensionLoad(DimensionLoadConfig{ID: "d", Connection: "c", Table: "users", Insert: insert, Mode: ModeTruncate})
			return err
		}, "truncate"},
		{"dimension without connection", func() error {
			_, err := NewDimensionLoad(DimensionLoadConfig{ID: "d", Table: "users", Insert: insert})
			return err
		}, "connection: is required"},
		{"quality check without tables", func() error {
			_, err := NewQualityCheck(QualityCheckConfig{ID: "q", Connection: "c", Check: check})
			return err
		}, "tables"},
		{"quality check bad table", func() error {
			_, err := NewQualityCheck(QualityCheckConfig{ID: "q", Connection: "c", Check: check, Tables: []string{"users; drop"}})
			return err
		}, "identifier"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.build()
			if err == nil {
				t.Fatal("expected construction error")
			}
			if !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("expected INVALID_INPUT, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.errMsg) {
				t.Errorf("expected %q in %q", tc.errMsg, err.Error())
			}
		})
	}
}

func TestProvisionDropsBeforeCreates(t *testing.T) {
	drops, _ := sparkify.Lookup(catalog.DropTableStatements...)
	creates, _ := sparkify.Lookup(catalog.CreateTableStatements...)
	s, err := NewProvision(ProvisionConfig{ID: "create_tables", Connection: "redshift", Drop: drops, Create: creates})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wh := testutil.NewFake()
	if err := s.Run(context.Background(), wh, RunOptions{}); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	stmts := wh.Statements()
	if len(stmts) != 14 {
		t.Fatalf("expected 14 statements, got %d", len(stmts))
	}
	for i := 0; i < 7; i++ {
		if !strings.HasPrefix(stmts[i], "DROP TABLE") {
			t.Errorf("statement %d: expected DROP, got %q", i, stmts[i])
		}
		if !strings.HasPrefix(stmts[i+7], "CREATE TABLE") {
			t.Errorf("statement %d: expected CREATE, got %q", i+7, stmts[i+7])
		}
	}
}

func TestRenderErrorExecutesNothing(t *testing.T) {
	cfg := bulkLoadConfig(t)
	cfg.IAMRole = ""
	s, err := NewBulkLoad(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wh := testutil.NewFake()
	err = s.Run(context.Background(), wh, RunOptions{})
	if !errors.Is(err, errors.ErrCodeMissingPlaceholder) {
		t.Fatalf("expected MISSING_PLACEHOLDER, got %v", err)
	}
	if !strings.Contains(err.Error(), "iam_role") {
		t.Errorf("expected error to name iam_role, got %q", err.Error())
	}
	if errors.IsRetryable(err) {
		t.Error("render errors must not be retryable")
	}
	if n := len(wh.Calls()); n != 0 {
		t.Errorf("expected zero warehouse calls, got %d", n)
	}
}

func TestRenderIsAllOrNothing(t *testing.T) {
	good := catalog.NewTemplate("first", "SELECT 1;")
	bad := catalog.NewTemplate("second", "SELECT * FROM {table};")
	s, err := NewProvision(ProvisionConfig{ID: "p", Connection: "c", Create: []catalog.Template{good, bad}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := s.Render()
	if err == nil || out != nil {
		t.Fatalf("expected no statements and an error, got %v, %v", out, err)
	}
	wh := testutil.NewFake()
	_ = s.Run(context.Background(), wh, RunOptions{})
	if len(wh.Calls()) != 0 {
		t.Error("the first statement must not run when a later one fails to render")
	}
}

func TestExecutionStopsAtFirstFailure(t *testing.T) {
	creates := []catalog.Template{
		catalog.NewTemplate("a", "CREATE TABLE a (id int);"),
		catalog.NewTemplate("b", "CREATE TABLE b (id int);"),
		catalog.NewTemplate("c", "CREATE TABLE c (id int);"),
	}
	s, _ := NewProvision(ProvisionConfig{ID: "p", Connection: "redshift", Create: creates})

	boom := errors.ExecutionFailed("redshift", stderrors.New("connection reset"))
	wh := testutil.NewFake().Fail("TABLE b", -1, boom)

	err := s.Run(context.Background(), wh, RunOptions{})
	if !errors.Is(err, errors.ErrCodeExecution) || !errors.IsRetryable(err) {
		t.Fatalf("expected retryable EXECUTION_ERROR, got %v", err)
	}
	want := []string{"CREATE TABLE a (id int);", "CREATE TABLE b (id int);"}
	if got := wh.Statements(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestBulkLoadRenderRedacted(t *testing.T) {
	s, err := NewBulkLoad(bulkLoadConfig(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := s.RenderRedacted()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(out) != 1 || !strings.Contains(out[0], "IAM_ROLE '"+logger.Redacted+"'") || strings.Contains(out[0], "dwhRole") {
		t.Errorf("expected the role masked, got %v", out)
	}

	cfg := bulkLoadConfig(t)
	cfg.IAMRole = ""
	missing, err := NewBulkLoad(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := missing.RenderRedacted(); !errors.Is(err, errors.ErrCodeMissingPlaceholder) {
		t.Errorf("a missing role must still fail rendering, got %v", err)
	}
}

func TestBulkLoadRendersCopy(t *testing.T) {
	s, err := NewBulkLoad(bulkLoadConfig(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := s.Render()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(out) != 1 || !strings.Contains(out[0], "IAM_ROLE 'arn:aws:iam::123456789012:role/dwhRole'") {
		t.Errorf("unexpected statements %v", out)
	}
	if s.Kind() != KindBulkLoad || s.Connection() != "redshift" || s.ID() != "stage_events" {
		t.Errorf("unexpected accessors %s/%s/%s", s.Kind(), s.Connection(), s.ID())
	}
}

func TestParametersReturnsCopy(t *testing.T) {
	s, _ := NewBulkLoad(bulkLoadConfig(t))
	p := s.Parameters()
	p[ParamBucket] = "other"
	if s.Parameters()[ParamBucket] != "udacity-dend" {
		t.Error("Parameters must not expose internal state")
	}
}

func TestDimensionLoadModes(t *testing.T) {
	insert := tmpl(t, catalog.InsertUsers)
	truncate := tmpl(t, catalog.TruncateTable)

	appendStage, err := NewDimensionLoad(DimensionLoadConfig{ID: "load_user_dim_table", Connection: "redshift", Table: "users", Insert: insert})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, _ := appendStage.Render()
	if len(out) != 1 || !strings.HasPrefix(strings.TrimSpace(out[0]), "INSERT INTO users") {
		t.Errorf("append mode: unexpected statements %v", out)
	}

	truncStage, err := NewDimensionLoad(DimensionLoadConfig{
		ID: "load_user_dim_table", Connection: "redshift", Table: "users",
		Insert: insert, Mode: ModeTruncate, Truncate: truncate,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wh := testutil.NewFake()
	if err := truncStage.Run(context.Background(), wh, RunOptions{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	stmts := wh.Statements()
	if len(stmts) != 2 || stmts[0] != "TRUNCATE TABLE users;" {
		t.Errorf("truncate mode: unexpected statements %v", stmts)
	}
	if got := truncStage.Tables(); !reflect.DeepEqual(got, []string{"users"}) {
		t.Errorf("unexpected tables %v", got)
	}
}

func TestRunRedactsSensitiveParameters(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "test", &buf)

	s, _ := NewBulkLoad(bulkLoadConfig(t))
	if err := s.Run(context.Background(), testutil.NewFake(), RunOptions{Log: log}); err != nil {
		t.Fatalf("run: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "dwhRole") {
		t.Errorf("iam role leaked into logs: %s", out)
	}
	if !strings.Contains(out, logger.Redacted) {
		t.Errorf("expected redacted statement in debug log: %s", out)
	}
	if !strings.Contains(out, "stage succeeded") {
		t.Errorf("expected outcome log: %s", out)
	}
}

type blockingClient struct{}

func (blockingClient) Execute(ctx context.Context, _ string) error {
	<-ctx.Done()
	return errors.ExecutionFailed("redshift", ctx.Err())
}

func (blockingClient) QueryFirstRow(ctx context.Context, _ string) (warehouse.Row, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestStatementTimeout(t *testing.T) {
	s, _ := NewFactLoad(FactLoadConfig{ID: "load_songplays_fact_table", Connection: "redshift", Insert: tmpl(t, catalog.InsertSongplays)})

	err := s.Run(context.Background(), blockingClient{}, RunOptions{StatementTimeout: 20 * time.Millisecond})
	if !errors.Is(err, errors.ErrCodeTimeout) {
		t.Fatalf("expected TIMEOUT, got %v", err)
	}
	if !errors.IsRetryable(err) {
		t.Error("statement timeouts are retryable")
	}
}

func TestRunCanceledContext(t *testing.T) {
	s, _ := NewFactLoad(FactLoadConfig{ID: "f", Connection: "redshift", Insert: tmpl(t, catalog.InsertSongplays)})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Run(ctx, blockingClient{}, RunOptions{StatementTimeout: time.Hour})
	if errors.Is(err, errors.ErrCodeTimeout) {
		t.Fatalf("a canceled run is not a statement timeout: %v", err)
	}
	if !stderrors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got %v", err)
	}
}

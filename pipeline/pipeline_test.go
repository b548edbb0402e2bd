package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/kbukum/starschema/catalog"
	"github.com/kbukum/starschema/dag"
	"github.com/kbukum/starschema/errors"
	"github.com/kbukum/starschema/stage"
	"github.com/kbukum/starschema/warehouse"
	"github.com/kbukum/starschema/warehouse/testutil"
)

const testRole = "arn:aws:iam::123456789012:role/dwhRole"

func settings() Settings {
	return Settings{Bucket: "sparkify-raw", IAMRole: testRole}
}

func connections(c warehouse.Client) *warehouse.Connections {
	conns := warehouse.NewConnections()
	conns.Register("redshift", c)
	return conns
}

func build(t *testing.T, def *Definition, c warehouse.Client) *Plan {
	t.Helper()
	plan, err := Build(def, catalog.Sparkify(), connections(c), Options{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return plan
}

var fiveTiers = [][]string{
	{BeginExecution},
	{CreateTables},
	{StageEvents, StageSongs},
	{LoadSongplaysFactTable},
	{LoadArtistDimTable, LoadSongDimTable, LoadTimeDimTable, LoadUserDimTable},
	{RunQualityChecks},
	{EndExecution},
}

func TestSparkifyShape(t *testing.T) {
	plan := build(t, Sparkify(settings()), testutil.NewFake())
	levels, err := plan.Levels()
	if err != nil {
		t.Fatalf("levels: %v", err)
	}
	if !reflect.DeepEqual(levels, fiveTiers) {
		t.Fatalf("expected %v, got %v", fiveTiers, levels)
	}
	if len(plan.Stages) != 9 {
		t.Fatalf("expected 9 stages, got %d", len(plan.Stages))
	}
	qc, ok := plan.Stage(RunQualityChecks)
	if !ok || !reflect.DeepEqual(qc.Tables(), catalog.TableNames) {
		t.Fatalf("quality check must cover every table, got %v", qc)
	}
}

func TestSparkifyEndToEnd(t *testing.T) {
	wh := testutil.NewFake()
	plan := build(t, Sparkify(settings()), wh)

	report, err := (&dag.Executor{Name: plan.Name, Retry: dag.RetryPolicy{MaxAttempts: 4}}).Run(context.Background(), plan.Graph)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !report.Succeeded() {
		t.Fatalf("expected success, failures: %+v, skipped: %+v", report.Failures(), report.Skipped())
	}
	if len(report.Nodes) != 11 {
		t.Fatalf("expected 11 nodes including sentinels, got %d", len(report.Nodes))
	}

	counts := map[string]int{
		"DROP TABLE":      7,
		"CREATE TABLE":    7,
		"COPY ":           2,
		"INSERT INTO":     5,
		"SELECT COUNT(*)": 7,
	}
	for match, want := range counts {
		if got := wh.Count(match); got != want {
			t.Errorf("%s: expected %d statements, got %d", match, want, got)
		}
	}

	stmts := wh.Statements()
	lastCreate, firstCopy, lastCopy, fact, firstDim, firstCheck := -1, -1, -1, -1, -1, -1
	for i, s := range stmts {
		switch {
		case strings.HasPrefix(s, "CREATE TABLE"):
			lastCreate = i
		case strings.HasPrefix(s, "COPY "):
			if firstCopy < 0 {
				firstCopy = i
			}
			lastCopy = i
		case strings.Contains(s, "INSERT INTO songplays"):
			fact = i
		case strings.HasPrefix(strings.TrimSpace(s), "INSERT INTO"):
			if firstDim < 0 {
				firstDim = i
			}
		case strings.HasPrefix(s, "SELECT COUNT(*)"):
			if firstCheck < 0 {
				firstCheck = i
			}
		}
	}
	if !(lastCreate < firstCopy && lastCopy < fact && fact < firstDim && firstDim < firstCheck) {
		t.Errorf("statements ran out of tier order: %v", stmts)
	}

	events := stmts[firstCopy]
	if wh.Count("log_json_path.json") != 1 || wh.Count("s3://udacity-dend/song-data/") != 1 {
		t.Errorf("unexpected copies %q", events)
	}
}

func TestSparkifyFailurePropagation(t *testing.T) {
	wh := testutil.NewFake().Fail("COPY staging_songs", -1, errors.ExecutionFailed("redshift", os.ErrDeadlineExceeded))
	plan := build(t, Sparkify(settings()), wh)

	report, err := (&dag.Executor{Retry: dag.RetryPolicy{MaxAttempts: 2}}).Run(context.Background(), plan.Graph)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Succeeded() {
		t.Fatal("expected the run to fail")
	}
	if r := report.Nodes[StageSongs]; r.Status != dag.StatusFailed || r.Attempts != 2 {
		t.Fatalf("expected stage_songs failed after 2 attempts, got %+v", r)
	}
	if r := report.Nodes[StageEvents]; r.Status != dag.StatusSucceeded {
		t.Fatalf("stage_events does not depend on stage_songs, got %s", r.Status)
	}
	for _, id := range []string{LoadSongplaysFactTable, LoadUserDimTable, LoadSongDimTable, LoadArtistDimTable, LoadTimeDimTable, RunQualityChecks, EndExecution} {
		if r := report.Nodes[id]; r.Status != dag.StatusSkipped {
			t.Errorf("%s: expected skipped, got %s", id, r.Status)
		}
	}
	if wh.Count("INSERT INTO") != 0 || wh.Count("SELECT COUNT(*)") != 0 {
		t.Error("no load or check may run after a failed copy")
	}
}

func TestSparkifyMissingRole(t *testing.T) {
	wh := testutil.NewFake()
	plan := build(t, Sparkify(Settings{Bucket: "sparkify-raw"}), wh)

	rendered, err := plan.DryRun()
	if err == nil {
		t.Fatal("expected dry run to report the missing role")
	}
	failed := 0
	for _, r := range rendered {
		if r.Err != nil {
			failed++
			if !errors.Is(r.Err, errors.ErrCodeMissingPlaceholder) {
				t.Errorf("%s: expected MISSING_PLACEHOLDER, got %v", r.Stage, r.Err)
			}
		}
	}
	if failed != 2 {
		t.Fatalf("expected both bulk loads to fail rendering, got %d", failed)
	}

	report, err := (&dag.Executor{Retry: dag.RetryPolicy{MaxAttempts: 4}}).Run(context.Background(), plan.Graph)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if wh.Count("COPY ") != 0 {
		t.Error("no copy may execute with an unrendered placeholder")
	}
	if r := report.Nodes[StageEvents]; r.Status != dag.StatusFailed || r.Attempts != 1 {
		t.Errorf("render errors fail once, got %+v", r)
	}
}

func TestSparkifyTruncateMode(t *testing.T) {
	s := settings()
	s.DimensionMode = stage.ModeTruncate
	wh := testutil.NewFake()
	plan := build(t, Sparkify(s), wh)

	report, err := (&dag.Executor{}).Run(context.Background(), plan.Graph)
	if err != nil || !report.Succeeded() {
		t.Fatalf("unexpected result %v, %v", report, err)
	}
	for _, table := range []string{"users", "songs", "artists", "time"} {
		if wh.Count("TRUNCATE TABLE "+table+";") != 1 {
			t.Errorf("expected %s to be truncated once", table)
		}
	}
}

func TestSparkifySourceCheck(t *testing.T) {
	s := settings()
	s.CheckSources = true
	def := Sparkify(s)
	sd, _ := def.Stage(StageEvents)
	if sd.SourcePrefix != "s3://sparkify-raw/log-data" {
		t.Fatalf("unexpected source prefix %q", sd.SourcePrefix)
	}
	plan := build(t, def, testutil.NewFake())
	st, _ := plan.Stage(StageSongs)
	if loc, ok := st.Source(); !ok || loc.Bucket != "udacity-dend" || loc.Prefix != "song-data" {
		t.Fatalf("unexpected source %v", loc)
	}
}

func TestYAMLDefinitionMatchesSparkify(t *testing.T) {
	def, err := LoadDefinition(filepath.Join("..", "pipelines", "sparkify.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	def.SetDefaults(settings().Parameters())

	wh := testutil.NewFake()
	plan := build(t, def, wh)
	levels, _ := plan.Levels()
	if !reflect.DeepEqual(levels, fiveTiers) {
		t.Fatalf("expected %v, got %v", fiveTiers, levels)
	}
	if _, err := plan.DryRun(); err != nil {
		t.Fatalf("dry run: %v", err)
	}

	want, _ := build(t, Sparkify(settings()), testutil.NewFake()).DryRun()
	got, _ := plan.DryRun()
	for i := range want {
		if !reflect.DeepEqual(want[i].Statements, got[i].Statements) {
			t.Errorf("%s: yaml and built-in pipelines render differently", want[i].Stage)
		}
	}
}

func TestBuildErrors(t *testing.T) {
	t.Run("unknown connection", func(t *testing.T) {
		def := Sparkify(settings())
		def.Connection = "warehouse"
		_, err := Build(def, catalog.Sparkify(), connections(testutil.NewFake()), Options{})
		if !errors.Is(err, errors.ErrCodeNotFound) {
			t.Fatalf("expected NOT_FOUND, got %v", err)
		}
	})
	t.Run("unknown template", func(t *testing.T) {
		def := Sparkify(settings())
		def.Stages[3].Statements = []string{"fact_insert_v2"}
		_, err := Build(def, catalog.Sparkify(), connections(testutil.NewFake()), Options{})
		if !errors.Is(err, errors.ErrCodeUnknownTemplate) {
			t.Fatalf("expected UNKNOWN_TEMPLATE, got %v", err)
		}
	})
	t.Run("dependency cycle", func(t *testing.T) {
		def := Sparkify(settings())
		def.Stages[0].DependsOn = []string{RunQualityChecks}
		_, err := Build(def, catalog.Sparkify(), connections(testutil.NewFake()), Options{})
		if !errors.Is(err, errors.ErrCodeCyclicGraph) {
			t.Fatalf("expected CYCLIC_GRAPH, got %v", err)
		}
	})
}

func TestDefinitionValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *Definition)
		errMsg string
	}{
		{"valid", func(d *Definition) {}, ""},
		{"missing name", func(d *Definition) { d.Name = "" }, "name: is required"},
		{"no stages", func(d *Definition) { d.Stages = nil }, "stages: must not be empty"},
		{"duplicate id", func(d *Definition) { d.Stages[2].ID = StageEvents }, "duplicate value"},
		{"reserved id", func(d *Definition) { d.Stages[0].ID = EndExecution; d.Stages[1].DependsOn = nil; d.Stages[2].DependsOn = nil }, "is reserved"},
		{"bad kind", func(d *Definition) { d.Stages[0].Kind = "merge" }, "kind: must be one of"},
		{"unknown dependency", func(d *Definition) { d.Stages[1].DependsOn = []string{"create"} }, `unknown stage "create"`},
		{"self dependency", func(d *Definition) { d.Stages[1].DependsOn = []string{StageEvents} }, "cannot depend on itself"},
		{"no connection", func(d *Definition) { d.Connection = "" }, "connection: is required"},
		{"bad mode", func(d *Definition) { d.Stages[4].Mode = "upsert" }, "mode: must be one of"},
		{"two inserts", func(d *Definition) { d.Stages[3].Statements = append(d.Stages[3].Statements, "x") }, "exactly one template"},
		{"no tables", func(d *Definition) { d.Stages[8].Tables = nil }, "tables: must not be empty"},
		{"bad source", func(d *Definition) { d.Stages[1].SourcePrefix = "gs://bucket" }, "source_prefix"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			def := Sparkify(settings())
			tc.mutate(def)
			err := def.Validate()
			if tc.errMsg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.errMsg) {
				t.Fatalf("expected error containing %q, got %v", tc.errMsg, err)
			}
			if !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("expected INVALID_INPUT, got %v", err)
			}
		})
	}
}

func TestParse(t *testing.T) {
	if _, err := Parse([]byte("name: x\nstagez: []\n")); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("unknown keys must be rejected, got %v", err)
	}
	if _, err := Parse([]byte("name: x\n")); err == nil {
		t.Fatal("a definition without stages is invalid")
	}

	data, err := Marshal(Sparkify(settings()))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	def, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !reflect.DeepEqual(def, Sparkify(settings())) {
		t.Error("definition changed through yaml")
	}
}

func TestFileLoader(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "warehouse")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	data, _ := Marshal(Sparkify(settings()))
	if err := os.WriteFile(filepath.Join(nested, "sparkify.yml"), data, 0o644); err != nil {
		t.Fatal(err)
	}

	def, err := NewFileLoader(filepath.Join(dir, "missing"), dir).Load("sparkify")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if def.Name != "sparkify" {
		t.Errorf("unexpected name %q", def.Name)
	}
	if _, err := NewFileLoader(dir).Load("other"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestSetDefaults(t *testing.T) {
	def := &Definition{Parameters: map[string]string{"region": "eu-west-1"}}
	def.SetDefaults(map[string]string{"region": "us-west-2", "bucket": "b", "iam_role": ""})
	want := map[string]string{"region": "eu-west-1", "bucket": "b"}
	if !reflect.DeepEqual(def.Parameters, want) {
		t.Fatalf("expected %v, got %v", want, def.Parameters)
	}
}

func TestDefinitionConnections(t *testing.T) {
	def := &Definition{
		Connection: "redshift",
		Stages: []StageDef{
			{ID: "a"},
			{ID: "b", Connection: "local"},
			{ID: "c"},
		},
	}
	if got := def.Connections(); !reflect.DeepEqual(got, []string{"local", "redshift"}) {
		t.Fatalf("unexpected connections %v", got)
	}
	if got := Sparkify(Settings{}).Connections(); !reflect.DeepEqual(got, []string{"redshift"}) {
		t.Fatalf("unexpected sparkify connections %v", got)
	}
}

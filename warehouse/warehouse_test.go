package warehouse

import (
	"context"
	stderrors "errors"
	"os"
	"reflect"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kbukum/starschema/database"
	"github.com/kbukum/starschema/errors"
	"github.com/kbukum/starschema/logger"
)

type stubClient struct {
	closed   bool
	closeErr error
}

func (s *stubClient) Execute(context.Context, string) error { return nil }
func (s *stubClient) QueryFirstRow(context.Context, string) (Row, error) {
	return Row{}, nil
}
func (s *stubClient) Close() error {
	s.closed = true
	return s.closeErr
}

type plainClient struct{}

func (plainClient) Execute(context.Context, string) error               { return nil }
func (plainClient) QueryFirstRow(context.Context, string) (Row, error) { return Row{}, nil }

func TestConnectionsResolve(t *testing.T) {
	conns := NewConnections()
	a := &stubClient{}
	conns.Register("redshift", a)
	conns.Register("local", plainClient{})

	got, err := conns.Resolve("redshift")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != a {
		t.Error("expected registered client")
	}
	if _, err := conns.Resolve("missing"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
	if ids := conns.IDs(); !reflect.DeepEqual(ids, []string{"local", "redshift"}) {
		t.Errorf("unexpected ids %v", ids)
	}
}

func TestConnectionsClose(t *testing.T) {
	conns := NewConnections()
	ok := &stubClient{}
	bad := &stubClient{closeErr: stderrors.New("close failed")}
	conns.Register("a", ok)
	conns.Register("b", bad)
	conns.Register("c", plainClient{})

	err := conns.Close()
	if err == nil || err.Error() != "close failed" {
		t.Fatalf("expected close failure to be reported, got %v", err)
	}
	if !ok.closed || !bad.closed {
		t.Error("expected every closer to be closed")
	}
	if len(conns.IDs()) != 0 {
		t.Error("expected registry to be emptied")
	}
}

func TestExecutionErrorKeepsSQLState(t *testing.T) {
	cause := &pgconn.PgError{Code: SQLStateUndefinedTable, Message: `relation "songplays" does not exist`}
	err := executionError("redshift", cause)

	if err.Code != errors.ErrCodeExecution || !err.Retryable {
		t.Fatalf("expected retryable EXECUTION_ERROR, got %+v", err)
	}
	if err.Details[DetailSQLState] != SQLStateUndefinedTable {
		t.Errorf("expected sqlstate detail, got %v", err.Details)
	}
	if !IsUndefinedTable(err) {
		t.Error("expected undefined table")
	}
}

func TestIsUndefinedTable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", stderrors.New("no"), false},
		{"pg error", &pgconn.PgError{Code: "42P01"}, true},
		{"other sqlstate", &pgconn.PgError{Code: "42601"}, false},
		{"detail", errors.ExecutionFailed("local", stderrors.New("x")).WithDetail(DetailSQLState, "42P01"), true},
		{"execution without state", errors.ExecutionFailed("local", stderrors.New("x")), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsUndefinedTable(tc.err); got != tc.want {
				t.Errorf("IsUndefinedTable() = %v, want %v", got, tc.want)
			}
		})
	}
}

func openSQLite(t *testing.T) *Gorm {
	t.Helper()
	db, err := database.Open(context.Background(), database.Config{DSN: "file::memory:"}, logger.NewNop())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	g := NewGorm("local", db)
	t.Cleanup(func() { _ = g.Close() })
	return g
}

func TestGormExecuteAndQuery(t *testing.T) {
	g := openSQLite(t)
	ctx := context.Background()

	for _, stmt := range []string{
		"CREATE TABLE users (userid int, level varchar(16));",
		"INSERT INTO users VALUES (1, 'free'), (2, 'paid');",
	} {
		if err := g.Execute(ctx, stmt); err != nil {
			t.Fatalf("execute %q: %v", stmt, err)
		}
	}

	row, err := g.QueryFirstRow(ctx, "SELECT COUNT(*) FROM users;")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(row) != 1 || row[0] != int64(2) {
		t.Errorf("expected [2], got %v", row)
	}

	row, err = g.QueryFirstRow(ctx, "SELECT userid FROM users WHERE userid = 99;")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(row) != 0 {
		t.Errorf("expected empty row, got %v", row)
	}
}

func TestGormMissingTable(t *testing.T) {
	g := openSQLite(t)

	_, err := g.QueryFirstRow(context.Background(), "SELECT COUNT(*) FROM songplays;")
	if !errors.Is(err, errors.ErrCodeExecution) {
		t.Fatalf("expected EXECUTION_ERROR, got %v", err)
	}
	if !IsUndefinedTable(err) {
		t.Errorf("expected missing table to be recognised, got %v", err)
	}

	err = g.Execute(context.Background(), "INSERT INTO nowhere VALUES (1);")
	if !IsUndefinedTable(err) {
		t.Errorf("expected missing table on execute, got %v", err)
	}
}

func TestGormSyntaxError(t *testing.T) {
	g := openSQLite(t)
	err := g.Execute(context.Background(), "CREAT TABLE x (id int);")
	if !errors.IsRetryable(err) {
		t.Errorf("expected retryable execution error, got %v", err)
	}
	if IsUndefinedTable(err) {
		t.Error("syntax error is not a missing table")
	}
}

func TestPostgresIntegration(t *testing.T) {
	dsn := os.Getenv("STARSCHEMA_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("STARSCHEMA_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	p, err := NewPostgres(ctx, "redshift", PostgresConfig{DSN: dsn, MaxConns: 2}, logger.NewNop())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer p.Close()

	row, err := p.QueryFirstRow(ctx, "SELECT 1")
	if err != nil || len(row) != 1 {
		t.Fatalf("unexpected row %v, err %v", row, err)
	}
	_, err = p.QueryFirstRow(ctx, "SELECT COUNT(*) FROM starschema_missing_table")
	if !IsUndefinedTable(err) {
		t.Errorf("expected undefined table, got %v", err)
	}
}

func TestNewPostgresBadDSN(t *testing.T) {
	if _, err := NewPostgres(context.Background(), "x", PostgresConfig{DSN: "::not a dsn::"}, logger.NewNop()); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestGormQuery(t *testing.T) {
	g := openSQLite(t)
	ctx := context.Background()
	for _, stmt := range []string{
		"CREATE TABLE load_errors (filename text, err_reason text);",
		"INSERT INTO load_errors VALUES ('a.json', 'bad ts'), ('b.json', 'bad int'), ('c.json', 'overflow');",
	} {
		if err := g.Execute(ctx, stmt); err != nil {
			t.Fatalf("execute %q: %v", stmt, err)
		}
	}

	tests := []struct {
		name          string
		limit         int
		wantRows      int
		wantTruncated bool
	}{
		{"all rows", 0, 3, false},
		{"limit above count", 10, 3, false},
		{"truncated", 2, 2, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Query(ctx, g, "SELECT filename, err_reason FROM load_errors ORDER BY filename;", tc.limit)
			if err != nil {
				t.Fatalf("query: %v", err)
			}
			if !reflect.DeepEqual(res.Columns, []string{"filename", "err_reason"}) {
				t.Errorf("columns = %v", res.Columns)
			}
			if len(res.Rows) != tc.wantRows || res.Truncated != tc.wantTruncated {
				t.Fatalf("rows = %d truncated = %v, want %d %v", len(res.Rows), res.Truncated, tc.wantRows, tc.wantTruncated)
			}
		})
	}

	_, err := Query(ctx, g, "SELECT * FROM sys_load_error_detail;", 0)
	if !IsUndefinedTable(err) {
		t.Errorf("expected missing table, got %v", err)
	}
}

func TestQueryUnsupportedClient(t *testing.T) {
	_, err := Query(context.Background(), plainClient{}, "SELECT 1", 0)
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
}

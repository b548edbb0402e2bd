package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/starschema/config"
	"github.com/kbukum/starschema/logger"
)

type testConfig struct {
	config.ServiceConfig
}

func newTestConfig(name, version string) *testConfig {
	return &testConfig{
		ServiceConfig: config.ServiceConfig{
			Name:        name,
			Version:     version,
			Environment: "development",
		},
	}
}

func newTestApp(t *testing.T) *App[*testConfig] {
	t.Helper()
	app, err := NewApp(newTestConfig("starschema", "1.0.0"), WithLogger(logger.NewNop()))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	return app
}

func TestNewApp(t *testing.T) {
	app := newTestApp(t)
	if app.Name != "starschema" {
		t.Errorf("expected name 'starschema', got %q", app.Name)
	}
	if app.Version != "1.0.0" {
		t.Errorf("expected version '1.0.0', got %q", app.Version)
	}
	if app.Logger == nil || app.Summary == nil {
		t.Fatal("expected logger and summary")
	}
	if app.Cfg.Logging.Level != "debug" {
		t.Errorf("expected defaults applied, got level %q", app.Cfg.Logging.Level)
	}
}

func TestNewAppRegistersComponentLoggers(t *testing.T) {
	var buf bytes.Buffer
	base := logger.NewWithWriter(&logger.Config{Level: "info", Format: "json"}, "starschema", &buf)
	if _, err := NewApp(newTestConfig("starschema", "1.0.0"), WithLogger(base)); err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}

	logger.Get(logger.ComponentExecutor).Info("pipeline run started")
	if !strings.Contains(buf.String(), `"component":"executor"`) {
		t.Errorf("expected the executor logger to write through the app logger, got %q", buf.String())
	}
}

func TestNewAppInvalidConfig(t *testing.T) {
	if _, err := NewApp(newTestConfig("", "1.0.0")); err == nil {
		t.Fatal("expected validation error for missing name")
	}
}

func TestRunTaskHookOrder(t *testing.T) {
	app := newTestApp(t)
	var order []string
	record := func(name string) Hook {
		return func(context.Context) error {
			order = append(order, name)
			return nil
		}
	}
	app.OnStart(record("start"))
	app.OnReady(record("ready"))
	app.OnStop(record("stop-1"), record("stop-2"))

	err := app.RunTask(context.Background(), func(context.Context) error {
		order = append(order, "task")
		return nil
	})
	if err != nil {
		t.Fatalf("RunTask: %v", err)
	}
	want := []string{"start", "ready", "task", "stop-2", "stop-1"}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
}

func TestRunTaskStartFailureStillStops(t *testing.T) {
	app := newTestApp(t)
	boom := errors.New("connect refused")
	stopped, ran := false, false
	app.OnStart(func(context.Context) error { return boom })
	app.OnStop(func(context.Context) error { stopped = true; return nil })

	err := app.RunTask(context.Background(), func(context.Context) error {
		ran = true
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected start error, got %v", err)
	}
	if ran {
		t.Fatal("task must not run after a failed start hook")
	}
	if !stopped {
		t.Fatal("stop hooks must run after a failed start")
	}
}

func TestRunTaskErrorPrecedence(t *testing.T) {
	taskErr := errors.New("run failed")
	stopErr := errors.New("close failed")

	tests := []struct {
		name    string
		task    error
		stop    error
		wantErr error
	}{
		{"task error wins", taskErr, stopErr, taskErr},
		{"stop error surfaces", nil, stopErr, stopErr},
		{"clean", nil, nil, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp(t)
			app.OnStop(func(context.Context) error { return tc.stop })
			err := app.RunTask(context.Background(), func(context.Context) error { return tc.task })
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestRunTaskStopHooksAllRun(t *testing.T) {
	app := newTestApp(t)
	first, second := errors.New("first"), errors.New("second")
	app.OnStop(func(context.Context) error { return first })
	app.OnStop(func(context.Context) error { return second })

	err := app.RunTask(context.Background(), func(context.Context) error { return nil })
	if !errors.Is(err, first) || !errors.Is(err, second) {
		t.Fatalf("expected both stop errors joined, got %v", err)
	}
}

func TestRunTaskParentCancel(t *testing.T) {
	app := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := app.RunTask(ctx, func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			return nil
		}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSummaryWrite(t *testing.T) {
	var buf bytes.Buffer
	app, err := NewApp(newTestConfig("starschema", "1.0.0"), WithLogger(logger.NewNop()), WithSummary(&buf))
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	app.OnStart(func(context.Context) error {
		app.Summary.TrackInfrastructure("redshift", "warehouse", "connected", "postgres", true)
		app.Summary.TrackInfrastructure("s3", "storage", "failed", "us-west-2", false)
		return nil
	})
	if err := app.RunTask(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatalf("RunTask: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"starschema v1.0.0", "├── ✅ redshift [warehouse]: postgres", "└── ❌ s3 [storage]: us-west-2"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if len(app.Summary.Infrastructure()) != 2 {
		t.Errorf("expected 2 entries, got %d", len(app.Summary.Infrastructure()))
	}
}

func TestSummaryEmpty(t *testing.T) {
	var buf bytes.Buffer
	NewSummary("starschema", "").Write(&buf)
	if !strings.Contains(buf.String(), "vdev") || !strings.Contains(buf.String(), "No infrastructure registered") {
		t.Fatalf("unexpected empty summary: %q", buf.String())
	}
}

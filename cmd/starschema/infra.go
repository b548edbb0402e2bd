package main

import (
	"context"
	"fmt"

	"github.com/kbukum/starschema/bootstrap"
	"github.com/kbukum/starschema/database"
	"github.com/kbukum/starschema/logger"
	"github.com/kbukum/starschema/observability"
	"github.com/kbukum/starschema/storage"
	"github.com/kbukum/starschema/warehouse"

	_ "github.com/kbukum/starschema/storage/local"
	_ "github.com/kbukum/starschema/storage/s3"
)

// infra holds what the run command opens before executing a pipeline.
type infra struct {
	conns   *warehouse.Connections
	prober  storage.Prober
	metrics *observability.Metrics
	tracing bool
}

// wire registers hooks on app that open and release infrastructure.
func wire(app *bootstrap.App[*Config], ids []string) *infra {
	cfg := app.Cfg
	in := &infra{conns: warehouse.NewConnections()}

	app.OnStart(func(ctx context.Context) error {
		for _, id := range ids {
			client, err := openConnection(ctx, id, cfg.Warehouse[id])
			if err != nil {
				app.Summary.TrackInfrastructure(id, "warehouse", "failed", cfg.Warehouse[id].Driver, false)
				return err
			}
			in.conns.Register(id, client)
			app.Summary.TrackInfrastructure(id, "warehouse", "connected", cfg.Warehouse[id].Driver, true)
		}
		return nil
	})
	app.OnStop(func(context.Context) error { return in.conns.Close() })

	app.OnStart(func(ctx context.Context) error {
		prober, err := storage.New(ctx, cfg.Storage, logger.Get(logger.ComponentStorage))
		if err != nil {
			return err
		}
		in.prober = prober
		status := "active"
		if prober == nil {
			status = "disabled"
		}
		app.Summary.TrackInfrastructure("sources", "storage", status, cfg.Storage.Provider, true)
		return nil
	})

	if cfg.Telemetry.Tracing.Enabled {
		app.OnStart(func(ctx context.Context) error {
			tp, err := observability.InitTracer(ctx, cfg.tracerConfig())
			if err != nil {
				return err
			}
			in.tracing = true
			app.OnStop(tp.Shutdown)
			app.Summary.TrackInfrastructure("tracing", "otlp", "active", cfg.Telemetry.Tracing.Endpoint, true)
			return nil
		})
	}
	if cfg.Telemetry.Metrics.Enabled {
		app.OnStart(func(ctx context.Context) error {
			mp, err := observability.InitMeter(ctx, cfg.meterConfig())
			if err != nil {
				return err
			}
			app.OnStop(mp.Shutdown)
			m, err := observability.NewMetrics(mp.Meter(serviceName))
			if err != nil {
				return err
			}
			in.metrics = m
			app.Summary.TrackInfrastructure("metrics", "otlp", "active", cfg.Telemetry.Metrics.Endpoint, true)
			return nil
		})
	}
	return in
}

func openConnection(ctx context.Context, id string, cc ConnectionConfig) (warehouse.Client, error) {
	switch cc.Driver {
	case DriverPostgres:
		return warehouse.NewPostgres(ctx, id, warehouse.PostgresConfig{
			DSN:            cc.DSN,
			MaxConns:       cc.MaxConns,
			ConnectTimeout: cc.ConnectTimeout,
		}, logger.Get(logger.ComponentWarehouse))
	case DriverSQLite:
		// database tags its own logger with the database component.
		db, err := database.Open(ctx, cc.database(), logger.GetGlobalLogger())
		if err != nil {
			return nil, fmt.Errorf("warehouse %s: %w", id, err)
		}
		return warehouse.NewGorm(id, db), nil
	default:
		return nil, fmt.Errorf("warehouse %s: unsupported driver %q", id, cc.Driver)
	}
}

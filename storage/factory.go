package storage

import (
	"context"
	"fmt"

	"github.com/kbukum/starschema/logger"
)

// ProberFactory creates a Prober from storage config.
type ProberFactory func(ctx context.Context, cfg Config, log *logger.Logger) (Prober, error)

var factories = make(map[string]ProberFactory)

// RegisterFactory registers a storage backend factory for the given provider name.
// Implementation packages call this (typically in an init function) to make
// themselves available to New.
func RegisterFactory(name string, f ProberFactory) {
	factories[name] = f
}

// New creates the Prober selected by cfg.Provider.
// log is expected to carry the storage component tag.
// It returns nil without error for the "none" provider, which disables preflight checks.
// Ensure the desired provider package has been imported (e.g.
// _ "github.com/kbukum/starschema/storage/s3") so its factory is registered.
func New(ctx context.Context, cfg Config, log *logger.Logger) (Prober, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Provider == ProviderNone {
		return nil, nil
	}

	f, ok := factories[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("storage: unsupported provider %q (not registered)", cfg.Provider)
	}

	log.Info("initializing storage", map[string]interface{}{"provider": cfg.Provider})
	return f(ctx, cfg, log)
}

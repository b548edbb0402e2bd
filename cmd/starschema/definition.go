package main

import (
	"context"

	"github.com/kbukum/starschema/errors"
	"github.com/kbukum/starschema/pipeline"
	"github.com/kbukum/starschema/warehouse"
)

// loadDefinition returns the YAML pipeline named by pipeline.file, with the
// deployment settings filling its unset shared parameters, or the built-in
// sparkify pipeline when no file is configured.
func loadDefinition(cfg *Config) (*pipeline.Definition, error) {
	if cfg.Pipeline.File == "" {
		return pipeline.Sparkify(cfg.Pipeline.Settings), nil
	}
	def, err := pipeline.LoadDefinition(cfg.Pipeline.File)
	if err != nil {
		return nil, err
	}
	def.SetDefaults(cfg.Pipeline.Parameters())
	return def, nil
}

// offline resolves configured connections to clients that refuse every
// statement, so a plan can be built and rendered without a warehouse.
type offline map[string]ConnectionConfig

func (o offline) Resolve(id string) (warehouse.Client, error) {
	if _, ok := o[id]; !ok {
		return nil, errors.NotFound("connection", id)
	}
	return offlineClient(id), nil
}

type offlineClient string

func (c offlineClient) Execute(context.Context, string) error {
	return errors.New(errors.ErrCodeInvalidInput, "connection "+string(c)+" is offline")
}

func (c offlineClient) QueryFirstRow(context.Context, string) (warehouse.Row, error) {
	return nil, errors.New(errors.ErrCodeInvalidInput, "connection "+string(c)+" is offline")
}

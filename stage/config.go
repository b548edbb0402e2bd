package stage

import (
	"github.com/kbukum/starschema/catalog"
)

// Dimension load modes.
const (
	ModeAppend   = "append"
	ModeTruncate = "truncate"
)

// Parameter names bound by the typed configs.
const (
	ParamBucket  = "bucket"
	ParamIAMRole = "iam_role"
	ParamRegion  = "region"
	ParamFormat  = "format"
	ParamTable   = "table"
)

// ProvisionConfig creates the warehouse tables. Drops run before creates.
type ProvisionConfig struct {
	ID         string             `yaml:"id" validate:"required,identifier"`
	Connection string             `yaml:"connection" validate:"required"`
	Drop       []catalog.Template `yaml:"drop"`
	Create     []catalog.Template `yaml:"create" validate:"min=1"`
	Params     map[string]string  `yaml:"parameters"`
}

// BulkLoadConfig copies raw objects into a staging table.
// Empty strings leave the matching parameter unbound so rendering reports it.
type BulkLoadConfig struct {
	ID         string           `yaml:"id" validate:"required,identifier"`
	Connection string           `yaml:"connection" validate:"required"`
	Copy       catalog.Template `yaml:"copy" validate:"required"`
	Bucket     string           `yaml:"bucket"`
	IAMRole    string           `yaml:"iam_role"`
	Region     string           `yaml:"region"`
	Format     string           `yaml:"format"`
	// SourcePrefix is an s3:// URI that must hold at least one object before the copy runs.
	SourcePrefix string            `yaml:"source_prefix" validate:"omitempty,startswith=s3://"`
	Params       map[string]string `yaml:"parameters"`
}

// FactLoadConfig fills the fact table from staging tables.
type FactLoadConfig struct {
	ID         string            `yaml:"id" validate:"required,identifier"`
	Connection string            `yaml:"connection" validate:"required"`
	Table      string            `yaml:"table" validate:"omitempty,identifier"`
	Insert     catalog.Template  `yaml:"insert" validate:"required"`
	Params     map[string]string `yaml:"parameters"`
}

// DimensionLoadConfig fills one dimension table.
// In truncate mode the table is emptied before the insert runs.
type DimensionLoadConfig struct {
	ID         string            `yaml:"id" validate:"required,identifier"`
	Connection string            `yaml:"connection" validate:"required"`
	Table      string            `yaml:"table" validate:"required,identifier"`
	Insert     catalog.Template  `yaml:"insert" validate:"required"`
	Mode       string            `yaml:"mode" validate:"omitempty,oneof=append truncate"`
	Truncate   catalog.Template  `yaml:"truncate" validate:"required_if=Mode truncate"`
	Params     map[string]string `yaml:"parameters"`
}

// QualityCheckConfig runs a count-style check against each table in order.
type QualityCheckConfig struct {
	ID         string            `yaml:"id" validate:"required,identifier"`
	Connection string            `yaml:"connection" validate:"required"`
	Check      catalog.Template  `yaml:"check" validate:"required"`
	Tables     []string          `yaml:"tables" validate:"min=1,dive,identifier"`
	Params     map[string]string `yaml:"parameters"`
}

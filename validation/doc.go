// Package validation checks stage configurations and pipeline definitions.
//
// It supports both struct tag validation (using the validator library) and
// programmatic validation with error collection. Failures are returned as
// errors.AppError values with code INVALID_INPUT and per-field details.
//
// # Struct Tag Validation
//
//	type DimensionLoadConfig struct {
//	    Table string `yaml:"table" validate:"required,identifier"`
//	    Mode  string `yaml:"mode" validate:"omitempty,oneof=append truncate"`
//	}
//	err := validation.Validate(cfg)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Required("name", def.Name).Unique("stages", names)
//	err := v.Validate()
package validation

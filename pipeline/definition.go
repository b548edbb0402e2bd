package pipeline

import (
	"fmt"
	"sort"

	"github.com/kbukum/starschema/stage"
	"github.com/kbukum/starschema/validation"
)

// Definition is the declarative description of a pipeline, usually read from YAML.
type Definition struct {
	// Name identifies the pipeline in logs and reports.
	Name string `yaml:"name"`
	// Connection is the default warehouse connection of every stage.
	Connection string `yaml:"connection"`
	// Parameters are shared by every stage; stage parameters override them.
	Parameters map[string]string `yaml:"parameters,omitempty"`
	Stages     []StageDef        `yaml:"stages"`
}

// StageDef describes one stage.
// Statements name catalog templates: the copy of a bulk load, the insert of
// a fact or dimension load and the check of a quality check.
type StageDef struct {
	ID           string            `yaml:"id"`
	Kind         string            `yaml:"kind"`
	Connection   string            `yaml:"connection,omitempty"`
	Statements   []string          `yaml:"statements,omitempty"`
	Drop         []string          `yaml:"drop,omitempty"`
	Create       []string          `yaml:"create,omitempty"`
	Truncate     string            `yaml:"truncate,omitempty"`
	Parameters   map[string]string `yaml:"parameters,omitempty"`
	Table        string            `yaml:"table,omitempty"`
	Tables       []string          `yaml:"tables,omitempty"`
	Mode         string            `yaml:"mode,omitempty"`
	SourcePrefix string            `yaml:"source_prefix,omitempty"`
	DependsOn    []string          `yaml:"depends_on,omitempty"`
}

// Validate checks the definition and reports every problem found.
func (d *Definition) Validate() error {
	v := validation.New()
	v.Required("name", d.Name)
	v.NotEmpty("stages", len(d.Stages))

	kinds := make([]string, len(stage.Kinds))
	for i, k := range stage.Kinds {
		kinds[i] = string(k)
	}

	ids := make([]string, 0, len(d.Stages))
	known := make(map[string]bool, len(d.Stages))
	for _, s := range d.Stages {
		ids = append(ids, s.ID)
		known[s.ID] = true
	}
	v.Unique("stages.id", ids)

	for i, s := range d.Stages {
		field := fmt.Sprintf("stages[%d]", i)
		if s.ID != "" {
			field = fmt.Sprintf("stages[%s]", s.ID)
		}
		v.Required(field+".id", s.ID)
		v.Identifier(field+".id", s.ID)
		v.Custom(s.ID != BeginExecution && s.ID != EndExecution, field+".id", "is reserved")
		v.Required(field+".kind", s.Kind)
		v.OneOf(field+".kind", s.Kind, kinds)
		v.Custom(s.Connection != "" || d.Connection != "", field+".connection", "is required when the pipeline has no default connection")
		v.Pattern(field+".source_prefix", s.SourcePrefix, `^s3://[^/]+`)

		for _, dep := range s.DependsOn {
			v.Custom(known[dep], field+".depends_on", fmt.Sprintf("unknown stage %q", dep))
			v.Custom(dep != s.ID, field+".depends_on", "a stage cannot depend on itself")
		}
		v.Unique(field+".depends_on", s.DependsOn)

		switch stage.Kind(s.Kind) {
		case stage.KindProvision:
			v.NotEmpty(field+".create", len(s.Create))
			v.Custom(len(s.Statements) == 0, field+".statements", "provision stages use drop and create")
		case stage.KindBulkLoad, stage.KindFactLoad:
			v.Custom(len(s.Statements) == 1, field+".statements", "must name exactly one template")
		case stage.KindDimensionLoad:
			v.Custom(len(s.Statements) == 1, field+".statements", "must name exactly one template")
			v.Required(field+".table", s.Table)
			v.OneOf(field+".mode", s.Mode, []string{stage.ModeAppend, stage.ModeTruncate})
		case stage.KindQualityCheck:
			v.Max(field+".statements", len(s.Statements), 1)
			v.NotEmpty(field+".tables", len(s.Tables))
			v.Unique(field+".tables", s.Tables)
		}
	}

	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// Stage returns the stage definition with the given id.
func (d *Definition) Stage(id string) (StageDef, bool) {
	for _, s := range d.Stages {
		if s.ID == id {
			return s, true
		}
	}
	return StageDef{}, false
}

// parameters merges the shared parameters with the stage's own.
func (d *Definition) parameters(s StageDef) map[string]string {
	out := make(map[string]string, len(d.Parameters)+len(s.Parameters))
	for k, v := range d.Parameters {
		out[k] = v
	}
	for k, v := range s.Parameters {
		out[k] = v
	}
	return out
}

// Connections returns the sorted connection ids the stages use.
func (d *Definition) Connections() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, s := range d.Stages {
		id := d.connection(s)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (d *Definition) connection(s StageDef) string {
	if s.Connection != "" {
		return s.Connection
	}
	return d.Connection
}

// SetDefaults fills shared parameters the definition leaves unset.
// Empty values are skipped so they stay unbound.
func (d *Definition) SetDefaults(params map[string]string) {
	for k, v := range params {
		if v == "" {
			continue
		}
		if _, ok := d.Parameters[k]; ok {
			continue
		}
		if d.Parameters == nil {
			d.Parameters = make(map[string]string)
		}
		d.Parameters[k] = v
	}
}

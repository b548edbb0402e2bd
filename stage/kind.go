package stage

import (
	"fmt"

	"github.com/kbukum/starschema/errors"
)

// Kind is the type of work a stage performs.
type Kind string

// Stage kinds.
const (
	KindProvision     Kind = "provision"
	KindBulkLoad      Kind = "bulk_load"
	KindFactLoad      Kind = "fact_load"
	KindDimensionLoad Kind = "dimension_load"
	KindQualityCheck  Kind = "quality_check"
)

// Kinds lists every stage kind in pipeline order.
var Kinds = []Kind{KindProvision, KindBulkLoad, KindFactLoad, KindDimensionLoad, KindQualityCheck}

func (k Kind) String() string { return string(k) }

// ParseKind returns the Kind named s.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", errors.InvalidInput("kind", fmt.Sprintf("unknown stage kind %q", s))
}

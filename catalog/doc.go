// Package catalog holds the named SQL statement templates a pipeline runs.
//
// Templates use {name} placeholders. Render binds them from a parameter map
// without escaping; a missing binding is a MISSING_PLACEHOLDER error and no
// statement is produced.
//
//	c := catalog.Sparkify()
//	t, _ := c.Template(catalog.DataQualityCheck)
//	sql, err := catalog.Render(t, map[string]string{"table": "songplays"})
package catalog

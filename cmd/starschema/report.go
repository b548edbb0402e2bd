package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/kbukum/starschema/dag"
	"github.com/kbukum/starschema/pipeline"
	"github.com/kbukum/starschema/warehouse"
)

func printReport(w io.Writer, r *dag.RunReport) {
	fmt.Fprintf(w, "run %s: %s in %s\n\n", r.RunID, r.Status, r.Duration.Round(time.Millisecond))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STAGE\tSTATUS\tATTEMPTS\tDURATION\tREASON")
	for _, n := range r.Results() {
		attempts, duration := fmt.Sprint(n.Attempts), n.Duration.Round(time.Millisecond).String()
		if n.Sentinel {
			attempts, duration = "-", "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", n.Name, n.Status, attempts, duration, reason(n))
	}
	tw.Flush()
}

// progress returns an observer printing one line per stage state change.
// Sentinel nodes are not reported.
func progress(w io.Writer) func(dag.NodeResult) {
	return func(n dag.NodeResult) {
		switch {
		case n.Sentinel:
		case !n.Status.Terminal():
			fmt.Fprintf(w, "%s %s\n", n.Name, n.Status)
		case n.Status == dag.StatusSkipped:
			fmt.Fprintf(w, "%s %s: %s\n", n.Name, n.Status, n.Cause)
		default:
			fmt.Fprintf(w, "%s %s after %d attempt(s) in %s\n", n.Name, n.Status, n.Attempts, n.Duration.Round(time.Millisecond))
		}
	}
}

func reason(n dag.NodeResult) string {
	switch {
	case n.Err != nil:
		return firstLine(n.Err.Error())
	case n.Cause != "":
		return n.Cause
	default:
		return "-"
	}
}

func printLevels(w io.Writer, levels [][]string) {
	for i, level := range levels {
		fmt.Fprintf(w, "tier %d: %s\n", i, strings.Join(level, ", "))
	}
}

func printRendered(w io.Writer, rendered []pipeline.Rendered, showSQL bool) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STAGE\tSTATEMENTS\tRESULT")
	for _, r := range rendered {
		result := "ok"
		if r.Err != nil {
			result = r.Err.Error()
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", r.Stage, len(r.Statements), result)
	}
	tw.Flush()

	if !showSQL {
		return
	}
	for _, r := range rendered {
		for _, stmt := range r.Statements {
			fmt.Fprintf(w, "\n-- %s\n%s\n", r.Stage, strings.TrimSpace(stmt))
		}
	}
}

func printResult(w io.Writer, res *warehouse.Result) {
	if len(res.Rows) == 0 {
		fmt.Fprintln(w, "no rows")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.ToUpper(strings.Join(res.Columns, "\t")))
	for _, row := range res.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = cell(v)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	tw.Flush()
	if res.Truncated {
		fmt.Fprintf(w, "(showing first %d rows)\n", len(res.Rows))
	}
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return strings.TrimSpace(string(x))
	case string:
		return strings.TrimSpace(x)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

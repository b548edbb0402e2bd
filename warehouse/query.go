package warehouse

import (
	"context"

	"github.com/kbukum/starschema/errors"
)

// Result holds the rows of a diagnostic query.
type Result struct {
	Columns []string
	Rows    []Row
	// Truncated is set when more rows were available than the limit allowed.
	Truncated bool
}

// Querier is implemented by clients that can return whole result sets.
// Stages never need it; it serves operator diagnostics such as load errors.
type Querier interface {
	Query(ctx context.Context, statement string, limit int) (*Result, error)
}

// Query runs statement on client when it supports whole result sets.
func Query(ctx context.Context, client Client, statement string, limit int) (*Result, error) {
	q, ok := client.(Querier)
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidInput, "connection does not support result sets")
	}
	return q.Query(ctx, statement, limit)
}

// Query returns up to limit rows of statement; limit <= 0 returns all rows.
func (p *Postgres) Query(ctx context.Context, statement string, limit int) (*Result, error) {
	rows, err := p.pool.Query(ctx, statement)
	if err != nil {
		return nil, executionError(p.id, err)
	}
	defer rows.Close()

	res := &Result{}
	for _, fd := range rows.FieldDescriptions() {
		res.Columns = append(res.Columns, fd.Name)
	}
	for rows.Next() {
		if limit > 0 && len(res.Rows) == limit {
			res.Truncated = true
			break
		}
		values, err := rows.Values()
		if err != nil {
			return nil, executionError(p.id, err)
		}
		res.Rows = append(res.Rows, Row(values))
	}
	if err := rows.Err(); err != nil {
		return nil, executionError(p.id, err)
	}
	return res, nil
}

// Query returns up to limit rows of statement; limit <= 0 returns all rows.
func (g *Gorm) Query(ctx context.Context, statement string, limit int) (*Result, error) {
	rows, err := g.db.WithContext(ctx).Raw(statement).Rows()
	if err != nil {
		return nil, g.wrap(err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, g.wrap(err)
	}
	res := &Result{Columns: cols}
	for rows.Next() {
		if limit > 0 && len(res.Rows) == limit {
			res.Truncated = true
			break
		}
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, g.wrap(err)
		}
		res.Rows = append(res.Rows, Row(values))
	}
	if err := rows.Err(); err != nil {
		return nil, g.wrap(err)
	}
	return res, nil
}

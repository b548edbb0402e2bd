package warehouse

import (
	"context"

	"github.com/kbukum/starschema/database"
)

// Gorm is a Client over a database.DB, used with sqlite for local runs.
type Gorm struct {
	id string
	db *database.DB
}

// NewGorm wraps db as the client for connection id.
func NewGorm(id string, db *database.DB) *Gorm {
	return &Gorm{id: id, db: db}
}

// Execute runs statement outside any explicit transaction.
func (g *Gorm) Execute(ctx context.Context, statement string) error {
	if err := g.db.WithContext(ctx).Exec(statement).Error; err != nil {
		return g.wrap(err)
	}
	return nil
}

// QueryFirstRow returns the first row of statement's result.
func (g *Gorm) QueryFirstRow(ctx context.Context, statement string) (Row, error) {
	rows, err := g.db.WithContext(ctx).Raw(statement).Rows()
	if err != nil {
		return nil, g.wrap(err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, g.wrap(err)
		}
		return Row{}, nil
	}
	cols, err := rows.Columns()
	if err != nil {
		return nil, g.wrap(err)
	}
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, g.wrap(err)
	}
	return Row(values), nil
}

// Close closes the underlying database.
func (g *Gorm) Close() error {
	return g.db.Close()
}

func (g *Gorm) wrap(err error) error {
	appErr := executionError(g.id, err)
	if database.IsNoSuchTable(err) {
		appErr.WithDetail(DetailSQLState, SQLStateUndefinedTable)
	}
	return appErr
}

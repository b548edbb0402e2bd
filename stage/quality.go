package stage

import (
	"context"
	"fmt"

	"github.com/spf13/cast"

	"github.com/kbukum/starschema/errors"
	"github.com/kbukum/starschema/logger"
	"github.com/kbukum/starschema/warehouse"
)

// Quality check failure reasons.
const (
	ReasonMissingTable    = "table does not exist"
	ReasonNoRows          = "query returned no rows"
	ReasonNullValue       = "query returned NULL"
	ReasonUnexpectedValue = "unexpected value"
	ReasonZeroRows        = "table has zero rows"
)

// runQualityCheck queries each table in order and stops at the first failure.
func (s *Stage) runQualityCheck(ctx context.Context, client warehouse.Client, rendered []string, opts RunOptions, log *logger.Logger) error {
	for i, sql := range rendered {
		table := s.tables[i]
		log.Debug("checking table", logger.Fields(logger.FieldTable, table, logger.FieldStatement, sql))

		var row warehouse.Row
		err := withTimeout(ctx, opts.StatementTimeout, func(ctx context.Context) error {
			return s.traced(ctx, func(ctx context.Context) error {
				var qerr error
				row, qerr = client.QueryFirstRow(ctx, sql)
				return qerr
			})
		})
		if err != nil {
			if warehouse.IsUndefinedTable(err) {
				return errors.QualityCheckFailed(table, ReasonMissingTable).WithCause(err)
			}
			return err
		}

		count, err := checkRow(table, row)
		if err != nil {
			return err
		}
		log.Info("data quality check passed", logger.Fields(logger.FieldTable, table, "records", count))
	}
	return nil
}

// checkRow requires the first value of row to be a non-zero count.
func checkRow(table string, row warehouse.Row) (int64, error) {
	if len(row) == 0 {
		return 0, errors.QualityCheckFailed(table, ReasonNoRows)
	}
	v := row[0]
	if v == nil {
		return 0, errors.QualityCheckFailed(table, ReasonNullValue)
	}
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	count, err := cast.ToInt64E(v)
	if err != nil {
		return 0, errors.QualityCheckFailed(table, fmt.Sprintf("%s %v", ReasonUnexpectedValue, row[0])).WithDetail("value", fmt.Sprint(row[0]))
	}
	if count == 0 {
		return 0, errors.QualityCheckFailed(table, ReasonZeroRows)
	}
	return count, nil
}

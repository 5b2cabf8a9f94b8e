package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/populationgenomics/seqr/internal/domain"
)

// EnumRepo stores the enum dictionaries of each dataset. A dictionary is an
// ordered list of terms; a term's position is the integer id the variant
// tables store.
type EnumRepo struct {
	db *sql.DB
}

// NewEnumRepo creates an enum repository on db.
func NewEnumRepo(db *sql.DB) *EnumRepo {
	return &EnumRepo{db: db}
}

var _ domain.EnumRepository = (*EnumRepo)(nil)

// LoadEnums returns every dictionary of dataset keyed by field.
func (r *EnumRepo) LoadEnums(ctx context.Context, dataset string) (map[string][]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT field, position, value FROM enum_values WHERE dataset = ? ORDER BY field, position`, dataset)
	if err != nil {
		return nil, fmt.Errorf("load enums: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	enums := make(map[string][]string)
	for rows.Next() {
		var (
			field, value string
			position     int
		)
		if err := rows.Scan(&field, &position, &value); err != nil {
			return nil, fmt.Errorf("scan enum value: %w", err)
		}
		if position != len(enums[field]) {
			return nil, fmt.Errorf("enum %s.%s has a gap at position %d", dataset, field, len(enums[field]))
		}
		enums[field] = append(enums[field], value)
	}
	return enums, rows.Err()
}

// SetEnum replaces the dictionary of one field.
func (r *EnumRepo) SetEnum(ctx context.Context, dataset, field string, values []string) (err error) {
	if dataset == "" || field == "" {
		return domain.ErrValidation("dataset and field are required")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM enum_values WHERE dataset = ? AND field = ?`, dataset, field); err != nil {
		return mapDBError(err)
	}
	for i, v := range values {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO enum_values (dataset, field, position, value) VALUES (?, ?, ?, ?)`,
			dataset, field, i, v); err != nil {
			return mapDBError(err)
		}
	}
	return tx.Commit()
}

package engine

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/populationgenomics/seqr/internal/expr"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Execute runs a compiled predicate against a dataset's document table and
// returns the matching variant ids, ordered by sortBy (default xpos) and
// capped at size. A nil predicate matches every row.
func (s *Store) Execute(ctx context.Context, index string, e expr.Expr, sortBy []string, size int) ([]string, error) {
	table, err := tableName(index, "variants")
	if err != nil {
		return nil, err
	}
	query := "SELECT variantId FROM " + table
	if e != nil {
		where, err := expr.ToSQL(e)
		if err != nil {
			return nil, err
		}
		query += " WHERE " + where
	}
	order, err := orderBy(sortBy)
	if err != nil {
		return nil, err
	}
	query += " ORDER BY " + order
	if size > 0 {
		query += fmt.Sprintf(" LIMIT %d", size)
	}

	s.logger.Debug("executing document query", "table", table, "sql", query)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan variant id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}
	return ids, nil
}

func orderBy(fields []string) (string, error) {
	if len(fields) == 0 {
		fields = []string{"xpos"}
	}
	for _, f := range fields {
		if !identPattern.MatchString(f) {
			return "", fmt.Errorf("invalid sort field %q", f)
		}
	}
	return strings.Join(fields, ", ") + ", variantId", nil
}

package engine

import (
	"context"
	"fmt"
	"strings"
)

// duckTypes maps DuckDB column types to document-index field types.
var duckTypes = map[string]string{
	"VARCHAR":  "keyword",
	"BIGINT":   "long",
	"HUGEINT":  "long",
	"INTEGER":  "integer",
	"SMALLINT": "integer",
	"DOUBLE":   "double",
	"FLOAT":    "float",
	"REAL":     "float",
	"BOOLEAN":  "boolean",
}

// FieldTypes returns the field-type catalog of a dataset's document table,
// read from information_schema.columns. List columns take their element
// type. A dataset without a document table has an empty catalog.
func (s *Store) FieldTypes(ctx context.Context, index string) (map[string]string, error) {
	table, err := tableName(index, "variants")
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT column_name, data_type FROM information_schema.columns
		WHERE table_name = ? ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, fmt.Errorf("read columns of %s: %w", table, err)
	}

	types := make(map[string]string)
	for rows.Next() {
		var name, dataType string
		if err := rows.Scan(&name, &dataType); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan column: %w", err)
		}
		types[name] = fieldType(dataType)
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}
	return types, nil
}

func fieldType(dataType string) string {
	base := strings.ToUpper(strings.TrimSuffix(dataType, "[]"))
	if i := strings.IndexByte(base, '('); i >= 0 {
		base = base[:i]
	}
	if t, ok := duckTypes[base]; ok {
		return t
	}
	return strings.ToLower(base)
}

package expr

import (
	"strconv"
	"strings"

	"github.com/populationgenomics/seqr/internal/domain"
)

// ToSQL renders e as a relational filter clause.
func ToSQL(e Expr) (string, error) {
	switch n := e.(type) {
	case Field:
		return n.Name, nil
	case Literal:
		return sqlLiteral(n)
	case *Call:
		return sqlCall(n)
	}
	return "", domain.ErrCapability("sql: unsupported expression %T", e)
}

// OutputSQL renders a full SELECT over table filtered by e.
func OutputSQL(e Expr, table string) (string, error) {
	where, err := ToSQL(e)
	if err != nil {
		return "", err
	}
	return "SELECT * FROM " + table + " WHERE " + where, nil
}

func sqlLiteral(l Literal) (string, error) {
	switch l.Type {
	case StringValue:
		return quoteSQL(l.Value.(string)), nil
	case Int32Value, Int64Value:
		return strconv.FormatInt(l.Value.(int64), 10), nil
	case DoubleValue:
		return strconv.FormatFloat(l.Value.(float64), 'g', -1, 64), nil
	case BoolValue:
		if l.Value.(bool) {
			return "TRUE", nil
		}
		return "FALSE", nil
	}
	return "", domain.ErrCapability("sql: unsupported literal %v (%T)", l.Value, l.Value)
}

func quoteSQL(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

var sqlOperators = map[Kind]string{
	KindEqual:        "=",
	KindNotEqual:     "!=",
	KindLess:         "<",
	KindGreater:      ">",
	KindLessEqual:    "<=",
	KindGreaterEqual: ">=",
}

func sqlCall(c *Call) (string, error) {
	switch c.kind {
	case KindAnd, KindOr:
		parts, err := sqlArgs(c.args)
		if err != nil {
			return "", err
		}
		sep := " AND "
		if c.kind == KindOr {
			sep = " OR "
		}
		return "(" + strings.Join(parts, sep) + ")", nil

	case KindNegate:
		inner, err := ToSQL(c.args[0])
		if err != nil {
			return "", err
		}
		return "NOT (" + inner + ")", nil

	case KindIsNotNull, KindExists:
		inner, err := ToSQL(c.args[0])
		if err != nil {
			return "", err
		}
		return inner + " IS NOT NULL", nil

	case KindEqual, KindNotEqual, KindLess, KindGreater, KindLessEqual, KindGreaterEqual:
		parts, err := sqlArgs(c.args)
		if err != nil {
			return "", err
		}
		return parts[0] + " " + sqlOperators[c.kind] + " " + parts[1], nil

	case KindFieldIsOneOf:
		field, err := ToSQL(c.args[0])
		if err != nil {
			return "", err
		}
		values, err := sqlValues(c.values)
		if err != nil {
			return "", err
		}
		return field + " in (" + strings.Join(values, ",") + ")", nil

	case KindFieldListContains:
		field, err := ToSQL(c.args[0])
		if err != nil {
			return "", err
		}
		values, err := sqlValues(c.values)
		if err != nil {
			return "", err
		}
		if len(values) == 1 {
			return "list_contains(" + field + ", " + values[0] + ")", nil
		}
		clauses := make([]string, len(values))
		for i, v := range values {
			clauses[i] = "list_contains(" + field + ", " + v + ")"
		}
		return "(" + strings.Join(clauses, " OR ") + ")", nil
	}
	return "", domain.ErrCapability("sql: unsupported call %s", c.kind)
}

func sqlArgs(args []Expr) ([]string, error) {
	out := make([]string, len(args))
	for i, a := range args {
		s, err := ToSQL(a)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func sqlValues(values []Literal) ([]string, error) {
	if len(values) == 0 {
		return nil, domain.ErrCapability("sql: set lookup without values")
	}
	out := make([]string, len(values))
	for i, v := range values {
		s, err := sqlLiteral(v)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

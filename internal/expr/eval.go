package expr

import (
	"fmt"
	"reflect"
)

// Row is a flat record keyed by field name. Multi-valued fields hold slices.
type Row map[string]interface{}

// Eval evaluates e against row with document semantics: a comparison on a
// missing field is false, and equality on a multi-valued field matches when
// any element matches.
func Eval(e Expr, row Row) (bool, error) {
	c, ok := e.(*Call)
	if !ok {
		return false, fmt.Errorf("eval: %T is not a predicate", e)
	}
	switch c.kind {
	case KindAnd:
		for _, a := range c.args {
			ok, err := Eval(a, row)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil

	case KindOr:
		for _, a := range c.args {
			ok, err := Eval(a, row)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil

	case KindNegate:
		ok, err := Eval(c.args[0], row)
		return !ok, err

	case KindIsNotNull, KindExists:
		v, err := operand(c.args[0], row)
		if err != nil {
			return false, err
		}
		if v == nil {
			return false, nil
		}
		if items, isList := asList(v); isList {
			return len(items) > 0, nil
		}
		return true, nil

	case KindEqual, KindNotEqual, KindLess, KindGreater, KindLessEqual, KindGreaterEqual:
		left, err := operand(c.args[0], row)
		if err != nil {
			return false, err
		}
		right, err := operand(c.args[1], row)
		if err != nil {
			return false, err
		}
		if left == nil || right == nil {
			return false, nil
		}
		return compareAny(c.kind, left, right)

	case KindFieldIsOneOf, KindFieldListContains:
		v, err := operand(c.args[0], row)
		if err != nil || v == nil {
			return false, err
		}
		for _, lit := range c.values {
			ok, err := compareAny(KindEqual, v, lit.Value)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}
	return false, fmt.Errorf("eval: unsupported call %s", c.kind)
}

func operand(e Expr, row Row) (interface{}, error) {
	switch n := e.(type) {
	case Field:
		return row[n.Name], nil
	case Literal:
		return n.Value, nil
	}
	return nil, fmt.Errorf("eval: %T is not a value", e)
}

// compareAny compares a row value against an operand. A list on the left
// matches when any element satisfies the comparison.
func compareAny(kind Kind, left, right interface{}) (bool, error) {
	if items, ok := asList(left); ok {
		for _, item := range items {
			if item == nil {
				continue
			}
			ok, err := compareScalar(kind, item, right)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}
	return compareScalar(kind, left, right)
}

func compareScalar(kind Kind, left, right interface{}) (bool, error) {
	var cmp int
	lf, lnum := toFloat(left)
	rf, rnum := toFloat(right)
	switch {
	case lnum && rnum:
		switch {
		case lf < rf:
			cmp = -1
		case lf > rf:
			cmp = 1
		}
	default:
		ls, lok := left.(string)
		rs, rok := right.(string)
		if lok && rok {
			switch {
			case ls < rs:
				cmp = -1
			case ls > rs:
				cmp = 1
			}
			break
		}
		lb, lok := left.(bool)
		rb, rok := right.(bool)
		if lok && rok && (kind == KindEqual || kind == KindNotEqual) {
			if lb != rb {
				cmp = 1
			}
			break
		}
		return false, fmt.Errorf("eval: cannot compare %T with %T", left, right)
	}

	switch kind {
	case KindEqual:
		return cmp == 0, nil
	case KindNotEqual:
		return cmp != 0, nil
	case KindLess:
		return cmp < 0, nil
	case KindGreater:
		return cmp > 0, nil
	case KindLessEqual:
		return cmp <= 0, nil
	case KindGreaterEqual:
		return cmp >= 0, nil
	}
	return false, fmt.Errorf("eval: %s is not a comparison", kind)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func asList(v interface{}) ([]interface{}, bool) {
	if items, ok := v.([]interface{}); ok {
		return items, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, false
	}
	items := make([]interface{}, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

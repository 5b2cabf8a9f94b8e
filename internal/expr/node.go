// Package expr defines an immutable boolean expression tree and renders it to
// a relational filter clause, an Elasticsearch bool query and the columnar
// compute protocol.
package expr

import (
	"fmt"
	"math"
)

// Expr is a node of an expression tree. The set of node types is closed:
// Field, Literal and *Call.
type Expr interface {
	isExpr()
	// And returns a new call ANDing this node with other.
	And(other Expr) *Call
	// Or returns a new call ORing this node with other.
	Or(other Expr) *Call
	// Negate returns a new call inverting this node.
	Negate() *Call
}

// Kind enumerates the call operations.
type Kind int

// Call kinds.
const (
	KindAnd Kind = iota
	KindOr
	KindNegate
	KindIsNotNull
	KindExists
	KindEqual
	KindNotEqual
	KindLess
	KindGreater
	KindLessEqual
	KindGreaterEqual
	KindFieldIsOneOf
	KindFieldListContains
)

var kindNames = [...]string{
	KindAnd:               "and",
	KindOr:                "or",
	KindNegate:            "negate",
	KindIsNotNull:         "is_not_null",
	KindExists:            "exists",
	KindEqual:             "equal",
	KindNotEqual:          "not_equal",
	KindLess:              "less",
	KindGreater:           "greater",
	KindLessEqual:         "less_equal",
	KindGreaterEqual:      "greater_equal",
	KindFieldIsOneOf:      "field_is_one_of",
	KindFieldListContains: "field_list_contains",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// arity returns the exact argument count of k, or 0 for variadic kinds.
func (k Kind) arity() int {
	switch k {
	case KindNegate, KindIsNotNull, KindExists, KindFieldIsOneOf, KindFieldListContains:
		return 1
	case KindEqual, KindNotEqual, KindLess, KindGreater, KindLessEqual, KindGreaterEqual:
		return 2
	}
	return 0
}

// LiteralType is the inferred wire type of a literal.
type LiteralType string

// Literal wire types.
const (
	StringValue LiteralType = "string_value"
	Int32Value  LiteralType = "int32_value"
	Int64Value  LiteralType = "int64_value"
	DoubleValue LiteralType = "double_value"
	BoolValue   LiteralType = "bool_value"
)

// Field references a column or document attribute.
type Field struct {
	Name string
}

// NewField returns a field reference.
func NewField(name string) Field { return Field{Name: name} }

func (Field) isExpr() {}

func (f Field) And(other Expr) *Call { return And(f, other) }
func (f Field) Or(other Expr) *Call  { return Or(f, other) }
func (f Field) Negate() *Call        { return Not(f) }

// Literal is a constant. Values are normalised to string, int64, float64 or
// bool at construction.
type Literal struct {
	Value interface{}
	Type  LiteralType
}

// NewLiteral builds a literal and infers its wire type. Integers inside the
// signed 32-bit range are int32_value; larger ones are int64_value.
// Unsigned values above math.MaxInt64 and unsupported value types leave Type
// empty, which every renderer rejects.
func NewLiteral(v interface{}) Literal {
	switch val := v.(type) {
	case string:
		return Literal{Value: val, Type: StringValue}
	case bool:
		return Literal{Value: val, Type: BoolValue}
	case float64:
		return Literal{Value: val, Type: DoubleValue}
	case float32:
		return Literal{Value: float64(val), Type: DoubleValue}
	case int:
		return intLiteral(int64(val))
	case int8:
		return intLiteral(int64(val))
	case int16:
		return intLiteral(int64(val))
	case int32:
		return intLiteral(int64(val))
	case int64:
		return intLiteral(val)
	case uint8:
		return intLiteral(int64(val))
	case uint16:
		return intLiteral(int64(val))
	case uint32:
		return intLiteral(int64(val))
	case uint:
		if uint64(val) <= math.MaxInt64 {
			return intLiteral(int64(val))
		}
	case uint64:
		if val <= math.MaxInt64 {
			return intLiteral(int64(val))
		}
	}
	return Literal{Value: v}
}

func intLiteral(v int64) Literal {
	if v >= math.MinInt32 && v <= math.MaxInt32 {
		return Literal{Value: v, Type: Int32Value}
	}
	return Literal{Value: v, Type: Int64Value}
}

func (Literal) isExpr() {}

func (l Literal) And(other Expr) *Call { return And(l, other) }
func (l Literal) Or(other Expr) *Call  { return Or(l, other) }
func (l Literal) Negate() *Call        { return Not(l) }

// Call applies an operation to one or more arguments. Set operations carry
// their lookup values separately from the single field argument.
type Call struct {
	kind   Kind
	args   []Expr
	values []Literal
}

// NewCall validates and builds a call. It fails when no argument is given,
// an argument is nil, or the argument count does not match a fixed-arity kind.
func NewCall(kind Kind, args ...Expr) (*Call, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%s: expected at least 1 argument", kind)
	}
	for i, a := range args {
		if a == nil {
			return nil, fmt.Errorf("%s: argument %d is nil", kind, i)
		}
		if c, ok := a.(*Call); ok && c == nil {
			return nil, fmt.Errorf("%s: argument %d is nil", kind, i)
		}
	}
	if n := kind.arity(); n != 0 && len(args) != n {
		return nil, fmt.Errorf("%s: expected %d argument(s), got %d", kind, n, len(args))
	}
	return &Call{kind: kind, args: append([]Expr(nil), args...)}, nil
}

func mustCall(kind Kind, args ...Expr) *Call {
	c, err := NewCall(kind, args...)
	if err != nil {
		panic("expr: " + err.Error())
	}
	return c
}

func (*Call) isExpr() {}

func (c *Call) And(other Expr) *Call { return And(c, other) }
func (c *Call) Or(other Expr) *Call  { return Or(c, other) }
func (c *Call) Negate() *Call        { return Not(c) }

// Kind returns the call operation.
func (c *Call) Kind() Kind { return c.kind }

// Args returns a copy of the call arguments.
func (c *Call) Args() []Expr { return append([]Expr(nil), c.args...) }

// Values returns a copy of the lookup values of a set operation.
func (c *Call) Values() []Literal { return append([]Literal(nil), c.values...) }

// And, Or, Not and the comparison helpers panic on nil arguments; builders
// that accept untrusted trees should use NewCall.

// And returns a call requiring every argument.
func And(a, b Expr, rest ...Expr) *Call {
	return mustCall(KindAnd, append([]Expr{a, b}, rest...)...)
}

// Or returns a call requiring any argument.
func Or(a, b Expr, rest ...Expr) *Call {
	return mustCall(KindOr, append([]Expr{a, b}, rest...)...)
}

// Not inverts its argument.
func Not(e Expr) *Call { return mustCall(KindNegate, e) }

// IsNotNull requires e to be present.
func IsNotNull(e Expr) *Call { return mustCall(KindIsNotNull, e) }

// Exists requires the field to carry a non-empty value.
func Exists(f Field) *Call { return mustCall(KindExists, f) }

// Equal compares two operands for equality.
func Equal(a, b Expr) *Call { return mustCall(KindEqual, a, b) }

// NotEqual compares two operands for inequality.
func NotEqual(a, b Expr) *Call { return mustCall(KindNotEqual, a, b) }

// Less requires a < b.
func Less(a, b Expr) *Call { return mustCall(KindLess, a, b) }

// Greater requires a > b.
func Greater(a, b Expr) *Call { return mustCall(KindGreater, a, b) }

// LessEqual requires a <= b.
func LessEqual(a, b Expr) *Call { return mustCall(KindLessEqual, a, b) }

// GreaterEqual requires a >= b.
func GreaterEqual(a, b Expr) *Call { return mustCall(KindGreaterEqual, a, b) }

// IsOneOf requires a scalar field to equal one of values.
func IsOneOf(f Field, values ...interface{}) *Call {
	c := mustCall(KindFieldIsOneOf, f)
	c.values = literals(values)
	return c
}

// ListContains requires a multi-valued field to contain any of values.
func ListContains(f Field, values ...interface{}) *Call {
	c := mustCall(KindFieldListContains, f)
	c.values = literals(values)
	return c
}

func literals(values []interface{}) []Literal {
	out := make([]Literal, len(values))
	for i, v := range values {
		out[i] = NewLiteral(v)
	}
	return out
}

// Fold re-expresses exprs as a right-folded chain of two-argument calls of
// kind: the last two elements form the innermost call and each earlier
// element wraps it from the left. It returns nil for no elements and the
// element itself for one.
func Fold(kind Kind, exprs []Expr) Expr {
	switch len(exprs) {
	case 0:
		return nil
	case 1:
		return exprs[0]
	}
	n := len(exprs)
	var acc Expr = mustCall(kind, exprs[n-2], exprs[n-1])
	for i := n - 3; i >= 0; i-- {
		acc = mustCall(kind, exprs[i], acc)
	}
	return acc
}

// AllOf ANDs exprs, skipping nils. It returns nil when nothing remains and
// the element itself for one.
func AllOf(exprs ...Expr) Expr { return combine(KindAnd, exprs) }

// AnyOf ORs exprs, skipping nils. It returns nil when nothing remains and
// the element itself for one.
func AnyOf(exprs ...Expr) Expr { return combine(KindOr, exprs) }

func combine(kind Kind, exprs []Expr) Expr {
	var kept []Expr
	for _, e := range exprs {
		if e == nil {
			continue
		}
		if c, ok := e.(*Call); ok && c == nil {
			continue
		}
		kept = append(kept, e)
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	}
	return mustCall(kind, kept...)
}

package expr

import (
	"strconv"
	"strings"

	"github.com/populationgenomics/seqr/internal/domain"
)

const protocolIndent = " "

var protocolNames = map[Kind]string{
	KindAnd:               "and",
	KindOr:                "or",
	KindNegate:            "invert",
	KindIsNotNull:         "is_valid",
	KindExists:            "is_valid",
	KindEqual:             "equal",
	KindNotEqual:          "not_equal",
	KindLess:              "less",
	KindGreater:           "greater",
	KindLessEqual:         "less_equal",
	KindGreaterEqual:      "greater_equal",
	KindFieldIsOneOf:      "is_in",
	KindFieldListContains: "string_list_contains_any",
}

// ToProtocol renders e as a columnar compute call tree. And/Or calls with
// more than two arguments are folded into binary calls first.
func ToProtocol(e Expr) (string, error) {
	switch n := e.(type) {
	case Field:
		return `column: ` + quoteProtocol(n.Name), nil
	case Literal:
		v, err := protocolLiteral(n)
		if err != nil {
			return "", err
		}
		return "literal {\n" + protocolIndent + string(n.Type) + ": " + v + "\n}", nil
	case *Call:
		return protocolCall(n)
	}
	return "", domain.ErrCapability("protocol: unsupported expression %T", e)
}

// OutputProtocol renders a complete filter request. maxRows <= 0 selects
// the default of 10000.
func OutputProtocol(e Expr, fields, arrowURLs []string, maxRows int) (string, error) {
	body, err := ToProtocol(e)
	if err != nil {
		return "", err
	}
	if maxRows <= 0 {
		maxRows = 10000
	}

	var b strings.Builder
	var headers []string
	for _, u := range arrowURLs {
		headers = append(headers, "arrow_urls: "+quoteProtocol(u))
	}
	for _, f := range fields {
		headers = append(headers, "projection_columns: "+quoteProtocol(f))
	}
	if len(headers) > 0 {
		b.WriteString(strings.Join(headers, "\n"))
		b.WriteString("\n\n")
	}
	b.WriteString("filter_expression {\n")
	b.WriteString(indent(body))
	b.WriteString("\n}\n\nmax_rows: ")
	b.WriteString(strconv.Itoa(maxRows))
	b.WriteString("\n")
	return b.String(), nil
}

func protocolCall(c *Call) (string, error) {
	name, ok := protocolNames[c.kind]
	if !ok {
		return "", domain.ErrCapability("protocol: unsupported call %s", c.kind)
	}
	if len(c.args) > 2 {
		if c.kind != KindAnd && c.kind != KindOr {
			return "", domain.ErrCapability("protocol: %s accepts at most two arguments", c.kind)
		}
		return ToProtocol(Fold(c.kind, c.args))
	}

	internals := []string{`function_name: ` + quoteProtocol(name)}
	for _, a := range c.args {
		inner, err := ToProtocol(a)
		if err != nil {
			return "", err
		}
		internals = append(internals, "arguments {\n"+indent(inner)+"\n}")
	}
	if c.kind == KindFieldIsOneOf || c.kind == KindFieldListContains {
		if len(c.values) == 0 {
			return "", domain.ErrCapability("protocol: set lookup without values")
		}
		lines := make([]string, len(c.values))
		for i, v := range c.values {
			s, err := protocolLiteral(v)
			if err != nil {
				return "", err
			}
			lines[i] = "values: " + s
		}
		internals = append(internals, "set_lookup_options {\n"+indent(strings.Join(lines, "\n"))+"\n}")
	}
	return "call {\n" + indent(strings.Join(internals, "\n")) + "\n}", nil
}

func protocolLiteral(l Literal) (string, error) {
	switch l.Type {
	case StringValue:
		return quoteProtocol(l.Value.(string)), nil
	case Int32Value, Int64Value:
		return strconv.FormatInt(l.Value.(int64), 10), nil
	case DoubleValue:
		return strconv.FormatFloat(l.Value.(float64), 'g', -1, 64), nil
	case BoolValue:
		return strconv.FormatBool(l.Value.(bool)), nil
	}
	return "", domain.ErrCapability("protocol: unsupported literal %v (%T)", l.Value, l.Value)
}

var protocolEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func quoteProtocol(s string) string {
	return `"` + protocolEscaper.Replace(s) + `"`
}

// indent prefixes every non-blank line with one space.
func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			lines[i] = protocolIndent + line
		}
	}
	return strings.Join(lines, "\n")
}

package expr

import "github.com/populationgenomics/seqr/internal/domain"

// ToElasticsearch renders e as an Elasticsearch query clause.
func ToElasticsearch(e Expr) (map[string]interface{}, error) {
	c, ok := e.(*Call)
	if !ok {
		return nil, domain.ErrCapability("elasticsearch: %T cannot be rendered as a query clause", e)
	}
	switch c.kind {
	case KindAnd:
		clauses, err := esClauses(c.args)
		if err != nil {
			return nil, err
		}
		return esBool("must", clauses), nil

	case KindOr:
		clauses, err := esClauses(c.args)
		if err != nil {
			return nil, err
		}
		q := esBool("should", clauses)
		q["bool"].(map[string]interface{})["minimum_should_match"] = 1
		return q, nil

	case KindNegate:
		inner, err := ToElasticsearch(c.args[0])
		if err != nil {
			return nil, err
		}
		return esBool("must_not", []interface{}{inner}), nil

	case KindIsNotNull, KindExists:
		f, ok := c.args[0].(Field)
		if !ok {
			return nil, domain.ErrCapability("elasticsearch: %s requires a field argument", c.kind)
		}
		return map[string]interface{}{"exists": map[string]interface{}{"field": f.Name}}, nil

	case KindEqual, KindNotEqual:
		f, lit, err := fieldAndLiteral(c)
		if err != nil {
			return nil, err
		}
		term := map[string]interface{}{"term": map[string]interface{}{f.Name: lit.Value}}
		if c.kind == KindNotEqual {
			return esBool("must_not", []interface{}{term}), nil
		}
		return term, nil

	case KindLess, KindGreater, KindLessEqual, KindGreaterEqual:
		f, lit, err := fieldAndLiteral(c)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"range": map[string]interface{}{
				f.Name: map[string]interface{}{esRangeOps[c.kind]: lit.Value},
			},
		}, nil

	case KindFieldIsOneOf, KindFieldListContains:
		f, ok := c.args[0].(Field)
		if !ok {
			return nil, domain.ErrCapability("elasticsearch: %s requires a field argument", c.kind)
		}
		values := make([]interface{}, len(c.values))
		for i, v := range c.values {
			values[i] = v.Value
		}
		if c.kind == KindFieldListContains && len(values) == 1 {
			return map[string]interface{}{"term": map[string]interface{}{f.Name: values[0]}}, nil
		}
		return map[string]interface{}{"terms": map[string]interface{}{f.Name: values}}, nil
	}
	return nil, domain.ErrCapability("elasticsearch: unsupported call %s", c.kind)
}

// OutputElasticsearch renders the full search body for e.
func OutputElasticsearch(e Expr, sort []string, from, size int, source []string) (map[string]interface{}, error) {
	q, err := ToElasticsearch(e)
	if err != nil {
		return nil, err
	}
	if sort == nil {
		sort = []string{}
	}
	if source == nil {
		source = []string{}
	}
	return map[string]interface{}{
		"query":   esBool("filter", []interface{}{q}),
		"sort":    sort,
		"from":    from,
		"size":    size,
		"_source": source,
	}, nil
}

var esRangeOps = map[Kind]string{
	KindLess:         "lt",
	KindGreater:      "gt",
	KindLessEqual:    "lte",
	KindGreaterEqual: "gte",
}

func esBool(occur string, clauses []interface{}) map[string]interface{} {
	return map[string]interface{}{"bool": map[string]interface{}{occur: clauses}}
}

func esClauses(args []Expr) ([]interface{}, error) {
	out := make([]interface{}, len(args))
	for i, a := range args {
		q, err := ToElasticsearch(a)
		if err != nil {
			return nil, err
		}
		out[i] = q
	}
	return out, nil
}

func fieldAndLiteral(c *Call) (Field, Literal, error) {
	f, ok := c.args[0].(Field)
	if !ok {
		return Field{}, Literal{}, domain.ErrCapability("elasticsearch: %s requires a field on the left, got %T", c.kind, c.args[0])
	}
	lit, ok := c.args[1].(Literal)
	if !ok {
		return Field{}, Literal{}, domain.ErrCapability("elasticsearch: %s requires a literal on the right, got %T", c.kind, c.args[1])
	}
	if lit.Type == "" {
		return Field{}, Literal{}, domain.ErrCapability("elasticsearch: unsupported literal %v (%T)", lit.Value, lit.Value)
	}
	return f, lit, nil
}

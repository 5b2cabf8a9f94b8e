package expr

import (
	"errors"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/populationgenomics/seqr/internal/domain"
)

func TestOutputProtocol_Golden(t *testing.T) {
	tests := []struct {
		name      string
		expr      Expr
		fields    []string
		arrowURLs []string
	}{
		{
			name: "clinvar_is_in",
			expr: IsOneOf(NewField("clinvar_clinical_significance"),
				"Likely_pathogenic", "Pathogenic", "Pathogenic/Likely_pathogenic"),
		},
		{
			name: "folded_and_with_headers",
			expr: And(
				Equal(NewField("contig"), NewLiteral("X")),
				GreaterEqual(NewField("gq"), NewLiteral(20)),
				Not(Exists(NewField("filters"))),
			),
			fields:    []string{"variantId", "xpos"},
			arrowURLs: []string{"s3://bucket/variants.arrow"},
		},
		{
			name: "list_contains_or_range",
			expr: Or(
				ListContains(NewField("samples_num_alt_1"), "NA12878"),
				LessEqual(NewField("gnomad_genomes_AF"), NewLiteral(0.001)),
			),
		},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := OutputProtocol(tc.expr, tc.fields, tc.arrowURLs, 0)
			require.NoError(t, err)
			g.Assert(t, tc.name, []byte(out))
		})
	}
}

func TestToProtocol_Literals(t *testing.T) {
	tests := []struct {
		value interface{}
		want  string
	}{
		{"a\"b", "literal {\n string_value: \"a\\\"b\"\n}"},
		{`a\`, "literal {\n string_value: \"a\\\\\"\n}"},
		{`c:\"x`, "literal {\n string_value: \"c:\\\\\\\"x\"\n}"},
		{7, "literal {\n int32_value: 7\n}"},
		{int64(23000012345), "literal {\n int64_value: 23000012345\n}"},
		{1e-05, "literal {\n double_value: 1e-05\n}"},
		{true, "literal {\n bool_value: true\n}"},
	}
	for _, tc := range tests {
		got, err := ToProtocol(NewLiteral(tc.value))
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
}

func TestOutputProtocol_MaxRows(t *testing.T) {
	out, err := OutputProtocol(Exists(NewField("rsid")), nil, nil, 50)
	require.NoError(t, err)
	assert.Contains(t, out, "max_rows: 50\n")
	assert.Contains(t, out, `function_name: "is_valid"`)
}

func TestToProtocol_UnsupportedLiteral(t *testing.T) {
	_, err := ToProtocol(Equal(NewField("a"), NewLiteral(map[string]int{})))
	var capErr *domain.CapabilityError
	assert.True(t, errors.As(err, &capErr))
}

package expr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/populationgenomics/seqr/internal/domain"
)

func TestToSQL(t *testing.T) {
	tests := []struct {
		name string
		expr Expr
		want string
	}{
		{
			name: "clinvar is one of",
			expr: IsOneOf(NewField("clinvar_clinical_significance"), "Likely_pathogenic", "Pathogenic", "Pathogenic/Likely_pathogenic"),
			want: "clinvar_clinical_significance in ('Likely_pathogenic','Pathogenic','Pathogenic/Likely_pathogenic')",
		},
		{
			name: "quoted string",
			expr: Equal(NewField("rsid"), NewLiteral("it's")),
			want: "rsid = 'it''s'",
		},
		{
			name: "comparisons",
			expr: And(
				LessEqual(NewField("gnomad_genomes_AF"), NewLiteral(0.001)),
				GreaterEqual(NewField("cadd"), NewLiteral(20)),
				Less(NewField("xpos"), NewLiteral(int64(23000012345))),
				Greater(NewField("ac"), NewLiteral(1)),
				NotEqual(NewField("contig"), NewLiteral("Y")),
			),
			want: "(gnomad_genomes_AF <= 0.001 AND cadd >= 20 AND xpos < 23000012345 AND ac > 1 AND contig != 'Y')",
		},
		{
			name: "negate and exists",
			expr: Not(Or(Exists(NewField("filters")), IsNotNull(NewField("rsid")))),
			want: "NOT ((filters IS NOT NULL OR rsid IS NOT NULL))",
		},
		{
			name: "list contains one",
			expr: ListContains(NewField("samples_num_alt_2"), "NA12878"),
			want: "list_contains(samples_num_alt_2, 'NA12878')",
		},
		{
			name: "list contains many",
			expr: ListContains(NewField("transcriptConsequenceTerms"), "missense_variant", "stop_gained"),
			want: "(list_contains(transcriptConsequenceTerms, 'missense_variant') OR list_contains(transcriptConsequenceTerms, 'stop_gained'))",
		},
		{
			name: "bool literal",
			expr: Equal(NewField("canonical"), NewLiteral(false)),
			want: "canonical = FALSE",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ToSQL(tc.expr)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestOutputSQL(t *testing.T) {
	got, err := OutputSQL(Equal(NewField("contig"), NewLiteral("X")), "variants")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM variants WHERE contig = 'X'", got)
}

func TestToSQL_UnsupportedLiteral(t *testing.T) {
	_, err := ToSQL(Equal(NewField("a"), NewLiteral(struct{}{})))
	var capErr *domain.CapabilityError
	require.True(t, errors.As(err, &capErr))
}

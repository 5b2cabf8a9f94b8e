package annotation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/populationgenomics/seqr/internal/domain"
	"github.com/populationgenomics/seqr/internal/expr"
	"github.com/populationgenomics/seqr/internal/metadata"
)

func fp(v float64) *float64 { return &v }
func ip(v int) *int         { return &v }

func toSQL(t *testing.T, e expr.Expr) string {
	t.Helper()
	require.NotNil(t, e)
	s, err := expr.ToSQL(e)
	require.NoError(t, err)
	return s
}

func TestNewFilters(t *testing.T) {
	t.Run("consequence terms are sorted and distinct", func(t *testing.T) {
		f, err := NewFilters(&domain.SearchRequest{Annotations: map[string][]string{
			"missense":  {"missense_variant"},
			"lof":       {"stop_gained", "missense_variant"},
			SpliceAIKey: {"0.5"},
		}})
		require.NoError(t, err)
		assert.Equal(t, []string{"missense_variant", "stop_gained"}, f.consequences)
		require.NotNil(t, f.spliceAI)
		assert.Equal(t, 0.5, *f.spliceAI)
	})

	t.Run("pathogenicity classes map to terms", func(t *testing.T) {
		f, err := NewFilters(&domain.SearchRequest{Pathogenicity: map[string][]string{
			"clinvar": {"likely_pathogenic", "pathogenic", "benign"},
			"hgmd":    {"disease_causing"},
		}})
		require.NoError(t, err)
		assert.Equal(t, []string{"Benign", "Benign/Likely_benign", "Likely_pathogenic", "Pathogenic", "Pathogenic/Likely_pathogenic"}, f.clinvar)
		assert.Equal(t, []string{"Likely_pathogenic", "Pathogenic", "Pathogenic/Likely_pathogenic"}, f.pathOverride)
		assert.Equal(t, []string{"DM"}, f.hgmd)
		assert.True(t, f.HasPathogenicity())
	})

	t.Run("unknown populations and predictors are ignored", func(t *testing.T) {
		f, err := NewFilters(&domain.SearchRequest{
			Frequencies: map[string]domain.FrequencyFilter{"mars": {AF: fp(0.1)}},
			InSilico:    domain.InSilicoFilter{Scores: map[string]string{"astrology": "1", "cadd": ""}},
		})
		require.NoError(t, err)
		assert.Empty(t, f.freqs)
		assert.Empty(t, f.scores)
	})

	tests := []struct {
		name string
		req  *domain.SearchRequest
		want string
	}{
		{"splice ai", &domain.SearchRequest{Annotations: map[string][]string{SpliceAIKey: {"high"}}}, "Invalid splice_ai filter high"},
		{"clinvar class", &domain.SearchRequest{Pathogenicity: map[string][]string{"clinvar": {"nasty"}}}, "Invalid clinvar pathogenicity filter nasty"},
		{"in silico score", &domain.SearchRequest{InSilico: domain.InSilicoFilter{Scores: map[string]string{"cadd": "x"}}}, "Invalid in silico filter cadd: x"},
		{"interval", &domain.SearchRequest{Intervals: []string{"1:10-20", "chrQ:1-2", "2:5-1"}}, "Invalid intervals: chrQ:1-2, 2:5-1"},
	}
	for _, tc := range tests {
		t.Run("invalid "+tc.name, func(t *testing.T) {
			_, err := NewFilters(tc.req)
			var vErr *domain.ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tc.want, vErr.Message)
		})
	}
}

func TestParseIntervals(t *testing.T) {
	got, err := ParseIntervals([]string{"chr1:100-200", "X", "MT:5-6"})
	require.NoError(t, err)
	assert.Equal(t, []Interval{
		{Chrom: "1", Start: 100, End: 200},
		{Chrom: "X", Start: 1, End: chromEnd},
		{Chrom: "MT", Start: 5, End: 6},
	}, got)

	assert.True(t, got[0].Contains("chr1", 150))
	assert.False(t, got[0].Contains("1", 201))
	assert.True(t, got[1].Contains("X", 5))
	lo, hi := got[0].XPosRange()
	assert.Equal(t, int64(1_000_000_100), lo)
	assert.Equal(t, int64(1_000_000_200), hi)
}

func TestFilters_Document(t *testing.T) {
	snv := metadata.NewCatalog(metadata.SNVIndelFields())
	const clinvarPath = "clinvar_clinical_significance in ('Likely_pathogenic','Pathogenic','Pathogenic/Likely_pathogenic')"

	t.Run("consequence or pathogenicity", func(t *testing.T) {
		f, err := NewFilters(&domain.SearchRequest{
			Annotations:   map[string][]string{"missense": {"missense_variant"}, "lof": {"stop_gained"}},
			Pathogenicity: map[string][]string{"clinvar": {"pathogenic", "likely_pathogenic"}},
		})
		require.NoError(t, err)
		assert.Equal(t,
			"((list_contains(transcriptConsequenceTerms, 'missense_variant') OR list_contains(transcriptConsequenceTerms, 'stop_gained')) OR "+clinvarPath+")",
			toSQL(t, f.Document(snv)))
	})

	t.Run("intergenic allows variants without consequences", func(t *testing.T) {
		f, err := NewFilters(&domain.SearchRequest{Annotations: map[string][]string{"other": {"intergenic_variant"}}})
		require.NoError(t, err)
		assert.Equal(t,
			"(list_contains(transcriptConsequenceTerms, 'intergenic_variant') OR NOT (transcriptConsequenceTerms IS NOT NULL))",
			toSQL(t, f.Document(snv)))
	})

	t.Run("frequency with pathogenic override", func(t *testing.T) {
		f, err := NewFilters(&domain.SearchRequest{
			Pathogenicity: map[string][]string{"clinvar": {"pathogenic", "likely_pathogenic"}},
			Frequencies:   map[string]domain.FrequencyFilter{"gnomad_genomes": {AF: fp(0.01), HH: ip(1)}},
		})
		require.NoError(t, err)
		assert.Equal(t,
			"(((gnomad_genomes_AF <= 0.01 OR ("+clinvarPath+" AND gnomad_genomes_AF <= 0.05)) OR NOT (gnomad_genomes_AF IS NOT NULL)) AND "+
				"(gnomad_genomes_Hom <= 1 OR NOT (gnomad_genomes_Hom IS NOT NULL)) AND "+
				"(gnomad_genomes_Hemi <= 1 OR NOT (gnomad_genomes_Hemi IS NOT NULL)))",
			toSQL(t, f.documentFrequency(snv)))
	})

	t.Run("ac applies when af is unset", func(t *testing.T) {
		f, err := NewFilters(&domain.SearchRequest{
			Frequencies: map[string]domain.FrequencyFilter{"callset": {AC: ip(3)}},
		})
		require.NoError(t, err)
		assert.Equal(t, "(AC <= 3 OR NOT (AC IS NOT NULL))", toSQL(t, f.Document(snv)))
	})

	t.Run("in silico", func(t *testing.T) {
		f, err := NewFilters(&domain.SearchRequest{InSilico: domain.InSilicoFilter{
			Scores: map[string]string{"cadd": "20", "revel": "0.5"},
		}})
		require.NoError(t, err)
		assert.Equal(t,
			"(cadd_PHRED >= 20 OR dbnsfp_REVEL_score >= 0.5 OR (NOT (cadd_PHRED IS NOT NULL) AND NOT (dbnsfp_REVEL_score IS NOT NULL)))",
			toSQL(t, f.Document(snv)))

		f.requireScore = true
		assert.Equal(t, "(cadd_PHRED >= 20 OR dbnsfp_REVEL_score >= 0.5)", toSQL(t, f.Document(snv)))
	})

	t.Run("genes or intervals and rsids", func(t *testing.T) {
		f, err := NewFilters(&domain.SearchRequest{
			GeneIDs:   []string{"ENSG2", "ENSG1"},
			Intervals: []string{"2:10-20"},
			RsIDs:     []string{"rs1"},
		})
		require.NoError(t, err)
		assert.Equal(t,
			"(((xpos >= 2000000010 AND xpos <= 2000000020) OR (list_contains(geneIds, 'ENSG1') OR list_contains(geneIds, 'ENSG2'))) AND rsid in ('rs1'))",
			toSQL(t, f.Document(snv)))
	})

	t.Run("fields missing from the catalog are skipped", func(t *testing.T) {
		f, err := NewFilters(&domain.SearchRequest{
			Pathogenicity: map[string][]string{"hgmd": {"disease_causing"}},
			InSilico:      domain.InSilicoFilter{Scores: map[string]string{"strvctvre": "0.5"}},
		})
		require.NoError(t, err)
		assert.Nil(t, f.Document(metadata.NewCatalog(metadata.SVFields())))
	})
}

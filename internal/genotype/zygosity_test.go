package genotype

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/populationgenomics/seqr/internal/domain"
)

func trio() domain.FamilySamples {
	return domain.FamilySamples{
		"F1": {
			{SampleID: "s1", IndividualGUID: "I1", FamilyGUID: "F1", Affected: domain.Affected, Sex: domain.Female},
			{SampleID: "s2", IndividualGUID: "I2", FamilyGUID: "F1", Affected: domain.Unaffected, Sex: domain.Male},
			{SampleID: "s3", IndividualGUID: "I3", FamilyGUID: "F1", Affected: domain.Unaffected, Sex: domain.Female},
		},
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		z    domain.Zygosity
		want [4]bool // numAlt -1, 0, 1, 2
	}{
		{domain.RefRef, [4]bool{false, true, false, false}},
		{domain.RefAlt, [4]bool{false, false, true, false}},
		{domain.CompHetAlt, [4]bool{false, false, true, false}},
		{domain.AltAlt, [4]bool{false, false, false, true}},
		{domain.HasAlt, [4]bool{false, false, true, true}},
		{domain.HasRef, [4]bool{false, true, true, false}},
	}
	for _, tc := range tests {
		t.Run(string(tc.z), func(t *testing.T) {
			for i, n := range []int{domain.MissingNumAlt, 0, 1, 2} {
				assert.Equal(t, tc.want[i], Matches(tc.z, n), "numAlt=%d", n)
			}
		})
	}
}

func TestRequirements_For(t *testing.T) {
	fam := trio()["F1"]

	t.Run("mode defaults", func(t *testing.T) {
		r, err := NewRequirements(domain.ModeDeNovo, nil)
		require.NoError(t, err)
		z, ok := r.For(fam[0])
		assert.True(t, ok)
		assert.Equal(t, domain.HasAlt, z)
		z, _ = r.For(fam[1])
		assert.Equal(t, domain.RefRef, z)
	})

	t.Run("x-linked unaffected male is ref_ref", func(t *testing.T) {
		r, err := NewRequirements(domain.ModeXLinkedRecessive, nil)
		require.NoError(t, err)
		z, _ := r.For(fam[1])
		assert.Equal(t, domain.RefRef, z)
		z, _ = r.For(fam[2])
		assert.Equal(t, domain.HasRef, z)
	})

	t.Run("genotype map replaces mode", func(t *testing.T) {
		r, err := NewRequirements(domain.ModeRecessive, &domain.InheritanceFilter{
			Genotype: map[string]domain.Zygosity{"I1": domain.RefAlt},
		})
		require.NoError(t, err)
		assert.Equal(t, domain.ModeNone, r.Mode())
		z, ok := r.For(fam[0])
		assert.True(t, ok)
		assert.Equal(t, domain.RefAlt, z)
		_, ok = r.For(fam[1])
		assert.False(t, ok)
	})

	t.Run("custom status map", func(t *testing.T) {
		r, err := NewRequirements(domain.ModeNone, &domain.InheritanceFilter{
			Status: map[domain.AffectedStatus]domain.Zygosity{domain.Affected: domain.AltAlt},
		})
		require.NoError(t, err)
		z, ok := r.For(fam[0])
		assert.True(t, ok)
		assert.Equal(t, domain.AltAlt, z)
		_, ok = r.For(fam[2])
		assert.False(t, ok)
	})

	t.Run("affected override alone is rejected", func(t *testing.T) {
		_, err := NewRequirements(domain.ModeNone, &domain.InheritanceFilter{
			Affected: map[string]domain.AffectedStatus{"I2": domain.Affected},
		})
		var cfgErr *domain.ConfigurationError
		require.True(t, errors.As(err, &cfgErr))
		assert.Equal(t, "Inheritance must be specified if custom affected status is set", cfgErr.Message)
	})
}

func TestPrepareFamilies(t *testing.T) {
	families := trio()
	families["F2"] = []domain.Sample{{SampleID: "s4", IndividualGUID: "I4", FamilyGUID: "F2", Affected: domain.Unaffected}}

	t.Run("no inheritance keeps every family", func(t *testing.T) {
		got, err := PrepareFamilies(domain.ModeNone, nil, families)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("inheritance drops families without affected", func(t *testing.T) {
		got, err := PrepareFamilies(domain.ModeDeNovo, nil, families)
		require.NoError(t, err)
		assert.Equal(t, []string{"F1"}, got.FamilyGUIDs())
	})

	t.Run("affected override applies first", func(t *testing.T) {
		got, err := PrepareFamilies(domain.ModeDeNovo, &domain.InheritanceFilter{
			Affected: map[string]domain.AffectedStatus{"I4": domain.Affected},
		}, families)
		require.NoError(t, err)
		assert.Equal(t, []string{"F1", "F2"}, got.FamilyGUIDs())
		assert.Equal(t, domain.Unaffected, families["F2"][0].Affected, "input is not modified")
	})

	t.Run("no affected anywhere", func(t *testing.T) {
		_, err := PrepareFamilies(domain.ModeRecessive, nil, domain.FamilySamples{"F2": families["F2"]})
		var vErr *domain.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Contains(t, vErr.Message, "no data loaded for affected individuals")
	})
}

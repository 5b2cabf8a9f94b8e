package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCatalog_Roles(t *testing.T) {
	snv := NewCatalog(SNVIndelFields())
	sv := NewCatalog(SVFields())

	assert.True(t, snv.Has(RoleNoCall))
	assert.False(t, snv.Has(RoleSamples))
	assert.False(t, sv.Has(RoleNoCall))
	assert.True(t, sv.Has(RoleSamples))
	assert.False(t, snv.Has(Role(-1)))
	assert.Equal(t, "samples_num_alt_2", RoleNumAlt2.Field())

	typ, ok := snv.Type("xpos")
	assert.True(t, ok)
	assert.Equal(t, "long", typ)
}

func TestCatalog_BucketsBelow(t *testing.T) {
	c := NewCatalog(map[string]string{
		"samples_gq_10_to_15": "keyword",
		"samples_gq_0_to_5":   "keyword",
		"samples_gq_5_to_10":  "keyword",
		"samples_gq_bad":      "keyword",
		"samples_ab_0_to_5":   "keyword",
	})

	got := c.BucketsBelow("gq", 10)
	assert.Equal(t, []Bucket{
		{Field: "samples_gq_0_to_5", Low: 0, High: 5},
		{Field: "samples_gq_5_to_10", Low: 5, High: 10},
	}, got)
	assert.Empty(t, c.BucketsBelow("gq", 0))
	assert.Len(t, c.BucketsBelow("ab", 100), 1)
	assert.Empty(t, c.BucketsBelow("qs", 50))
}

func TestEnums(t *testing.T) {
	e := Enums{EnumConsequence: {"missense_variant", "stop_gained", "intergenic_variant"}}

	assert.Equal(t, []int{0, 1}, e.IDs(EnumConsequence, []string{"stop_gained", "missense_variant", "stop_gained", "unknown"}))
	v, ok := e.Value(EnumConsequence, 2)
	assert.True(t, ok)
	assert.Equal(t, "intergenic_variant", v)
	_, ok = e.Value(EnumConsequence, 3)
	assert.False(t, ok)
	assert.False(t, e.Has(EnumClinvar))
}

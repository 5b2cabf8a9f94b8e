// Package metadata holds the per-dataset field catalog and enum dictionaries.
package metadata

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

// Role is a known field of a document index.
type Role int

// Field roles.
const (
	RoleNumAlt1 Role = iota
	RoleNumAlt2
	RoleNoCall
	RoleSamples
	RoleContig
	RoleFilters
	RoleXPos
	RoleVariantID
	RoleRsID
	RoleGeneIDs
	RoleConsequenceTerms
	RoleClinvarSignificance
	RoleHGMDClass
	numRoles
)

var roleFields = [numRoles]string{
	RoleNumAlt1:             "samples_num_alt_1",
	RoleNumAlt2:             "samples_num_alt_2",
	RoleNoCall:              "samples_no_call",
	RoleSamples:             "samples",
	RoleContig:              "contig",
	RoleFilters:             "filters",
	RoleXPos:                "xpos",
	RoleVariantID:           "variantId",
	RoleRsID:                "rsid",
	RoleGeneIDs:             "geneIds",
	RoleConsequenceTerms:    "transcriptConsequenceTerms",
	RoleClinvarSignificance: "clinvar_clinical_significance",
	RoleHGMDClass:           "hgmd_class",
}

// Field returns the field name backing r.
func (r Role) Field() string {
	if r < 0 || r >= numRoles {
		return fmt.Sprintf("Role(%d)", int(r))
	}
	return roleFields[r]
}

// Bucket is a quantized quality field holding the samples whose metric lies
// in [Low, High).
type Bucket struct {
	Field string
	Low   int
	High  int
}

var bucketPattern = regexp.MustCompile(`^samples_([a-z]+)_(\d+)_to_(\d+)$`)

// Catalog is the typed view of one index's field-type map.
type Catalog struct {
	types   map[string]string
	present [numRoles]bool
	buckets map[string][]Bucket
}

// NewCatalog builds a catalog from a field name to type map.
func NewCatalog(types map[string]string) *Catalog {
	c := &Catalog{
		types:   make(map[string]string, len(types)),
		buckets: make(map[string][]Bucket),
	}
	for name, typ := range types {
		c.types[name] = typ
	}
	for r := Role(0); r < numRoles; r++ {
		_, c.present[r] = c.types[roleFields[r]]
	}
	for name := range c.types {
		m := bucketPattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		low, err1 := strconv.Atoi(m[2])
		high, err2 := strconv.Atoi(m[3])
		if err1 != nil || err2 != nil || high <= low {
			continue
		}
		c.buckets[m[1]] = append(c.buckets[m[1]], Bucket{Field: name, Low: low, High: high})
	}
	for metric := range c.buckets {
		b := c.buckets[metric]
		sort.Slice(b, func(i, j int) bool { return b[i].Low < b[j].Low })
	}
	return c
}

// Has reports whether the index carries the field for r.
func (c *Catalog) Has(r Role) bool {
	return r >= 0 && r < numRoles && c.present[r]
}

// HasField reports whether the index carries a field by name.
func (c *Catalog) HasField(name string) bool {
	_, ok := c.types[name]
	return ok
}

// Type returns the primitive type of a field.
func (c *Catalog) Type(name string) (string, bool) {
	t, ok := c.types[name]
	return t, ok
}

// BucketsBelow returns the metric's buckets lying entirely below threshold.
func (c *Catalog) BucketsBelow(metric string, threshold int) []Bucket {
	var out []Bucket
	for _, b := range c.buckets[metric] {
		if b.High <= threshold {
			out = append(out, b)
		}
	}
	return out
}

// Len returns the number of fields in the catalog.
func (c *Catalog) Len() int { return len(c.types) }

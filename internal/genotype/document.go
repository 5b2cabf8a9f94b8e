package genotype

import (
	"github.com/populationgenomics/seqr/internal/domain"
	"github.com/populationgenomics/seqr/internal/expr"
	"github.com/populationgenomics/seqr/internal/metadata"
)

// PrepareFamilies applies affected-status overrides and, for inheritance
// searches, drops families without an affected sample.
func PrepareFamilies(mode domain.InheritanceMode, filter *domain.InheritanceFilter, families domain.FamilySamples) (domain.FamilySamples, error) {
	if filter != nil && len(filter.Affected) > 0 {
		families = ApplyAffectedOverrides(families, filter.Affected)
	}
	if mode == domain.ModeNone && filter.IsEmpty() {
		return families, nil
	}
	return DropUnaffectedFamilies(families)
}

// DocumentFilter builds genotype predicates against one document index.
type DocumentFilter struct {
	catalog *metadata.Catalog
}

// NewDocumentFilter returns a builder that only references fields present in
// the catalog.
func NewDocumentFilter(c *metadata.Catalog) *DocumentFilter {
	return &DocumentFilter{catalog: c}
}

// Build returns the OR over families of each family's genotype and quality
// predicate. Families must already be prepared. A nil result means no
// genotype restriction.
func (d *DocumentFilter) Build(mode domain.InheritanceMode, filter *domain.InheritanceFilter, quality domain.QualityFilter, families domain.FamilySamples) (expr.Expr, error) {
	if err := ValidateQuality(quality); err != nil {
		return nil, err
	}

	var (
		req, xlinked *Requirements
		err          error
	)
	anyAlt := mode == domain.ModeAnyAffected || (mode == domain.ModeNone && filter.IsEmpty())
	if !anyAlt {
		if req, err = NewRequirements(mode, filter); err != nil {
			return nil, err
		}
		if req.Mode() == domain.ModeRecessive {
			if xlinked, err = NewRequirements(domain.ModeXLinkedRecessive, filter); err != nil {
				return nil, err
			}
		}
	}

	var perFamily []expr.Expr
	for _, guid := range families.FamilyGUIDs() {
		samples := families.SortedSamples(guid)
		var gt expr.Expr
		switch {
		case anyAlt:
			ids := sampleIDs(samples, mode == domain.ModeAnyAffected)
			if len(ids) == 0 {
				continue
			}
			gt = d.anyAlt(ids)
		case xlinked != nil:
			gt = recessiveGenotype(d.familyGenotype(req, samples), d.familyGenotype(xlinked, samples))
		default:
			gt = d.familyGenotype(req, samples)
		}
		p := expr.AllOf(gt, qualityPredicate(d.catalog, quality, samples))
		if p == nil {
			return d.wrapMode(req, nil), nil
		}
		perFamily = append(perFamily, p)
	}
	return d.wrapMode(req, expr.AnyOf(perFamily...)), nil
}

// recessiveGenotype accepts the homozygous pattern anywhere and the
// hemizygous pattern on chrX. A nil side places no restriction on its branch.
func recessiveGenotype(hom, hemi expr.Expr) expr.Expr {
	if hom == nil {
		return nil
	}
	return expr.AnyOf(hom, expr.AllOf(contigX(), hemi))
}

func (d *DocumentFilter) wrapMode(req *Requirements, e expr.Expr) expr.Expr {
	if req != nil && req.Mode() == domain.ModeXLinkedRecessive {
		return expr.AllOf(contigX(), e)
	}
	return e
}

func (d *DocumentFilter) familyGenotype(req *Requirements, samples []domain.Sample) expr.Expr {
	skipUnaffected := req.Mode() == domain.ModeCompoundHet && d.catalog.Has(metadata.RoleSamples)
	var parts []expr.Expr
	for _, s := range samples {
		if skipUnaffected && s.Affected == domain.Unaffected {
			continue
		}
		z, ok := req.For(s)
		if !ok {
			continue
		}
		parts = append(parts, d.zygosity(s.SampleID, z))
	}
	return expr.AllOf(parts...)
}

// zygosity renders one sample's requirement over the bucket fields the
// index carries.
func (d *DocumentFilter) zygosity(sampleID string, z domain.Zygosity) expr.Expr {
	rule := bucketRules[z]
	var in []expr.Expr
	for _, r := range rule.roles {
		if d.catalog.Has(r) {
			in = append(in, expr.ListContains(expr.NewField(r.Field()), sampleID))
		}
	}
	member := expr.AnyOf(in...)
	if member == nil || rule.allowed {
		return member
	}
	return expr.Not(member)
}

func (d *DocumentFilter) anyAlt(ids []interface{}) expr.Expr {
	var in []expr.Expr
	for _, r := range []metadata.Role{metadata.RoleNumAlt1, metadata.RoleNumAlt2, metadata.RoleSamples} {
		if d.catalog.Has(r) {
			in = append(in, expr.ListContains(expr.NewField(r.Field()), ids...))
		}
	}
	return expr.AnyOf(in...)
}

func sampleIDs(samples []domain.Sample, affectedOnly bool) []interface{} {
	var ids []interface{}
	for _, s := range samples {
		if affectedOnly && s.Affected != domain.Affected {
			continue
		}
		ids = append(ids, s.SampleID)
	}
	return ids
}

func contigX() expr.Expr {
	return expr.Equal(expr.NewField(metadata.RoleContig.Field()), expr.NewLiteral("X"))
}

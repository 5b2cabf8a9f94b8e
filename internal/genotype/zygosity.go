// Package genotype turns inheritance and quality requests into per-family
// genotype requirements, for both the document and the table search paths.
package genotype

import (
	"github.com/populationgenomics/seqr/internal/domain"
	"github.com/populationgenomics/seqr/internal/metadata"
)

// bucketRule is how a zygosity class reads on a document index: the sample
// must appear in one of the listed fields, or in none of them.
type bucketRule struct {
	allowed bool
	roles   []metadata.Role
}

var bucketRules = map[domain.Zygosity]bucketRule{
	domain.RefRef:     {allowed: false, roles: []metadata.Role{metadata.RoleNoCall, metadata.RoleNumAlt1, metadata.RoleNumAlt2, metadata.RoleSamples}},
	domain.RefAlt:     {allowed: true, roles: []metadata.Role{metadata.RoleNumAlt1, metadata.RoleSamples}},
	domain.CompHetAlt: {allowed: true, roles: []metadata.Role{metadata.RoleNumAlt1, metadata.RoleSamples}},
	domain.AltAlt:     {allowed: true, roles: []metadata.Role{metadata.RoleNumAlt2, metadata.RoleSamples}},
	domain.HasAlt:     {allowed: true, roles: []metadata.Role{metadata.RoleNumAlt1, metadata.RoleNumAlt2, metadata.RoleSamples}},
	domain.HasRef:     {allowed: false, roles: []metadata.Role{metadata.RoleNoCall, metadata.RoleNumAlt2}},
}

// Matches reports whether an alt-allele count satisfies zygosity z. A missing
// call satisfies nothing.
func Matches(z domain.Zygosity, numAlt int) bool {
	if numAlt == domain.MissingNumAlt {
		return false
	}
	switch z {
	case domain.RefRef:
		return numAlt == 0
	case domain.RefAlt, domain.CompHetAlt:
		return numAlt == 1
	case domain.AltAlt:
		return numAlt == 2
	case domain.HasAlt:
		return numAlt > 0
	case domain.HasRef:
		return numAlt == 0 || numAlt == 1
	}
	return false
}

// DefaultFilter returns the affected-status to zygosity map of a named mode.
// Modes without sample requirements return nil.
func DefaultFilter(mode domain.InheritanceMode) map[domain.AffectedStatus]domain.Zygosity {
	switch mode {
	case domain.ModeRecessive, domain.ModeHomozygousRecessive, domain.ModeXLinkedRecessive:
		return map[domain.AffectedStatus]domain.Zygosity{domain.Affected: domain.AltAlt, domain.Unaffected: domain.HasRef}
	case domain.ModeCompoundHet:
		return map[domain.AffectedStatus]domain.Zygosity{domain.Affected: domain.CompHetAlt, domain.Unaffected: domain.HasRef}
	case domain.ModeDeNovo:
		return map[domain.AffectedStatus]domain.Zygosity{domain.Affected: domain.HasAlt, domain.Unaffected: domain.RefRef}
	case domain.ModeAnyAffected:
		return map[domain.AffectedStatus]domain.Zygosity{domain.Affected: domain.HasAlt}
	}
	return nil
}

// Requirements resolves the zygosity each sample must show.
type Requirements struct {
	mode     domain.InheritanceMode
	status   map[domain.AffectedStatus]domain.Zygosity
	genotype map[string]domain.Zygosity
}

// NewRequirements merges a mode's defaults with a custom filter. A
// per-individual genotype map replaces the mode entirely; otherwise the mode
// defaults take precedence over a custom status map.
func NewRequirements(mode domain.InheritanceMode, filter *domain.InheritanceFilter) (*Requirements, error) {
	r := &Requirements{mode: mode, status: make(map[domain.AffectedStatus]domain.Zygosity)}
	if filter != nil {
		r.genotype = filter.Genotype
		for s, z := range filter.Status {
			r.status[s] = z
		}
		if len(filter.Genotype) > 0 {
			r.mode = domain.ModeNone
		}
	}
	for s, z := range DefaultFilter(r.mode) {
		r.status[s] = z
	}
	if r.mode == domain.ModeNone && filter != nil && len(filter.Affected) > 0 &&
		len(r.status) == 0 && len(r.genotype) == 0 {
		return nil, domain.ErrConfiguration("Inheritance must be specified if custom affected status is set")
	}
	return r, nil
}

// Mode returns the effective mode after a genotype map has been applied.
func (r *Requirements) Mode() domain.InheritanceMode { return r.mode }

// For returns the zygosity required of s, or false when any call is
// acceptable.
func (r *Requirements) For(s domain.Sample) (domain.Zygosity, bool) {
	if r.mode == domain.ModeXLinkedRecessive && s.Affected == domain.Unaffected && s.Sex.IsMale() {
		return domain.RefRef, true
	}
	if z, ok := r.genotype[s.IndividualGUID]; ok {
		return z, true
	}
	z, ok := r.status[s.Affected]
	return z, ok
}

// ApplyAffectedOverrides returns a copy of families with each sample's
// affected status replaced by the override for its individual.
func ApplyAffectedOverrides(families domain.FamilySamples, overrides map[string]domain.AffectedStatus) domain.FamilySamples {
	out := make(domain.FamilySamples, len(families))
	for guid, samples := range families {
		copied := make([]domain.Sample, len(samples))
		for i, s := range samples {
			if status, ok := overrides[s.IndividualGUID]; ok {
				s.Affected = status
			}
			copied[i] = s
		}
		out[guid] = copied
	}
	return out
}

// DropUnaffectedFamilies removes families with no affected sample. It fails
// when nothing remains.
func DropUnaffectedFamilies(families domain.FamilySamples) (domain.FamilySamples, error) {
	out := make(domain.FamilySamples, len(families))
	for guid, samples := range families {
		for _, s := range samples {
			if s.Affected == domain.Affected {
				out[guid] = samples
				break
			}
		}
	}
	if len(out) == 0 {
		return nil, domain.ErrValidation("Inheritance based search is disabled in families with no data loaded for affected individuals")
	}
	return out, nil
}

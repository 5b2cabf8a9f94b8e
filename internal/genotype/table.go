package genotype

import (
	"strings"

	"github.com/populationgenomics/seqr/internal/domain"
)

// plan is the per-sample zygosity each family must show for one pass.
type plan struct {
	families map[string]map[string]domain.Zygosity
	// minUnaffected is set on the comp-het pass when some family requires
	// several unaffected samples to carry a ref allele; one of them must then
	// be ref/ref.
	minUnaffected int
	maxUnaffected int
	xOnly         bool
}

func newPlan(req *Requirements, families domain.FamilySamples, overrideCompHetAlt, compHet bool) *plan {
	p := &plan{families: make(map[string]map[string]domain.Zygosity, len(families))}
	hasRef := make(map[string]int)
	for guid, samples := range families {
		reqs := make(map[string]domain.Zygosity)
		for _, s := range samples {
			z, ok := req.For(s)
			if !ok {
				continue
			}
			if z == domain.CompHetAlt && overrideCompHetAlt {
				z = domain.HasAlt
			}
			reqs[s.SampleID] = z
			if z == domain.HasRef {
				hasRef[guid]++
			}
		}
		p.families[guid] = reqs
	}
	if !compHet {
		return p
	}
	least := 0
	for _, n := range hasRef {
		if n > p.maxUnaffected {
			p.maxUnaffected = n
		}
		if least == 0 || n < least {
			least = n
		}
	}
	if p.maxUnaffected > 1 {
		p.minUnaffected = least
	}
	return p
}

func (p *plan) passes(family string, entries []domain.GenotypeEntry) bool {
	reqs, ok := p.families[family]
	if !ok {
		return false
	}
	numAlt := make(map[string]int, len(entries))
	for _, e := range entries {
		numAlt[e.SampleID] = e.NumAlt
	}
	refGroup, refRef := 0, 0
	for sampleID, z := range reqs {
		n, ok := numAlt[sampleID]
		if !ok {
			n = domain.MissingNumAlt
		}
		if !Matches(z, n) {
			return false
		}
		if z == domain.HasRef {
			refGroup++
			if n == 0 {
				refRef++
			}
		}
	}
	if p.minUnaffected > 0 && refGroup > 0 && refRef == 0 {
		return p.minUnaffected < 2 && refGroup < 2
	}
	return true
}

// TableFilter evaluates genotype and quality requirements against the
// family entries of candidates read from a variant table.
type TableFilter struct {
	quality     domain.QualityFilter
	anyAffected bool
	unfiltered  bool

	main    *plan
	xlinked *plan
	compHet *plan

	maxUnaffected int
}

// NewTableFilter compiles the requirements of a search over prepared
// families. The single-hit pass is skipped for compound-het-only searches;
// the comp-het pass exists for recessive and compound-het searches.
func NewTableFilter(mode domain.InheritanceMode, filter *domain.InheritanceFilter, quality domain.QualityFilter, overrideCompHetAlt bool, families domain.FamilySamples) (*TableFilter, error) {
	if err := ValidateQuality(quality); err != nil {
		return nil, err
	}
	t := &TableFilter{quality: quality}
	if mode == domain.ModeAnyAffected || (mode == domain.ModeNone && filter.IsEmpty()) {
		t.anyAffected = mode == domain.ModeAnyAffected
		t.unfiltered = true
		return t, nil
	}

	req, err := NewRequirements(mode, filter)
	if err != nil {
		return nil, err
	}
	if mode != domain.ModeCompoundHet {
		t.main = newPlan(req, families, false, false)
		t.main.xOnly = req.Mode() == domain.ModeXLinkedRecessive
		if req.Mode() == domain.ModeRecessive {
			xreq, err := NewRequirements(domain.ModeXLinkedRecessive, filter)
			if err != nil {
				return nil, err
			}
			t.xlinked = newPlan(xreq, families, false, false)
			t.xlinked.xOnly = true
		}
	}
	if mode.HasCompHetSearch() {
		creq, err := NewRequirements(domain.ModeCompoundHet, filter)
		if err != nil {
			return nil, err
		}
		t.compHet = newPlan(creq, families, overrideCompHetAlt, true)
		t.maxUnaffected = t.compHet.maxUnaffected
	}
	return t, nil
}

// HasMainPass reports whether single-hit results are produced.
func (t *TableFilter) HasMainPass() bool { return t.unfiltered || t.main != nil }

// HasCompHetPass reports whether comp-het candidates are produced.
func (t *TableFilter) HasCompHetPass() bool { return t.compHet != nil }

// MaxUnaffectedSamples is the largest number of samples any family requires
// to carry a ref allele on the comp-het pass.
func (t *TableFilter) MaxUnaffectedSamples() int { return t.maxUnaffected }

// Apply returns the families of c passing the single-hit pass and those
// eligible for comp-het pairing. Either map is nil when no family passes.
func (t *TableFilter) Apply(c *domain.Candidate) (main, compHet map[string][]domain.GenotypeEntry) {
	if t.quality.VCFFilter && len(c.Filters) > 0 {
		return nil, nil
	}
	valid := make(map[string][]domain.GenotypeEntry, len(c.FamilyEntries))
	for guid, entries := range c.FamilyEntries {
		if !PassesQuality(t.quality, entries) || !t.hasValidEntry(entries) {
			continue
		}
		valid[guid] = entries
	}
	if len(valid) == 0 {
		return nil, nil
	}

	onX := isChromX(c.Chrom)
	for guid, entries := range valid {
		if t.unfiltered || t.main.passesOn(guid, entries, onX) || t.xlinked.passesOn(guid, entries, onX) {
			main = put(main, guid, entries)
		}
		if t.compHet.passesOn(guid, entries, onX) {
			compHet = put(compHet, guid, entries)
		}
	}
	return main, compHet
}

func (p *plan) passesOn(family string, entries []domain.GenotypeEntry, onX bool) bool {
	if p == nil || (p.xOnly && !onX) {
		return false
	}
	return p.passes(family, entries)
}

func (t *TableFilter) hasValidEntry(entries []domain.GenotypeEntry) bool {
	for _, e := range entries {
		if Matches(domain.HasAlt, e.NumAlt) && (!t.anyAffected || e.Affected == domain.Affected) {
			return true
		}
	}
	return false
}

func put(m map[string][]domain.GenotypeEntry, guid string, entries []domain.GenotypeEntry) map[string][]domain.GenotypeEntry {
	if m == nil {
		m = make(map[string][]domain.GenotypeEntry)
	}
	m[guid] = entries
	return m
}

func isChromX(chrom string) bool {
	return strings.TrimPrefix(chrom, "chr") == "X"
}

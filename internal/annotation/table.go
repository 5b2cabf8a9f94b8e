package annotation

import (
	"github.com/populationgenomics/seqr/internal/domain"
	"github.com/populationgenomics/seqr/internal/metadata"
)

// Table evaluates annotation filters on candidates read from a variant
// table of one data type.
type Table struct {
	f     *Filters
	enums metadata.Enums

	primary      map[int]bool
	secondary    map[int]bool
	hasSecondary bool
	overrides    bool

	clinvar      map[int]bool
	hgmd         map[int]bool
	pathOverride map[int]bool

	mode          domain.InheritanceMode
	multiDataType bool
}

// ForTable resolves the filters against a dataset's enum dictionaries. When
// the data type only has annotations for second hits the search becomes
// compound-het only; when it lacks either the primary or secondary
// annotations its single data type pairs are suppressed.
func (f *Filters) ForTable(enums metadata.Enums, mode domain.InheritanceMode) *Table {
	t := &Table{
		f:            f,
		enums:        enums,
		primary:      idSet(enums.IDs(metadata.EnumConsequence, f.consequences)),
		overrides:    f.spliceAI != nil || f.HasPathogenicity(),
		clinvar:      idSet(enums.IDs(metadata.EnumClinvar, f.clinvar)),
		hgmd:         idSet(enums.IDs(metadata.EnumHGMD, f.hgmd)),
		pathOverride: idSet(enums.IDs(metadata.EnumClinvar, f.pathOverride)),
		mode:         mode,
	}
	if !mode.HasCompHetSearch() || len(f.secondary) == 0 {
		return t
	}

	secondary := idSet(enums.IDs(metadata.EnumConsequence, f.secondary))
	hasPrimary := len(t.primary) > 0 || t.overrides
	switch {
	case !hasPrimary:
		t.primary = secondary
		t.overrides = false
		t.mode = domain.ModeCompoundHet
	case !sameIDs(t.primary, secondary):
		t.secondary = secondary
		t.hasSecondary = true
	}
	if !hasPrimary || len(secondary) == 0 {
		t.multiDataType = true
	}
	return t
}

// Mode is the inheritance mode after annotation parsing.
func (t *Table) Mode() domain.InheritanceMode { return t.mode }

// MultiDataType reports whether comp-het pairs must span two data types.
func (t *Table) MultiDataType() bool { return t.multiDataType }

// Prefilter applies the location, frequency and in-silico filters.
func (t *Table) Prefilter(c *domain.Candidate) bool {
	return t.location(c) && t.frequency(c) && t.inSilico(c)
}

func (t *Table) location(c *domain.Candidate) bool {
	if len(t.f.rsIDs) > 0 && !t.f.rsIDs[c.RsID] {
		return false
	}
	if len(t.f.geneIDs) == 0 && len(t.f.intervals) == 0 {
		return true
	}
	for _, tr := range c.Transcripts {
		if t.f.geneIDs[tr.GeneID] {
			return true
		}
	}
	for _, iv := range t.f.intervals {
		if iv.Contains(c.Chrom, c.Pos) {
			return true
		}
	}
	return false
}

func (t *Table) frequency(c *domain.Candidate) bool {
	pathOverride := len(t.pathOverride) > 0 && t.hasEnum(c, metadata.EnumClinvar, t.pathOverride)
	for pop, freq := range t.f.freqs {
		p := c.Populations[pop]
		if p == nil {
			continue
		}
		switch {
		case freq.AF != nil:
			ok := p.AF <= *freq.AF
			if !ok && pathOverride && *freq.AF < PathFreqOverrideCutoff {
				ok = p.AF <= PathFreqOverrideCutoff
			}
			if !ok {
				return false
			}
		case freq.AC != nil && Populations[pop].AC != "":
			if p.AC > *freq.AC {
				return false
			}
		}
		if freq.HH != nil {
			if (Populations[pop].Hom != "" && p.Hom > *freq.HH) || (Populations[pop].Hemi != "" && p.Hemi > *freq.HH) {
				return false
			}
		}
	}
	return true
}

func (t *Table) inSilico(c *domain.Candidate) bool {
	if len(t.f.scores) == 0 {
		return true
	}
	allMissing := true
	for _, s := range t.f.scores {
		if s.predictor.Enum != "" {
			id, present := c.Enums[s.predictor.Enum]
			if present {
				allMissing = false
				if want, ok := t.enums.ID(s.predictor.Enum, s.value); ok && id == want {
					return true
				}
			}
			continue
		}
		score, present := c.Scores[s.name]
		if present {
			allMissing = false
			if score >= s.floor {
				return true
			}
		}
	}
	return allMissing && !t.f.requireScore
}

// Select records the candidate's allowed transcripts and override and
// reports whether it is kept for the single-hit and the comp-het passes.
func (t *Table) Select(c *domain.Candidate) (single, compHet bool) {
	sel := domain.AnnotationSelection{Override: t.override(c)}
	for _, tr := range c.Transcripts {
		if t.primary[tr.MajorConsequenceID] {
			sel.Allowed = append(sel.Allowed, tr)
		}
		if t.hasSecondary && t.secondary[tr.MajorConsequenceID] {
			sel.AllowedSecondary = append(sel.AllowedSecondary, tr)
		}
	}
	c.Selection = sel

	filtered := len(t.primary) > 0 || t.overrides
	single = !filtered || len(sel.Allowed) > 0 || sel.Override
	compHet = single || len(sel.AllowedSecondary) > 0
	return single, compHet
}

func (t *Table) override(c *domain.Candidate) bool {
	if !t.overrides {
		return false
	}
	if t.hasEnum(c, metadata.EnumClinvar, t.clinvar) || t.hasEnum(c, metadata.EnumHGMD, t.hgmd) {
		return true
	}
	if t.f.spliceAI != nil {
		if score, ok := c.Scores[SpliceAIKey]; ok && score >= *t.f.spliceAI {
			return true
		}
	}
	return false
}

func (t *Table) hasEnum(c *domain.Candidate, field string, ids map[int]bool) bool {
	id, ok := c.Enums[field]
	return ok && ids[id]
}

// Roles reports whether c, restricted to the transcripts of gene, may be
// the first and the second hit of a comp-het pair.
func (t *Table) Roles(c *domain.Candidate, gene string) (primary, secondary bool) {
	if len(t.primary) == 0 && !t.overrides && !t.hasSecondary {
		return true, true
	}
	primary = (len(t.primary) == 0 && !t.overrides) || hasGene(c.Selection.Allowed, gene) || c.Selection.Override
	if !t.hasSecondary {
		return primary, primary
	}
	secondary = hasGene(c.Selection.AllowedSecondary, gene) || c.Selection.Override
	return primary, secondary
}

func hasGene(transcripts []domain.Transcript, gene string) bool {
	for _, tr := range transcripts {
		if tr.GeneID == gene {
			return true
		}
	}
	return false
}

func idSet(ids []int) map[int]bool {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[int]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func sameIDs(a, b map[int]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if !b[id] {
			return false
		}
	}
	return true
}

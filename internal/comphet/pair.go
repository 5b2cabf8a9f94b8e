// Package comphet pairs candidate variants into compound heterozygous hits:
// two variants in the same gene that together explain a recessive condition.
package comphet

import (
	"sort"

	"github.com/populationgenomics/seqr/internal/domain"
)

// Roles decides, per gene, whether a candidate may be the first and the
// second hit of a pair.
type Roles interface {
	Roles(c *domain.Candidate, gene string) (primary, secondary bool)
}

// Options are the family validity settings of a search.
type Options struct {
	// MaxUnaffectedSamples enables the check that no unaffected sample
	// carries both hits.
	MaxUnaffectedSamples int
	// OverrideCompHetAlt rejects pairs where any sample is hom alt.
	OverrideCompHetAlt bool
}

// pairKey is the unordered key of a pair: v1 <= v2.
type pairKey struct{ v1, v2 string }

type pending struct {
	v1, v2 *domain.Candidate
	genes  map[string]bool
}

// geneGroup holds the candidates eligible for each side of a pair in one
// gene. Second hits are keyed by variant key.
type geneGroup struct {
	v1 []*domain.Candidate
	v2 map[string]*domain.Candidate
}

// Pair builds the valid pairs among candidates of one data type. Every
// unordered pair is produced once, with the genes it shares.
func Pair(candidates []*domain.Candidate, roles Roles, opts Options) []domain.CompHetPair {
	groups := groupByGene(candidates, roles)
	pairs := make(map[pairKey]*pending)

	for _, gene := range sortedGenes(groups) {
		g := groups[gene]
		v1Keys := make(map[string]bool, len(g.v1))
		for _, c := range g.v1 {
			v1Keys[c.Key] = true
		}
		for _, v1 := range g.v1 {
			_, v1IsSecond := g.v2[v1.Key]
			for key, v2 := range g.v2 {
				if v1IsSecond && v1Keys[key] && key <= v1.Key {
					continue
				}
				addPair(pairs, v1, v2, gene)
			}
		}
	}
	return validate(pairs, opts)
}

// PairAcross builds the valid pairs with one hit from each of two data
// types. The first hit of a pair always comes from a.
func PairAcross(a []*domain.Candidate, rolesA Roles, b []*domain.Candidate, rolesB Roles, opts Options) []domain.CompHetPair {
	type side struct {
		c                  *domain.Candidate
		primary, secondary bool
	}
	byGene := make(map[string][]side)
	for _, c := range b {
		for _, gene := range c.GeneIDs() {
			p, s := rolesB.Roles(c, gene)
			if p || s {
				byGene[gene] = append(byGene[gene], side{c, p, s})
			}
		}
	}

	pairs := make(map[pairKey]*pending)
	for _, x := range a {
		for _, gene := range x.GeneIDs() {
			p, s := rolesA.Roles(x, gene)
			for _, y := range byGene[gene] {
				if (p && y.secondary) || (s && y.primary) {
					addPair(pairs, x, y.c, gene)
				}
			}
		}
	}
	return validate(pairs, opts)
}

func groupByGene(candidates []*domain.Candidate, roles Roles) map[string]*geneGroup {
	groups := make(map[string]*geneGroup)
	for _, c := range candidates {
		for _, gene := range c.GeneIDs() {
			p, s := roles.Roles(c, gene)
			if !p && !s {
				continue
			}
			g, ok := groups[gene]
			if !ok {
				g = &geneGroup{v2: make(map[string]*domain.Candidate)}
				groups[gene] = g
			}
			if p {
				g.v1 = append(g.v1, c)
			}
			if s {
				g.v2[c.Key] = c
			}
		}
	}
	return groups
}

// addPair records v1 and v2 as a pair sharing gene. The key is unordered so
// a pair found in both orientations through different genes is kept once,
// in the orientation it was first seen, with the union of its genes.
func addPair(pairs map[pairKey]*pending, v1, v2 *domain.Candidate, gene string) {
	k := pairKey{v1.Key, v2.Key}
	if k.v2 < k.v1 {
		k = pairKey{k.v2, k.v1}
	}
	p, ok := pairs[k]
	if !ok {
		p = &pending{v1: v1, v2: v2, genes: make(map[string]bool)}
		pairs[k] = p
	}
	p.genes[gene] = true
}

func validate(pairs map[pairKey]*pending, opts Options) []domain.CompHetPair {
	keys := make([]pairKey, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].v1 != keys[j].v1 {
			return keys[i].v1 < keys[j].v1
		}
		return keys[i].v2 < keys[j].v2
	})

	var out []domain.CompHetPair
	for _, k := range keys {
		p := pairs[k]
		valid := validFamilies(p.v1, p.v2, opts)
		if len(valid) == 0 {
			continue
		}
		genes := make([]string, 0, len(p.genes))
		for g := range p.genes {
			genes = append(genes, g)
		}
		sort.Strings(genes)
		out = append(out, domain.CompHetPair{
			V1:      restrict(p.v1, valid, p.genes, false),
			V2:      restrict(p.v2, valid, p.genes, true),
			GeneIDs: genes,
		})
	}
	return out
}

// validFamilies returns the families where both hits are present and the
// genotypes are consistent with a compound het.
func validFamilies(v1, v2 *domain.Candidate, opts Options) map[string]bool {
	valid := make(map[string]bool)
	for guid, e1 := range v1.FamilyEntries {
		e2, ok := v2.FamilyEntries[guid]
		if !ok {
			continue
		}
		if opts.MaxUnaffectedSamples > 0 && !unaffectedHaveRef(e1, e2) {
			continue
		}
		if opts.OverrideCompHetAlt && (hasHomAlt(e1) || hasHomAlt(e2)) {
			continue
		}
		valid[guid] = true
	}
	return valid
}

// unaffectedHaveRef requires every unaffected sample to be ref/ref on at
// least one of the two variants.
func unaffectedHaveRef(e1, e2 []domain.GenotypeEntry) bool {
	second := make(map[string]int, len(e2))
	for _, e := range e2 {
		second[e.SampleID] = e.NumAlt
	}
	for _, e := range e1 {
		if e.Affected != domain.Unaffected || e.NumAlt == 0 {
			continue
		}
		if n, ok := second[e.SampleID]; ok && n == 0 {
			continue
		}
		return false
	}
	return true
}

func hasHomAlt(entries []domain.GenotypeEntry) bool {
	for _, e := range entries {
		if e.NumAlt == 2 {
			return true
		}
	}
	return false
}

// restrict copies c keeping only the valid families and the transcripts of
// the pair's genes. A second hit reports its secondary transcripts when it
// has them.
func restrict(c *domain.Candidate, families, genes map[string]bool, second bool) *domain.Candidate {
	out := c.Clone()
	for guid := range out.FamilyEntries {
		if !families[guid] {
			delete(out.FamilyEntries, guid)
		}
	}
	allowed := out.Selection.Allowed
	if second && len(out.Selection.AllowedSecondary) > 0 {
		allowed = out.Selection.AllowedSecondary
	}
	var kept []domain.Transcript
	for _, tr := range allowed {
		if genes[tr.GeneID] {
			kept = append(kept, tr)
		}
	}
	out.Selection.Allowed = kept
	out.Selection.AllowedSecondary = nil
	return out
}

func sortedGenes(groups map[string]*geneGroup) []string {
	genes := make([]string, 0, len(groups))
	for g := range groups {
		genes = append(genes, g)
	}
	sort.Strings(genes)
	return genes
}

package search

import (
	"math"

	"github.com/populationgenomics/seqr/internal/annotation"
	"github.com/populationgenomics/seqr/internal/domain"
)

// Sort names other than predictor and population sorts.
const (
	SortXPos     = "xpos"
	SortOMIM     = "in_omim"
	SortGeneRank = "gene_rank"
)

// populationSorts maps a sort name to the population whose allele
// frequency it orders by.
var populationSorts = map[string]string{
	"callset_af":    "callset",
	"gnomad":        "gnomad_genomes",
	"gnomad_exomes": "gnomad_exomes",
	"topmed":        "topmed",
}

// sorter computes the sort tuple of a candidate. Lower tuples come first;
// genomic position always ends the tuple.
type sorter struct {
	name      string
	omim      map[string]bool
	geneRanks map[string]int
}

func newSorter(req *domain.SearchRequest) *sorter {
	s := &sorter{name: req.Sort, geneRanks: req.GeneRanks}
	if s.name == "" {
		s.name = SortXPos
	}
	if len(req.OMIMGeneIDs) > 0 {
		s.omim = make(map[string]bool, len(req.OMIMGeneIDs))
		for _, g := range req.OMIMGeneIDs {
			s.omim[g] = true
		}
	}
	return s
}

func (s *sorter) tuple(c *domain.Candidate) []float64 {
	xpos := float64(candidateXPos(c))
	if s.name == SortXPos {
		return []float64{xpos}
	}
	return append(s.primary(c), xpos)
}

func (s *sorter) primary(c *domain.Candidate) []float64 {
	if p, ok := annotation.Predictors[s.name]; ok && p.Enum == "" {
		// Higher scores first; a missing score sorts as zero.
		return []float64{-c.Scores[s.name]}
	}
	if s.name == SortOMIM {
		n := 0
		for _, g := range c.GeneIDs() {
			if s.omim[g] {
				n++
			}
		}
		return []float64{-float64(n)}
	}
	if len(s.geneRanks) > 0 {
		best := math.Inf(1)
		for _, g := range c.GeneIDs() {
			if r, ok := s.geneRanks[g]; ok && float64(r) < best {
				best = float64(r)
			}
		}
		return []float64{best}
	}
	if pop, ok := populationSorts[s.name]; ok {
		if p := c.Populations[pop]; p != nil {
			return []float64{p.AF}
		}
		return []float64{math.Inf(1)}
	}
	return nil
}

func candidateXPos(c *domain.Candidate) int64 {
	if c.XPos != 0 {
		return c.XPos
	}
	return domain.XPos(c.Chrom, c.Pos)
}

// compareTuples orders two sort tuples lexicographically.
func compareTuples(a, b []float64) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

package search

import (
	"sort"
	"strings"

	"github.com/populationgenomics/seqr/internal/annotation"
	"github.com/populationgenomics/seqr/internal/domain"
	"github.com/populationgenomics/seqr/internal/metadata"
)

func (s *Service) formatRow(r *row, datasets map[domain.DataType]*metadata.Dataset) domain.ResultRow {
	if !r.isPair() {
		return domain.ResultRow{Variant: s.formatVariant(r.variant, datasets[r.variant.DataType])}
	}
	return domain.ResultRow{CompHet: []*domain.VariantResult{
		s.formatVariant(r.compHets[0], datasets[r.compHets[0].DataType]),
		s.formatVariant(r.compHets[1], datasets[r.compHets[1].DataType]),
	}}
}

// formatVariant resolves enum ids to terms and groups genotypes by
// individual and transcripts by gene.
func (s *Service) formatVariant(c *domain.Candidate, ds *metadata.Dataset) *domain.VariantResult {
	var enums metadata.Enums
	if ds != nil {
		enums = ds.Enums
	}
	v := &domain.VariantResult{
		VariantID:     c.Key,
		DataType:      c.DataType,
		GenomeVersion: strings.TrimPrefix(s.genomeVersion, "GRCh"),
		Chrom:         c.Chrom,
		Pos:           c.Pos,
		End:           c.End,
		XPos:          candidateXPos(c),
		Ref:           c.Ref,
		Alt:           c.Alt,
		RsID:          c.RsID,
		FamilyGUIDs:   c.FamilyGUIDs(),
		Genotypes:     make(map[string]domain.Genotype),
		Populations:   c.Populations,
	}
	for _, guid := range v.FamilyGUIDs {
		for _, e := range c.FamilyEntries[guid] {
			id := e.IndividualGUID
			if id == "" {
				id = e.SampleID
			}
			v.Genotypes[id] = domain.Genotype{SampleID: e.SampleID, NumAlt: e.NumAlt, GQ: e.GQ, AB: e.AB, DP: e.DP}
		}
	}
	if len(c.Transcripts) > 0 {
		v.Transcripts = make(map[string][]domain.TranscriptResult)
		for _, tr := range c.Transcripts {
			term, _ := enums.Value(metadata.EnumConsequence, tr.MajorConsequenceID)
			v.Transcripts[tr.GeneID] = append(v.Transcripts[tr.GeneID], domain.TranscriptResult{
				TranscriptID:     tr.TranscriptID,
				MajorConsequence: term,
				Canonical:        tr.Canonical,
			})
		}
	}
	v.Predictions = predictions(c, enums)
	if id, ok := c.Enums[metadata.EnumClinvar]; ok {
		v.Clinvar, _ = enums.Value(metadata.EnumClinvar, id)
	}
	if id, ok := c.Enums[metadata.EnumHGMD]; ok {
		v.HGMD, _ = enums.Value(metadata.EnumHGMD, id)
	}
	v.SelectedGenes = selectedGenes(c.Selection.Allowed)
	return v
}

func predictions(c *domain.Candidate, enums metadata.Enums) map[string]interface{} {
	out := make(map[string]interface{})
	for name, p := range annotation.Predictors {
		if p.Enum == "" {
			if score, ok := c.Scores[name]; ok {
				out[name] = score
			}
			continue
		}
		if id, ok := c.Enums[p.Enum]; ok {
			if term, ok := enums.Value(p.Enum, id); ok {
				out[name] = term
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func selectedGenes(transcripts []domain.Transcript) []string {
	seen := make(map[string]bool)
	var genes []string
	for _, tr := range transcripts {
		if !seen[tr.GeneID] {
			seen[tr.GeneID] = true
			genes = append(genes, tr.GeneID)
		}
	}
	sort.Strings(genes)
	return genes
}

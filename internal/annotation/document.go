package annotation

import (
	"github.com/populationgenomics/seqr/internal/expr"
	"github.com/populationgenomics/seqr/internal/metadata"
)

// Document returns the annotation predicate against a document index:
// consequence OR pathogenicity, AND frequency, in-silico and location
// filters. Fields missing from the catalog are not referenced. A nil result
// means no restriction.
func (f *Filters) Document(c *metadata.Catalog) expr.Expr {
	return expr.AllOf(
		f.documentLocation(c),
		expr.AnyOf(f.documentConsequence(c), f.documentPathogenicity(c, f.clinvar, f.hgmd)),
		f.documentFrequency(c),
		f.documentInSilico(c),
	)
}

func (f *Filters) documentConsequence(c *metadata.Catalog) expr.Expr {
	var parts []expr.Expr
	if len(f.consequences) > 0 && c.Has(metadata.RoleConsequenceTerms) {
		field := expr.NewField(metadata.RoleConsequenceTerms.Field())
		terms := make([]interface{}, len(f.consequences))
		hasIntergenic := false
		for i, t := range f.consequences {
			terms[i] = t
			hasIntergenic = hasIntergenic || t == "intergenic_variant"
		}
		parts = append(parts, expr.ListContains(field, terms...))
		if hasIntergenic {
			parts = append(parts, expr.Not(expr.Exists(field)))
		}
	}
	if f.spliceAI != nil {
		if field := Predictors[SpliceAIKey].Field; c.HasField(field) {
			parts = append(parts, expr.GreaterEqual(expr.NewField(field), expr.NewLiteral(*f.spliceAI)))
		}
	}
	return expr.AnyOf(parts...)
}

func (f *Filters) documentPathogenicity(c *metadata.Catalog, clinvar, hgmd []string) expr.Expr {
	var parts []expr.Expr
	if len(clinvar) > 0 && c.Has(metadata.RoleClinvarSignificance) {
		parts = append(parts, expr.IsOneOf(expr.NewField(metadata.RoleClinvarSignificance.Field()), toValues(clinvar)...))
	}
	if len(hgmd) > 0 && c.Has(metadata.RoleHGMDClass) {
		parts = append(parts, expr.IsOneOf(expr.NewField(metadata.RoleHGMDClass.Field()), toValues(hgmd)...))
	}
	return expr.AnyOf(parts...)
}

func (f *Filters) documentFrequency(c *metadata.Catalog) expr.Expr {
	override := f.documentPathogenicity(c, f.pathOverride, nil)
	var pops []expr.Expr
	for _, name := range sortedKeys(f.freqs) {
		freq, fields := f.freqs[name], Populations[name]
		var parts []expr.Expr
		switch {
		case freq.AF != nil && c.HasField(fields.AF):
			af := expr.NewField(fields.AF)
			p := expr.Expr(expr.LessEqual(af, expr.NewLiteral(*freq.AF)))
			if override != nil && *freq.AF < PathFreqOverrideCutoff {
				p = expr.Or(p, expr.And(override, expr.LessEqual(af, expr.NewLiteral(PathFreqOverrideCutoff))))
			}
			parts = append(parts, orMissing(af, p))
		case freq.AF == nil && freq.AC != nil && c.HasField(fields.AC):
			ac := expr.NewField(fields.AC)
			parts = append(parts, orMissing(ac, expr.LessEqual(ac, expr.NewLiteral(*freq.AC))))
		}
		if freq.HH != nil {
			for _, count := range []string{fields.Hom, fields.Hemi} {
				if count != "" && c.HasField(count) {
					field := expr.NewField(count)
					parts = append(parts, orMissing(field, expr.LessEqual(field, expr.NewLiteral(*freq.HH))))
				}
			}
		}
		pops = append(pops, parts...)
	}
	return expr.AllOf(pops...)
}

func orMissing(field expr.Field, p expr.Expr) expr.Expr {
	return expr.Or(p, expr.Not(expr.Exists(field)))
}

func (f *Filters) documentInSilico(c *metadata.Catalog) expr.Expr {
	var (
		scores  []expr.Expr
		missing []expr.Expr
	)
	for _, s := range f.scores {
		if !c.HasField(s.predictor.Field) {
			continue
		}
		field := expr.NewField(s.predictor.Field)
		if s.predictor.Enum != "" {
			scores = append(scores, expr.Equal(field, expr.NewLiteral(s.value)))
		} else {
			scores = append(scores, expr.GreaterEqual(field, expr.NewLiteral(s.floor)))
		}
		missing = append(missing, expr.Not(expr.Exists(field)))
	}
	if len(scores) == 0 {
		return nil
	}
	if !f.requireScore {
		scores = append(scores, expr.AllOf(missing...))
	}
	return expr.AnyOf(scores...)
}

// documentLocation matches variants in any requested gene or interval, and
// with a requested rsID.
func (f *Filters) documentLocation(c *metadata.Catalog) expr.Expr {
	var loci []expr.Expr
	if len(f.intervals) > 0 && c.Has(metadata.RoleXPos) {
		xpos := expr.NewField(metadata.RoleXPos.Field())
		for _, iv := range f.intervals {
			lo, hi := iv.XPosRange()
			loci = append(loci, expr.And(
				expr.GreaterEqual(xpos, expr.NewLiteral(lo)),
				expr.LessEqual(xpos, expr.NewLiteral(hi)),
			))
		}
	}
	if len(f.geneIDs) > 0 && c.Has(metadata.RoleGeneIDs) {
		loci = append(loci, expr.ListContains(expr.NewField(metadata.RoleGeneIDs.Field()), toValues(sortedSet(f.geneIDs))...))
	}
	var rs expr.Expr
	if len(f.rsIDs) > 0 && c.Has(metadata.RoleRsID) {
		rs = expr.IsOneOf(expr.NewField(metadata.RoleRsID.Field()), toValues(sortedSet(f.rsIDs))...)
	}
	return expr.AllOf(expr.AnyOf(loci...), rs)
}

func toValues(terms []string) []interface{} {
	out := make([]interface{}, len(terms))
	for i, t := range terms {
		out[i] = t
	}
	return out
}

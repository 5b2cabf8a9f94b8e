// Package annotation compiles the variant-level parts of a search request:
// consequence allow-lists, pathogenicity, population frequency, in-silico
// scores and location filters.
package annotation

import (
	"sort"
	"strconv"

	"github.com/populationgenomics/seqr/internal/domain"
)

// PathFreqOverrideCutoff is the frequency up to which a pathogenic variant
// passes a stricter frequency filter.
const PathFreqOverrideCutoff = 0.05

// SpliceAIKey is the annotation key whose value is a splice score floor
// rather than a consequence term.
const SpliceAIKey = "splice_ai"

var clinvarClasses = map[string][]string{
	"pathogenic":         {"Pathogenic", "Pathogenic/Likely_pathogenic"},
	"likely_pathogenic":  {"Likely_pathogenic", "Pathogenic/Likely_pathogenic"},
	"vus_or_conflicting": {"Conflicting_interpretations_of_pathogenicity", "Uncertain_significance", "not_provided", "other"},
	"likely_benign":      {"Likely_benign", "Benign/Likely_benign"},
	"benign":             {"Benign", "Benign/Likely_benign"},
}

var hgmdClasses = map[string][]string{
	"disease_causing":        {"DM"},
	"likely_disease_causing": {"DM?"},
	"hgmd_other":             {"DP", "DFP", "FP", "FTV"},
}

// Population names the fields of one reference population. Empty names are
// not available for that population.
type Population struct {
	AF, AC, Hom, Hemi string
}

// Populations are the reference populations a frequency filter can name.
var Populations = map[string]Population{
	"callset":        {AF: "AF", AC: "AC"},
	"sv_callset":     {AF: "sf", AC: "sc"},
	"gnomad_genomes": {AF: "gnomad_genomes_AF", AC: "gnomad_genomes_AC", Hom: "gnomad_genomes_Hom", Hemi: "gnomad_genomes_Hemi"},
	"gnomad_exomes":  {AF: "gnomad_exomes_AF", AC: "gnomad_exomes_AC", Hom: "gnomad_exomes_Hom", Hemi: "gnomad_exomes_Hemi"},
	"topmed":         {AF: "topmed_AF", AC: "topmed_AC", Hom: "topmed_Hom", Hemi: "topmed_Hemi"},
}

// Predictor is an in-silico score. Enum predictors store a category id under
// Enum; the rest store a numeric score under the predictor name.
type Predictor struct {
	Field string
	Enum  string
}

// Predictors are the in-silico scores a request can filter or sort on.
var Predictors = map[string]Predictor{
	"cadd":       {Field: "cadd_PHRED"},
	"revel":      {Field: "dbnsfp_REVEL_score"},
	"splice_ai":  {Field: "splice_ai_delta_score"},
	"primate_ai": {Field: "primate_ai_score"},
	"eigen":      {Field: "eigen_Eigen_phred"},
	"strvctvre":  {Field: "strvctvre_score"},
	"sift":       {Field: "dbnsfp_SIFT_pred", Enum: "predictions.sift"},
	"polyphen":   {Field: "dbnsfp_Polyphen2_HVAR_pred", Enum: "predictions.polyphen"},
	"mut_taster": {Field: "dbnsfp_MutationTaster_pred", Enum: "predictions.mut_taster"},
}

type scoreFilter struct {
	name      string
	predictor Predictor
	value     string
	floor     float64
}

// Filters is the validated annotation part of a request.
type Filters struct {
	consequences []string
	secondary    []string
	spliceAI     *float64

	clinvar      []string
	hgmd         []string
	pathOverride []string

	freqs        map[string]domain.FrequencyFilter
	scores       []scoreFilter
	requireScore bool

	geneIDs   map[string]bool
	rsIDs     map[string]bool
	intervals []Interval
}

// NewFilters validates and normalizes the annotation filters of req.
func NewFilters(req *domain.SearchRequest) (*Filters, error) {
	f := &Filters{
		consequences: consequenceTerms(req.Annotations),
		secondary:    consequenceTerms(req.AnnotationsSecondary),
		freqs:        make(map[string]domain.FrequencyFilter),
		requireScore: req.InSilico.RequireScore,
		geneIDs:      toSet(req.GeneIDs),
		rsIDs:        toSet(req.RsIDs),
	}

	if vals := req.Annotations[SpliceAIKey]; len(vals) > 0 {
		v, err := strconv.ParseFloat(vals[0], 64)
		if err != nil {
			return nil, domain.ErrValidation("Invalid %s filter %s", SpliceAIKey, vals[0])
		}
		f.spliceAI = &v
	}

	var err error
	if f.clinvar, err = mapClasses("clinvar", clinvarClasses, req.Pathogenicity["clinvar"]); err != nil {
		return nil, err
	}
	if f.hgmd, err = mapClasses("hgmd", hgmdClasses, req.Pathogenicity["hgmd"]); err != nil {
		return nil, err
	}
	var path []string
	for _, c := range req.Pathogenicity["clinvar"] {
		if c == "pathogenic" || c == "likely_pathogenic" {
			path = append(path, c)
		}
	}
	f.pathOverride, _ = mapClasses("clinvar", clinvarClasses, path)

	for pop, freq := range req.Frequencies {
		if _, ok := Populations[pop]; ok {
			f.freqs[pop] = freq
		}
	}

	for _, name := range sortedKeys(req.InSilico.Scores) {
		value := req.InSilico.Scores[name]
		p, ok := Predictors[name]
		if !ok || value == "" {
			continue
		}
		sf := scoreFilter{name: name, predictor: p, value: value}
		if p.Enum == "" {
			if sf.floor, err = strconv.ParseFloat(value, 64); err != nil {
				return nil, domain.ErrValidation("Invalid in silico filter %s: %s", name, value)
			}
		}
		f.scores = append(f.scores, sf)
	}

	if f.intervals, err = ParseIntervals(req.Intervals); err != nil {
		return nil, err
	}
	return f, nil
}

// HasPathogenicity reports whether a ClinVar or HGMD filter was requested.
func (f *Filters) HasPathogenicity() bool { return len(f.clinvar) > 0 || len(f.hgmd) > 0 }

// Intervals returns the parsed location filter.
func (f *Filters) Intervals() []Interval { return f.intervals }

// consequenceTerms returns the distinct consequence terms across every
// annotation group, sorted. Override keys are not terms.
func consequenceTerms(annotations map[string][]string) []string {
	seen := make(map[string]bool)
	var terms []string
	for key, values := range annotations {
		if key == SpliceAIKey {
			continue
		}
		for _, v := range values {
			if v != "" && !seen[v] {
				seen[v] = true
				terms = append(terms, v)
			}
		}
	}
	sort.Strings(terms)
	return terms
}

func mapClasses(name string, classes map[string][]string, requested []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, r := range requested {
		terms, ok := classes[r]
		if !ok {
			return nil, domain.ErrValidation("Invalid %s pathogenicity filter %s", name, r)
		}
		for _, t := range terms {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedSet(set map[string]bool) []string {
	return sortedKeys(set)
}

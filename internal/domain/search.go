package domain

// Zygosity is a genotype requirement class.
type Zygosity string

// Zygosity classes used in inheritance filters.
const (
	RefRef     Zygosity = "ref_ref"
	RefAlt     Zygosity = "ref_alt"
	AltAlt     Zygosity = "alt_alt"
	HasAlt     Zygosity = "has_alt"
	HasRef     Zygosity = "has_ref"
	CompHetAlt Zygosity = "comp_het_alt"
)

// Valid reports whether z is a known zygosity class.
func (z Zygosity) Valid() bool {
	switch z {
	case RefRef, RefAlt, AltAlt, HasAlt, HasRef, CompHetAlt:
		return true
	}
	return false
}

// InheritanceMode names a default genotype pattern.
type InheritanceMode string

// Inheritance modes.
const (
	ModeNone                InheritanceMode = ""
	ModeRecessive           InheritanceMode = "recessive"
	ModeHomozygousRecessive InheritanceMode = "homozygous_recessive"
	ModeXLinkedRecessive    InheritanceMode = "x_linked_recessive"
	ModeCompoundHet         InheritanceMode = "compound_het"
	ModeDeNovo              InheritanceMode = "de_novo"
	ModeAnyAffected         InheritanceMode = "any_affected"
)

// HasCompHetSearch reports whether the mode requires a compound-het pass.
func (m InheritanceMode) HasCompHetSearch() bool {
	return m == ModeRecessive || m == ModeCompoundHet
}

// InheritanceFilter carries the custom parts of an inheritance request.
type InheritanceFilter struct {
	// Status maps an affected status to the required zygosity.
	Status map[AffectedStatus]Zygosity `json:"status,omitempty" yaml:"status,omitempty"`
	// Genotype maps an individual GUID to a required zygosity.
	Genotype map[string]Zygosity `json:"genotype,omitempty" yaml:"genotype,omitempty"`
	// Affected overrides the roster affected status per individual GUID.
	Affected map[string]AffectedStatus `json:"affected,omitempty" yaml:"affected,omitempty"`
}

// IsEmpty reports whether no custom inheritance was requested.
func (f *InheritanceFilter) IsEmpty() bool {
	return f == nil || (len(f.Status) == 0 && len(f.Genotype) == 0 && len(f.Affected) == 0)
}

// Inheritance is the inheritance part of a search request.
type Inheritance struct {
	Mode   InheritanceMode    `json:"mode,omitempty" yaml:"mode,omitempty"`
	Filter *InheritanceFilter `json:"filter,omitempty" yaml:"filter,omitempty"`
}

// QualityFilter holds per-genotype quality thresholds.
type QualityFilter struct {
	MinGQ        int  `json:"min_gq,omitempty" yaml:"min_gq,omitempty"`
	MinAB        int  `json:"min_ab,omitempty" yaml:"min_ab,omitempty"`
	MinQS        int  `json:"min_qs,omitempty" yaml:"min_qs,omitempty"`
	VCFFilter    bool `json:"vcf_filter,omitempty" yaml:"vcf_filter,omitempty"`
	AffectedOnly bool `json:"affected_only,omitempty" yaml:"affected_only,omitempty"`
}

// Thresholds returns the non-zero thresholds keyed by metric name.
func (q QualityFilter) Thresholds() map[string]int {
	out := make(map[string]int)
	if q.MinGQ != 0 {
		out["gq"] = q.MinGQ
	}
	if q.MinAB != 0 {
		out["ab"] = q.MinAB
	}
	if q.MinQS != 0 {
		out["qs"] = q.MinQS
	}
	return out
}

// FrequencyFilter holds population cutoffs. Nil fields are not applied.
type FrequencyFilter struct {
	AF *float64 `json:"af,omitempty" yaml:"af,omitempty"`
	AC *int     `json:"ac,omitempty" yaml:"ac,omitempty"`
	HH *int     `json:"hh,omitempty" yaml:"hh,omitempty"`
}

// InSilicoFilter holds predictor thresholds keyed by predictor name.
type InSilicoFilter struct {
	RequireScore bool              `json:"require_score,omitempty" yaml:"require_score,omitempty"`
	Scores       map[string]string `json:"scores,omitempty" yaml:"scores,omitempty"`
}

// SearchRequest is a declarative variant search. FamilyGUIDs selects samples
// from the roster when Samples is empty.
type SearchRequest struct {
	Inheritance          *Inheritance               `json:"inheritance,omitempty" yaml:"inheritance,omitempty"`
	QualityFilter        QualityFilter              `json:"quality_filter,omitempty" yaml:"quality_filter,omitempty"`
	Annotations          map[string][]string        `json:"annotations,omitempty" yaml:"annotations,omitempty"`
	AnnotationsSecondary map[string][]string        `json:"annotations_secondary,omitempty" yaml:"annotations_secondary,omitempty"`
	Pathogenicity        map[string][]string        `json:"pathogenicity,omitempty" yaml:"pathogenicity,omitempty"`
	Frequencies          map[string]FrequencyFilter `json:"freqs,omitempty" yaml:"freqs,omitempty"`
	InSilico             InSilicoFilter             `json:"in_silico,omitempty" yaml:"in_silico,omitempty"`
	Intervals            []string                   `json:"intervals,omitempty" yaml:"intervals,omitempty"`
	GeneIDs              []string                   `json:"gene_ids,omitempty" yaml:"gene_ids,omitempty"`
	RsIDs                []string                   `json:"rs_ids,omitempty" yaml:"rs_ids,omitempty"`
	Sort                 string                     `json:"sort,omitempty" yaml:"sort,omitempty"`
	OMIMGeneIDs          []string                   `json:"omim_gene_ids,omitempty" yaml:"omim_gene_ids,omitempty"`
	GeneRanks            map[string]int             `json:"gene_ranks,omitempty" yaml:"gene_ranks,omitempty"`
	NumResults           int                        `json:"num_results,omitempty" yaml:"num_results,omitempty"`
	SkipGenotypeFilter   bool                       `json:"skip_genotype_filter,omitempty" yaml:"skip_genotype_filter,omitempty"`
	OverrideCompHetAlt   bool                       `json:"override_comp_het_alt,omitempty" yaml:"override_comp_het_alt,omitempty"`
	CustomQuery          map[string]interface{}     `json:"custom_query,omitempty" yaml:"custom_query,omitempty"`
	Samples              []Sample                   `json:"samples,omitempty" yaml:"samples,omitempty"`
	FamilyGUIDs          []string                   `json:"family_guids,omitempty" yaml:"family_guids,omitempty"`
}

// InheritanceMode returns the requested mode, or ModeNone.
func (r *SearchRequest) InheritanceMode() InheritanceMode {
	if r.Inheritance == nil {
		return ModeNone
	}
	return r.Inheritance.Mode
}

// InheritanceFilter returns the requested custom filter, or nil.
func (r *SearchRequest) InheritanceFilter() *InheritanceFilter {
	if r.Inheritance == nil {
		return nil
	}
	return r.Inheritance.Filter
}

// HasInheritance reports whether any inheritance mode or filter was requested.
func (r *SearchRequest) HasInheritance() bool {
	return r.InheritanceMode() != ModeNone || !r.InheritanceFilter().IsEmpty()
}

// MaxNumResults caps the page size of a search.
const MaxNumResults = 10000

// Validate rejects request shapes that are never searchable.
func (r *SearchRequest) Validate() error {
	if len(r.CustomQuery) > 0 {
		return ErrUnsupported("Unsupported custom query")
	}
	if r.NumResults < 0 {
		return ErrValidation("num_results must be positive, got %d", r.NumResults)
	}
	if r.NumResults > MaxNumResults {
		return ErrValidation("num_results must be at most %d, got %d", MaxNumResults, r.NumResults)
	}
	switch r.InheritanceMode() {
	case ModeNone, ModeRecessive, ModeHomozygousRecessive, ModeXLinkedRecessive,
		ModeCompoundHet, ModeDeNovo, ModeAnyAffected:
	default:
		return ErrValidation("Invalid inheritance mode %q", r.InheritanceMode())
	}
	if f := r.InheritanceFilter(); f != nil {
		for status, z := range f.Status {
			if !status.Valid() {
				return ErrValidation("Invalid affected status %q in inheritance filter", status)
			}
			if !z.Valid() {
				return ErrValidation("Invalid genotype %q in inheritance filter", z)
			}
		}
		for indiv, z := range f.Genotype {
			if !z.Valid() {
				return ErrValidation("Invalid genotype %q for individual %s", z, indiv)
			}
		}
	}
	return nil
}

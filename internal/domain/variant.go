package domain

import (
	"sort"
	"strconv"
	"strings"
)

// MissingNumAlt marks a genotype entry with no call.
const MissingNumAlt = -1

// GenotypeEntry is one sample's call for a variant, with the roster markers
// copied in for filtering.
type GenotypeEntry struct {
	SampleID       string         `json:"sampleId"`
	IndividualGUID string         `json:"individualGuid"`
	FamilyGUID     string         `json:"familyGuid"`
	NumAlt         int            `json:"numAlt"`
	GQ             *float64       `json:"gq"`
	AB             *float64       `json:"ab"`
	DP             *float64       `json:"dp"`
	QS             *float64       `json:"qs,omitempty"`
	Affected       AffectedStatus `json:"-"`
	IsMale         bool           `json:"-"`
}

// IsCalled reports whether the entry has a genotype call.
func (e GenotypeEntry) IsCalled() bool { return e.NumAlt != MissingNumAlt }

// Metric returns a quality metric by name, or nil when missing.
func (e GenotypeEntry) Metric(name string) *float64 {
	switch name {
	case "gq":
		return e.GQ
	case "ab":
		return e.AB
	case "dp":
		return e.DP
	case "qs":
		return e.QS
	}
	return nil
}

// Transcript is one transcript annotation of a variant.
type Transcript struct {
	GeneID             string `json:"geneId"`
	TranscriptID       string `json:"transcriptId"`
	MajorConsequenceID int    `json:"majorConsequenceId"`
	Canonical          bool   `json:"canonical,omitempty"`
}

// Population holds allele counts for one reference population.
type Population struct {
	AF   float64 `json:"af"`
	AC   int     `json:"ac"`
	AN   int     `json:"an"`
	Hom  int     `json:"hom"`
	Hemi int     `json:"hemi"`
}

// AnnotationSelection is the per-request annotation state a candidate picks
// up while filtering: the transcripts matching the primary and secondary
// consequence allow-lists and whether an override (pathogenicity, splice
// score) matched.
type AnnotationSelection struct {
	Allowed          []Transcript
	AllowedSecondary []Transcript
	Override         bool
}

// Candidate is a variant read from a variant table, keyed per data type.
type Candidate struct {
	Key         string                 `json:"variantId"`
	DataType    DataType               `json:"dataType"`
	Chrom       string                 `json:"chrom"`
	Pos         int64                  `json:"pos"`
	End         int64                  `json:"end,omitempty"`
	XPos        int64                  `json:"xpos"`
	Ref         string                 `json:"ref,omitempty"`
	Alt         string                 `json:"alt,omitempty"`
	RsID        string                 `json:"rsid,omitempty"`
	Filters     []string               `json:"filters,omitempty"`
	Transcripts []Transcript           `json:"transcripts,omitempty"`
	Populations map[string]*Population `json:"populations,omitempty"`
	Scores      map[string]float64     `json:"scores,omitempty"`
	Enums       map[string]int         `json:"enums,omitempty"`

	// FamilyEntries maps a family GUID to its sample entries. A family with
	// no entry for this variant is absent.
	FamilyEntries map[string][]GenotypeEntry `json:"familyEntries,omitempty"`

	Selection AnnotationSelection `json:"-"`
}

// GeneIDs returns the distinct gene ids of the candidate's transcripts, sorted.
func (c *Candidate) GeneIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, t := range c.Transcripts {
		if t.GeneID != "" && !seen[t.GeneID] {
			seen[t.GeneID] = true
			ids = append(ids, t.GeneID)
		}
	}
	sort.Strings(ids)
	return ids
}

// FamilyGUIDs returns the families that have entries, sorted.
func (c *Candidate) FamilyGUIDs() []string {
	guids := make([]string, 0, len(c.FamilyEntries))
	for guid := range c.FamilyEntries {
		guids = append(guids, guid)
	}
	sort.Strings(guids)
	return guids
}

// Clone returns a copy whose maps and slices can be modified independently.
func (c *Candidate) Clone() *Candidate {
	out := *c
	out.Filters = append([]string(nil), c.Filters...)
	out.Transcripts = append([]Transcript(nil), c.Transcripts...)
	if c.FamilyEntries != nil {
		out.FamilyEntries = make(map[string][]GenotypeEntry, len(c.FamilyEntries))
		for guid, entries := range c.FamilyEntries {
			out.FamilyEntries[guid] = append([]GenotypeEntry(nil), entries...)
		}
	}
	out.Selection.Allowed = append([]Transcript(nil), c.Selection.Allowed...)
	out.Selection.AllowedSecondary = append([]Transcript(nil), c.Selection.AllowedSecondary...)
	return &out
}

// CompHetPair is an unordered pair of candidates sharing at least one gene.
type CompHetPair struct {
	V1      *Candidate
	V2      *Candidate
	GeneIDs []string
}

// Genotype is the response form of a genotype entry.
type Genotype struct {
	SampleID string   `json:"sampleId"`
	NumAlt   int      `json:"numAlt"`
	GQ       *float64 `json:"gq"`
	AB       *float64 `json:"ab"`
	DP       *float64 `json:"dp"`
}

// TranscriptResult is the response form of a transcript.
type TranscriptResult struct {
	TranscriptID     string `json:"transcriptId"`
	MajorConsequence string `json:"majorConsequence,omitempty"`
	Canonical        bool   `json:"canonical,omitempty"`
}

// VariantResult is one formatted variant in a search response.
type VariantResult struct {
	VariantID     string                        `json:"variantId"`
	DataType      DataType                      `json:"dataType"`
	GenomeVersion string                        `json:"genomeVersion"`
	Chrom         string                        `json:"chrom"`
	Pos           int64                         `json:"pos"`
	End           int64                         `json:"end,omitempty"`
	XPos          int64                         `json:"xpos"`
	Ref           string                        `json:"ref,omitempty"`
	Alt           string                        `json:"alt,omitempty"`
	RsID          string                        `json:"rsid,omitempty"`
	FamilyGUIDs   []string                      `json:"familyGuids"`
	Genotypes     map[string]Genotype           `json:"genotypes"`
	Transcripts   map[string][]TranscriptResult `json:"transcripts,omitempty"`
	Populations   map[string]*Population        `json:"populations,omitempty"`
	Predictions   map[string]interface{}        `json:"predictions,omitempty"`
	Clinvar       string                        `json:"clinvar,omitempty"`
	HGMD          string                        `json:"hgmd,omitempty"`
	SelectedGenes []string                      `json:"selectedMainTranscriptGeneIds,omitempty"`
}

// ResultRow is a search response row: a single variant or a comp-het pair.
type ResultRow struct {
	Variant *VariantResult   `json:"variant,omitempty"`
	CompHet []*VariantResult `json:"compHet,omitempty"`
}

// SearchResponse is the output of a search.
type SearchResponse struct {
	Results   []ResultRow `json:"results"`
	TotalHits int         `json:"totalHits"`
}

// GeneCount holds hit counts for one gene.
type GeneCount struct {
	Total    int            `json:"total"`
	Families map[string]int `json:"families"`
}

// ChromIndex returns the numeric index of a chromosome name, with or without
// the "chr" prefix: 1-22, X=23, Y=24, M=25. It returns 0 for unknown names.
func ChromIndex(chrom string) int {
	c := strings.TrimPrefix(chrom, "chr")
	switch c {
	case "X":
		return 23
	case "Y":
		return 24
	case "M", "MT":
		return 25
	}
	n, err := strconv.Atoi(c)
	if err != nil || n < 1 || n > 22 {
		return 0
	}
	return n
}

// XPos encodes a chromosome and position as one sortable integer.
func XPos(chrom string, pos int64) int64 {
	return int64(ChromIndex(chrom))*1_000_000_000 + pos
}

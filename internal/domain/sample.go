package domain

import (
	"sort"
	"strings"
)

// AffectedStatus is an individual's affected status code.
type AffectedStatus string

// Affected status codes as stored in the sample roster.
const (
	Affected        AffectedStatus = "A"
	Unaffected      AffectedStatus = "N"
	UnknownAffected AffectedStatus = "U"
)

// Valid reports whether s is a known affected status code.
func (s AffectedStatus) Valid() bool {
	return s == Affected || s == Unaffected || s == UnknownAffected
}

// Sex is an individual's recorded sex.
type Sex string

// Sex codes as stored in the sample roster.
const (
	Male       Sex = "M"
	Female     Sex = "F"
	UnknownSex Sex = "U"
)

// IsMale reports whether the individual is recorded as male.
func (s Sex) IsMale() bool { return s == Male }

// DataType is the class of variant calls a table holds.
type DataType string

// Supported data types.
const (
	DataTypeSNVIndel DataType = "SNV_INDEL"
	DataTypeSV       DataType = "SV"
)

// Dataset returns the name of the data type's tables and metadata.
func (d DataType) Dataset() string { return strings.ToLower(string(d)) }

// OrDefault returns d, or SNV_INDEL when d is unset.
func (d DataType) OrDefault() DataType {
	if d == "" {
		return DataTypeSNVIndel
	}
	return d
}

// Sample is one loaded sample of an individual. The core only reads these
// fields; the roster itself is owned by the metastore.
type Sample struct {
	SampleID       string         `json:"sample_id" yaml:"sample_id"`
	IndividualGUID string         `json:"individual_guid" yaml:"individual_guid"`
	FamilyGUID     string         `json:"family_guid" yaml:"family_guid"`
	ProjectGUID    string         `json:"project_guid" yaml:"project_guid"`
	Affected       AffectedStatus `json:"affected" yaml:"affected"`
	Sex            Sex            `json:"sex,omitempty" yaml:"sex,omitempty"`
	DataType       DataType       `json:"data_type,omitempty" yaml:"data_type,omitempty"`
}

// FamilySamples maps a family GUID to the requested samples of that family.
type FamilySamples map[string][]Sample

// GroupSamples groups a flat sample list by project and then by family.
func GroupSamples(samples []Sample) map[string]FamilySamples {
	projects := make(map[string]FamilySamples)
	for _, s := range samples {
		fams, ok := projects[s.ProjectGUID]
		if !ok {
			fams = make(FamilySamples)
			projects[s.ProjectGUID] = fams
		}
		fams[s.FamilyGUID] = append(fams[s.FamilyGUID], s)
	}
	return projects
}

// FamilyGUIDs returns the family GUIDs in sorted order.
func (f FamilySamples) FamilyGUIDs() []string {
	guids := make([]string, 0, len(f))
	for guid := range f {
		guids = append(guids, guid)
	}
	sort.Strings(guids)
	return guids
}

// SortedSamples returns a family's samples ordered by sample ID.
func (f FamilySamples) SortedSamples(familyGUID string) []Sample {
	samples := append([]Sample(nil), f[familyGUID]...)
	sort.Slice(samples, func(i, j int) bool { return samples[i].SampleID < samples[j].SampleID })
	return samples
}

// SampleCount returns the total number of samples across all families.
func (f FamilySamples) SampleCount() int {
	n := 0
	for _, samples := range f {
		n += len(samples)
	}
	return n
}

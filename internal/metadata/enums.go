package metadata

import "sort"

// Enum field names shared by the variant store and the filters.
const (
	EnumConsequence = "transcripts.major_consequence"
	EnumClinvar     = "clinvar.pathogenicity"
	EnumHGMD        = "hgmd.class"
)

// Enums maps an enum field name to its ordered values. A stored value is
// the index of its term in the list.
type Enums map[string][]string

// ID returns the index of value in field's dictionary.
func (e Enums) ID(field, value string) (int, bool) {
	for i, v := range e[field] {
		if v == value {
			return i, true
		}
	}
	return 0, false
}

// Value returns the term stored at id in field's dictionary.
func (e Enums) Value(field string, id int) (string, bool) {
	values := e[field]
	if id < 0 || id >= len(values) {
		return "", false
	}
	return values[id], true
}

// IDs maps terms to their sorted, de-duplicated ids. Unknown terms are
// skipped.
func (e Enums) IDs(field string, terms []string) []int {
	seen := make(map[int]bool)
	var ids []int
	for _, t := range terms {
		if id, ok := e.ID(field, t); ok && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}

// Has reports whether field has a dictionary.
func (e Enums) Has(field string) bool {
	_, ok := e[field]
	return ok
}

package domain

import "context"

// ProjectEntries is one project's genotype table restricted to the
// requested families.
type ProjectEntries struct {
	ProjectGUID string
	// LoadedSamples maps a family GUID to the sample IDs present in the table.
	LoadedSamples map[string][]string
	// Entries maps a variant key to its family-keyed genotype entries.
	Entries map[string]map[string][]GenotypeEntry
}

// VariantStore is the row-level read access to a variant table.
type VariantStore interface {
	LoadProjectEntries(ctx context.Context, dataType DataType, projectGUID string, familyGUIDs []string) (*ProjectEntries, error)
	ReadAnnotations(ctx context.Context, dataType DataType, keys []string) (map[string]*Candidate, error)
	LookupVariant(ctx context.Context, dataType DataType, key string) (*Candidate, error)
}

// FieldTypeSource exposes the field-type catalog of an index or table.
type FieldTypeSource interface {
	FieldTypes(ctx context.Context, index string) (map[string]string, error)
}

// RosterRepository reads the sample roster.
type RosterRepository interface {
	ListSamples(ctx context.Context, familyGUIDs []string, dataType DataType) ([]Sample, error)
	UpsertSample(ctx context.Context, s Sample) error
}

// EnumRepository reads the per-dataset enum dictionaries.
type EnumRepository interface {
	LoadEnums(ctx context.Context, dataset string) (map[string][]string, error)
	SetEnum(ctx context.Context, dataset, field string, values []string) error
}

package metadata

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/populationgenomics/seqr/internal/domain"
)

// Dataset is the metadata of one index or table.
type Dataset struct {
	Name    string
	Enums   Enums
	Catalog *Catalog
}

// Cache loads dataset metadata once and serves it read-only for the life of
// the process. Entries are never invalidated; new enum values need a restart.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*Dataset
	enums   domain.EnumRepository
	fields  domain.FieldTypeSource
	logger  *slog.Logger
}

// NewCache creates a cache backed by the given enum and field-type sources.
// Either source may be nil, in which case that part of the metadata is empty.
func NewCache(enums domain.EnumRepository, fields domain.FieldTypeSource, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		entries: make(map[string]*Dataset),
		enums:   enums,
		fields:  fields,
		logger:  logger,
	}
}

// Get returns the metadata of dataset, loading it on first use. Uses
// double-checked locking so concurrent searches share one load.
func (c *Cache) Get(ctx context.Context, dataset string) (*Dataset, error) {
	c.mu.RLock()
	if ds, ok := c.entries[dataset]; ok {
		c.mu.RUnlock()
		return ds, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if ds, ok := c.entries[dataset]; ok {
		return ds, nil
	}

	ds := &Dataset{Name: dataset, Enums: Enums{}}
	if c.enums != nil {
		enums, err := c.enums.LoadEnums(ctx, dataset)
		if err != nil {
			return nil, fmt.Errorf("load enums for %s: %w", dataset, err)
		}
		ds.Enums = enums
	}
	types := map[string]string{}
	if c.fields != nil {
		var err error
		types, err = c.fields.FieldTypes(ctx, dataset)
		if err != nil {
			return nil, fmt.Errorf("load field types for %s: %w", dataset, err)
		}
	}
	ds.Catalog = NewCatalog(types)

	c.logger.Info("loaded dataset metadata", "dataset", dataset,
		"enum_fields", len(ds.Enums), "fields", ds.Catalog.Len())
	c.entries[dataset] = ds
	return ds, nil
}

// Put seeds the cache with precomputed metadata.
func (c *Cache) Put(ds *Dataset) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[ds.Name] = ds
}

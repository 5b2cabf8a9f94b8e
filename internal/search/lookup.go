package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/populationgenomics/seqr/internal/domain"
)

// Lookup returns one variant by key. When samples are given their genotypes
// are attached; samples missing from the loaded data are skipped.
func (s *Service) Lookup(ctx context.Context, dt domain.DataType, key string, samples []domain.Sample) (*domain.VariantResult, error) {
	ctx, logger := s.begin(ctx)
	dt = dt.OrDefault()
	ds, err := s.cache.Get(ctx, dt.Dataset())
	if err != nil {
		return nil, err
	}

	c, err := s.store.LookupVariant(ctx, dt, key)
	var nf *domain.NotFoundError
	switch {
	case errors.As(err, &nf):
		return nil, err
	case err != nil:
		return nil, fmt.Errorf("lookup %s: %w", key, err)
	case c == nil:
		return nil, domain.ErrNotFound("Variant %s not found", key)
	}
	c.DataType = dt

	if len(samples) > 0 {
		families := make(domain.FamilySamples)
		for _, smp := range samples {
			families[smp.FamilyGUID] = append(families[smp.FamilyGUID], smp)
		}
		entries, err := s.loadEntries(ctx, logger, dt, families, true)
		if err != nil {
			return nil, err
		}
		c.FamilyEntries = entries[key]
	}
	logger.Info("looked up variant", "variant_id", key, "data_type", dt, "families", len(c.FamilyEntries))
	return s.formatVariant(c, ds), nil
}

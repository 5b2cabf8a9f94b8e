package search

import (
	"context"

	"github.com/populationgenomics/seqr/internal/domain"
	"github.com/populationgenomics/seqr/internal/expr"
)

// DocumentExecutor runs a compiled predicate against a document index or a
// flat variant table and returns the matching variant ids.
type DocumentExecutor interface {
	Execute(ctx context.Context, index string, e expr.Expr, sortBy []string, size int) ([]string, error)
}

// DocumentQuery names the index a request runs against on a document
// backend.
type DocumentQuery struct {
	DataType domain.DataType
	// Index defaults to the data type's dataset name.
	Index string
	Sort  []string
	Size  int
}

// QueryDocuments compiles req for one data type and runs it on exec. The
// field catalog comes from the data type's dataset metadata. Compound-het
// pairing does not apply on this path.
func (s *Service) QueryDocuments(ctx context.Context, req *domain.SearchRequest, q DocumentQuery, exec DocumentExecutor) ([]string, error) {
	ctx, logger := s.begin(ctx)
	dt := q.DataType.OrDefault()

	var families domain.FamilySamples
	if len(req.Samples) > 0 || len(req.FamilyGUIDs) > 0 {
		samples, err := s.resolveSamples(ctx, req)
		if err != nil {
			return nil, err
		}
		families = make(domain.FamilySamples)
		for _, smp := range samples {
			if smp.DataType.OrDefault() == dt {
				families[smp.FamilyGUID] = append(families[smp.FamilyGUID], smp)
			}
		}
		if len(families) == 0 {
			return nil, domain.ErrValidation("No %s samples requested", dt)
		}
	}

	ds, err := s.cache.Get(ctx, dt.Dataset())
	if err != nil {
		return nil, err
	}
	e, err := Compile(req, ds.Catalog, families)
	if err != nil {
		return nil, err
	}

	index := q.Index
	if index == "" {
		index = dt.Dataset()
	}
	size := q.Size
	if size <= 0 {
		size = req.NumResults
	}
	if size <= 0 {
		size = s.numResults
	}
	ids, err := exec.Execute(ctx, index, e, q.Sort, size)
	if err != nil {
		return nil, err
	}
	logger.Info("document query complete", "index", index, "families", len(families), "hits", len(ids))
	return ids, nil
}

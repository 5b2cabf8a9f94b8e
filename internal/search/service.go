// Package search runs variant searches: it combines the annotation,
// genotype and quality filters of a request, pairs compound heterozygotes,
// sorts the hits and keeps the top results.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/populationgenomics/seqr/internal/annotation"
	"github.com/populationgenomics/seqr/internal/comphet"
	"github.com/populationgenomics/seqr/internal/domain"
	"github.com/populationgenomics/seqr/internal/genotype"
	"github.com/populationgenomics/seqr/internal/metadata"
)

// Defaults applied when Options leaves a value unset.
const (
	DefaultNumResults       = 100
	DefaultMaxParallelLoads = 8
	DefaultGenomeVersion    = "GRCh38"
)

// Options configures a Service.
type Options struct {
	NumResults       int
	MaxParallelLoads int
	GenomeVersion    string
}

// Service searches the variant tables of a store.
type Service struct {
	store  domain.VariantStore
	cache  *metadata.Cache
	roster domain.RosterRepository
	logger *slog.Logger

	numResults    int
	maxParallel   int
	genomeVersion string
}

// NewService creates a search service over store, reading dataset metadata
// through cache.
func NewService(store domain.VariantStore, cache *metadata.Cache, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		store:         store,
		cache:         cache,
		logger:        logger,
		numResults:    opts.NumResults,
		maxParallel:   opts.MaxParallelLoads,
		genomeVersion: opts.GenomeVersion,
	}
	if s.numResults <= 0 {
		s.numResults = DefaultNumResults
	}
	if s.maxParallel <= 0 {
		s.maxParallel = DefaultMaxParallelLoads
	}
	if s.genomeVersion == "" {
		s.genomeVersion = DefaultGenomeVersion
	}
	return s
}

// SetRoster configures the roster used to resolve requests that name
// families instead of samples.
func (s *Service) SetRoster(r domain.RosterRepository) {
	s.roster = r
}

// dataTypeHits is what one data type contributes to a search.
type dataTypeHits struct {
	dataType      domain.DataType
	dataset       *metadata.Dataset
	table         *annotation.Table
	main          []*domain.Candidate
	compHet       []*domain.Candidate
	maxUnaffected int
}

// hits is the unsorted result of a search.
type hits struct {
	singles  []*domain.Candidate
	pairs    []domain.CompHetPair
	datasets map[domain.DataType]*metadata.Dataset
}

// Search runs req and returns the top sorted results.
func (s *Service) Search(ctx context.Context, req *domain.SearchRequest) (*domain.SearchResponse, error) {
	ctx, logger := s.begin(ctx)
	h, err := s.run(ctx, logger, req)
	if err != nil {
		return nil, err
	}

	k := req.NumResults
	if k == 0 {
		k = s.numResults
	}
	sorter := newSorter(req)
	top := newTopK(k)
	for _, c := range h.singles {
		top.add(singleRow(sorter, c))
	}
	for _, p := range h.pairs {
		top.add(pairRow(sorter, p))
	}
	rows := top.sorted()
	logger.Info(fmt.Sprintf("Total hits: %d. Fetched: %d", top.total, len(rows)))

	resp := &domain.SearchResponse{Results: make([]domain.ResultRow, 0, len(rows)), TotalHits: top.total}
	for _, r := range rows {
		resp.Results = append(resp.Results, s.formatRow(r, h.datasets))
	}
	return resp, nil
}

// GeneCounts runs req and counts hits per gene over the full result. Each
// member of a comp-het pair counts as a hit.
func (s *Service) GeneCounts(ctx context.Context, req *domain.SearchRequest) (map[string]*domain.GeneCount, error) {
	ctx, logger := s.begin(ctx)
	h, err := s.run(ctx, logger, req)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]*domain.GeneCount)
	count := func(c *domain.Candidate) {
		families := c.FamilyGUIDs()
		for _, gene := range c.GeneIDs() {
			gc, ok := counts[gene]
			if !ok {
				gc = &domain.GeneCount{Families: make(map[string]int)}
				counts[gene] = gc
			}
			for _, f := range families {
				gc.Total++
				gc.Families[f]++
			}
		}
	}
	for _, c := range h.singles {
		count(c)
	}
	for _, p := range h.pairs {
		count(p.V1)
		count(p.V2)
	}
	logger.Info("counted genes", "genes", len(counts))
	return counts, nil
}

func (s *Service) begin(ctx context.Context) (context.Context, *slog.Logger) {
	id, ok := domain.RequestIDFromContext(ctx)
	if !ok {
		id = domain.NewID()
		ctx = domain.WithRequestID(ctx, id)
	}
	return ctx, s.logger.With("request_id", id)
}

func (s *Service) run(ctx context.Context, logger *slog.Logger, req *domain.SearchRequest) (*hits, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	filters, err := annotation.NewFilters(req)
	if err != nil {
		return nil, err
	}
	samples, err := s.resolveSamples(ctx, req)
	if err != nil {
		return nil, err
	}

	byType := make(map[domain.DataType][]domain.Sample)
	for _, smp := range samples {
		dt := smp.DataType.OrDefault()
		byType[dt] = append(byType[dt], smp)
	}
	dataTypes := make([]domain.DataType, 0, len(byType))
	for dt := range byType {
		dataTypes = append(dataTypes, dt)
	}
	sort.Slice(dataTypes, func(i, j int) bool { return dataTypes[i] < dataTypes[j] })

	h := &hits{datasets: make(map[domain.DataType]*metadata.Dataset)}
	var perType []*dataTypeHits
	for _, dt := range dataTypes {
		dh, err := s.searchDataType(ctx, logger, req, filters, dt, byType[dt])
		if err != nil {
			return nil, err
		}
		h.datasets[dt] = dh.dataset
		h.singles = append(h.singles, dh.main...)
		perType = append(perType, dh)
	}

	for _, dh := range perType {
		if len(dh.compHet) == 0 || dh.table.MultiDataType() {
			continue
		}
		opts := comphet.Options{MaxUnaffectedSamples: dh.maxUnaffected, OverrideCompHetAlt: req.OverrideCompHetAlt}
		h.pairs = append(h.pairs, comphet.Pair(dh.compHet, dh.table, opts)...)
	}
	if len(perType) == 2 && len(perType[0].compHet) > 0 && len(perType[1].compHet) > 0 {
		a, b := perType[0], perType[1]
		opts := comphet.Options{
			MaxUnaffectedSamples: max(a.maxUnaffected, b.maxUnaffected),
			OverrideCompHetAlt:   req.OverrideCompHetAlt,
		}
		h.pairs = append(h.pairs, comphet.PairAcross(a.compHet, a.table, b.compHet, b.table, opts)...)
	}
	logger.Info("search complete", "data_types", len(perType), "variants", len(h.singles), "comp_het_pairs", len(h.pairs))
	return h, nil
}

func (s *Service) resolveSamples(ctx context.Context, req *domain.SearchRequest) ([]domain.Sample, error) {
	if len(req.Samples) > 0 {
		return req.Samples, nil
	}
	if len(req.FamilyGUIDs) == 0 {
		return nil, domain.ErrValidation("No samples or families requested")
	}
	if s.roster == nil {
		return nil, domain.ErrConfiguration("no sample roster configured")
	}
	samples, err := s.roster.ListSamples(ctx, req.FamilyGUIDs, "")
	if err != nil {
		return nil, fmt.Errorf("list samples: %w", err)
	}
	if len(samples) == 0 {
		return nil, domain.ErrNotFound("No samples found for families %v", req.FamilyGUIDs)
	}
	return samples, nil
}

func (s *Service) searchDataType(ctx context.Context, logger *slog.Logger, req *domain.SearchRequest, filters *annotation.Filters, dt domain.DataType, samples []domain.Sample) (*dataTypeHits, error) {
	ds, err := s.cache.Get(ctx, dt.Dataset())
	if err != nil {
		return nil, err
	}
	table := filters.ForTable(ds.Enums, req.InheritanceMode())

	families := make(domain.FamilySamples)
	for _, smp := range samples {
		families[smp.FamilyGUID] = append(families[smp.FamilyGUID], smp)
	}
	mode, inheritance, quality := table.Mode(), req.InheritanceFilter(), req.QualityFilter
	if req.SkipGenotypeFilter {
		mode, inheritance, quality = domain.ModeNone, nil, domain.QualityFilter{}
	}
	families, err = genotype.PrepareFamilies(mode, inheritance, families)
	if err != nil {
		return nil, err
	}
	gt, err := genotype.NewTableFilter(mode, inheritance, quality, req.OverrideCompHetAlt, families)
	if err != nil {
		return nil, err
	}

	entries, err := s.loadEntries(ctx, logger, dt, families, false)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	annotations, err := s.store.ReadAnnotations(ctx, dt, keys)
	if err != nil {
		return nil, fmt.Errorf("read %s annotations: %w", dt, err)
	}

	dh := &dataTypeHits{dataType: dt, dataset: ds, table: table, maxUnaffected: gt.MaxUnaffectedSamples()}
	for _, key := range keys {
		c := annotations[key]
		if c == nil {
			continue
		}
		c.DataType = dt
		c.FamilyEntries = entries[key]
		if !table.Prefilter(c) {
			continue
		}
		single, compHet := table.Select(c)
		if !single && !compHet {
			continue
		}
		main, pairable := gt.Apply(c)
		if single && main != nil {
			m := c.Clone()
			m.FamilyEntries = main
			dh.main = append(dh.main, m)
		}
		if compHet && pairable != nil {
			p := c.Clone()
			p.FamilyEntries = pairable
			dh.compHet = append(dh.compHet, p)
		}
	}
	logger.Info("filtered variants", "data_type", dt, "loaded", len(keys),
		"variants", len(dh.main), "comp_het_candidates", len(dh.compHet))
	return dh, nil
}

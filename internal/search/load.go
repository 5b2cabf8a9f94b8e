package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/populationgenomics/seqr/internal/domain"
)

// familyEntries maps a variant key to its family-keyed genotype entries.
type familyEntries map[string]map[string][]domain.GenotypeEntry

// loadEntries reads every project's entries in parallel and merges them by
// variant key. Entries are stamped with the roster markers of their sample;
// entries of samples that were not requested are dropped. Missing-sample
// failures of all projects are reported together unless skipMissing is set.
func (s *Service) loadEntries(ctx context.Context, logger *slog.Logger, dt domain.DataType, families domain.FamilySamples, skipMissing bool) (familyEntries, error) {
	projects := make(map[string][]string)
	for _, guid := range families.FamilyGUIDs() {
		project := families[guid][0].ProjectGUID
		projects[project] = append(projects[project], guid)
	}
	projectGUIDs := make([]string, 0, len(projects))
	for p := range projects {
		projectGUIDs = append(projectGUIDs, p)
	}
	sort.Strings(projectGUIDs)

	var (
		mu       sync.Mutex
		merged   = make(familyEntries)
		failures []error
		matched  int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxParallel)
	for _, project := range projectGUIDs {
		g.Go(func() error {
			pe, err := s.store.LoadProjectEntries(gctx, dt, project, projects[project])
			if err != nil {
				return fmt.Errorf("load %s entries for project %s: %w", dt, project, err)
			}
			mu.Lock()
			defer mu.Unlock()
			if err := missingSamples(pe, families, projects[project]); err != nil && !skipMissing {
				failures = append(failures, err)
				return nil
			}
			if mergeEntries(merged, pe, families) {
				matched++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := domain.JoinMessages(failures); err != nil {
		return nil, err
	}

	logger.Info("loaded project entries", "data_type", dt, "families", len(families),
		"projects", len(projectGUIDs), "projects_with_entries", matched)
	return merged, nil
}

func missingSamples(pe *domain.ProjectEntries, families domain.FamilySamples, familyGUIDs []string) error {
	var missing []string
	for _, guid := range familyGUIDs {
		loaded := make(map[string]bool)
		for _, id := range pe.LoadedSamples[guid] {
			loaded[id] = true
		}
		for _, smp := range families[guid] {
			if !loaded[smp.SampleID] {
				missing = append(missing, smp.SampleID)
			}
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return domain.ErrNotFound("The following samples are available in seqr but missing the loaded data: %s", strings.Join(missing, ", "))
}

// mergeEntries adds a project's entries to merged and reports whether any
// variant had entries for a requested sample.
func mergeEntries(merged familyEntries, pe *domain.ProjectEntries, families domain.FamilySamples) bool {
	found := false
	for key, byFamily := range pe.Entries {
		for guid, entries := range byFamily {
			roster := make(map[string]domain.Sample, len(families[guid]))
			for _, smp := range families[guid] {
				roster[smp.SampleID] = smp
			}
			var stamped []domain.GenotypeEntry
			for _, e := range entries {
				smp, ok := roster[e.SampleID]
				if !ok {
					continue
				}
				e.IndividualGUID = smp.IndividualGUID
				e.FamilyGUID = guid
				e.Affected = smp.Affected
				e.IsMale = smp.Sex.IsMale()
				stamped = append(stamped, e)
			}
			if len(stamped) == 0 {
				continue
			}
			if merged[key] == nil {
				merged[key] = make(map[string][]domain.GenotypeEntry)
			}
			merged[key][guid] = stamped
			found = true
		}
	}
	return found
}

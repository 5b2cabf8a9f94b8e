package cli

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/populationgenomics/seqr/internal/db/repository"
	"github.com/populationgenomics/seqr/internal/domain"
	"github.com/populationgenomics/seqr/internal/metadata"
	"github.com/populationgenomics/seqr/internal/search"
)

func newSearchCmd(rt *runtime) *cobra.Command {
	var numResults int
	cmd := &cobra.Command{
		Use:   "search REQUEST_FILE",
		Short: "Run a variant search on the variant store",
		Example: `  seqr search request.yaml
  seqr search request.yaml --num-results 20 -o json`,
		Args: cobra.ExactArgs(1),
		RunE: withRuntime(rt, func(cmd *cobra.Command, args []string) error {
			req, err := readRequest(cmd, args[0])
			if err != nil {
				return err
			}
			if numResults > 0 {
				req.NumResults = numResults
			}
			svc, err := rt.searchService()
			if err != nil {
				return err
			}
			resp, err := svc.Search(cmd.Context(), req)
			if err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			rows := make([][]string, 0, len(resp.Results))
			for i, r := range resp.Results {
				rows = append(rows, resultRow(i+1, r))
			}
			if err := printTable(cmd.OutOrStdout(), []string{"RANK", "VARIANT", "CHROM", "POS", "GENES", "FAMILIES"}, rows); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "\nTotal hits: %d\n", resp.TotalHits)
			return err
		}),
	}
	cmd.Flags().IntVar(&numResults, "num-results", 0, "Number of results to return (overrides the request)")
	return cmd
}

func newGeneCountsCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "gene-counts REQUEST_FILE",
		Short: "Count search hits per gene",
		Args:  cobra.ExactArgs(1),
		RunE: withRuntime(rt, func(cmd *cobra.Command, args []string) error {
			req, err := readRequest(cmd, args[0])
			if err != nil {
				return err
			}
			svc, err := rt.searchService()
			if err != nil {
				return err
			}
			counts, err := svc.GeneCounts(cmd.Context(), req)
			if err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), counts)
			}
			genes := make([]string, 0, len(counts))
			for g := range counts {
				genes = append(genes, g)
			}
			sort.Strings(genes)
			rows := make([][]string, 0, len(genes))
			for _, g := range genes {
				rows = append(rows, []string{g, strconv.Itoa(counts[g].Total), familyCounts(counts[g].Families)})
			}
			return printTable(cmd.OutOrStdout(), []string{"GENE", "TOTAL", "FAMILIES"}, rows)
		}),
	}
}

func newLookupCmd(rt *runtime) *cobra.Command {
	var (
		dataType string
		families []string
	)
	cmd := &cobra.Command{
		Use:   "lookup VARIANT_ID",
		Short: "Look up a single variant",
		Long: `Look up a single variant by id. With --family the genotypes of the
families' roster samples are attached; samples missing from the loaded data
are skipped.`,
		Example: `  seqr lookup 1-10439-AC-A
  seqr lookup 1-10439-AC-A --family F000001 --family F000002`,
		Args: cobra.ExactArgs(1),
		RunE: withRuntime(rt, func(cmd *cobra.Command, args []string) error {
			dt, err := parseDataType(dataType)
			if err != nil {
				return err
			}
			svc, err := rt.searchService()
			if err != nil {
				return err
			}
			var samples []domain.Sample
			if len(families) > 0 {
				roster, err := rt.roster()
				if err != nil {
					return err
				}
				if samples, err = roster.ListSamples(cmd.Context(), families, dt); err != nil {
					return err
				}
			}
			v, err := svc.Lookup(cmd.Context(), dt, args[0], samples)
			if err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), v)
			}
			rows := [][]string{
				{"variantId", v.VariantID},
				{"chrom", v.Chrom},
				{"pos", strconv.FormatInt(v.Pos, 10)},
				{"ref", v.Ref},
				{"alt", v.Alt},
				{"rsid", v.RsID},
				{"genes", strings.Join(variantGenes(v), ",")},
				{"clinvar", v.Clinvar},
				{"genotypes", genotypeSummary(v.Genotypes)},
			}
			return printTable(cmd.OutOrStdout(), []string{"FIELD", "VALUE"}, rows)
		}),
	}
	cmd.Flags().StringVar(&dataType, "data-type", string(domain.DataTypeSNVIndel), "Data type of the variant (SNV_INDEL, SV)")
	cmd.Flags().StringSliceVar(&families, "family", nil, "Family GUIDs whose genotypes to attach")
	return cmd
}

func newQueryCmd(rt *runtime) *cobra.Command {
	var (
		backend  string
		dataType string
		index    string
		sortBy   []string
		size     int
	)
	cmd := &cobra.Command{
		Use:   "query REQUEST_FILE",
		Short: "Run a compiled search on a document backend",
		Long: `Compile a search request and run it on the flat variant table of the
variant store (duckdb) or on an Elasticsearch index (elasticsearch). Prints
the ids of the matching variants. Compound-het pairing does not apply.`,
		Example: `  seqr query request.yaml --backend duckdb --sort cadd_PHRED
  seqr query request.yaml --backend elasticsearch --index snv_indel_grch38 --size 50`,
		Args: cobra.ExactArgs(1),
		RunE: withRuntime(rt, func(cmd *cobra.Command, args []string) error {
			dt, err := parseDataType(dataType)
			if err != nil {
				return err
			}
			req, err := readRequest(cmd, args[0])
			if err != nil {
				return err
			}
			q := search.DocumentQuery{DataType: dt, Index: index, Sort: sortBy, Size: size}

			var (
				svc  *search.Service
				exec search.DocumentExecutor
			)
			switch backend {
			case "duckdb":
				if svc, err = rt.searchService(); err != nil {
					return err
				}
				exec = rt.store
			case "elasticsearch":
				if q.Index == "" {
					q.Index = rt.cfg.Elasticsearch.Index
				}
				if q.Index == "" {
					return domain.ErrConfiguration("no Elasticsearch index: set --index or ELASTICSEARCH_INDEX")
				}
				es, err := rt.elasticExecutor()
				if err != nil {
					return err
				}
				if svc, err = rt.documentService(indexFields{source: es, index: q.Index}); err != nil {
					return err
				}
				exec = es
			default:
				return domain.ErrValidation("Invalid backend %q: must be duckdb or elasticsearch", backend)
			}

			ids, err := svc.QueryDocuments(cmd.Context(), req, q, exec)
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{"variant_ids": ids})
			}
			for _, id := range ids {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), id); err != nil {
					return err
				}
			}
			return nil
		}),
	}
	cmd.Flags().StringVar(&backend, "backend", "duckdb", "Document backend (duckdb, elasticsearch)")
	cmd.Flags().StringVar(&dataType, "data-type", string(domain.DataTypeSNVIndel), "Data type of the queried index (SNV_INDEL, SV)")
	cmd.Flags().StringVar(&index, "index", "", "Index or dataset name (default from config or the data type)")
	cmd.Flags().StringSliceVar(&sortBy, "sort", nil, "Sort fields (default xpos)")
	cmd.Flags().IntVar(&size, "size", 0, "Maximum number of ids (default the request's num_results)")
	return cmd
}

// indexFields reads the field catalog of one fixed index regardless of the
// dataset asked for.
type indexFields struct {
	source domain.FieldTypeSource
	index  string
}

func (f indexFields) FieldTypes(ctx context.Context, _ string) (map[string]string, error) {
	return f.source.FieldTypes(ctx, f.index)
}

// documentService builds a search service whose field catalog comes from
// fields. It only serves document queries.
func (rt *runtime) documentService(fields domain.FieldTypeSource) (*search.Service, error) {
	meta, err := rt.metastore()
	if err != nil {
		return nil, err
	}
	cache := metadata.NewCache(repository.NewEnumRepo(meta.Read), fields, rt.logger)
	svc := search.NewService(nil, cache, search.Options{NumResults: rt.cfg.NumResults}, rt.logger)
	svc.SetRoster(repository.NewRosterRepo(meta.Read))
	return svc, nil
}

func resultRow(rank int, r domain.ResultRow) []string {
	variants := r.CompHet
	if r.Variant != nil {
		variants = []*domain.VariantResult{r.Variant}
	}
	var ids, chroms, positions, genes, families []string
	for _, v := range variants {
		ids = append(ids, v.VariantID)
		chroms = append(chroms, v.Chrom)
		positions = append(positions, strconv.FormatInt(v.Pos, 10))
		genes = append(genes, variantGenes(v)...)
		families = append(families, v.FamilyGUIDs...)
	}
	return []string{
		strconv.Itoa(rank),
		strings.Join(ids, " + "),
		strings.Join(dedupe(chroms), ","),
		strings.Join(positions, ","),
		strings.Join(dedupe(genes), ","),
		strings.Join(dedupe(families), ","),
	}
}

func variantGenes(v *domain.VariantResult) []string {
	if len(v.SelectedGenes) > 0 {
		return v.SelectedGenes
	}
	genes := make([]string, 0, len(v.Transcripts))
	for g := range v.Transcripts {
		genes = append(genes, g)
	}
	sort.Strings(genes)
	return genes
}

func genotypeSummary(genotypes map[string]domain.Genotype) string {
	ids := make([]string, 0, len(genotypes))
	for id := range genotypes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%s:%d", genotypes[id].SampleID, genotypes[id].NumAlt))
	}
	return strings.Join(parts, ",")
}

func familyCounts(families map[string]int) string {
	guids := make([]string, 0, len(families))
	for f := range families {
		guids = append(guids, f)
	}
	sort.Strings(guids)
	parts := make([]string, 0, len(guids))
	for _, f := range guids {
		parts = append(parts, fmt.Sprintf("%s=%d", f, families[f]))
	}
	return strings.Join(parts, ",")
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := values[:0:0]
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/populationgenomics/seqr/internal/domain"
	"github.com/populationgenomics/seqr/internal/metadata"
	"github.com/populationgenomics/seqr/internal/search"
)

func newCompileCmd(rt *runtime) *cobra.Command {
	var (
		target    string
		dataType  string
		table     string
		catalog   string
		sortBy    []string
		size      int
		fields    []string
		arrowURLs []string
		maxRows   int
	)

	cmd := &cobra.Command{
		Use:   "compile REQUEST_FILE",
		Short: "Compile a search request to a query",
		Long: `Compile a search request to a relational filter (sql), a document-search
body (elasticsearch) or a columnar-compute call tree (protocol).

Families come from the request's samples, or from the roster when the
request names family GUIDs. Compound-het pairing is not part of a compiled
query.`,
		Example: `  seqr compile request.yaml --target sql
  seqr compile request.yaml --target elasticsearch --sort xpos --size 50
  seqr compile - --target protocol --field variantId --arrow-url http://flight:8815 < request.json`,
		Args: cobra.ExactArgs(1),
		RunE: withRuntime(rt, func(cmd *cobra.Command, args []string) error {
			t, err := search.ParseTarget(target)
			if err != nil {
				return err
			}
			dt, err := parseDataType(dataType)
			if err != nil {
				return err
			}
			req, err := readRequest(cmd, args[0])
			if err != nil {
				return err
			}
			families, err := compileFamilies(cmd, rt, req, dt)
			if err != nil {
				return err
			}
			cat, err := compileCatalog(cmd, rt, catalog, dt)
			if err != nil {
				return err
			}

			e, err := search.Compile(req, cat, families)
			if err != nil {
				return err
			}
			if table == "" {
				table = dt.Dataset() + "_variants"
			}
			out, err := search.Render(t, e, search.RenderOptions{
				Table:     table,
				Sort:      sortBy,
				Size:      size,
				Fields:    fields,
				ArrowURLs: arrowURLs,
				MaxRows:   maxRows,
			})
			if err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				var query interface{} = out
				if t == search.TargetElasticsearch {
					query = json.RawMessage(out)
				}
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"target":    t,
					"data_type": dt,
					"query":     query,
				})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		}),
	}

	cmd.Flags().StringVar(&target, "target", "sql", "Query target (sql, elasticsearch, protocol)")
	cmd.Flags().StringVar(&dataType, "data-type", string(domain.DataTypeSNVIndel), "Data type of the queried table (SNV_INDEL, SV)")
	cmd.Flags().StringVar(&table, "table", "", "Relational table name (default <dataset>_variants)")
	cmd.Flags().StringVar(&catalog, "catalog", "defaults", "Field catalog source (defaults, store)")
	cmd.Flags().StringSliceVar(&sortBy, "sort", nil, "Document-search sort fields")
	cmd.Flags().IntVar(&size, "size", 0, "Document-search page size")
	cmd.Flags().StringSliceVar(&fields, "field", nil, "Columnar-compute output fields")
	cmd.Flags().StringSliceVar(&arrowURLs, "arrow-url", nil, "Columnar-compute Arrow Flight endpoints")
	cmd.Flags().IntVar(&maxRows, "max-rows", 0, "Columnar-compute row limit")

	return cmd
}

// compileFamilies groups the request's samples of data type dt by family,
// falling back to the roster for requests that name families.
func compileFamilies(cmd *cobra.Command, rt *runtime, req *domain.SearchRequest, dt domain.DataType) (domain.FamilySamples, error) {
	samples := req.Samples
	if len(samples) == 0 && len(req.FamilyGUIDs) > 0 {
		roster, err := rt.roster()
		if err != nil {
			return nil, err
		}
		if samples, err = roster.ListSamples(cmd.Context(), req.FamilyGUIDs, dt); err != nil {
			return nil, err
		}
		if len(samples) == 0 {
			return nil, domain.ErrNotFound("No samples found for families %v", req.FamilyGUIDs)
		}
	}
	if len(samples) == 0 {
		return nil, nil
	}
	families := make(domain.FamilySamples)
	for _, s := range samples {
		if s.DataType.OrDefault() != dt {
			continue
		}
		families[s.FamilyGUID] = append(families[s.FamilyGUID], s)
	}
	if len(families) == 0 {
		return nil, domain.ErrValidation("No %s samples requested", dt)
	}
	return families, nil
}

func compileCatalog(cmd *cobra.Command, rt *runtime, source string, dt domain.DataType) (*metadata.Catalog, error) {
	switch source {
	case "defaults":
		if dt == domain.DataTypeSV {
			return metadata.NewCatalog(metadata.SVFields()), nil
		}
		return metadata.NewCatalog(metadata.SNVIndelFields()), nil
	case "store":
		store, err := rt.variantStore()
		if err != nil {
			return nil, err
		}
		types, err := store.FieldTypes(cmd.Context(), dt.Dataset())
		if err != nil {
			return nil, err
		}
		if len(types) == 0 {
			return nil, domain.ErrNotFound("No %s data loaded", dt)
		}
		return metadata.NewCatalog(types), nil
	}
	return nil, domain.ErrValidation("Invalid catalog source %q: must be defaults or store", source)
}

package search

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/populationgenomics/seqr/internal/annotation"
	"github.com/populationgenomics/seqr/internal/domain"
	"github.com/populationgenomics/seqr/internal/expr"
	"github.com/populationgenomics/seqr/internal/genotype"
	"github.com/populationgenomics/seqr/internal/metadata"
)

// Target is a query language a compiled search can be rendered to.
type Target string

// Rendering targets.
const (
	TargetSQL           Target = "sql"
	TargetElasticsearch Target = "elasticsearch"
	TargetProtocol      Target = "protocol"
)

// ParseTarget validates a target name.
func ParseTarget(s string) (Target, error) {
	switch t := Target(strings.ToLower(s)); t {
	case TargetSQL, TargetElasticsearch, TargetProtocol:
		return t, nil
	}
	return "", domain.ErrValidation("Invalid target %q: must be sql, elasticsearch or protocol", s)
}

// Compile builds the request-level predicate of req against one document
// index: annotation filters, the VCF filter and the per-family genotype and
// quality predicates. Compound-het pairing is not performed; compound-het
// families require each affected sample to be het. SkipGenotypeFilter drops
// the genotype, quality and VCF predicates, as on the table path. A nil
// result means no restriction.
func Compile(req *domain.SearchRequest, catalog *metadata.Catalog, families domain.FamilySamples) (expr.Expr, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	filters, err := annotation.NewFilters(req)
	if err != nil {
		return nil, err
	}

	if req.SkipGenotypeFilter {
		return filters.Document(catalog), nil
	}

	mode, inheritance := req.InheritanceMode(), req.InheritanceFilter()
	prepared, err := genotype.PrepareFamilies(mode, inheritance, families)
	if err != nil {
		return nil, err
	}
	gt, err := genotype.NewDocumentFilter(catalog).Build(mode, inheritance, req.QualityFilter, prepared)
	if err != nil {
		return nil, err
	}

	var vcf expr.Expr
	if req.QualityFilter.VCFFilter && catalog.Has(metadata.RoleFilters) {
		vcf = genotype.VCFFilter()
	}
	return expr.AllOf(filters.Document(catalog), vcf, gt), nil
}

// RenderOptions are the target-specific parts of a rendered query.
type RenderOptions struct {
	// Table is the relational table to select from.
	Table string
	// Sort, From, Size and Source shape a document-search body.
	Sort   []string
	From   int
	Size   int
	Source []string
	// Fields, ArrowURLs and MaxRows shape a columnar-compute request.
	Fields    []string
	ArrowURLs []string
	MaxRows   int
}

// Render renders a compiled predicate for target. A nil predicate selects
// every row.
func Render(target Target, e expr.Expr, opts RenderOptions) (string, error) {
	switch target {
	case TargetSQL:
		table := opts.Table
		if table == "" {
			table = "variants"
		}
		if e == nil {
			return "SELECT * FROM " + table, nil
		}
		return expr.OutputSQL(e, table)
	case TargetElasticsearch:
		body, err := elasticBody(e, opts)
		if err != nil {
			return "", err
		}
		out, err := json.MarshalIndent(body, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode elasticsearch query: %w", err)
		}
		return string(out), nil
	case TargetProtocol:
		if e == nil {
			return "", domain.ErrCapability("protocol: a filter expression is required")
		}
		return expr.OutputProtocol(e, opts.Fields, opts.ArrowURLs, opts.MaxRows)
	}
	return "", domain.ErrValidation("Invalid target %q", target)
}

func elasticBody(e expr.Expr, opts RenderOptions) (map[string]interface{}, error) {
	size := opts.Size
	if size <= 0 {
		size = DefaultNumResults
	}
	if e != nil {
		return expr.OutputElasticsearch(e, opts.Sort, opts.From, size, opts.Source)
	}
	sortBy, source := opts.Sort, opts.Source
	if sortBy == nil {
		sortBy = []string{}
	}
	if source == nil {
		source = []string{}
	}
	return map[string]interface{}{
		"query":   map[string]interface{}{"match_all": map[string]interface{}{}},
		"sort":    sortBy,
		"from":    opts.From,
		"size":    size,
		"_source": source,
	}, nil
}

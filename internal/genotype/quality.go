package genotype

import (
	"sort"

	"github.com/populationgenomics/seqr/internal/domain"
	"github.com/populationgenomics/seqr/internal/expr"
	"github.com/populationgenomics/seqr/internal/metadata"
)

// bucketSteps is the width of the quantized quality buckets per metric.
var bucketSteps = map[string]int{
	"gq": 5,
	"ab": 5,
	"qs": 10,
}

// ValidateQuality checks that every threshold lands on a bucket boundary.
func ValidateQuality(q domain.QualityFilter) error {
	for _, metric := range sortedMetrics(q) {
		v := q.Thresholds()[metric]
		if v < 0 || v%bucketSteps[metric] != 0 {
			return domain.ErrValidation("Invalid %s filter %d", metric, v)
		}
	}
	return nil
}

func sortedMetrics(q domain.QualityFilter) []string {
	var metrics []string
	for m := range q.Thresholds() {
		metrics = append(metrics, m)
	}
	sort.Strings(metrics)
	return metrics
}

// VCFFilter keeps documents without any VCF filter set.
func VCFFilter() expr.Expr {
	return expr.Not(expr.Exists(expr.NewField(metadata.RoleFilters.Field())))
}

// qualityPredicate requires every sample of a family to stay out of the
// buckets below each threshold. Samples missing a metric carry no bucket
// and so pass.
func qualityPredicate(c *metadata.Catalog, q domain.QualityFilter, samples []domain.Sample) expr.Expr {
	var parts []expr.Expr
	for _, s := range samples {
		if q.AffectedOnly && s.Affected != domain.Affected {
			continue
		}
		for _, metric := range sortedMetrics(q) {
			buckets := c.BucketsBelow(metric, q.Thresholds()[metric])
			var low []expr.Expr
			for _, b := range buckets {
				low = append(low, expr.ListContains(expr.NewField(b.Field), s.SampleID))
			}
			inLow := expr.AnyOf(low...)
			if inLow == nil {
				continue
			}
			var p expr.Expr = expr.Not(inLow)
			if metric == "ab" && c.Has(metadata.RoleNumAlt1) {
				p = expr.Or(p, expr.Not(expr.ListContains(expr.NewField(metadata.RoleNumAlt1.Field()), s.SampleID)))
			}
			parts = append(parts, p)
		}
	}
	return expr.AllOf(parts...)
}

// PassesQuality reports whether every entry of a family meets the
// thresholds. Allele balance is compared as a fraction and only applies to
// het calls; a missing metric passes.
func PassesQuality(q domain.QualityFilter, entries []domain.GenotypeEntry) bool {
	thresholds := q.Thresholds()
	for _, e := range entries {
		if q.AffectedOnly && e.Affected != domain.Affected {
			continue
		}
		for metric, threshold := range thresholds {
			v := e.Metric(metric)
			if v == nil {
				continue
			}
			floor := float64(threshold)
			if metric == "ab" {
				if e.NumAlt != 1 {
					continue
				}
				floor /= 100
			}
			if *v < floor {
				return false
			}
		}
	}
	return true
}

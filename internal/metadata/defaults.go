package metadata

import "fmt"

// SNVIndelFields returns the field-type map of a standard SNV/indel index.
func SNVIndelFields() map[string]string {
	fields := map[string]string{
		"variantId":                     "keyword",
		"xpos":                          "long",
		"contig":                        "keyword",
		"pos":                           "integer",
		"ref":                           "keyword",
		"alt":                           "keyword",
		"rsid":                          "keyword",
		"filters":                       "keyword",
		"geneIds":                       "keyword",
		"transcriptConsequenceTerms":    "keyword",
		"clinvar_clinical_significance": "keyword",
		"hgmd_class":                    "keyword",
		"samples_no_call":               "keyword",
		"samples_num_alt_1":             "keyword",
		"samples_num_alt_2":             "keyword",
		"cadd_PHRED":                    "float",
		"dbnsfp_REVEL_score":            "keyword",
		"splice_ai_delta_score":         "float",
		"gnomad_genomes_AF":             "double",
		"gnomad_genomes_AC":             "integer",
		"gnomad_genomes_Hom":            "integer",
		"gnomad_genomes_Hemi":           "integer",
		"gnomad_exomes_AF":              "double",
		"gnomad_exomes_AC":              "integer",
		"gnomad_exomes_Hom":             "integer",
		"gnomad_exomes_Hemi":            "integer",
		"AF":                            "double",
		"AC":                            "integer",
	}
	for i := 0; i < 95; i += 5 {
		fields[fmt.Sprintf("samples_gq_%d_to_%d", i, i+5)] = "keyword"
	}
	for i := 0; i < 45; i += 5 {
		fields[fmt.Sprintf("samples_ab_%d_to_%d", i, i+5)] = "keyword"
	}
	return fields
}

// SVFields returns the field-type map of a structural variant index.
func SVFields() map[string]string {
	fields := map[string]string{
		"variantId":                  "keyword",
		"xpos":                       "long",
		"contig":                     "keyword",
		"start":                      "integer",
		"end":                        "integer",
		"filters":                    "keyword",
		"geneIds":                    "keyword",
		"transcriptConsequenceTerms": "keyword",
		"samples":                    "keyword",
		"sf":                         "double",
	}
	for i := 0; i < 90; i += 10 {
		fields[fmt.Sprintf("samples_qs_%d_to_%d", i, i+10)] = "keyword"
	}
	return fields
}

package engine

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/populationgenomics/seqr/internal/domain"
	"github.com/populationgenomics/seqr/internal/expr"
	"github.com/populationgenomics/seqr/internal/metadata"
)

var fixtureEnums = map[string][]string{
	metadata.EnumConsequence: {"missense_variant", "stop_gained", "synonymous_variant"},
	metadata.EnumClinvar:     {"Pathogenic", "Likely_pathogenic", "Benign"},
}

// fixtureVariant is one variant written to both the table-path tables and
// the flat document table.
type fixtureVariant struct {
	key     string
	chrom   string
	pos     int64
	gene    string
	csq     string
	clinvar string
	af      *float64
	cadd    *float64
	filters []string
	rsid    string
	calls   map[string]int
	gq      map[string]float64
}

func f64(v float64) *float64 { return &v }

var trio = []string{"child", "father", "mother"}

var fixtureVariants = []fixtureVariant{
	{key: "1-100-A-T", chrom: "1", pos: 100, gene: "G1", csq: "missense_variant", clinvar: "Pathogenic",
		af: f64(0.001), cadd: f64(25), calls: map[string]int{"child": 1}},
	{key: "1-200-A-T", chrom: "1", pos: 200, gene: "G1", csq: "synonymous_variant", clinvar: "Likely_pathogenic",
		af: f64(0.03), cadd: f64(10), filters: []string{"LowQual"}, calls: map[string]int{"child": 1, "father": 1}},
	{key: "1-600-A-T", chrom: "1", pos: 600, gene: "G1", csq: "missense_variant", clinvar: "Pathogenic",
		af: f64(0.04), calls: map[string]int{"child": 1, "father": 1, "mother": 1}, gq: map[string]float64{"child": 3}},
	{key: "2-300-A-T", chrom: "2", pos: 300, gene: "G2", csq: "stop_gained",
		af: f64(0.2), calls: map[string]int{"child": 2, "father": 1, "mother": 1}},
	{key: "3-500-A-T", chrom: "3", pos: 500, rsid: "rs5",
		calls: map[string]int{"child": 1, "mother": domain.MissingNumAlt}},
	{key: "X-400-A-T", chrom: "X", pos: 400, gene: "G3", csq: "missense_variant",
		cadd: f64(30), calls: map[string]int{"child": 2, "mother": 1}, gq: map[string]float64{"child": 7}},
}

func trioSamples() []domain.Sample {
	return []domain.Sample{
		{SampleID: "child", IndividualGUID: "I_child", FamilyGUID: "F1", ProjectGUID: "P1", Affected: domain.Affected, Sex: domain.Male},
		{SampleID: "father", IndividualGUID: "I_father", FamilyGUID: "F1", ProjectGUID: "P1", Affected: domain.Unaffected, Sex: domain.Male},
		{SampleID: "mother", IndividualGUID: "I_mother", FamilyGUID: "F1", ProjectGUID: "P1", Affected: domain.Unaffected, Sex: domain.Female},
	}
}

var fixtureDDL = []string{
	`CREATE TABLE snv_indel_project_samples (project_guid VARCHAR, family_guid VARCHAR, sample_id VARCHAR)`,
	`CREATE TABLE snv_indel_entries (project_guid VARCHAR, family_guid VARCHAR, sample_id VARCHAR, key VARCHAR,
		num_alt INTEGER, gq DOUBLE, ab DOUBLE, dp DOUBLE, qs DOUBLE)`,
	`CREATE TABLE snv_indel_annotations (key VARCHAR PRIMARY KEY, chrom VARCHAR, pos BIGINT, end_pos BIGINT,
		xpos BIGINT, ref VARCHAR, alt VARCHAR, rsid VARCHAR, filters VARCHAR, transcripts VARCHAR,
		populations VARCHAR, scores VARCHAR, enums VARCHAR)`,
	`CREATE TABLE snv_indel_variants (variantId VARCHAR, xpos BIGINT, contig VARCHAR, pos INTEGER, rsid VARCHAR,
		filters VARCHAR[], geneIds VARCHAR[], transcriptConsequenceTerms VARCHAR[],
		clinvar_clinical_significance VARCHAR, hgmd_class VARCHAR,
		samples_no_call VARCHAR[], samples_num_alt_1 VARCHAR[], samples_num_alt_2 VARCHAR[],
		samples_gq_0_to_5 VARCHAR[], samples_gq_5_to_10 VARCHAR[], samples_gq_10_to_15 VARCHAR[], samples_gq_15_to_20 VARCHAR[],
		cadd_PHRED DOUBLE, gnomad_genomes_AF DOUBLE, gnomad_genomes_AC INTEGER, gnomad_genomes_Hom INTEGER)`,
}

// sampleListColumns hold sample IDs and are stored as empty lists rather
// than NULL so that negated membership tests stay two-valued.
var sampleListColumns = []string{
	"samples_no_call", "samples_num_alt_1", "samples_num_alt_2",
	"samples_gq_0_to_5", "samples_gq_5_to_10", "samples_gq_10_to_15", "samples_gq_15_to_20",
}

var documentColumns = []string{
	"variantId", "xpos", "contig", "pos", "rsid", "filters", "geneIds", "transcriptConsequenceTerms",
	"clinvar_clinical_significance", "hgmd_class",
	"samples_no_call", "samples_num_alt_1", "samples_num_alt_2",
	"samples_gq_0_to_5", "samples_gq_5_to_10", "samples_gq_10_to_15", "samples_gq_15_to_20",
	"cadd_PHRED", "gnomad_genomes_AF", "gnomad_genomes_AC", "gnomad_genomes_Hom",
}

func openTestDuckDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("duckdb", "")
	require.NoError(t, err)
	// One connection keeps every query on the same in-memory database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// setupFixtureStore creates the snv_indel tables and loads fixtureVariants
// for the trio in project P1.
func setupFixtureStore(t *testing.T) (*Store, *sql.DB) {
	t.Helper()
	db := openTestDuckDB(t)
	ctx := context.Background()
	for _, ddl := range fixtureDDL {
		_, err := db.ExecContext(ctx, ddl)
		require.NoError(t, err)
	}
	for _, s := range trio {
		_, err := db.ExecContext(ctx, `INSERT INTO snv_indel_project_samples VALUES ('P1', 'F1', ?)`, s)
		require.NoError(t, err)
	}
	for _, v := range fixtureVariants {
		insertAnnotation(t, db, v)
		insertEntries(t, db, v)
		insertDocument(t, db, documentRow(v))
	}
	return NewStore(db, nil), db
}

func insertAnnotation(t *testing.T, db *sql.DB, v fixtureVariant) {
	t.Helper()
	var transcripts, pops, scores, filters interface{}
	enums := map[string]int{}
	if v.gene != "" {
		id := indexOf(fixtureEnums[metadata.EnumConsequence], v.csq)
		transcripts = mustJSON(t, []domain.Transcript{{GeneID: v.gene, TranscriptID: "T" + v.key, MajorConsequenceID: id, Canonical: true}})
	}
	if v.clinvar != "" {
		enums[metadata.EnumClinvar] = indexOf(fixtureEnums[metadata.EnumClinvar], v.clinvar)
	}
	if v.af != nil {
		pops = mustJSON(t, map[string]*domain.Population{"gnomad_genomes": {AF: *v.af, AC: int(*v.af * 1000), AN: 1000}})
	}
	if v.cadd != nil {
		scores = mustJSON(t, map[string]float64{"cadd": *v.cadd})
	}
	if len(v.filters) > 0 {
		filters = mustJSON(t, v.filters)
	}
	var rsid interface{}
	if v.rsid != "" {
		rsid = v.rsid
	}
	_, err := db.Exec(`INSERT INTO snv_indel_annotations VALUES (?, ?, ?, NULL, ?, 'A', 'T', ?, ?, ?, ?, ?, ?)`,
		v.key, v.chrom, v.pos, domain.XPos(v.chrom, v.pos), rsid, filters, transcripts, pops, scores, mustJSON(t, enums))
	require.NoError(t, err)
}

func insertEntries(t *testing.T, db *sql.DB, v fixtureVariant) {
	t.Helper()
	for _, s := range trio {
		var numAlt interface{} = v.calls[s]
		if v.calls[s] == domain.MissingNumAlt {
			numAlt = nil
		}
		gq := 99.0
		if g, ok := v.gq[s]; ok {
			gq = g
		}
		_, err := db.Exec(`INSERT INTO snv_indel_entries VALUES ('P1', 'F1', ?, ?, ?, ?, NULL, 20, NULL)`,
			s, v.key, numAlt, gq)
		require.NoError(t, err)
	}
}

// documentRow renders v as a flat document. Columns that would be NULL are
// absent from the row.
func documentRow(v fixtureVariant) expr.Row {
	row := expr.Row{
		"variantId": v.key,
		"xpos":      domain.XPos(v.chrom, v.pos),
		"contig":    v.chrom,
		"pos":       int(v.pos),
	}
	for _, col := range sampleListColumns {
		row[col] = []string{}
	}
	if v.rsid != "" {
		row["rsid"] = v.rsid
	}
	if len(v.filters) > 0 {
		row["filters"] = v.filters
	}
	if v.gene != "" {
		row["geneIds"] = []string{v.gene}
		row["transcriptConsequenceTerms"] = []string{v.csq}
	}
	if v.clinvar != "" {
		row["clinvar_clinical_significance"] = v.clinvar
	}
	if v.cadd != nil {
		row["cadd_PHRED"] = *v.cadd
	}
	if v.af != nil {
		row["gnomad_genomes_AF"] = *v.af
		row["gnomad_genomes_AC"] = int(*v.af * 1000)
		row["gnomad_genomes_Hom"] = 0
	}
	for _, s := range trio {
		switch v.calls[s] {
		case domain.MissingNumAlt:
			row["samples_no_call"] = append(row["samples_no_call"].([]string), s)
		case 1:
			row["samples_num_alt_1"] = append(row["samples_num_alt_1"].([]string), s)
		case 2:
			row["samples_num_alt_2"] = append(row["samples_num_alt_2"].([]string), s)
		}
		if g, ok := v.gq[s]; ok && g < 20 {
			low := int(g) / 5 * 5
			col := fmt.Sprintf("samples_gq_%d_to_%d", low, low+5)
			row[col] = append(row[col].([]string), s)
		}
	}
	return row
}

func insertDocument(t *testing.T, db *sql.DB, row expr.Row) {
	t.Helper()
	values := make([]string, len(documentColumns))
	for i, col := range documentColumns {
		values[i] = sqlValue(row[col])
	}
	_, err := db.Exec(fmt.Sprintf("INSERT INTO snv_indel_variants (%s) VALUES (%s)",
		strings.Join(documentColumns, ", "), strings.Join(values, ", ")))
	require.NoError(t, err)
}

func sqlValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'"
	case []string:
		items := make([]string, len(x))
		for i, s := range x {
			items[i] = sqlValue(s)
		}
		return "[" + strings.Join(items, ", ") + "]::VARCHAR[]"
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	}
	panic(fmt.Sprintf("unsupported fixture value %T", v))
}

func mustJSON(t *testing.T, v interface{}) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func indexOf(values []string, v string) int {
	for i, x := range values {
		if x == v {
			return i
		}
	}
	return -1
}

// fixtureDocuments returns the document rows in xpos order.
func fixtureDocuments() []expr.Row {
	rows := make([]expr.Row, len(fixtureVariants))
	for i, v := range fixtureVariants {
		rows[i] = documentRow(v)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i]["xpos"].(int64) < rows[j]["xpos"].(int64) })
	return rows
}

// fakeEnums serves fixtureEnums for the snv_indel dataset.
type fakeEnums struct{}

func (fakeEnums) LoadEnums(_ context.Context, dataset string) (map[string][]string, error) {
	if dataset != domain.DataTypeSNVIndel.Dataset() {
		return map[string][]string{}, nil
	}
	return fixtureEnums, nil
}

func (fakeEnums) SetEnum(context.Context, string, string, []string) error { return nil }

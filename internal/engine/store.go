// Package engine reads variant tables from DuckDB. Each dataset (one per
// data type) is stored as four tables:
//
//	<dataset>_project_samples  samples loaded per project and family
//	<dataset>_entries          one genotype call per (project, family, sample, key)
//	<dataset>_annotations      one annotation row per variant key
//	<dataset>_variants         the flat document table relational filters run against
package engine

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // DuckDB driver

	"github.com/populationgenomics/seqr/internal/domain"
)

// annotationBatch caps the keys bound into one annotation query.
const annotationBatch = 500

var datasetPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Open opens a DuckDB database file. An empty path opens an in-memory
// database.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}
	return db, nil
}

// Store is the DuckDB variant store.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

var (
	_ domain.VariantStore    = (*Store)(nil)
	_ domain.FieldTypeSource = (*Store)(nil)
)

// NewStore creates a store on db.
func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

// tableName returns the validated name of one of a dataset's tables.
func tableName(dataset, suffix string) (string, error) {
	if !datasetPattern.MatchString(dataset) {
		return "", domain.ErrValidation("Invalid dataset name %q", dataset)
	}
	return dataset + "_" + suffix, nil
}

// LoadProjectEntries reads one project's loaded samples and genotype
// entries, restricted to familyGUIDs.
func (s *Store) LoadProjectEntries(ctx context.Context, dataType domain.DataType, projectGUID string, familyGUIDs []string) (*domain.ProjectEntries, error) {
	pe := &domain.ProjectEntries{
		ProjectGUID:   projectGUID,
		LoadedSamples: make(map[string][]string),
		Entries:       make(map[string]map[string][]domain.GenotypeEntry),
	}
	if len(familyGUIDs) == 0 {
		return pe, nil
	}
	samplesTable, err := tableName(dataType.Dataset(), "project_samples")
	if err != nil {
		return nil, err
	}
	entriesTable, err := tableName(dataType.Dataset(), "entries")
	if err != nil {
		return nil, err
	}

	args := make([]interface{}, 0, len(familyGUIDs)+1)
	args = append(args, projectGUID)
	for _, guid := range familyGUIDs {
		args = append(args, guid)
	}
	inFamilies := "family_guid IN (" + placeholders(len(familyGUIDs)) + ")"

	rows, err := s.db.QueryContext(ctx,
		"SELECT family_guid, sample_id FROM "+samplesTable+
			" WHERE project_guid = ? AND "+inFamilies+" ORDER BY family_guid, sample_id", args...)
	if err != nil {
		return nil, mapTableError(err, dataType)
	}
	for rows.Next() {
		var family, sample string
		if err := rows.Scan(&family, &sample); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan loaded sample: %w", err)
		}
		pe.LoadedSamples[family] = append(pe.LoadedSamples[family], sample)
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx,
		"SELECT key, family_guid, sample_id, num_alt, gq, ab, dp, qs FROM "+entriesTable+
			" WHERE project_guid = ? AND "+inFamilies+" ORDER BY key, family_guid, sample_id", args...)
	if err != nil {
		return nil, mapTableError(err, dataType)
	}
	n := 0
	for rows.Next() {
		var (
			key, family    string
			e              domain.GenotypeEntry
			numAlt         sql.NullInt64
			gq, ab, dp, qs sql.NullFloat64
		)
		if err := rows.Scan(&key, &family, &e.SampleID, &numAlt, &gq, &ab, &dp, &qs); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.NumAlt = domain.MissingNumAlt
		if numAlt.Valid {
			e.NumAlt = int(numAlt.Int64)
		}
		e.GQ, e.AB, e.DP, e.QS = floatPtr(gq), floatPtr(ab), floatPtr(dp), floatPtr(qs)
		byFamily := pe.Entries[key]
		if byFamily == nil {
			byFamily = make(map[string][]domain.GenotypeEntry)
			pe.Entries[key] = byFamily
		}
		byFamily[family] = append(byFamily[family], e)
		n++
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}
	s.logger.Debug("read project entries", "data_type", dataType, "project", projectGUID,
		"families", len(familyGUIDs), "entries", n, "variants", len(pe.Entries))
	return pe, nil
}

const annotationColumns = "key, chrom, pos, end_pos, xpos, ref, alt, rsid, filters, transcripts, populations, scores, enums"

// ReadAnnotations returns the annotations of keys. Keys with no annotation
// row are absent from the result.
func (s *Store) ReadAnnotations(ctx context.Context, dataType domain.DataType, keys []string) (map[string]*domain.Candidate, error) {
	table, err := tableName(dataType.Dataset(), "annotations")
	if err != nil {
		return nil, err
	}
	out := make(map[string]*domain.Candidate, len(keys))
	for start := 0; start < len(keys); start += annotationBatch {
		batch := keys[start:min(start+annotationBatch, len(keys))]
		args := make([]interface{}, len(batch))
		for i, k := range batch {
			args[i] = k
		}
		rows, err := s.db.QueryContext(ctx,
			"SELECT "+annotationColumns+" FROM "+table+" WHERE key IN ("+placeholders(len(batch))+")", args...)
		if err != nil {
			return nil, mapTableError(err, dataType)
		}
		for rows.Next() {
			c, err := scanCandidate(rows)
			if err != nil {
				_ = rows.Close()
				return nil, err
			}
			c.DataType = dataType
			out[c.Key] = c
		}
		if err := closeRows(rows); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// LookupVariant returns one variant's annotations, or nil when the key is
// not loaded.
func (s *Store) LookupVariant(ctx context.Context, dataType domain.DataType, key string) (*domain.Candidate, error) {
	table, err := tableName(dataType.Dataset(), "annotations")
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, "SELECT "+annotationColumns+" FROM "+table+" WHERE key = ?", key)
	if err != nil {
		return nil, mapTableError(err, dataType)
	}
	defer rows.Close() //nolint:errcheck
	if !rows.Next() {
		return nil, rows.Err()
	}
	c, err := scanCandidate(rows)
	if err != nil {
		return nil, err
	}
	c.DataType = dataType
	return c, nil
}

func scanCandidate(rows *sql.Rows) (*domain.Candidate, error) {
	var (
		c                                           domain.Candidate
		end                                         sql.NullInt64
		ref, alt, rsid                              sql.NullString
		filters, transcripts, pops, scores, enumIDs sql.NullString
	)
	if err := rows.Scan(&c.Key, &c.Chrom, &c.Pos, &end, &c.XPos, &ref, &alt, &rsid,
		&filters, &transcripts, &pops, &scores, &enumIDs); err != nil {
		return nil, fmt.Errorf("scan annotation: %w", err)
	}
	c.End, c.Ref, c.Alt, c.RsID = end.Int64, ref.String, alt.String, rsid.String
	if c.XPos == 0 {
		c.XPos = domain.XPos(c.Chrom, c.Pos)
	}
	for _, col := range []struct {
		name string
		raw  sql.NullString
		dst  interface{}
	}{
		{"filters", filters, &c.Filters},
		{"transcripts", transcripts, &c.Transcripts},
		{"populations", pops, &c.Populations},
		{"scores", scores, &c.Scores},
		{"enums", enumIDs, &c.Enums},
	} {
		if !col.raw.Valid || col.raw.String == "" {
			continue
		}
		if err := json.Unmarshal([]byte(col.raw.String), col.dst); err != nil {
			return nil, fmt.Errorf("decode %s of %s: %w", col.name, c.Key, err)
		}
	}
	return &c, nil
}

// mapTableError reports a dataset whose tables are not loaded as not found.
func mapTableError(err error, dataType domain.DataType) error {
	if strings.Contains(err.Error(), "does not exist") {
		return domain.ErrNotFound("No %s data loaded", dataType)
	}
	return err
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	return rows.Close()
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/populationgenomics/seqr/internal/domain"
)

// RosterRepo reads and writes the sample roster.
type RosterRepo struct {
	db *sql.DB
}

// NewRosterRepo creates a roster repository on db.
func NewRosterRepo(db *sql.DB) *RosterRepo {
	return &RosterRepo{db: db}
}

var _ domain.RosterRepository = (*RosterRepo)(nil)

// ListSamples returns the active samples of the given families, ordered by
// family and sample ID. An empty dataType lists samples of every data type.
func (r *RosterRepo) ListSamples(ctx context.Context, familyGUIDs []string, dataType domain.DataType) ([]domain.Sample, error) {
	if len(familyGUIDs) == 0 {
		return nil, nil
	}
	query := `SELECT sample_id, data_type, individual_guid, family_guid, project_guid, affected, sex
		FROM samples WHERE is_active = 1 AND family_guid IN (` + placeholders(len(familyGUIDs)) + `)`
	args := make([]interface{}, 0, len(familyGUIDs)+1)
	for _, guid := range familyGUIDs {
		args = append(args, guid)
	}
	if dataType != "" {
		query += " AND data_type = ?"
		args = append(args, string(dataType))
	}
	query += " ORDER BY family_guid, sample_id, data_type"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list samples: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var samples []domain.Sample
	for rows.Next() {
		var (
			s                 domain.Sample
			dt, affected, sex string
		)
		if err := rows.Scan(&s.SampleID, &dt, &s.IndividualGUID, &s.FamilyGUID, &s.ProjectGUID, &affected, &sex); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		s.DataType = domain.DataType(dt)
		s.Affected = domain.AffectedStatus(affected)
		s.Sex = domain.Sex(sex)
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

// UpsertSample inserts s or replaces the roster markers of an existing
// sample. Upserted samples are active.
func (r *RosterRepo) UpsertSample(ctx context.Context, s domain.Sample) error {
	if s.SampleID == "" || s.FamilyGUID == "" || s.ProjectGUID == "" || s.IndividualGUID == "" {
		return domain.ErrValidation("sample, individual, family and project are required")
	}
	affected := s.Affected
	if affected == "" {
		affected = domain.UnknownAffected
	}
	if !affected.Valid() {
		return domain.ErrValidation("Invalid affected status %q", s.Affected)
	}
	sex := s.Sex
	if sex == "" {
		sex = domain.UnknownSex
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO samples
		(sample_id, data_type, individual_guid, family_guid, project_guid, affected, sex, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1)
		ON CONFLICT (sample_id, data_type, family_guid) DO UPDATE SET
			individual_guid = excluded.individual_guid,
			project_guid = excluded.project_guid,
			affected = excluded.affected,
			sex = excluded.sex,
			is_active = 1,
			updated_at = datetime('now')`,
		s.SampleID, string(s.DataType.OrDefault()), s.IndividualGUID, s.FamilyGUID, s.ProjectGUID,
		string(affected), string(sex))
	return mapDBError(err)
}

// SetActive marks a sample as loaded or withdrawn. Inactive samples are
// hidden from ListSamples.
func (r *RosterRepo) SetActive(ctx context.Context, sampleID string, dataType domain.DataType, familyGUID string, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE samples SET is_active = ?, updated_at = datetime('now')
		WHERE sample_id = ? AND data_type = ? AND family_guid = ?`,
		boolToInt(active), sampleID, string(dataType.OrDefault()), familyGUID)
	if err != nil {
		return mapDBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound("sample %s not found in family %s", sampleID, familyGUID)
	}
	return nil
}

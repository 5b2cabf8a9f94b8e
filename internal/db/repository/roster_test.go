package repository

import (
	"context"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "github.com/populationgenomics/seqr/internal/db"
	"github.com/populationgenomics/seqr/internal/domain"
)

func setupRosterRepo(t *testing.T) *RosterRepo {
	t.Helper()
	m := internaldb.OpenTestMetastore(t)
	return NewRosterRepo(m.Write)
}

func seedRoster(t *testing.T, repo *RosterRepo) {
	t.Helper()
	ctx := context.Background()
	for _, s := range []domain.Sample{
		{SampleID: "child", IndividualGUID: "I_child", FamilyGUID: "F1", ProjectGUID: "P1", Affected: domain.Affected, Sex: domain.Male},
		{SampleID: "mother", IndividualGUID: "I_mother", FamilyGUID: "F1", ProjectGUID: "P1", Affected: domain.Unaffected, Sex: domain.Female},
		{SampleID: "child_sv", IndividualGUID: "I_child", FamilyGUID: "F1", ProjectGUID: "P1", Affected: domain.Affected, DataType: domain.DataTypeSV},
		{SampleID: "proband", IndividualGUID: "I_proband", FamilyGUID: "F2", ProjectGUID: "P2", Affected: domain.Affected},
	} {
		require.NoError(t, repo.UpsertSample(ctx, s))
	}
}

func sampleIDs(samples []domain.Sample) []string {
	ids := make([]string, len(samples))
	for i, s := range samples {
		ids[i] = s.SampleID
	}
	return ids
}

func TestRosterRepo_ListSamples(t *testing.T) {
	repo := setupRosterRepo(t)
	seedRoster(t, repo)
	ctx := context.Background()

	tests := []struct {
		name     string
		families []string
		dataType domain.DataType
		want     []string
	}{
		{"all data types", []string{"F1"}, "", []string{"child", "child_sv", "mother"}},
		{"snv only", []string{"F1"}, domain.DataTypeSNVIndel, []string{"child", "mother"}},
		{"sv only", []string{"F1", "F2"}, domain.DataTypeSV, []string{"child_sv"}},
		{"two families", []string{"F2", "F1"}, domain.DataTypeSNVIndel, []string{"child", "mother", "proband"}},
		{"unknown family", []string{"F9"}, "", nil},
		{"no families", nil, "", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := repo.ListSamples(ctx, tc.families, tc.dataType)
			require.NoError(t, err)
			if tc.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tc.want, sampleIDs(got))
		})
	}
}

func TestRosterRepo_UpsertSample(t *testing.T) {
	repo := setupRosterRepo(t)
	seedRoster(t, repo)
	ctx := context.Background()

	got, err := repo.ListSamples(ctx, []string{"F2"}, "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.Sample{
		SampleID: "proband", IndividualGUID: "I_proband", FamilyGUID: "F2", ProjectGUID: "P2",
		Affected: domain.Affected, Sex: domain.UnknownSex, DataType: domain.DataTypeSNVIndel,
	}, got[0])

	require.NoError(t, repo.UpsertSample(ctx, domain.Sample{
		SampleID: "proband", IndividualGUID: "I_proband", FamilyGUID: "F2", ProjectGUID: "P2",
		Affected: domain.Unaffected, Sex: domain.Female,
	}))
	got, err = repo.ListSamples(ctx, []string{"F2"}, "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.Unaffected, got[0].Affected)
	assert.Equal(t, domain.Female, got[0].Sex)
}

func TestRosterRepo_UpsertSampleValidation(t *testing.T) {
	repo := setupRosterRepo(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		sample domain.Sample
	}{
		{"missing family", domain.Sample{SampleID: "s", IndividualGUID: "I", ProjectGUID: "P"}},
		{"bad affected", domain.Sample{SampleID: "s", IndividualGUID: "I", FamilyGUID: "F", ProjectGUID: "P", Affected: "Y"}},
		{"bad sex", domain.Sample{SampleID: "s", IndividualGUID: "I", FamilyGUID: "F", ProjectGUID: "P", Sex: "X"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := repo.UpsertSample(ctx, tc.sample)
			var v *domain.ValidationError
			assert.True(t, errors.As(err, &v), "got %v", err)
		})
	}
}

func TestRosterRepo_SetActive(t *testing.T) {
	repo := setupRosterRepo(t)
	seedRoster(t, repo)
	ctx := context.Background()

	require.NoError(t, repo.SetActive(ctx, "mother", "", "F1", false))
	got, err := repo.ListSamples(ctx, []string{"F1"}, domain.DataTypeSNVIndel)
	require.NoError(t, err)
	assert.Equal(t, []string{"child"}, sampleIDs(got))

	require.NoError(t, repo.SetActive(ctx, "mother", domain.DataTypeSNVIndel, "F1", true))
	got, err = repo.ListSamples(ctx, []string{"F1"}, domain.DataTypeSNVIndel)
	require.NoError(t, err)
	assert.Equal(t, []string{"child", "mother"}, sampleIDs(got))

	err = repo.SetActive(ctx, "nobody", "", "F1", false)
	var nf *domain.NotFoundError
	assert.True(t, errors.As(err, &nf))
}

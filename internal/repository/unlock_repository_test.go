package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourcehire/talent-api/internal/models"
)

func TestUnlockRepositoryFindActiveMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUnlockRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("FROM unlock_grants")).
		WithArgs("owner-1", "resume-1", now).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindActive(context.Background(), "owner-1", "resume-1", now)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestUnlockRepositoryActiveGrants(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUnlockRepository(db)

	now := time.Now().UTC()
	payload, _ := json.Marshal(models.RevealedData{Email: "a@example.com"})
	rows := sqlmock.NewRows([]string{"id", "owner_id", "resume_id", "source", "payload", "granted_at", "expires_at"}).
		AddRow("grant-1", "owner-1", "resume-1", "search", payload, now.Add(-time.Hour), now.Add(time.Hour))

	mock.ExpectQuery(regexp.QuoteMeta("AND expires_at > $3")).
		WithArgs("owner-1", pq.Array([]string{"resume-1", "resume-2"}), now).
		WillReturnRows(rows)

	grants, err := repo.ActiveGrants(context.Background(), "owner-1", []string{"resume-1", "resume-2"}, now)
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.Equal(t, "grant-1", grants["resume-1"].ID)
	_, ok := grants["resume-2"]
	assert.False(t, ok)
}

func TestUnlockRepositoryActiveGrantsEmptyInput(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUnlockRepository(db)

	grants, err := repo.ActiveGrants(context.Background(), "owner-1", nil, time.Now().UTC())
	require.NoError(t, err)
	assert.Empty(t, grants)
}

func TestUnlockRepositoryCreateIfAbsentWins(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUnlockRepository(db)

	grant := &models.UnlockGrant{
		ID:        "grant-1",
		OwnerID:   "owner-1",
		ResumeID:  "resume-1",
		Source:    models.UnlockSourceSearch,
		Payload:   json.RawMessage(`{}`),
		GrantedAt: time.Now().UTC(),
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (owner_id, resume_id) DO UPDATE")).
		WithArgs(grant.ID, grant.OwnerID, grant.ResumeID, grant.Source, grant.Payload, grant.GrantedAt, grant.ExpiresAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	created, err := repo.CreateIfAbsent(context.Background(), grant)
	require.NoError(t, err)
	assert.True(t, created)
}

func TestUnlockRepositoryCreateIfAbsentLosesRace(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUnlockRepository(db)

	grant := &models.UnlockGrant{
		ID:        "grant-2",
		OwnerID:   "owner-1",
		ResumeID:  "resume-1",
		Source:    models.UnlockSourceBucket,
		Payload:   json.RawMessage(`{}`),
		GrantedAt: time.Now().UTC(),
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}

	// An active grant already holds the pair, so the conditional upsert
	// touches zero rows.
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (owner_id, resume_id) DO UPDATE")).
		WithArgs(grant.ID, grant.OwnerID, grant.ResumeID, grant.Source, grant.Payload, grant.GrantedAt, grant.ExpiresAt).
		WillReturnResult(sqlmock.NewResult(0, 0))

	created, err := repo.CreateIfAbsent(context.Background(), grant)
	require.NoError(t, err)
	assert.False(t, created)
}

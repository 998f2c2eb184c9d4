package nexus_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/laxmi-narasimha26/b2b-commerce-nexus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newProfilesFixture(t *testing.T) (*bun.DB, nexus.RepositoryManager) {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	ddl := []string{
		`CREATE TABLE profiles (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			phone_number TEXT,
			organization_id TEXT,
			user_role TEXT NOT NULL,
			password_hash TEXT,
			loggedin_at TIMESTAMP,
			created_at TIMESTAMP,
			updated_at TIMESTAMP,
			deleted_at TIMESTAMP
		)`,
		`CREATE TABLE password_resets (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			email TEXT NOT NULL,
			status TEXT NOT NULL,
			expires_at TIMESTAMP,
			created_at TIMESTAMP,
			updated_at TIMESTAMP,
			deleted_at TIMESTAMP
		)`,
	}
	for _, stmt := range ddl {
		_, err := db.ExecContext(context.Background(), stmt)
		require.NoError(t, err)
	}

	return db, nexus.NewRepositoryManager(db)
}

func seedProfile(t *testing.T, db *bun.DB, email, passwordHash string) *nexus.Profile {
	t.Helper()

	record := &nexus.Profile{
		ID:           uuid.New(),
		Email:        email,
		FirstName:    "Priya",
		LastName:     "Patel",
		Role:         nexus.RoleCustomer,
		PasswordHash: passwordHash,
	}
	_, err := db.NewInsert().Model(record).Exec(context.Background())
	require.NoError(t, err)
	return record
}

func storedPasswordHash(t *testing.T, db *bun.DB, id uuid.UUID) string {
	t.Helper()

	record := new(nexus.Profile)
	err := db.NewSelect().
		Model(record).
		Where("prf.id = ?", id.String()).
		Scan(context.Background())
	require.NoError(t, err)
	return record.PasswordHash
}

func TestResetPasswordTxRidesCallerTransaction(t *testing.T) {
	ctx := context.Background()
	db, repo := newProfilesFixture(t)
	seeded := seedProfile(t, db, "priya@shop.test", "original-hash")

	err := repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := repo.Profiles().ResetPasswordTx(ctx, tx, seeded.ID, "replacement-hash"); err != nil {
			return err
		}
		return errors.New("later step failed")
	})
	require.Error(t, err)

	assert.Equal(t, "original-hash", storedPasswordHash(t, db, seeded.ID),
		"rolled back transaction must not leave the new hash behind")

	err = repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return repo.Profiles().ResetPasswordTx(ctx, tx, seeded.ID, "replacement-hash")
	})
	require.NoError(t, err)
	assert.Equal(t, "replacement-hash", storedPasswordHash(t, db, seeded.ID))
}

func TestResetPasswordUpdatesLiveConnection(t *testing.T) {
	ctx := context.Background()
	db, repo := newProfilesFixture(t)
	seeded := seedProfile(t, db, "amit@shop.test", "before")

	require.NoError(t, repo.Profiles().ResetPassword(ctx, seeded.ID, "after"))
	assert.Equal(t, "after", storedPasswordHash(t, db, seeded.ID))
}

func TestResetPasswordUnknownProfile(t *testing.T) {
	ctx := context.Background()
	_, repo := newProfilesFixture(t)

	err := repo.Profiles().ResetPassword(ctx, uuid.New(), "whatever")
	require.Error(t, err)
}

func TestProfilesUpsertCreatesThenUpdates(t *testing.T) {
	ctx := context.Background()
	db, repo := newProfilesFixture(t)

	record := &nexus.Profile{
		Email:     "lena@shop.test",
		FirstName: "Lena",
		LastName:  "Moss",
		Role:      nexus.RoleBusiness,
	}
	created, err := repo.Profiles().Upsert(ctx, record)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)

	created.FirstName = "Helena"
	updated, err := repo.Profiles().Upsert(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)

	count, err := db.NewSelect().Model((*nexus.Profile)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

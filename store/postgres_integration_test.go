//go:build integration
// +build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"shadow-ledger/ledger"
	"shadow-ledger/models"
	"shadow-ledger/notify"
)

// setupPostgres starts a PostgreSQL container and returns a migrated store
func setupPostgres(t *testing.T) *Postgres {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:alpine",
		postgres.WithDatabase("ledger"),
		postgres.WithUsername("ledger"),
		postgres.WithPassword("ledger"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgContainer.Terminate(ctx) })

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := NewPostgres(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(s.Close)

	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Migrate(ctx), "migrate is idempotent")
	return s
}

func TestPostgresStore(t *testing.T) {
	ctx := context.Background()
	s := setupPostgres(t)
	base := time.Now().UTC().Truncate(time.Millisecond)

	require.NoError(t, s.Insert(ctx, credit("c1", "acc-1", 1000, base)))
	require.NoError(t, s.Insert(ctx, transfer("t1", "acc-1", "acc-2", 400, base.Add(time.Second))))

	got, err := s.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, models.EntryTransfer, got.Type)
	assert.Equal(t, "acc-1", got.From)
	assert.Equal(t, "acc-2", got.To)
	assert.Empty(t, got.AccountID)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(400)))
	assert.Nil(t, got.PostedAt)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	posted := base.Add(2 * time.Second)
	require.NoError(t, s.UpdateStatus(ctx, "t1", models.StatusPosted, &posted))
	assert.ErrorIs(t, s.UpdateStatus(ctx, "missing", models.StatusPosted, nil), ledger.ErrNotFound)

	acc1, err := s.ListByAccount(ctx, "acc-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "c1"}, ids(acc1))

	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.NotNil(t, all[0].PostedAt)
	assert.True(t, all[0].PostedAt.Equal(posted))
}

func TestPostgresBackedEngine(t *testing.T) {
	ctx := context.Background()
	s := setupPostgres(t)
	e := ledger.New(s, notify.NewLog())

	tx, err := e.CreateTransaction(ctx, "acc-1", decimal.NewFromInt(1000))
	require.NoError(t, err)
	_, err = e.PostTransaction(ctx, tx.ID)
	require.NoError(t, err)

	tr, err := e.CreatePendingTransfer(ctx, "acc-1", "acc-2", decimal.NewFromInt(400))
	require.NoError(t, err)
	require.NoError(t, e.PostTransfer(ctx, tr.ID))

	b1, err := e.GetBalance(ctx, "acc-1")
	require.NoError(t, err)
	assert.True(t, b1.Total.Equal(decimal.NewFromInt(600)))
	assert.True(t, b1.Available.Equal(decimal.NewFromInt(600)))

	b2, err := e.GetBalance(ctx, "acc-2")
	require.NoError(t, err)
	assert.True(t, b2.Total.Equal(decimal.NewFromInt(400)))
	assert.True(t, b2.Available.Equal(decimal.NewFromInt(400)))
}

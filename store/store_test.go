package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shadow-ledger/ledger"
	"shadow-ledger/models"
)

func credit(id, account string, amount int64, at time.Time) models.Entry {
	return models.Transaction{
		ID:        id,
		AccountID: account,
		Amount:    decimal.NewFromInt(amount),
		Status:    models.StatusPending,
		Timestamp: at,
	}.Entry()
}

func transfer(id, from, to string, amount int64, at time.Time) models.Entry {
	return models.Transfer{
		ID:        id,
		From:      from,
		To:        to,
		Amount:    decimal.NewFromInt(amount),
		Type:      models.EntryTransfer,
		Status:    models.StatusPending,
		Timestamp: at,
	}.Entry()
}

func TestMemoryInsertGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	now := time.Now().UTC()

	require.NoError(t, s.Insert(ctx, credit("c1", "acc-1", 1000, now)))
	got, err := s.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "acc-1", got.AccountID)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(1000)))

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	assert.Error(t, s.Insert(ctx, credit("c1", "acc-1", 5, now)), "duplicate id")
}

func TestMemoryUpdateStatus(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	now := time.Now().UTC()
	require.NoError(t, s.Insert(ctx, transfer("t1", "acc-1", "acc-2", 400, now)))

	require.NoError(t, s.UpdateStatus(ctx, "t1", models.StatusPosted, &now))
	got, err := s.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPosted, got.Status)
	require.NotNil(t, got.PostedAt)

	assert.ErrorIs(t, s.UpdateStatus(ctx, "nope", models.StatusPosted, nil), ledger.ErrNotFound)
}

func TestMemoryListOrderAndIndex(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	base := time.Now().UTC()

	require.NoError(t, s.Insert(ctx, credit("c1", "acc-1", 1000, base)))
	require.NoError(t, s.Insert(ctx, transfer("t1", "acc-1", "acc-2", 400, base.Add(time.Second))))
	require.NoError(t, s.Insert(ctx, credit("c2", "acc-3", 50, base.Add(2*time.Second))))

	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"c2", "t1", "c1"}, ids(all))

	acc1, err := s.ListByAccount(ctx, "acc-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "c1"}, ids(acc1))

	acc2, err := s.ListByAccount(ctx, "acc-2")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, ids(acc2))

	none, err := s.ListByAccount(ctx, "acc-9")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryInsertRejectsInvalidEntries(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	bad := credit("c1", "acc-1", 10, time.Now().UTC())
	bad.Status = "settled"

	assert.ErrorContains(t, s.Insert(ctx, bad), "unknown status")
	_, err := s.Get(ctx, "c1")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

// fakeRow feeds fixed column values to scanEntry
type fakeRow []any

func (r fakeRow) Scan(dest ...any) error {
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = r[i].(string)
		case *time.Time:
			*p = r[i].(time.Time)
		case **time.Time:
			*p, _ = r[i].(*time.Time)
		}
	}
	return nil
}

func TestScanEntry(t *testing.T) {
	now := time.Now()
	row := func(kind, amount, status string) fakeRow {
		return fakeRow{"t1", kind, "", "acc-1", "acc-2", amount, status, now, &now}
	}

	e, err := scanEntry(row("TRANSFER", "12.50", "posted"))
	require.NoError(t, err)
	assert.Equal(t, models.EntryTransfer, e.Type)
	assert.True(t, e.Amount.Equal(decimal.RequireFromString("12.5")))
	require.NotNil(t, e.PostedAt)

	_, err = scanEntry(row("TRANSFER", "12.50", "settled"))
	assert.ErrorContains(t, err, "unknown status")
	_, err = scanEntry(row("DEBIT", "12.50", "posted"))
	assert.ErrorContains(t, err, "unknown type")
	_, err = scanEntry(row("TRANSFER", "abc", "posted"))
	assert.ErrorContains(t, err, "parse amount")
}

func ids(entries []models.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

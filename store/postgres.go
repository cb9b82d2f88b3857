package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"shadow-ledger/ledger"
	"shadow-ledger/models"
)

// Schema creates the append-only entry table. Balances are never stored;
// status and posted_at are the only columns updated after insert.
const Schema = `
CREATE TABLE IF NOT EXISTS ledger_entries (
	seq          BIGSERIAL,
	id           TEXT PRIMARY KEY,
	kind         TEXT NOT NULL CHECK (kind IN ('CREDIT', 'TRANSFER')),
	account_id   TEXT,
	from_account TEXT,
	to_account   TEXT,
	amount       NUMERIC NOT NULL CHECK (amount > 0),
	status       TEXT NOT NULL CHECK (status IN ('pending', 'posted', 'reversed')),
	created_at   TIMESTAMPTZ NOT NULL,
	posted_at    TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS ledger_entries_account_id_idx ON ledger_entries (account_id);
CREATE INDEX IF NOT EXISTS ledger_entries_from_account_idx ON ledger_entries (from_account);
CREATE INDEX IF NOT EXISTS ledger_entries_to_account_idx ON ledger_entries (to_account);
`

const selectColumns = `id, kind, COALESCE(account_id, ''), COALESCE(from_account, ''),
	COALESCE(to_account, ''), amount::text, status, created_at, posted_at`

// Postgres stores ledger entries in PostgreSQL through a pgx pool
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to databaseURL and verifies the connection
func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Migrate applies Schema
func (s *Postgres) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Ping checks the database connection
func (s *Postgres) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the pool
func (s *Postgres) Close() {
	s.pool.Close()
}

// Insert appends an entry
func (s *Postgres) Insert(ctx context.Context, e models.Entry) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO ledger_entries
			(id, kind, account_id, from_account, to_account, amount, status, created_at, posted_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), $6::numeric, $7, $8, $9)`,
		e.ID, string(e.Type), e.AccountID, e.From, e.To, e.Amount.String(), string(e.Status), e.Timestamp, e.PostedAt)
	if err != nil {
		return fmt.Errorf("insert entry %s: %w", e.ID, err)
	}
	return nil
}

// Get retrieves an entry by id
func (s *Postgres) Get(ctx context.Context, id string) (models.Entry, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM ledger_entries WHERE id = $1`, id)
	e, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Entry{}, ledger.ErrNotFound
	}
	if err != nil {
		return models.Entry{}, fmt.Errorf("get entry %s: %w", id, err)
	}
	return e, nil
}

// UpdateStatus changes the status (and posted time) of an existing entry
func (s *Postgres) UpdateStatus(ctx context.Context, id string, status models.Status, postedAt *time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE ledger_entries SET status = $2, posted_at = $3 WHERE id = $1`,
		id, string(status), postedAt)
	if err != nil {
		return fmt.Errorf("update entry %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

// ListByAccount returns the entries touching accountID, newest first
func (s *Postgres) ListByAccount(ctx context.Context, accountID string) ([]models.Entry, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+selectColumns+` FROM ledger_entries
		WHERE account_id = $1 OR from_account = $1 OR to_account = $1
		ORDER BY created_at DESC, seq DESC`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list entries for %s: %w", accountID, err)
	}
	return collectEntries(rows)
}

// List returns every entry, newest first
func (s *Postgres) List(ctx context.Context) ([]models.Entry, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+selectColumns+` FROM ledger_entries
		ORDER BY created_at DESC, seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return collectEntries(rows)
}

func collectEntries(rows pgx.Rows) ([]models.Entry, error) {
	defer rows.Close()
	var out []models.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanEntry(row pgx.Row) (models.Entry, error) {
	var (
		e        models.Entry
		kind     string
		amount   string
		status   string
		postedAt *time.Time
	)
	if err := row.Scan(&e.ID, &kind, &e.AccountID, &e.From, &e.To, &amount, &status, &e.Timestamp, &postedAt); err != nil {
		return models.Entry{}, err
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return models.Entry{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	e.Type = models.EntryType(kind)
	e.Amount = d
	e.Status = models.Status(status)
	if postedAt != nil {
		t := postedAt.UTC()
		e.PostedAt = &t
	}
	e.Timestamp = e.Timestamp.UTC()
	if err := e.Validate(); err != nil {
		return models.Entry{}, fmt.Errorf("corrupt ledger row: %w", err)
	}
	return e, nil
}

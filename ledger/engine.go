package ledger

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shadow-ledger/models"
)

// Store is the append-style entry log the engine reads and writes. Get
// returns an error matching ErrNotFound for unknown ids. List methods return
// entries newest first.
type Store interface {
	Insert(ctx context.Context, e models.Entry) error
	Get(ctx context.Context, id string) (models.Entry, error)
	UpdateStatus(ctx context.Context, id string, status models.Status, postedAt *time.Time) error
	ListByAccount(ctx context.Context, accountID string) ([]models.Entry, error)
	List(ctx context.Context) ([]models.Entry, error)
}

// Notifier receives human readable status messages per account
type Notifier interface {
	Notify(accountID, message string)
}

// Engine owns the transaction and transfer lifecycles. All work that reads
// an account's entries to make a decision and then writes is done under that
// account's lock.
type Engine struct {
	store    Store
	notifier Notifier
	logger   *zap.Logger
	locks    *accountLocks
	now      func() time.Time
	newID    func() string
	strict   bool
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the engine logger
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock overrides the timestamp source
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides entry id generation
func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) { e.newID = gen }
}

// WithStrictTransfers makes PostTransfer and ReverseTransfer report unknown
// ids and re-reversals as errors instead of logging a no-op.
func WithStrictTransfers(strict bool) Option {
	return func(e *Engine) { e.strict = strict }
}

// New builds an Engine over store. A nil notifier discards messages.
func New(store Store, notifier Notifier, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		notifier: notifier,
		logger:   zap.NewNop(),
		locks:    newAccountLocks(),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.notifier == nil {
		e.notifier = discard{}
	}
	return e
}

type discard struct{}

func (discard) Notify(string, string) {}

// GetBalance derives the balance of accountID from its entries
func (e *Engine) GetBalance(ctx context.Context, accountID string) (models.Balance, error) {
	entries, err := e.store.ListByAccount(ctx, accountID)
	if err != nil {
		return models.Balance{}, storeErr("list entries", err)
	}
	return Calculate(accountID, entries), nil
}

// Balances derives the balance of every account that has entries
func (e *Engine) Balances(ctx context.Context) (map[string]models.Balance, error) {
	entries, err := e.store.List(ctx)
	if err != nil {
		return nil, storeErr("list entries", err)
	}
	return CalculateAll(entries), nil
}

// ListEntries returns entries newest first. An empty accountID lists the
// whole ledger.
func (e *Engine) ListEntries(ctx context.Context, accountID string) ([]models.Entry, error) {
	var (
		entries []models.Entry
		err     error
	)
	if accountID == "" {
		entries, err = e.store.List(ctx)
	} else {
		entries, err = e.store.ListByAccount(ctx, accountID)
	}
	if err != nil {
		return nil, storeErr("list entries", err)
	}
	sortByRecency(entries)
	return entries, nil
}

// ListTransactions returns every credit transaction, newest first
func (e *Engine) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	entries, err := e.ListEntries(ctx, "")
	if err != nil {
		return nil, err
	}
	out := make([]models.Transaction, 0, len(entries))
	for _, en := range entries {
		if en.Type == models.EntryCredit {
			out = append(out, en.Transaction())
		}
	}
	return out, nil
}

// ListTransfers returns every transfer, newest first
func (e *Engine) ListTransfers(ctx context.Context) ([]models.Transfer, error) {
	entries, err := e.ListEntries(ctx, "")
	if err != nil {
		return nil, err
	}
	out := make([]models.Transfer, 0, len(entries))
	for _, en := range entries {
		if en.Type == models.EntryTransfer {
			out = append(out, en.Transfer())
		}
	}
	return out, nil
}

// load fetches an entry of the given type. A missing entry or one of the
// other type yields ErrNotFound.
func (e *Engine) load(ctx context.Context, id string, typ models.EntryType) (models.Entry, error) {
	en, err := e.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return models.Entry{}, ErrNotFound
	}
	if err != nil {
		return models.Entry{}, storeErr("get entry", err)
	}
	if en.Type != typ {
		return models.Entry{}, ErrNotFound
	}
	return en, nil
}

// sortByRecency orders entries newest first. The sort is stable so stores
// that already return recency order keep their tie-breaking.
func sortByRecency(entries []models.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
}

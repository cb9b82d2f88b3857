package ledger

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"shadow-ledger/models"
	"shadow-ledger/notify"
)

// CreatePendingTransfer holds amount from the sender and records a pending
// transfer. The sender is debited at once; the receiver sees nothing until
// the transfer is posted. Refusals (ErrInvalidAmount, ErrInsufficientFunds,
// ErrSameAccount, ErrInvalidAccount) leave the ledger untouched.
func (e *Engine) CreatePendingTransfer(ctx context.Context, from, to string, amount decimal.Decimal) (models.Transfer, error) {
	return e.createTransfer(ctx, from, to, amount, models.StatusPending,
		notify.TransferSentPending, notify.TransferIncomingPending)
}

// CreateTransfer moves amount from sender to receiver in one step. The
// transfer is recorded already posted.
func (e *Engine) CreateTransfer(ctx context.Context, from, to string, amount decimal.Decimal) (models.Transfer, error) {
	return e.createTransfer(ctx, from, to, amount, models.StatusPosted,
		notify.TransferSent, notify.TransferReceived)
}

// TryCreatePendingTransfer wraps CreatePendingTransfer in a TransferResult.
// Only store failures are returned as an error.
func (e *Engine) TryCreatePendingTransfer(ctx context.Context, from, to string, amount decimal.Decimal) (models.TransferResult, error) {
	return toResult(e.CreatePendingTransfer(ctx, from, to, amount))
}

// TryCreateTransfer wraps CreateTransfer in a TransferResult. A refusal for
// lack of available funds carries UnconfirmedFundsMessage, since pending
// credits cannot be sent.
func (e *Engine) TryCreateTransfer(ctx context.Context, from, to string, amount decimal.Decimal) (models.TransferResult, error) {
	res, err := toResult(e.CreateTransfer(ctx, from, to, amount))
	if errors.Is(res.Err, ErrInsufficientFunds) {
		res.Error = UnconfirmedFundsMessage
	}
	return res, err
}

func toResult(t models.Transfer, err error) (models.TransferResult, error) {
	var se *StoreError
	if errors.As(err, &se) {
		return models.TransferResult{}, err
	}
	if err != nil {
		return models.TransferResult{Success: false, Error: err.Error(), Err: err}, nil
	}
	return models.TransferResult{Success: true, Transfer: &t}, nil
}

// message builds the notification one side of a transfer receives
type message func(amount decimal.Decimal, counterparty string) string

// createTransfer records the transfer and notifies both sides while their
// locks are held, so each account's messages follow its entry order.
func (e *Engine) createTransfer(ctx context.Context, from, to string, amount decimal.Decimal, status models.Status, toSender, toReceiver message) (models.Transfer, error) {
	if from == "" || to == "" {
		return models.Transfer{}, ErrInvalidAccount
	}
	if from == to {
		return models.Transfer{}, ErrSameAccount
	}
	if !amount.IsPositive() {
		return models.Transfer{}, ErrInvalidAmount
	}

	unlock := e.locks.lock(from, to)
	defer unlock()

	entries, err := e.store.ListByAccount(ctx, from)
	if err != nil {
		return models.Transfer{}, storeErr("list entries", err)
	}
	if bal := Calculate(from, entries); bal.Available.LessThan(amount) {
		e.logger.Info("transfer refused",
			zap.String("from", from),
			zap.String("to", to),
			zap.String("amount", amount.String()),
			zap.String("available", bal.Available.String()))
		return models.Transfer{}, ErrInsufficientFunds
	}

	now := e.now()
	t := models.Transfer{
		ID:        e.newID(),
		From:      from,
		To:        to,
		Amount:    amount,
		Type:      models.EntryTransfer,
		Status:    status,
		Timestamp: now,
	}
	if status == models.StatusPosted {
		t.PostedAt = &now
	}
	if err := e.store.Insert(ctx, t.Entry()); err != nil {
		return models.Transfer{}, storeErr("insert transfer", err)
	}

	e.logger.Debug("transfer created",
		zap.String("id", t.ID),
		zap.String("from", from),
		zap.String("to", to),
		zap.String("amount", amount.String()),
		zap.String("status", string(status)))

	e.notifier.Notify(from, toSender(amount, to))
	e.notifier.Notify(to, toReceiver(amount, from))
	return t, nil
}

// PostTransfer settles a pending transfer and credits the receiver. Unknown
// ids and transfers that can no longer be posted are logged and ignored
// unless the engine is strict.
func (e *Engine) PostTransfer(ctx context.Context, id string) error {
	return e.transitionTransfer(ctx, id, models.StatusPosted)
}

// ReverseTransfer cancels a transfer and restores the sender. A receiver
// already credited by posting keeps the credit.
func (e *Engine) ReverseTransfer(ctx context.Context, id string) error {
	return e.transitionTransfer(ctx, id, models.StatusReversed)
}

func (e *Engine) transitionTransfer(ctx context.Context, id string, next models.Status) error {
	en, err := e.load(ctx, id, models.EntryTransfer)
	if errors.Is(err, ErrNotFound) {
		e.logger.Warn("transfer not found", zap.String("id", id), zap.String("action", string(next)))
		if e.strict {
			return ErrNotFound
		}
		return nil
	}
	if err != nil {
		return err
	}

	unlock := e.locks.lock(en.From, en.To)
	defer unlock()

	if en, err = e.load(ctx, id, models.EntryTransfer); err != nil {
		return err
	}
	if en.Status == next || !en.Status.CanTransitionTo(next) {
		e.logger.Warn("transfer transition ignored",
			zap.String("id", id),
			zap.String("status", string(en.Status)),
			zap.String("action", string(next)))
		if e.strict && en.Status == models.StatusReversed {
			return ErrAlreadyReversed
		}
		return nil
	}

	postedAt := en.PostedAt
	if next == models.StatusPosted {
		now := e.now()
		postedAt = &now
	}
	if err := e.store.UpdateStatus(ctx, id, next, postedAt); err != nil {
		return storeErr("update transfer", err)
	}

	e.logger.Debug("transfer status changed",
		zap.String("id", id),
		zap.String("status", string(next)))

	switch next {
	case models.StatusPosted:
		e.notifier.Notify(en.To, notify.TransferAvailable(en.Amount, en.From))
	case models.StatusReversed:
		e.notifier.Notify(en.From, notify.TransferReversed(en.Amount, en.To))
		e.notifier.Notify(en.To, notify.TransferFailed(en.Amount, en.From))
	}
	return nil
}

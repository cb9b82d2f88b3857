package ledger

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"shadow-ledger/models"
	"shadow-ledger/notify"
)

// CreateTransaction records a pending credit of amount against accountID.
// The amount counts toward total at once and toward available after posting.
func (e *Engine) CreateTransaction(ctx context.Context, accountID string, amount decimal.Decimal) (models.Transaction, error) {
	if accountID == "" {
		return models.Transaction{}, ErrInvalidAccount
	}
	if !amount.IsPositive() {
		return models.Transaction{}, ErrInvalidAmount
	}

	unlock := e.locks.lock(accountID)
	defer unlock()

	tx := models.Transaction{
		ID:        e.newID(),
		AccountID: accountID,
		Amount:    amount,
		Status:    models.StatusPending,
		Timestamp: e.now(),
	}
	if err := e.store.Insert(ctx, tx.Entry()); err != nil {
		return models.Transaction{}, storeErr("insert transaction", err)
	}

	e.logger.Debug("transaction created",
		zap.String("id", tx.ID),
		zap.String("account_id", accountID),
		zap.String("amount", amount.String()))
	e.notifier.Notify(accountID, notify.CreditPending(amount))
	return tx, nil
}

// PostTransaction confirms a credit so it becomes available. Posting an
// already posted credit returns it unchanged.
func (e *Engine) PostTransaction(ctx context.Context, id string) (models.Transaction, error) {
	return e.transitionTransaction(ctx, id, models.StatusPosted)
}

// ReverseTransaction cancels a pending or posted credit
func (e *Engine) ReverseTransaction(ctx context.Context, id string) (models.Transaction, error) {
	return e.transitionTransaction(ctx, id, models.StatusReversed)
}

func (e *Engine) transitionTransaction(ctx context.Context, id string, next models.Status) (models.Transaction, error) {
	en, err := e.load(ctx, id, models.EntryCredit)
	if err != nil {
		return models.Transaction{}, err
	}

	unlock := e.locks.lock(en.AccountID)
	defer unlock()

	// reread under the lock; status may have moved
	if en, err = e.load(ctx, id, models.EntryCredit); err != nil {
		return models.Transaction{}, err
	}
	if !en.Status.CanTransitionTo(next) {
		return models.Transaction{}, ErrAlreadyReversed
	}
	if en.Status == next {
		return en.Transaction(), nil
	}

	if err := e.store.UpdateStatus(ctx, id, next, nil); err != nil {
		return models.Transaction{}, storeErr("update transaction", err)
	}
	en.Status = next

	e.logger.Debug("transaction status changed",
		zap.String("id", id),
		zap.String("account_id", en.AccountID),
		zap.String("status", string(next)))

	switch next {
	case models.StatusPosted:
		e.notifier.Notify(en.AccountID, notify.CreditPosted(en.Amount))
	case models.StatusReversed:
		e.notifier.Notify(en.AccountID, notify.CreditReversed(en.Amount))
	}
	return en.Transaction(), nil
}

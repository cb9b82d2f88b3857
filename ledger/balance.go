package ledger

import (
	"github.com/shopspring/decimal"

	"shadow-ledger/models"
)

// Calculate derives the balance of accountID by replaying entries. Entries
// that do not touch the account are ignored, so the full ledger may be passed.
//
// Credits count toward total while pending and toward both fields once
// posted. A transfer debits the sender from creation until it is reversed,
// and credits the receiver only once posted. A posted transfer that is later
// reversed keeps its receiver credit (no clawback).
func Calculate(accountID string, entries []models.Entry) models.Balance {
	b := models.Balance{Total: decimal.Zero, Available: decimal.Zero}
	for _, e := range entries {
		if e.Touches(accountID) {
			b = apply(b, accountID, e)
		}
	}
	return b
}

// CalculateAll derives balances for every account that appears in entries
func CalculateAll(entries []models.Entry) map[string]models.Balance {
	out := make(map[string]models.Balance)
	for _, e := range entries {
		for _, id := range e.Accounts() {
			b, ok := out[id]
			if !ok {
				b = models.Balance{Total: decimal.Zero, Available: decimal.Zero}
			}
			out[id] = apply(b, id, e)
		}
	}
	return out
}

func apply(b models.Balance, accountID string, e models.Entry) models.Balance {
	switch e.Type {
	case models.EntryCredit:
		if e.AccountID != accountID {
			return b
		}
		switch e.Status {
		case models.StatusPosted:
			b.Total = b.Total.Add(e.Amount)
			b.Available = b.Available.Add(e.Amount)
		case models.StatusPending:
			b.Total = b.Total.Add(e.Amount)
		}

	case models.EntryTransfer:
		if e.From == accountID && e.Status != models.StatusReversed {
			b.Total = b.Total.Sub(e.Amount)
			b.Available = b.Available.Sub(e.Amount)
		}
		if e.To == accountID && receiverCredited(e) {
			b.Total = b.Total.Add(e.Amount)
			b.Available = b.Available.Add(e.Amount)
		}
	}
	return b
}

func receiverCredited(e models.Entry) bool {
	switch e.Status {
	case models.StatusPosted:
		return true
	case models.StatusReversed:
		return e.PostedAt != nil
	}
	return false
}

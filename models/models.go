package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state shared by transactions and transfers
type Status string

const (
	StatusPending  Status = "pending"
	StatusPosted   Status = "posted"
	StatusReversed Status = "reversed"
)

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPosted, StatusReversed:
		return true
	}
	return false
}

// CanTransitionTo reports whether an entry in status s may move to next.
// Posting is allowed from pending (and tolerated from posted); reversal is
// allowed from pending or posted. Nothing leaves reversed.
func (s Status) CanTransitionTo(next Status) bool {
	switch next {
	case StatusPosted:
		return s == StatusPending || s == StatusPosted
	case StatusReversed:
		return s == StatusPending || s == StatusPosted
	}
	return false
}

// EntryType distinguishes one-sided credits from bilateral transfers
type EntryType string

const (
	EntryCredit   EntryType = "CREDIT"
	EntryTransfer EntryType = "TRANSFER"
)

// Valid reports whether t is one of the known entry kinds
func (t EntryType) Valid() bool {
	return t == EntryCredit || t == EntryTransfer
}

// Transaction represents a one-sided credit against a single account
type Transaction struct {
	ID        string          `json:"id"`
	AccountID string          `json:"accountId"`
	Amount    decimal.Decimal `json:"amount"`
	Status    Status          `json:"status"`
	Timestamp time.Time       `json:"timestamp"`
}

// Transfer represents a movement between two accounts
type Transfer struct {
	ID        string          `json:"id"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Amount    decimal.Decimal `json:"amount"`
	Type      EntryType       `json:"type"` // always "TRANSFER"
	Status    Status          `json:"status"`
	Timestamp time.Time       `json:"timestamp"`
	PostedAt  *time.Time      `json:"postedAt,omitempty"`
}

// Entry is the flat ledger row both kinds are stored as
type Entry struct {
	ID        string          `json:"id"`
	Type      EntryType       `json:"type"`
	AccountID string          `json:"accountId,omitempty"` // credits only
	From      string          `json:"from,omitempty"`      // transfers only
	To        string          `json:"to,omitempty"`        // transfers only
	Amount    decimal.Decimal `json:"amount"`
	Status    Status          `json:"status"`
	Timestamp time.Time       `json:"timestamp"`
	PostedAt  *time.Time      `json:"postedAt,omitempty"`
}

// Touches reports whether the entry affects accountID
func (e Entry) Touches(accountID string) bool {
	if e.Type == EntryCredit {
		return e.AccountID == accountID
	}
	return e.From == accountID || e.To == accountID
}

// Validate checks the fields every stored entry must carry
func (e Entry) Validate() error {
	switch {
	case e.ID == "":
		return fmt.Errorf("entry id is empty")
	case !e.Type.Valid():
		return fmt.Errorf("entry %s: unknown type %q", e.ID, e.Type)
	case !e.Status.Valid():
		return fmt.Errorf("entry %s: unknown status %q", e.ID, e.Status)
	case !e.Amount.IsPositive():
		return fmt.Errorf("entry %s: amount %s is not positive", e.ID, e.Amount)
	}
	return nil
}

// Accounts returns the account ids the entry touches
func (e Entry) Accounts() []string {
	if e.Type == EntryCredit {
		return []string{e.AccountID}
	}
	return []string{e.From, e.To}
}

// Transaction converts a credit entry back to its Transaction form
func (e Entry) Transaction() Transaction {
	return Transaction{
		ID:        e.ID,
		AccountID: e.AccountID,
		Amount:    e.Amount,
		Status:    e.Status,
		Timestamp: e.Timestamp,
	}
}

// Transfer converts a transfer entry back to its Transfer form
func (e Entry) Transfer() Transfer {
	return Transfer{
		ID:        e.ID,
		From:      e.From,
		To:        e.To,
		Amount:    e.Amount,
		Type:      EntryTransfer,
		Status:    e.Status,
		Timestamp: e.Timestamp,
		PostedAt:  e.PostedAt,
	}
}

// Entry converts the transaction to its ledger row
func (t Transaction) Entry() Entry {
	return Entry{
		ID:        t.ID,
		Type:      EntryCredit,
		AccountID: t.AccountID,
		Amount:    t.Amount,
		Status:    t.Status,
		Timestamp: t.Timestamp,
	}
}

// Entry converts the transfer to its ledger row
func (t Transfer) Entry() Entry {
	return Entry{
		ID:        t.ID,
		Type:      EntryTransfer,
		From:      t.From,
		To:        t.To,
		Amount:    t.Amount,
		Status:    t.Status,
		Timestamp: t.Timestamp,
		PostedAt:  t.PostedAt,
	}
}

// Balance is derived from ledger entries and never stored
type Balance struct {
	Total     decimal.Decimal `json:"total"`
	Available decimal.Decimal `json:"available"`
}

// TransferResult is the recoverable outcome of a transfer request
type TransferResult struct {
	Success  bool      `json:"success"`
	Transfer *Transfer `json:"transfer,omitempty"`
	Error    string    `json:"error,omitempty"`
	Err      error     `json:"-"`
}

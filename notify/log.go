// Package notify keeps the per-account notification log and the message
// texts the ledger engine emits on every status change.
package notify

import "sync"

// Log is an append-only, per-account message log. Messages for one account
// are kept in the order Notify was called.
type Log struct {
	mu       sync.RWMutex
	messages map[string][]string
}

// NewLog returns an empty Log
func NewLog() *Log {
	return &Log{messages: make(map[string][]string)}
}

// Notify appends message to the account's log
func (l *Log) Notify(accountID, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages[accountID] = append(l.messages[accountID], message)
}

// List returns a copy of the account's messages, oldest first
func (l *Log) List(accountID string) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	msgs := l.messages[accountID]
	out := make([]string, len(msgs))
	copy(out, msgs)
	return out
}

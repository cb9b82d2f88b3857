// Package nip simulates the inbound instant-payment network that funds
// one-sided credits. Callers obtain an OAuth style token, then register an
// inbound credit session before the ledger records the credit.
package nip

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidCredentials is returned when the client id or secret is wrong
	ErrInvalidCredentials = errors.New("invalid client credentials")
	// ErrInvalidToken is returned for an unknown or expired token
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrInvalidAmount is returned for a non-positive credit amount
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrSessionNotFound is returned for an unknown session id
	ErrSessionNotFound = errors.New("session not found")
)

// Token represents an OAuth access token
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}

// Session records one inbound credit as seen by the network
type Session struct {
	ID            string          `json:"sessionId"`
	AccountID     string          `json:"accountId"`
	Amount        decimal.Decimal `json:"amount"`
	TransactionID string          `json:"transactionId,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// MockClient simulates the payment network's API with OAuth
type MockClient struct {
	mu           sync.Mutex
	clientID     string
	clientSecret string
	token        *Token
	tokenTTL     time.Duration
	sessions     map[string]Session
	now          func() time.Time
}

// NewMockClient initializes the client with the configured credentials
func NewMockClient(clientID, clientSecret string) *MockClient {
	return &MockClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenTTL:     time.Hour,
		sessions:     make(map[string]Session),
		now:          time.Now,
	}
}

// GetToken returns the current token, issuing a new one when it has expired
func (c *MockClient) GetToken(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != nil && c.token.ExpiresAt.After(c.now()) {
		return c.token.AccessToken, nil
	}
	if c.clientID == "" || c.clientSecret == "" {
		return "", ErrInvalidCredentials
	}

	c.token = &Token{
		AccessToken: "nip-token-" + uuid.New().String(),
		ExpiresAt:   c.now().Add(c.tokenTTL),
	}
	return c.token.AccessToken, nil
}

// validateToken must be called with mu held
func (c *MockClient) validateToken(token string) error {
	if c.token == nil || c.token.AccessToken != token || !c.token.ExpiresAt.After(c.now()) {
		return ErrInvalidToken
	}
	return nil
}

// OpenCredit registers an inbound credit for accountID and returns the
// network session reference
func (c *MockClient) OpenCredit(ctx context.Context, token, accountID string, amount decimal.Decimal) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.validateToken(token); err != nil {
		return Session{}, err
	}
	if !amount.IsPositive() {
		return Session{}, ErrInvalidAmount
	}
	if accountID == "" {
		return Session{}, fmt.Errorf("destination account cannot be empty")
	}

	s := Session{
		ID:        "nip-" + uuid.New().String(),
		AccountID: accountID,
		Amount:    amount,
		CreatedAt: c.now().UTC(),
	}
	c.sessions[s.ID] = s
	return s, nil
}

// BindTransaction links a session to the ledger transaction it produced
func (c *MockClient) BindTransaction(ctx context.Context, sessionID, transactionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	s.TransactionID = transactionID
	c.sessions[sessionID] = s
	return nil
}

// CancelCredit drops a session whose credit could not be recorded
func (c *MockClient) CancelCredit(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, sessionID)
}

// Session returns a session by id
func (c *MockClient) Session(sessionID string) (Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[sessionID]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return s, nil
}

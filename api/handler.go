// Package api exposes the ledger engine over HTTP with gin.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"shadow-ledger/ledger"
	"shadow-ledger/models"
	"shadow-ledger/nip"
)

func init() {
	// amounts and balances travel as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

// Notifications reads the per-account notification log
type Notifications interface {
	List(accountID string) []string
}

// CreditNetwork is the inbound payment network that funds credits
type CreditNetwork interface {
	GetToken(ctx context.Context) (string, error)
	OpenCredit(ctx context.Context, token, accountID string, amount decimal.Decimal) (nip.Session, error)
	BindTransaction(ctx context.Context, sessionID, transactionID string) error
	CancelCredit(sessionID string)
	Session(sessionID string) (nip.Session, error)
}

// Pinger reports whether the backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

type CreditRequest struct {
	AccountID string          `json:"accountId"`
	Amount    decimal.Decimal `json:"amount"`
}

type CreditResponse struct {
	models.Transaction
	SessionID string `json:"sessionId"`
}

type TransferRequest struct {
	From    string          `json:"from"`
	To      string          `json:"to"`
	Amount  decimal.Decimal `json:"amount"`
	Instant bool            `json:"instant"`
}

// Handler serves the ledger API
type Handler struct {
	engine        *ledger.Engine
	notifications Notifications
	network       CreditNetwork
	store         Pinger
	logger        *zap.Logger
}

// NewHandler wires the handler's collaborators
func NewHandler(engine *ledger.Engine, notifications Notifications, network CreditNetwork, store Pinger, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		engine:        engine,
		notifications: notifications,
		network:       network,
		store:         store,
		logger:        logger,
	}
}

func (h *Handler) health(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		h.logger.Error("store unavailable", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) createCredit(c *gin.Context) {
	var req CreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"Invalid request body"}})
		return
	}

	var errs []string
	if req.AccountID == "" {
		errs = append(errs, "Account ID cannot be empty")
	}
	if !req.Amount.IsPositive() {
		errs = append(errs, "Amount must be positive")
	}
	if len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
		return
	}

	ctx := c.Request.Context()
	token, err := h.network.GetToken(ctx)
	if err != nil {
		h.logger.Error("payment network authentication failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to authenticate with payment network"})
		return
	}
	session, err := h.network.OpenCredit(ctx, token, req.AccountID, req.Amount)
	if err != nil {
		h.logger.Error("payment network refused credit", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	tx, err := h.engine.CreateTransaction(ctx, req.AccountID, req.Amount)
	if err != nil {
		h.network.CancelCredit(session.ID)
		h.writeError(c, err)
		return
	}
	if err := h.network.BindTransaction(ctx, session.ID, tx.ID); err != nil {
		h.logger.Warn("failed to bind session", zap.String("session_id", session.ID), zap.Error(err))
	}

	h.logger.Info("credit received",
		zap.String("transaction_id", tx.ID),
		zap.String("session_id", session.ID),
		zap.String("account_id", tx.AccountID))
	c.JSON(http.StatusCreated, CreditResponse{Transaction: tx, SessionID: session.ID})
}

func (h *Handler) getSession(c *gin.Context) {
	s, err := h.network.Session(c.Param("sessionId"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handler) postTransaction(c *gin.Context) {
	tx, err := h.engine.PostTransaction(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}

func (h *Handler) reverseTransaction(c *gin.Context) {
	tx, err := h.engine.ReverseTransaction(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}

func (h *Handler) listTransactions(c *gin.Context) {
	txs, err := h.engine.ListTransactions(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, txs)
}

func (h *Handler) listTransfers(c *gin.Context) {
	trs, err := h.engine.ListTransfers(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, trs)
}

// listEntries serves both /entries (optionally ?accountId=) and /ledger/:accountId
func (h *Handler) listEntries(c *gin.Context) {
	accountID := c.Param("accountId")
	if accountID == "" {
		accountID = c.Query("accountId")
	}
	entries, err := h.engine.ListEntries(c.Request.Context(), accountID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) getBalance(c *gin.Context) {
	accountID := c.Param("accountId")
	b, err := h.engine.GetBalance(c.Request.Context(), accountID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accountId": accountID, "total": b.Total, "available": b.Available})
}

func (h *Handler) listBalances(c *gin.Context) {
	balances, err := h.engine.Balances(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, balances)
}

func (h *Handler) listNotifications(c *gin.Context) {
	accountID := c.Param("accountId")
	c.JSON(http.StatusOK, gin.H{
		"accountId":     accountID,
		"notifications": h.notifications.List(accountID),
	})
}

func (h *Handler) createTransfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"Invalid request body"}})
		return
	}

	ctx := c.Request.Context()
	var (
		res models.TransferResult
		err error
	)
	if req.Instant {
		res, err = h.engine.TryCreateTransfer(ctx, req.From, req.To, req.Amount)
	} else {
		res, err = h.engine.TryCreatePendingTransfer(ctx, req.From, req.To, req.Amount)
	}
	if err != nil {
		h.writeError(c, err)
		return
	}
	if !res.Success {
		c.JSON(statusFor(res.Err), res)
		return
	}

	h.logger.Info("transfer created",
		zap.String("transfer_id", res.Transfer.ID),
		zap.String("status", string(res.Transfer.Status)))
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) postTransfer(c *gin.Context) {
	if err := h.engine.PostTransfer(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) reverseTransfer(c *gin.Context) {
	if err := h.engine.ReverseTransfer(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(code, gin.H{"error": http.StatusText(code)})
		return
	}
	c.JSON(code, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	var se *ledger.StoreError
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrSameAccount),
		errors.Is(err, ledger.ErrInvalidAccount):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrAlreadyReversed):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	case errors.As(err, &se):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

package api

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Router builds the gin engine with middleware and all routes
func (h *Handler) Router(corsOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(requestLogger(h.logger), gin.Recovery(), cors.New(corsConfig(corsOrigins)))

	r.GET("/health", h.health)

	// inbound credits from the payment network
	r.POST("/nip/credit", h.createCredit)
	r.GET("/nip/sessions/:sessionId", h.getSession)

	r.POST("/post/:id", h.postTransaction)
	r.POST("/reverse/:id", h.reverseTransaction)
	r.GET("/transactions", h.listTransactions)

	r.POST("/transfers", h.createTransfer)
	r.GET("/transfers", h.listTransfers)
	r.POST("/transfers/:id/post", h.postTransfer)
	r.POST("/transfers/:id/reverse", h.reverseTransfer)

	r.GET("/entries", h.listEntries)
	r.GET("/ledger/:accountId", h.listEntries)
	r.GET("/balances", h.listBalances)
	r.GET("/accounts/:accountId/balance", h.getBalance)
	r.GET("/accounts/:accountId/notifications", h.listNotifications)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// requestLogger logs one line per request
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		if c.Writer.Status() >= 500 {
			logger.Error("request", fields...)
			return
		}
		logger.Info("request", fields...)
	}
}

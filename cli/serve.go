package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"shadow-ledger/api"
	"shadow-ledger/config"
	"shadow-ledger/ledger"
	"shadow-ledger/nip"
	"shadow-ledger/notify"
	"shadow-ledger/store"
)

var (
	httpAddr        string
	strictTransfers bool
)

// serveCmd starts the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the ledger HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if changed(cmd, "addr") {
			cfg.HTTPAddr = httpAddr
		}
		if changed(cmd, "strict-transfers") {
			cfg.StrictTransfers = strictTransfers
		}
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&httpAddr, "addr", "", "HTTP listen address (overrides HTTP_ADDR)")
	serveCmd.Flags().BoolVar(&strictTransfers, "strict-transfers", false, "Report unknown or reversed transfer ids as errors")
}

type entryStore interface {
	ledger.Store
	Ping(ctx context.Context) error
	Close()
}

func openStore(ctx context.Context, c config.Config) (entryStore, error) {
	switch c.StoreDriver {
	case config.DriverPostgres:
		pg, err := store.NewPostgres(ctx, c.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		return pg, nil
	case config.DriverMemory:
		return store.NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", c.StoreDriver)
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	entries, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer entries.Close()

	notifications := notify.NewLog()
	engine := ledger.New(entries, notifications,
		ledger.WithLogger(logger.Named("ledger")),
		ledger.WithStrictTransfers(cfg.StrictTransfers))
	network := nip.NewMockClient(cfg.NIPClientID, cfg.NIPClientSecret)

	gin.SetMode(gin.ReleaseMode)
	handler := api.NewHandler(engine, notifications, network, entries, logger.Named("http"))
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.Router(cfg.CORSOrigins),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting shadow-ledger server",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("store", cfg.StoreDriver),
			zap.Bool("strict_transfers", cfg.StrictTransfers))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

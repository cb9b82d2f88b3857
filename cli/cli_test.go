package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shadow-ledger/config"
	"shadow-ledger/store"
)

func TestOpenStoreMemory(t *testing.T) {
	s, err := openStore(context.Background(), config.Config{StoreDriver: config.DriverMemory})
	require.NoError(t, err)
	defer s.Close()

	assert.IsType(t, &store.Memory{}, s)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestOpenStoreUnknownDriver(t *testing.T) {
	_, err := openStore(context.Background(), config.Config{StoreDriver: "sqlite"})
	assert.ErrorContains(t, err, "unknown store driver")
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("LOG_LEVEL", "info")
	t.Setenv("STORE_DRIVER", "memory")

	require.NoError(t, rootCmd.PersistentFlags().Set("log-level", "debug"))
	t.Cleanup(func() {
		_ = rootCmd.PersistentFlags().Set("log-level", "")
		rootCmd.PersistentFlags().Lookup("log-level").Changed = false
	})

	require.NoError(t, rootCmd.PersistentPreRunE(rootCmd, nil))
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, config.DriverMemory, cfg.StoreDriver)
	assert.NotNil(t, logger)
}

func TestMigrateRequiresDatabaseURL(t *testing.T) {
	cfg = config.Config{}
	assert.ErrorContains(t, runMigrate(context.Background()), "DATABASE_URL")
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["migrate"])
}

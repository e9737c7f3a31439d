package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/CodeVoyager3/Chemical-Equipment-Parameter-Visualiser/internal/config"
	"github.com/CodeVoyager3/Chemical-Equipment-Parameter-Visualiser/internal/core"
	"github.com/CodeVoyager3/Chemical-Equipment-Parameter-Visualiser/internal/store/postgres"
	"github.com/CodeVoyager3/Chemical-Equipment-Parameter-Visualiser/internal/store/storetest"
)

// Requires a disposable database; every case truncates both tables.
func TestConformance(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	storetest.Run(t, func(t *testing.T) core.Store {
		ctx := context.Background()
		s, err := postgres.Open(ctx, config.StoreConfig{URL: url, MaxConns: 4, MinConns: 1})
		require.NoError(t, err)
		require.NoError(t, s.Migrate(ctx))
		require.NoError(t, s.Truncate(ctx))
		return s
	})
}

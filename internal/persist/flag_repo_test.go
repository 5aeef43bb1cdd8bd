package persist

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/pointofvision/server/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testDB connects to POVD_TEST_DSN and migrates it. Skips when unset.
func testDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("POVD_TEST_DSN")
	if dsn == "" {
		t.Skip("POVD_TEST_DSN not set")
	}
	ctx := context.Background()
	db, err := NewDB(ctx, config.DatabaseConfig{
		DSN:             dsn,
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(db.Close)

	_, err = RunMigrations(ctx, db.Pool)
	require.NoError(t, err)
	_, err = db.Pool.Exec(ctx, `DELETE FROM token_flags`)
	require.NoError(t, err)
	return db
}

func TestFlagRepoRoundTrip(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewFlagRepo(db)

	flag, err := repo.Flag(ctx, "hero")
	require.NoError(t, err)
	assert.Nil(t, flag)

	require.NoError(t, repo.SetFlag(ctx, "hero", 5))
	require.NoError(t, repo.SetFlag(ctx, "scout", 2))
	require.NoError(t, repo.SetFlag(ctx, "hero", 10))

	flag, err = repo.Flag(ctx, "hero")
	require.NoError(t, err)
	require.NotNil(t, flag)
	assert.Equal(t, 10, *flag)

	all, err := repo.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"hero": 10, "scout": 2}, all)

	require.NoError(t, repo.UnsetFlag(ctx, "scout"))
	all, err = repo.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"hero": 10}, all)
}

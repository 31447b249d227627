package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// openTestService connects and migrates an in-memory state database.
func openTestService(t *testing.T) *SQLiteService {
	t.Helper()

	svc := NewSQLiteService(nil)
	ctx := context.Background()
	require.NoError(t, svc.Connect(ctx, TestConfig()))
	require.NoError(t, svc.Migrate(ctx))
	t.Cleanup(func() { svc.Close() })
	return svc
}

func TestSQLiteService_ConnectAndHealth(t *testing.T) {
	svc := openTestService(t)

	require.NoError(t, svc.Health(context.Background()))
	require.NotNil(t, svc.DB())
}

func TestSQLiteService_MigrationCreatesAppState(t *testing.T) {
	svc := openTestService(t)

	var name string
	err := svc.DB().QueryRow(
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'app_state'").Scan(&name)
	require.NoError(t, err)
	require.Equal(t, "app_state", name)

	version, err := svc.GetMigrationVersion(context.Background())
	require.NoError(t, err)
	require.GreaterOrEqual(t, version, int64(1))
}

func TestSQLiteService_MigrateIsIdempotent(t *testing.T) {
	svc := openTestService(t)

	require.NoError(t, svc.Migrate(context.Background()))
}

func TestSQLiteService_ConnectRejectsInvalidConfig(t *testing.T) {
	svc := NewSQLiteService(nil)

	config := TestConfig()
	config.Path = ""
	require.Error(t, svc.Connect(context.Background(), config))
}

func TestSQLiteService_HealthAfterClose(t *testing.T) {
	svc := NewSQLiteService(nil)
	require.NoError(t, svc.Connect(context.Background(), TestConfig()))
	require.NoError(t, svc.Close())

	require.Error(t, svc.Health(context.Background()))
}

package database_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-reservation/internal/config"
	"github.com/iliyamo/movie-reservation/internal/database"
)

func TestMigrateSQLiteIsIdempotent(t *testing.T) {
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "m.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, database.Migrate(db, config.DriverSQLite))
	require.NoError(t, database.Migrate(db, config.DriverSQLite))

	v, dirty, err := database.Version(db, config.DriverSQLite)
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)
	assert.False(t, dirty)

	for _, table := range []string{"users", "movies", "seat_rows", "seat_claims", "payments"} {
		var n int
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&n))
		assert.Equal(t, 1, n, table)
	}
}

func TestMigrateRejectsUnknownDriver(t *testing.T) {
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "m.db"))
	require.NoError(t, err)
	defer db.Close()
	assert.Error(t, database.Migrate(db, "postgres"))
}

func TestMySQLDSN(t *testing.T) {
	dsn := database.MySQLDSN(config.Config{DBUser: "app", DBPass: "pw", DBHost: "db", DBPort: "3306", DBName: "movies"})
	assert.Equal(t, "app:pw@tcp(db:3306)/movies?charset=utf8mb4&parseTime=true&loc=UTC&multiStatements=true&clientFoundRows=true", dsn)
}

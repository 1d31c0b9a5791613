package kit

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "file:products.db?_busy_timeout=5000&_journal_mode=WAL", sqliteDSN("products.db"))
	assert.Equal(t, "file:/var/lib/app/a%3Fb%23c.db?_busy_timeout=5000&_journal_mode=WAL",
		sqliteDSN("/var/lib/app/a?b#c.db"))
}

func TestOpenDB_SQLitePathWithReservedChars(t *testing.T) {
	path := filepath.Join(t.TempDir(), "odd?name#1 copy.db")

	db, err := OpenDB(context.Background(), DriverSQLite, path, 2)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.ExecContext(context.Background(), `CREATE TABLE t (id INTEGER)`)
	require.NoError(t, err)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestOpenDB_UnknownDriver(t *testing.T) {
	_, err := OpenDB(context.Background(), "mysql", "x", 1)
	assert.ErrorContains(t, err, "unsupported db driver")
}

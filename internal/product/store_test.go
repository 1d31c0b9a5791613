package product

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ProductAPI/pkg/kit"
)

func openSQLite(t *testing.T) (*DBStore, *sql.DB) {
	t.Helper()

	db, err := kit.OpenDB(context.Background(), kit.DriverSQLite, filepath.Join(t.TempDir(), "products.db"), 4)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s := NewSQLiteStore(db)
	require.NoError(t, s.EnsureSchema(context.Background()))
	return s, db
}

// storeContract runs the behaviour every Store implementation shares.
func storeContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("round trip", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		_, err := s.Insert(ctx, "Gadget", 1.5)
		require.NoError(t, err)
		created, err := s.Insert(ctx, "Widget", 9.99)
		require.NoError(t, err)

		assert.Positive(t, created.ID)
		assert.Equal(t, "Widget", created.Name)
		assert.Equal(t, 9.99, created.Price)
		assert.False(t, created.CreatedAt.IsZero())

		got, err := s.List(ctx, "")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, created.ID, got[0].ID)
		assert.Equal(t, "Widget", got[0].Name)
		assert.Equal(t, 9.99, got[0].Price)
		assert.False(t, got[0].CreatedAt.IsZero())
		assert.Equal(t, "Gadget", got[1].Name)
	})

	t.Run("ids increase", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		a, err := s.Insert(ctx, "A", 1)
		require.NoError(t, err)
		b, err := s.Insert(ctx, "B", 1)
		require.NoError(t, err)
		assert.Greater(t, b.ID, a.ID)
	})

	t.Run("empty list is not nil", func(t *testing.T) {
		got, err := newStore(t).List(context.Background(), "")
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("search by substring newest first", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		for _, n := range []string{"Blue Pen", "Notebook", "Pen Holder", "Desk"} {
			_, err := s.Insert(ctx, n, 2)
			require.NoError(t, err)
		}

		got, err := s.List(ctx, "Pen")
		require.NoError(t, err)
		assert.Equal(t, []string{"Pen Holder", "Blue Pen"}, names(got))

		got, err = s.List(ctx, "zzz")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("search treats wildcards literally", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		_, err := s.Insert(ctx, "100% Cotton", 5)
		require.NoError(t, err)
		_, err = s.Insert(ctx, "snake_case", 5)
		require.NoError(t, err)
		_, err = s.Insert(ctx, "Plain", 5)
		require.NoError(t, err)

		got, err := s.List(ctx, "%")
		require.NoError(t, err)
		assert.Equal(t, []string{"100% Cotton"}, names(got))

		got, err = s.List(ctx, "_")
		require.NoError(t, err)
		assert.Equal(t, []string{"snake_case"}, names(got))
	})
}

func names(ps []Product) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Name)
	}
	return out
}

func TestSQLiteStore_Contract(t *testing.T) {
	storeContract(t, func(t *testing.T) Store {
		s, _ := openSQLite(t)
		return s
	})
}

func TestMemStore_Contract(t *testing.T) {
	storeContract(t, func(t *testing.T) Store { return NewMemStore() })
}

// caseInsensitiveSearch holds for stores with SQLite's default LIKE.
func caseInsensitiveSearch(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	for _, n := range []string{"Blue Pen", "Notebook", "Pencil", "Open Box"} {
		_, err := s.Insert(ctx, n, 2)
		require.NoError(t, err)
	}

	got, err := s.List(ctx, "pen")
	require.NoError(t, err)
	assert.Equal(t, []string{"Open Box", "Pencil", "Blue Pen"}, names(got))
}

func TestSQLiteStore_SearchIgnoresCase(t *testing.T) {
	s, _ := openSQLite(t)
	caseInsensitiveSearch(t, s)
}

func TestMemStore_SearchIgnoresCase(t *testing.T) {
	caseInsensitiveSearch(t, NewMemStore())
}

func TestSQLiteStore_EnsureSchemaIdempotent(t *testing.T) {
	ctx := context.Background()
	s, db := openSQLite(t)

	require.NoError(t, s.EnsureSchema(ctx))
	require.NoError(t, s.EnsureSchema(ctx))

	var tables int
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'products'`,
	).Scan(&tables))
	assert.Equal(t, 1, tables)

	rows, err := db.QueryContext(ctx, `SELECT name, type FROM pragma_table_info('products') ORDER BY cid`)
	require.NoError(t, err)
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name, typ string
		require.NoError(t, rows.Scan(&name, &typ))
		cols = append(cols, name+" "+typ)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"id INTEGER", "name TEXT", "price REAL", "created_at DATETIME"}, cols)
}

func TestSQLiteStore_ErrorsAreStorageErrors(t *testing.T) {
	ctx := context.Background()
	s, db := openSQLite(t)

	_, err := db.ExecContext(ctx, `DROP TABLE products`)
	require.NoError(t, err)

	_, err = s.List(ctx, "")
	var serr *StorageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "list products", serr.Op)
	assert.Contains(t, err.Error(), "no such table")

	_, err = s.Insert(ctx, "Widget", 1)
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "insert product", serr.Op)
}

func TestSQLiteStore_Ping(t *testing.T) {
	s, db := openSQLite(t)
	require.NoError(t, s.Ping(context.Background()))

	require.NoError(t, db.Close())
	assert.Error(t, s.Ping(context.Background()))
}

func TestDBTime_Scan(t *testing.T) {
	var ts dbTime
	require.NoError(t, ts.Scan("2024-03-01 10:20:30"))
	assert.Equal(t, "2024-03-01T10:20:30Z", ts.Format("2006-01-02T15:04:05Z07:00"))

	require.NoError(t, ts.Scan([]byte("2024-03-01T10:20:30Z")))
	assert.Equal(t, 2024, ts.Year())

	assert.Error(t, ts.Scan("yesterday"))
	assert.Error(t, ts.Scan(42))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% off\_now \\ here`, escapeLike(`50% off_now \ here`))
}

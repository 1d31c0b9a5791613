package product

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
)

// dialect holds the statements that differ between storage engines.
type dialect struct {
	schema     string
	insert     string
	listAll    string
	listSearch string
}

var sqliteDialect = dialect{
	schema: `
		CREATE TABLE IF NOT EXISTS products (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			price REAL NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	insert: `
		INSERT INTO products (name, price)
		VALUES (?, ?)
		RETURNING id, name, price, created_at`,
	listAll: `
		SELECT id, name, price, created_at
		FROM products
		ORDER BY created_at DESC, id DESC`,
	listSearch: `
		SELECT id, name, price, created_at
		FROM products
		WHERE name LIKE ? ESCAPE '\'
		ORDER BY created_at DESC, id DESC`,
}

var postgresDialect = dialect{
	schema: `
		CREATE TABLE IF NOT EXISTS products (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			price DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)`,
	insert: `
		INSERT INTO products (name, price)
		VALUES ($1, $2)
		RETURNING id, name, price, created_at`,
	listAll: `
		SELECT id, name, price, created_at
		FROM products
		ORDER BY created_at DESC, id DESC`,
	listSearch: `
		SELECT id, name, price, created_at
		FROM products
		WHERE name LIKE $1 ESCAPE '\'
		ORDER BY created_at DESC, id DESC`,
}

// DBStore is the database/sql backed Store. Every call checks a
// connection out of the pool for exactly one statement.
type DBStore struct {
	db      *sql.DB
	dialect dialect
}

func NewSQLiteStore(db *sql.DB) *DBStore {
	return &DBStore{db: db, dialect: sqliteDialect}
}

func NewPostgresStore(db *sql.DB) *DBStore {
	return &DBStore{db: db, dialect: postgresDialect}
}

func (s *DBStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return storageErr("ping", s.db.PingContext(ctx))
	})
}

func (s *DBStore) EnsureSchema(ctx context.Context) error {
	return s.withConn(ctx, "ensure schema", func(ctx context.Context, conn *sql.Conn) error {
		_, err := conn.ExecContext(ctx, s.dialect.schema)
		return err
	})
}

func (s *DBStore) List(ctx context.Context, search string) ([]Product, error) {
	query, args := s.dialect.listAll, []any(nil)
	if search != "" {
		query, args = s.dialect.listSearch, []any{"%" + escapeLike(search) + "%"}
	}

	out := make([]Product, 0, 16)
	err := s.withConn(ctx, "list products", func(ctx context.Context, conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			p, err := scanProduct(rows)
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *DBStore) Insert(ctx context.Context, name string, price float64) (Product, error) {
	var p Product
	err := s.withConn(ctx, "insert product", func(ctx context.Context, conn *sql.Conn) error {
		var err error
		p, err = scanProduct(conn.QueryRowContext(ctx, s.dialect.insert, name, price))
		return err
	})
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

func (s *DBStore) withConn(ctx context.Context, op string, fn func(ctx context.Context, conn *sql.Conn) error) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		conn, err := s.db.Conn(ctx)
		if err != nil {
			return storageErr(op, err)
		}
		defer conn.Close()

		return storageErr(op, fn(ctx, conn))
	})
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(sc scanner) (Product, error) {
	var (
		p  Product
		ts dbTime
	)
	if err := sc.Scan(&p.ID, &p.Name, &p.Price, &ts); err != nil {
		return Product{}, err
	}
	p.CreatedAt = ts.Time
	return p, nil
}

// dbTime accepts the timestamp shapes drivers hand back: time.Time from
// pgx and from sqlite columns it recognises, text otherwise.
type dbTime struct {
	time.Time
}

var textTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05Z07:00",
	time.RFC3339Nano,
}

func (t *dbTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
}

func (t *dbTime) parse(s string) error {
	for _, layout := range textTimeLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			t.Time = ts.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes search match literally inside a LIKE pattern.
func escapeLike(search string) string {
	return likeEscaper.Replace(search)
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}

package kit

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	connMaxIdleTime = 5 * time.Minute
	openPingTimeout = 5 * time.Second
)

// OpenDB opens a pooled handle for driver and checks it is reachable.
// For sqlite the dsn is a file path; busy waits are enabled so concurrent
// writers queue instead of failing with SQLITE_BUSY.
func OpenDB(ctx context.Context, driver, dsn string, maxOpen int) (*sql.DB, error) {
	var name string
	switch driver {
	case DriverSQLite:
		name = "sqlite3"
		dsn = sqliteDSN(dsn)
	case DriverPostgres:
		name = "pgx"
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}

	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
		db.SetMaxIdleConns(maxOpen)
	}
	db.SetConnMaxIdleTime(connMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, openPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, nil
}

// sqliteDSN turns a file path into a SQLite URI filename, escaping
// characters such as '?' and '#' that would otherwise end the path.
func sqliteDSN(path string) string {
	u := url.URL{
		Scheme:   "file",
		Path:     path,
		OmitHost: true,
		RawQuery: "_busy_timeout=5000&_journal_mode=WAL",
	}
	return u.String()
}

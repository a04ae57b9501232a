// Package sqlexec implements rotation.DBConnector over database/sql,
// registering the same driver set the rest of this codebase's SQL adapter
// supports. Only Postgres emits DDL matching the VALID UNTIL clause the
// database-user strategy requires; the MySQL driver is registered for
// parity with that adapter's driver map even though this package's
// callers only ever connect to Postgres.
package sqlexec

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"github.com/opsloom/credrotate/pkg/rotation"
)

var driverMap = map[string]string{
	"postgresql": "postgres",
	"postgres":   "postgres",
	"mysql":      "mysql",
	"mariadb":    "mysql",
}

// Connector opens administrative connections over a TLS-authenticated
// database/sql connection using the named driver.
type Connector struct {
	driver         string
	connectTimeout time.Duration
	dsnFunc        func(hostname, username, password string) string
}

// NewPostgresConnector constructs a Connector that dials PostgreSQL over
// TLS, matching the driver map's "postgres" entry.
func NewPostgresConnector() *Connector {
	return mustNewConnector("postgresql")
}

// mustNewConnector resolves dbType through driverMap. Only "postgres" and
// its aliases produce a working DSN builder today; a future MySQL
// connector would extend dsnBuilders below.
func mustNewConnector(dbType string) *Connector {
	driver, ok := driverMap[dbType]
	if !ok {
		panic(fmt.Sprintf("sqlexec: unsupported database type %q", dbType))
	}
	build, ok := dsnBuilders[driver]
	if !ok {
		panic(fmt.Sprintf("sqlexec: no DSN builder registered for driver %q", driver))
	}
	return &Connector{driver: driver, connectTimeout: 30 * time.Second, dsnFunc: build}
}

var dsnBuilders = map[string]func(hostname, username, password string) string{
	"postgres": func(hostname, username, password string) string {
		return fmt.Sprintf(
			"host=%s user=%s password=%s sslmode=require",
			hostname, username, password,
		)
	},
}

// Connect opens a connection, pings it to fail fast on bad credentials,
// and returns it wrapped as a rotation.DBConn.
func (c *Connector) Connect(ctx context.Context, hostname, username, password string) (rotation.DBConn, error) {
	db, err := sql.Open(c.driver, c.dsnFunc(hostname, username, password))
	if err != nil {
		return nil, fmt.Errorf("sqlexec: failed to open connection: %w", err)
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, c.connectTimeout)
	defer cancel()

	if err := db.PingContext(ctxWithTimeout); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlexec: failed to connect to %s: %w", hostname, err)
	}

	return &conn{db: db}, nil
}

type conn struct {
	db *sql.DB
}

func (c *conn) ExecContext(ctx context.Context, statement string) error {
	_, err := c.db.ExecContext(ctx, statement)
	if err != nil {
		return fmt.Errorf("sqlexec: statement failed: %w", err)
	}
	return nil
}

func (c *conn) Close() error {
	return c.db.Close()
}

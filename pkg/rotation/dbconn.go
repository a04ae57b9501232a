package rotation

import "context"

// DBConnector opens an administrative connection to a database server. The
// concrete implementation wraps database/sql behind this narrow interface
// so the database-user strategy never imports a driver package directly.
type DBConnector interface {
	Connect(ctx context.Context, hostname, username, password string) (DBConn, error)
}

// DBConn is an open database connection capable of executing a single DDL
// statement. The database-user strategy issues exactly one ExecContext
// call per rotation, then closes the connection.
type DBConn interface {
	ExecContext(ctx context.Context, statement string) error
	Close() error
}

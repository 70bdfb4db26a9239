package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

var mysqlDialect = dialect{
	name: "mysql",
	createTable: `
		CREATE TABLE IF NOT EXISTS documents (
			collection VARCHAR(128) NOT NULL,
			id         VARCHAR(64)  NOT NULL,
			data       LONGTEXT     NOT NULL,
			created_at DATETIME(6)  NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
			updated_at DATETIME(6)  NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
			PRIMARY KEY (collection, id),
			INDEX idx_documents_created_at (collection, created_at)
		)`,
	upsert: `
		INSERT INTO documents (collection, id, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			data = VALUES(data),
			updated_at = VALUES(updated_at)`,
	lockForUpdate: " FOR UPDATE",
}

// OpenMySQL connects to a MySQL (or TiDB) server using a go-sql-driver DSN
// such as "user:pass@tcp(host:3306)/portfolio".
//
// parseTime is forced on so DATETIME columns scan into time.Time.
func OpenMySQL(dsn string) (*DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("mysql: parsing DSN: %w", err)
	}
	cfg.ParseTime = true

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("mysql: creating connector: %w", err)
	}

	conn := sql.OpenDB(connector)
	conn.SetConnMaxLifetime(3 * time.Minute)
	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(10)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("mysql: pinging database: %w", err)
	}

	db := &DB{conn: conn, dialect: mysqlDialect}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("mysql: running migrations: %w", err)
	}

	return db, nil
}

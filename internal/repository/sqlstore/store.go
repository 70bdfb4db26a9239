// Package sqlstore implements repository.ContentStore on top of a SQL
// database, storing every document as a JSON object in one table keyed by
// (collection, id).
//
// WHY ONE TABLE?
// The content is schemaless from the store's point of view: the services
// decide which fields a Hero or a Certificate has. A single "documents"
// table keeps the store a faithful document database, and adding a new
// section never needs a migration.
//
// Two drivers are supported through a small dialect struct:
//   - SQLite (modernc.org/sqlite, pure Go) for single-server deployments
//   - MySQL (github.com/go-sql-driver/mysql) for a managed database
package sqlstore

import (
	"database/sql"
	"fmt"
)

// dialect captures the few statements that differ between drivers.
type dialect struct {
	name string
	// createTable is the idempotent DDL for the documents table.
	createTable string
	// upsert inserts a document or overwrites its data and updated_at.
	// Placeholders: collection, id, data, created_at, updated_at.
	upsert string
	// lockForUpdate is appended to the SELECT inside a merge transaction.
	lockForUpdate string
}

// DB wraps a sql.DB connection pool and implements repository.ContentStore.
type DB struct {
	conn    *sql.DB
	dialect dialect
}

// Close closes the database connection pool.
//
// Wherever you call OpenSQLite/OpenMySQL, immediately defer Close().
func (db *DB) Close() error {
	return db.conn.Close()
}

// Driver reports which dialect this store speaks ("sqlite" or "mysql").
func (db *DB) Driver() string {
	return db.dialect.name
}

// migrate creates the documents table. CREATE TABLE IF NOT EXISTS is safe to
// run on every start.
func (db *DB) migrate() error {
	if _, err := db.conn.Exec(db.dialect.createTable); err != nil {
		return fmt.Errorf("creating documents table: %w", err)
	}
	return nil
}

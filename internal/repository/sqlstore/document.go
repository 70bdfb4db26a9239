package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/repository"
)

// Compile-time check that *DB implements repository.ContentStore.
var _ repository.ContentStore = (*DB)(nil)

// Get retrieves a single document.
// sql.ErrNoRows is translated to apperror.NotFound so services can fall back
// to defaults without knowing about SQL.
func (db *DB) Get(ctx context.Context, collection, id string) (*repository.Document, error) {
	var data string
	err := db.conn.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`,
		collection, id,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound(collection, id)
		}
		return nil, fmt.Errorf("%s: getting %s/%s: %w", db.dialect.name, collection, id, err)
	}

	fields, err := decodeFields(data)
	if err != nil {
		return nil, fmt.Errorf("%s: decoding %s/%s: %w", db.dialect.name, collection, id, err)
	}

	return &repository.Document{ID: id, Fields: fields}, nil
}

// List returns every document of a collection, oldest first.
func (db *DB) List(ctx context.Context, collection string) ([]repository.Document, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, data FROM documents
		 WHERE collection = ?
		 ORDER BY created_at, id`,
		collection,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: listing %s: %w", db.dialect.name, collection, err)
	}
	defer rows.Close()

	docs := make([]repository.Document, 0)
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("%s: scanning %s row: %w", db.dialect.name, collection, err)
		}
		fields, err := decodeFields(data)
		if err != nil {
			return nil, fmt.Errorf("%s: decoding %s/%s: %w", db.dialect.name, collection, id, err)
		}
		docs = append(docs, repository.Document{ID: id, Fields: fields})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: iterating %s: %w", db.dialect.name, collection, err)
	}

	return docs, nil
}

// Set creates or fully overwrites the document at (collection, id).
func (db *DB) Set(ctx context.Context, collection, id string, fields repository.Fields) error {
	data, err := encodeFields(fields)
	if err != nil {
		return fmt.Errorf("%s: encoding %s/%s: %w", db.dialect.name, collection, id, err)
	}

	now := time.Now().UTC()
	if _, err := db.conn.ExecContext(ctx, db.dialect.upsert, collection, id, data, now, now); err != nil {
		return fmt.Errorf("%s: setting %s/%s: %w", db.dialect.name, collection, id, err)
	}
	return nil
}

// Add inserts a new document under a freshly generated xid.
//
// xid ids are 20 URL-safe characters and sort by creation time, so the
// store-assigned id also keeps List roughly in insertion order.
func (db *DB) Add(ctx context.Context, collection string, fields repository.Fields) (string, error) {
	data, err := encodeFields(fields)
	if err != nil {
		return "", fmt.Errorf("%s: encoding new %s document: %w", db.dialect.name, collection, err)
	}

	id := xid.New().String()
	now := time.Now().UTC()
	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO documents (collection, id, data, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		collection, id, data, now, now,
	)
	if err != nil {
		return "", fmt.Errorf("%s: adding %s document: %w", db.dialect.name, collection, err)
	}

	return id, nil
}

// Update merges fields into an existing document.
//
// The read-merge-write runs in one transaction so two patches of different
// fields on the same document cannot lose each other's changes.
func (db *DB) Update(ctx context.Context, collection, id string, fields repository.Fields) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: beginning update of %s/%s: %w", db.dialect.name, collection, id, err)
	}
	defer tx.Rollback()

	var data string
	err = tx.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`+db.dialect.lockForUpdate,
		collection, id,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.NotFound(collection, id)
		}
		return fmt.Errorf("%s: reading %s/%s for update: %w", db.dialect.name, collection, id, err)
	}

	current, err := decodeFields(data)
	if err != nil {
		return fmt.Errorf("%s: decoding %s/%s: %w", db.dialect.name, collection, id, err)
	}
	for k, v := range fields {
		current[k] = v
	}

	merged, err := encodeFields(current)
	if err != nil {
		return fmt.Errorf("%s: encoding %s/%s: %w", db.dialect.name, collection, id, err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE documents SET data = ?, updated_at = ? WHERE collection = ? AND id = ?`,
		merged, time.Now().UTC(), collection, id,
	)
	if err != nil {
		return fmt.Errorf("%s: updating %s/%s: %w", db.dialect.name, collection, id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: committing update of %s/%s: %w", db.dialect.name, collection, id, err)
	}
	return nil
}

// Delete removes a document. Zero rows affected is fine: deleting something
// that is already gone leaves the store in the requested state.
func (db *DB) Delete(ctx context.Context, collection, id string) error {
	_, err := db.conn.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`,
		collection, id,
	)
	if err != nil {
		return fmt.Errorf("%s: deleting %s/%s: %w", db.dialect.name, collection, id, err)
	}
	return nil
}

func encodeFields(fields repository.Fields) (string, error) {
	if fields == nil {
		fields = repository.Fields{}
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeFields(data string) (repository.Fields, error) {
	fields := repository.Fields{}
	if data == "" {
		return fields, nil
	}
	if err := json.Unmarshal([]byte(data), &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

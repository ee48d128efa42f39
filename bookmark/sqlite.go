// SPDX-License-Identifier: MPL-2.0
// Copyright 2026 Sagacient <sagacient@gmail.com>
//
// See CONTRIBUTORS.md for full contributor list.

package bookmark

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const schema = `CREATE TABLE IF NOT EXISTS bookmarks (
	position INTEGER PRIMARY KEY,
	name     TEXT NOT NULL,
	address  TEXT NOT NULL DEFAULT '',
	lat      REAL NOT NULL,
	lon      REAL NOT NULL
)`

// SQLiteStore keeps bookmarks in a SQLite table, in list order.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path. Use ":memory:" for a
// throwaway store.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open bookmark database: %w", err)
	}
	// a single connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bookmark table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load returns all bookmarks in insertion order.
func (s *SQLiteStore) Load(ctx context.Context) ([]Bookmark, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, address, lat, lon FROM bookmarks ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookmarks: %w", err)
	}
	defer rows.Close()

	list := []Bookmark{}
	for rows.Next() {
		var b Bookmark
		if err := rows.Scan(&b.Name, &b.Address, &b.Lat, &b.Lon); err != nil {
			return nil, fmt.Errorf("failed to scan bookmark: %w", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

// Save replaces the table content in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, list []Bookmark) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM bookmarks`); err != nil {
		return fmt.Errorf("failed to clear bookmarks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO bookmarks (position, name, address, lat, lon) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, b := range list {
		if _, err := stmt.ExecContext(ctx, i, b.Name, b.Address, b.Lat, b.Lon); err != nil {
			return fmt.Errorf("failed to insert bookmark %q: %w", b.Name, err)
		}
	}
	return tx.Commit()
}

// Package sqlite keeps accounts and users in a single SQLite file.
//
// Writers are serialized by the database itself: transactions are opened
// with BEGIN IMMEDIATE, so Load(..., forUpdate) needs no row lock.
// Schema is created on New.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nkiryanov/ecopoints/internal/repository"
)

// Satisfied by *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Storage struct {
	db *sql.DB
	q  querier

	// Set for storages bound to a running transaction
	tx *sql.Tx
}

// New opens (or creates) the database file and migrates the schema
func New(ctx context.Context, path string) (*Storage, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL&_txlock=immediate&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db, q: db}, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) Account() repository.AccountRepo {
	return &AccountRepo{q: s.q}
}

func (s *Storage) User() repository.UserRepo {
	return &UserRepo{q: s.q}
}

// InTx runs fn in transaction; nested calls join the outer transaction
func (s *Storage) InTx(ctx context.Context, fn func(repository.Storage) error) (err error) {
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("db tx error: %w", err)
	}

	defer func() {
		switch err {
		case nil:
			err = tx.Commit()
		default:
			_ = tx.Rollback()
		}
	}()

	err = fn(&Storage{db: s.db, q: tx, tx: tx})

	return err
}

func migrate(ctx context.Context, db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL
	);

	-- One JSON document per account, balance duplicated for the non negative check
	CREATE TABLE IF NOT EXISTS accounts (
		account_key TEXT PRIMARY KEY,
		document TEXT NOT NULL,
		balance INTEGER NOT NULL CHECK (balance >= 0),
		version INTEGER NOT NULL,
		updated_at TEXT NOT NULL
	);
	`

	_, err := db.ExecContext(ctx, schema)
	return err
}

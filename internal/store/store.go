// Package store persists users, boards and board snapshots. Two backends
// implement Store: PostgreSQL through pgx for the server, and SQLite for
// local use, the CLI and tests.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")
)

type User struct {
	ID           string
	Email        string
	PasswordHash string
	DisplayName  string
	CreatedAt    time.Time
}

type Board struct {
	ID        string
	Name      string
	OwnerID   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Snapshot is one saved version of a board document. Versions count up
// from 1 per board.
type Snapshot struct {
	ID        string
	BoardID   string
	Version   int
	Document  json.RawMessage
	CreatedAt time.Time
}

type Store interface {
	CreateUser(ctx context.Context, u User) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)

	CreateBoard(ctx context.Context, b Board) (*Board, error)
	GetBoard(ctx context.Context, id string) (*Board, error)
	ListBoards(ctx context.Context, ownerID string) ([]Board, error)
	DeleteBoard(ctx context.Context, id string) error

	// CreateSnapshot stores doc as the next version of the board and
	// returns the stored snapshot.
	CreateSnapshot(ctx context.Context, id, boardID string, doc json.RawMessage) (*Snapshot, error)
	GetLatestSnapshot(ctx context.Context, boardID string) (*Snapshot, error)

	Close() error
}

// Open picks a backend from url: postgres:// and postgresql:// URLs use
// PostgreSQL, anything else is a SQLite file path. The schema is migrated
// before Open returns.
func Open(ctx context.Context, url string) (Store, error) {
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		pg, err := NewPostgres(ctx, url)
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		return pg, nil
	}

	lite, err := NewSQLite(url)
	if err != nil {
		return nil, err
	}
	if err := lite.Migrate(); err != nil {
		lite.Close()
		return nil, err
	}
	return lite, nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
  id            TEXT PRIMARY KEY,
  email         TEXT NOT NULL UNIQUE,
  password      TEXT NOT NULL,
  display_name  TEXT NOT NULL,
  created_at    TIMESTAMP NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS boards (
  id          TEXT PRIMARY KEY,
  name        TEXT NOT NULL,
  owner_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  created_at  TIMESTAMP NOT NULL,
  updated_at  TIMESTAMP NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_boards_owner ON boards(owner_id)`,
	`CREATE TABLE IF NOT EXISTS snapshots (
  id          TEXT PRIMARY KEY,
  board_id    TEXT NOT NULL REFERENCES boards(id) ON DELETE CASCADE,
  version     INTEGER NOT NULL,
  document    TEXT NOT NULL,
  created_at  TIMESTAMP NOT NULL,
  UNIQUE (board_id, version)
)`,
}

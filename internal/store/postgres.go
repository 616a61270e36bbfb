package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is the PostgreSQL backend on a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to databaseURL and verifies the connection.
func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close closes the pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

// Migrate creates all tables and indexes. Idempotent.
func (p *Postgres) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (p *Postgres) CreateUser(ctx context.Context, u User) (*User, error) {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := p.pool.Exec(ctx,
		`INSERT INTO users (id, email, password, display_name, created_at) VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Email, u.PasswordHash, u.DisplayName, u.CreatedAt)
	if err != nil {
		return nil, pgErr("create user", err)
	}
	return &u, nil
}

func (p *Postgres) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return p.getUser(ctx, `SELECT id, email, password, display_name, created_at FROM users WHERE email = $1`, email)
}

func (p *Postgres) GetUserByID(ctx context.Context, id string) (*User, error) {
	return p.getUser(ctx, `SELECT id, email, password, display_name, created_at FROM users WHERE id = $1`, id)
}

func (p *Postgres) getUser(ctx context.Context, query, arg string) (*User, error) {
	var u User
	err := p.pool.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.CreatedAt)
	if err != nil {
		return nil, pgErr("get user", err)
	}
	return &u, nil
}

func (p *Postgres) CreateBoard(ctx context.Context, b Board) (*Board, error) {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = b.CreatedAt
	}
	_, err := p.pool.Exec(ctx,
		`INSERT INTO boards (id, name, owner_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		b.ID, b.Name, b.OwnerID, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return nil, pgErr("create board", err)
	}
	return &b, nil
}

func (p *Postgres) GetBoard(ctx context.Context, id string) (*Board, error) {
	var b Board
	err := p.pool.QueryRow(ctx,
		`SELECT id, name, owner_id, created_at, updated_at FROM boards WHERE id = $1`, id).
		Scan(&b.ID, &b.Name, &b.OwnerID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, pgErr("get board", err)
	}
	return &b, nil
}

func (p *Postgres) ListBoards(ctx context.Context, ownerID string) ([]Board, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, name, owner_id, created_at, updated_at FROM boards WHERE owner_id = $1 ORDER BY updated_at DESC, id`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	boards, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Board, error) {
		var b Board
		err := row.Scan(&b.ID, &b.Name, &b.OwnerID, &b.CreatedAt, &b.UpdatedAt)
		return b, err
	})
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	return boards, nil
}

func (p *Postgres) DeleteBoard(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM boards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete board: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) CreateSnapshot(ctx context.Context, id, boardID string, doc json.RawMessage) (*Snapshot, error) {
	now := time.Now().UTC()
	snap := &Snapshot{ID: id, BoardID: boardID, Document: doc, CreatedAt: now}

	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO snapshots (id, board_id, version, document, created_at)
			 SELECT $1, $2, COALESCE(MAX(version), 0) + 1, $3, $4 FROM snapshots WHERE board_id = $2
			 RETURNING version`,
			id, boardID, string(doc), now).Scan(&snap.Version)
		if err != nil {
			return pgErr("create snapshot", err)
		}
		_, err = tx.Exec(ctx, `UPDATE boards SET updated_at = $1 WHERE id = $2`, now, boardID)
		if err != nil {
			return fmt.Errorf("touch board: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func (p *Postgres) GetLatestSnapshot(ctx context.Context, boardID string) (*Snapshot, error) {
	var (
		snap Snapshot
		doc  string
	)
	err := p.pool.QueryRow(ctx,
		`SELECT id, board_id, version, document, created_at FROM snapshots WHERE board_id = $1 ORDER BY version DESC LIMIT 1`,
		boardID).Scan(&snap.ID, &snap.BoardID, &snap.Version, &doc, &snap.CreatedAt)
	if err != nil {
		return nil, pgErr("get snapshot", err)
	}
	snap.Document = json.RawMessage(doc)
	return &snap, nil
}

// pgErr maps pgx errors onto the package sentinels.
func pgErr(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%s: %w", op, ErrDuplicate)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

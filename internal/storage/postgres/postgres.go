package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ButyrinIA/spacetraveling/internal/models"
	"github.com/ButyrinIA/spacetraveling/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the subset of pgxpool.Pool the store uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

type PostgresStorage struct {
	db DB
}

var _ storage.Storage = (*PostgresStorage)(nil)

func New(ctx context.Context, dsn string) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	s, err := NewWithDB(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func NewWithDB(ctx context.Context, db DB) (*PostgresStorage, error) {
	_, err := db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS post_snapshots (
			slug TEXT PRIMARY KEY,
			doc JSONB,
			built_at TIMESTAMPTZ NOT NULL
		);
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return &PostgresStorage{db: db}, nil
}

func (s *PostgresStorage) SaveSnapshot(ctx context.Context, snapshot *models.Snapshot) error {
	var doc any
	if snapshot.Post != nil {
		raw, err := json.Marshal(snapshot.Post)
		if err != nil {
			return fmt.Errorf("encode snapshot %s: %w", snapshot.Slug, err)
		}
		doc = raw
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO post_snapshots (slug, doc, built_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (slug) DO UPDATE SET doc = EXCLUDED.doc, built_at = EXCLUDED.built_at`,
		snapshot.Slug, doc, snapshot.BuiltAt)
	return err
}

func (s *PostgresStorage) GetSnapshot(ctx context.Context, slug string) (*models.Snapshot, error) {
	var (
		doc     []byte
		builtAt time.Time
	)
	err := s.db.QueryRow(ctx, `
		SELECT doc, built_at
		FROM post_snapshots
		WHERE slug = $1`, slug).Scan(&doc, &builtAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	snapshot := &models.Snapshot{Slug: slug, BuiltAt: builtAt}
	if len(doc) > 0 {
		var post models.Post
		if err := json.Unmarshal(doc, &post); err != nil {
			return nil, fmt.Errorf("decode snapshot %s: %w", slug, err)
		}
		snapshot.Post = &post
	}
	return snapshot, nil
}

func (s *PostgresStorage) DeleteSnapshot(ctx context.Context, slug string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM post_snapshots WHERE slug = $1`, slug)
	return err
}

func (s *PostgresStorage) Close() error {
	s.db.Close()
	return nil
}

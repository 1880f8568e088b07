package storage

import (
	"context"
	"errors"

	"github.com/ButyrinIA/spacetraveling/internal/models"
)

var ErrNotFound = errors.New("snapshot not found")

// Storage keeps generated post snapshots between revalidations.
type Storage interface {
	SaveSnapshot(ctx context.Context, snapshot *models.Snapshot) error
	GetSnapshot(ctx context.Context, slug string) (*models.Snapshot, error)
	DeleteSnapshot(ctx context.Context, slug string) error
	Close() error
}

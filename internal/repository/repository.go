package repository

import (
	"context"

	"graphsnap/internal/domain"
)

// Archive defines the interface for snapshot run history access
type Archive interface {
	// Write operations
	RecordRun(ctx context.Context, run domain.Run, m *domain.Model) error

	// Read operations
	Runs(ctx context.Context) ([]domain.Run, error)
	LoadRun(ctx context.Context, id string) (*domain.Model, error)
	BankCounts(ctx context.Context, runID string) (map[domain.BankKind]int, error)

	// Close releases resources
	Close() error
}

package store

import (
	"context"
	"fmt"

	"skillpulse/internal/config"
	"skillpulse/internal/errors"
	"skillpulse/internal/types"
)

// Store is the persistence surface for employee assessment state.
// History is an append-only ledger; the summary and the pending
// generated question are overwrite-only slots.
type Store interface {
	GetEmployee(ctx context.Context, id string) (*types.Employee, error)
	ListEmployees(ctx context.Context) ([]types.Employee, error)
	GetSkills(ctx context.Context, employeeID string) ([]string, error)

	GetCatalog(ctx context.Context) ([]types.Question, error)

	GetHistory(ctx context.Context, employeeID string) ([]types.AnswerRecord, error)
	AppendAnswer(ctx context.Context, rec types.AnswerRecord) error

	GetSummary(ctx context.Context, employeeID string) (string, error)
	PutSummary(ctx context.Context, employeeID, summary string) error

	GetPendingQuestion(ctx context.Context, employeeID string) (*types.Question, error)
	PutPendingQuestion(ctx context.Context, employeeID string, q types.Question) error

	// Seeding surface used by the seed command and tests
	PutEmployee(ctx context.Context, emp types.Employee, skills []string) error
	PutCatalog(ctx context.Context, catalog []types.Question) error

	Close() error
}

// New creates a store for the configured backend
func New(cfg *config.StoreConfig, logger *errors.Logger) (Store, error) {
	switch cfg.Backend {
	case "file":
		return NewFileStore(cfg.File.DataDir, logger)
	case "redis":
		return NewRedisStore(&cfg.Redis, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported store backend: %s", cfg.Backend), nil)
	}
}

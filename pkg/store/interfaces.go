package store

import (
	"github.com/yurifrl/bankrec/pkg/index"
	"github.com/yurifrl/bankrec/pkg/models"
)

// Repository defines the complete storage interface.
type Repository interface {
	OperationRepository
	RunRepository
	Close() error
}

// OperationRepository mirrors the operations index.
type OperationRepository interface {
	// ReplaceOperations swaps the stored index for entries in one transaction.
	ReplaceOperations(entries []models.IndexEntry) error

	// ListOperations returns stored entries matching filter, in index order.
	ListOperations(filter index.Filter) ([]models.IndexEntry, error)
}

// RunRepository records batch runs.
type RunRepository interface {
	// StartRun records a new run and returns its id.
	StartRun(kind string) (string, error)

	// CompleteRun stores the final counts of a run.
	CompleteRun(id string, stats RunStats) error

	// GetRun retrieves a run by id.
	GetRun(id string) (*Run, error)
}

package interfaces

import (
	"context"

	"github.com/ternarybob/probo/internal/models"
)

// JobListOptions filters and pages job listings
type JobListOptions struct {
	Status   string
	Limit    int
	Offset   int
	OrderBy  string
	OrderDir string
}

// JobStorage persists form submission jobs
type JobStorage interface {
	SaveJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, jobID string) (*models.Job, error)
	UpdateJob(ctx context.Context, job *models.Job) error
	ListJobs(ctx context.Context, opts *JobListOptions) ([]*models.Job, error)
	DeleteJob(ctx context.Context, jobID string) error
	CountJobs(ctx context.Context) (int, error)
	CountJobsByStatus(ctx context.Context, status string) (int, error)
}

// StorageManager aggregates typed storages over a shared database
type StorageManager interface {
	JobStorage() JobStorage
	RunMaintenance() error
	Close() error
}

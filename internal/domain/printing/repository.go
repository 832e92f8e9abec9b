package printing

import (
	"context"
	"time"
)

// JobRepository persists immutable print job snapshots.
type JobRepository interface {
	// CreateSnapshot stores the job header and all rows in one transaction and
	// returns the new job id
	CreateSnapshot(ctx context.Context, rows []ResolvedRow, meta JobMeta) (int64, error)

	// ReadSnapshot loads a job with its items ordered by SKU.
	// Returns shared.ErrNotFound when the job does not exist
	ReadSnapshot(ctx context.Context, jobID int64) (*JobSnapshot, error)

	// DeleteSnapshot removes a job and all of its items.
	// Returns shared.ErrNotFound when the job does not exist
	DeleteSnapshot(ctx context.Context, jobID int64) error

	// DeleteOlderThan removes jobs created before cutoff and returns how many were removed
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// CandidateSource lists SKUs eligible for printing (not discontinued).
type CandidateSource interface {
	ListCandidateSKUs(ctx context.Context) ([]string, error)
}

// CatalogSource fetches the full external item catalog.
type CatalogSource interface {
	FetchAll(ctx context.Context) ([]CatalogItem, error)
}

// MetricsSource looks up sales figures for a set of catalog item ids in bulk.
type MetricsSource interface {
	LookupMetrics(ctx context.Context, itemIDs []string) (map[string]SalesMetrics, error)
}

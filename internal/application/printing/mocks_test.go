package printing_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	domain "github.com/helenrm365/rm365-tools-testing-sub001/internal/domain/printing"
)

// =============================================================================
// Mock Implementations
// =============================================================================

type MockJobRepository struct {
	mock.Mock
}

func (m *MockJobRepository) CreateSnapshot(ctx context.Context, rows []domain.ResolvedRow, meta domain.JobMeta) (int64, error) {
	args := m.Called(ctx, rows, meta)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockJobRepository) ReadSnapshot(ctx context.Context, jobID int64) (*domain.JobSnapshot, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JobSnapshot), args.Error(1)
}

func (m *MockJobRepository) DeleteSnapshot(ctx context.Context, jobID int64) error {
	args := m.Called(ctx, jobID)
	return args.Error(0)
}

func (m *MockJobRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type MockCandidateSource struct {
	mock.Mock
}

func (m *MockCandidateSource) ListCandidateSKUs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockCatalogSource struct {
	mock.Mock
}

func (m *MockCatalogSource) FetchAll(ctx context.Context) ([]domain.CatalogItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CatalogItem), args.Error(1)
}

type MockMetricsSource struct {
	mock.Mock
}

func (m *MockMetricsSource) LookupMetrics(ctx context.Context, ids []string) (map[string]domain.SalesMetrics, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.SalesMetrics), args.Error(1)
}

type MockPDFRenderer struct {
	mock.Mock
}

func (m *MockPDFRenderer) RenderPDF(ctx context.Context, snap *domain.JobSnapshot) ([]byte, error) {
	args := m.Called(ctx, snap)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

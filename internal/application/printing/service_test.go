package printing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/helenrm365/rm365-tools-testing-sub001/internal/application/printing"
	domain "github.com/helenrm365/rm365-tools-testing-sub001/internal/domain/printing"
	"github.com/helenrm365/rm365-tools-testing-sub001/internal/domain/shared"
	"github.com/helenrm365/rm365-tools-testing-sub001/internal/infrastructure/telemetry"
)

type serviceFixture struct {
	jobs       *MockJobRepository
	candidates *MockCandidateSource
	catalog    *MockCatalogSource
	metrics    *MockMetricsSource
	pdf        *MockPDFRenderer
	registry   *prometheus.Registry
	service    *printing.LabelService
}

func newServiceFixture(timeout time.Duration) *serviceFixture {
	f := &serviceFixture{
		jobs:       new(MockJobRepository),
		candidates: new(MockCandidateSource),
		catalog:    new(MockCatalogSource),
		metrics:    new(MockMetricsSource),
		pdf:        new(MockPDFRenderer),
		registry:   prometheus.NewRegistry(),
	}
	f.service = printing.NewLabelService(printing.LabelServiceConfig{
		Jobs:            f.jobs,
		Candidates:      f.candidates,
		Catalog:         f.catalog,
		Metrics:         f.metrics,
		PDF:             f.pdf,
		Telemetry:       telemetry.NewLabelMetrics(f.registry),
		UpstreamTimeout: timeout,
	})
	return f
}

func sampleSnapshot(jobID int64) *domain.JobSnapshot {
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	return &domain.JobSnapshot{
		Job: domain.PrintJob{ID: jobID, LineDate: &day, CreatedAt: day},
		Items: []domain.PrintItem{
			{ID: 1, JobID: jobID, ItemID: "100", SKU: "ABC", ProductName: "Widget", UKMetric: 3, Price: decimal.RequireFromString("12.5")},
		},
	}
}

// =============================================================================
// CreatePrintJob
// =============================================================================

func TestLabelService_CreatePrintJob_UsesAllowList(t *testing.T) {
	f := newServiceFixture(time.Second)
	ctx := context.Background()

	f.candidates.On("ListCandidateSKUs", mock.Anything).Return([]string{"ABC", "ABC-MD", "NOPE", "XYZ-RED"}, nil)
	f.catalog.On("FetchAll", mock.Anything).Return(catalogOf("ABC", "ABC-MD"), nil)
	f.metrics.On("LookupMetrics", mock.Anything, []string{"id-ABC"}).Return(map[string]domain.SalesMetrics{
		"id-ABC": {ItemID: "id-ABC", UKMetric: "5", FRMetric: "2"},
	}, nil)
	f.jobs.On("CreateSnapshot", mock.Anything, mock.MatchedBy(func(rows []domain.ResolvedRow) bool {
		return len(rows) == 1 && rows[0].SKUUsed == "ABC" && rows[0].UKMetric == 5 && rows[0].FRMetric == 2
	}), mock.MatchedBy(func(meta domain.JobMeta) bool {
		return meta.CreatedBy != nil && *meta.CreatedBy == "bay-3" &&
			meta.LineDate != nil && meta.LineDate.Format("2006-01-02") == "2024-06-30"
	})).Return(int64(42), nil)

	resp, err := f.service.CreatePrintJob(ctx, printing.CreateJobRequest{CreatedBy: " bay-3 ", LineDate: "2024-06-30"})
	require.NoError(t, err)

	assert.Equal(t, int64(42), resp.JobID)
	assert.Equal(t, 1, resp.Items)
	assert.Equal(t, map[string]int{"no_catalog_match": 1, "no_variant": 1}, resp.Skipped)
	assert.Equal(t, 1.0, counterValue(t, f.registry, "labels_jobs_created_total"))
	f.jobs.AssertExpectations(t)
}

func TestLabelService_CreatePrintJob_ExplicitCandidatesAndItemSubset(t *testing.T) {
	f := newServiceFixture(time.Second)

	f.catalog.On("FetchAll", mock.Anything).Return(catalogOf("A", "B", "C"), nil)
	f.metrics.On("LookupMetrics", mock.Anything, []string{"id-A", "id-C"}).Return(map[string]domain.SalesMetrics{}, nil)
	f.jobs.On("CreateSnapshot", mock.Anything, mock.MatchedBy(func(rows []domain.ResolvedRow) bool {
		return len(rows) == 2 && rows[0].ItemID == "id-A" && rows[1].ItemID == "id-C"
	}), domain.JobMeta{}).Return(int64(7), nil)

	resp, err := f.service.CreatePrintJob(context.Background(), printing.CreateJobRequest{
		CandidateSKUs: []string{"A", "B", "C"},
		ItemIDs:       []string{"id-C", "id-A", "id-unknown"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Items)
	f.candidates.AssertNotCalled(t, "ListCandidateSKUs", mock.Anything)
}

func TestLabelService_CreatePrintJob_InvalidInput(t *testing.T) {
	f := newServiceFixture(time.Second)

	_, err := f.service.CreatePrintJob(context.Background(), printing.CreateJobRequest{LineDate: "30/06/2024"})
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))

	_, err = f.service.CreatePrintJob(context.Background(), printing.CreateJobRequest{ItemIDs: []string{" "}})
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))

	// an explicit empty list is not the same as omitting the field
	_, err = f.service.CreatePrintJob(context.Background(), printing.CreateJobRequest{CandidateSKUs: []string{}})
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))

	_, err = f.service.CreatePrintJob(context.Background(), printing.CreateJobRequest{CandidateSKUs: []string{"", "  "}})
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))

	f.candidates.AssertNotCalled(t, "ListCandidateSKUs", mock.Anything)
	f.catalog.AssertNotCalled(t, "FetchAll", mock.Anything)
}

func TestLabelService_CreatePrintJob_CatalogFailureWritesNothing(t *testing.T) {
	f := newServiceFixture(time.Second)

	f.catalog.On("FetchAll", mock.Anything).Return(nil, shared.NewUpstreamError("catalog page 1", errors.New("503")))

	_, err := f.service.CreatePrintJob(context.Background(), printing.CreateJobRequest{CandidateSKUs: []string{"A"}})
	require.Error(t, err)
	assert.True(t, shared.IsRetryable(err))
	f.jobs.AssertNotCalled(t, "CreateSnapshot", mock.Anything, mock.Anything, mock.Anything)
}

func TestLabelService_CreatePrintJob_TimeoutIsUpstream(t *testing.T) {
	f := newServiceFixture(10 * time.Millisecond)

	f.catalog.On("FetchAll", mock.Anything).Return(nil, context.DeadlineExceeded).Run(func(args mock.Arguments) {
		<-args.Get(0).(context.Context).Done()
	})

	_, err := f.service.CreatePrintJob(context.Background(), printing.CreateJobRequest{CandidateSKUs: []string{"A"}})
	require.Error(t, err)
	assert.True(t, shared.IsRetryable(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// =============================================================================
// Reads, renders and deletes
// =============================================================================

func TestLabelService_GetJobItems(t *testing.T) {
	f := newServiceFixture(time.Second)
	f.jobs.On("ReadSnapshot", mock.Anything, int64(9)).Return(sampleSnapshot(9), nil)

	resp, err := f.service.GetJobItems(context.Background(), 9)
	require.NoError(t, err)

	assert.Equal(t, int64(9), resp.Job.ID)
	require.NotNil(t, resp.Job.LineDate)
	assert.Equal(t, "2024-05-01", *resp.Job.LineDate)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "12.50", resp.Items[0].Price)
	require.NotNil(t, resp.Items[0].LineDate)
	assert.Equal(t, "2024-05-01", *resp.Items[0].LineDate)
}

func TestLabelService_GetJobItems_NotFound(t *testing.T) {
	f := newServiceFixture(time.Second)
	f.jobs.On("ReadSnapshot", mock.Anything, int64(5)).Return(nil, shared.NewDomainError("NOT_FOUND", "print job 5 not found"))

	_, err := f.service.GetJobItems(context.Background(), 5)
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	_, err = f.service.GetJobItems(context.Background(), 0)
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
}

func TestLabelService_RenderPDF(t *testing.T) {
	f := newServiceFixture(time.Second)
	snap := sampleSnapshot(3)
	f.jobs.On("ReadSnapshot", mock.Anything, int64(3)).Return(snap, nil)
	f.pdf.On("RenderPDF", mock.Anything, snap).Return([]byte("%PDF-1.3"), nil)

	file, err := f.service.RenderPDF(context.Background(), 3)
	require.NoError(t, err)

	assert.Equal(t, "labels_job_3.pdf", file.Filename)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.Equal(t, []byte("%PDF-1.3"), file.Data)
}

func TestLabelService_RenderPDF_Failure(t *testing.T) {
	f := newServiceFixture(time.Second)
	snap := sampleSnapshot(3)
	f.jobs.On("ReadSnapshot", mock.Anything, int64(3)).Return(snap, nil)
	f.pdf.On("RenderPDF", mock.Anything, snap).Return(nil, errors.New("canvas exploded"))

	_, err := f.service.RenderPDF(context.Background(), 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "canvas exploded")

	assert.Equal(t, 1.0, counterValue(t, f.registry, "labels_render_failures_total"))
}

func TestLabelService_RenderCSV(t *testing.T) {
	f := newServiceFixture(time.Second)
	f.jobs.On("ReadSnapshot", mock.Anything, int64(4)).Return(sampleSnapshot(4), nil)

	file, err := f.service.RenderCSV(context.Background(), 4)
	require.NoError(t, err)

	assert.Equal(t, "labels_job_4.csv", file.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", file.ContentType)
	assert.Contains(t, string(file.Data), "id,job_id,line_date,sku,item_id,product_name,uk_metric,fr_metric,created_at")
	assert.Contains(t, string(file.Data), "ABC")
}

func TestLabelService_DeleteJob(t *testing.T) {
	f := newServiceFixture(time.Second)
	f.jobs.On("DeleteSnapshot", mock.Anything, int64(8)).Return(nil)
	f.jobs.On("DeleteSnapshot", mock.Anything, int64(9)).Return(shared.NewDomainError("NOT_FOUND", "print job 9 not found"))

	assert.NoError(t, f.service.DeleteJob(context.Background(), 8))
	assert.True(t, errors.Is(f.service.DeleteJob(context.Background(), 9), shared.ErrNotFound))
	assert.True(t, errors.Is(f.service.DeleteJob(context.Background(), -1), shared.ErrInvalidInput))
}

func TestLabelService_SweepExpired(t *testing.T) {
	f := newServiceFixture(time.Second)
	before := time.Now().UTC()
	f.jobs.On("DeleteOlderThan", mock.Anything, mock.MatchedBy(func(cutoff time.Time) bool {
		return cutoff.Before(before.Add(-47*time.Hour)) && cutoff.After(before.Add(-49*time.Hour))
	})).Return(int64(6), nil)

	n, err := f.service.SweepExpired(context.Background(), 48*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(6), n)
	assert.Equal(t, 6.0, counterValue(t, f.registry, "labels_jobs_swept_total"))
}

// counterValue reads an unlabelled counter back out of the registry.
func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %q not registered", name)
	return 0
}

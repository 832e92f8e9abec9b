package printing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/helenrm365/rm365-tools-testing-sub001/internal/domain/printing"
	"github.com/helenrm365/rm365-tools-testing-sub001/internal/domain/shared"
	infra "github.com/helenrm365/rm365-tools-testing-sub001/internal/infrastructure/printing"
	"github.com/helenrm365/rm365-tools-testing-sub001/internal/infrastructure/telemetry"
)

// DefaultUpstreamTimeout bounds every call to the catalog, the allow-list,
// the metrics store and the job store.
const DefaultUpstreamTimeout = 30 * time.Second

// Render formats
const (
	FormatPDF = "pdf"
	FormatCSV = "csv"
)

// PDFRenderer draws a job snapshot as a PDF document
type PDFRenderer interface {
	RenderPDF(ctx context.Context, snap *printing.JobSnapshot) ([]byte, error)
}

// CSVRenderer writes a job snapshot as CSV. Defaults to the printing package's RenderCSV.
type CSVRenderer func(ctx context.Context, snap *printing.JobSnapshot) ([]byte, error)

// LabelServiceConfig wires a LabelService
type LabelServiceConfig struct {
	Jobs            printing.JobRepository
	Candidates      printing.CandidateSource
	Catalog         printing.CatalogSource
	Metrics         printing.MetricsSource
	PDF             PDFRenderer
	CSV             CSVRenderer
	Telemetry       *telemetry.LabelMetrics
	UpstreamTimeout time.Duration
	Logger          *zap.Logger
}

// LabelService creates, reads, renders and deletes label print jobs
type LabelService struct {
	jobs       printing.JobRepository
	candidates printing.CandidateSource
	resolver   *CatalogResolver
	attacher   *MetricsAttacher
	pdf        PDFRenderer
	csv        CSVRenderer
	telemetry  *telemetry.LabelMetrics
	timeout    time.Duration
	logger     *zap.Logger
}

// NewLabelService creates a new LabelService
func NewLabelService(cfg LabelServiceConfig) *LabelService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	csv := cfg.CSV
	if csv == nil {
		csv = infra.RenderCSV
	}
	timeout := cfg.UpstreamTimeout
	if timeout <= 0 {
		timeout = DefaultUpstreamTimeout
	}
	return &LabelService{
		jobs:       cfg.Jobs,
		candidates: cfg.Candidates,
		resolver:   NewCatalogResolver(cfg.Catalog, logger),
		attacher:   NewMetricsAttacher(cfg.Metrics, logger),
		pdf:        cfg.PDF,
		csv:        csv,
		telemetry:  cfg.Telemetry,
		timeout:    timeout,
		logger:     logger,
	}
}

// CreatePrintJob resolves the candidates against the catalog, attaches sales
// figures and stores the result as a new job snapshot
func (s *LabelService) CreatePrintJob(ctx context.Context, req CreateJobRequest) (*CreateJobResponse, error) {
	meta, err := jobMeta(req)
	if err != nil {
		return nil, err
	}
	only, err := itemFilter(req.ItemIDs)
	if err != nil {
		return nil, err
	}

	candidates := req.CandidateSKUs
	if candidates != nil && !anyNonBlank(candidates) {
		return nil, shared.NewDomainError("INVALID_INPUT", "candidate_skus must contain at least one SKU when given")
	}
	if candidates == nil {
		err = s.upstream(ctx, "allow-list", func(ctx context.Context) error {
			var err error
			candidates, err = s.candidates.ListCandidateSKUs(ctx)
			return err
		})
		if err != nil {
			return nil, err
		}
	}

	var res *Resolution
	err = s.upstream(ctx, "catalog", func(ctx context.Context) error {
		var err error
		res, err = s.resolver.Resolve(ctx, candidates)
		return err
	})
	if err != nil {
		return nil, err
	}

	rows := res.Rows
	if only != nil {
		rows = filterRows(rows, only)
	}

	err = s.upstream(ctx, "sales metrics", func(ctx context.Context) error {
		var err error
		rows, err = s.attacher.Attach(ctx, rows)
		return err
	})
	if err != nil {
		return nil, err
	}

	var jobID int64
	err = s.upstream(ctx, "job store", func(ctx context.Context) error {
		var err error
		jobID, err = s.jobs.CreateSnapshot(ctx, rows, meta)
		return err
	})
	if err != nil {
		return nil, err
	}

	skipped := make(map[string]int, len(res.Skips))
	for reason, n := range res.Skips {
		skipped[string(reason)] = n
		s.telemetry.Skipped(string(reason), n)
	}
	s.telemetry.JobCreated(len(rows))

	s.logger.Info("print job created",
		zap.Int64("jobId", jobID),
		zap.Int("candidates", len(candidates)),
		zap.Int("items", len(rows)),
		zap.Int("skipped", res.Skipped()))

	return &CreateJobResponse{JobID: jobID, Items: len(rows), Skipped: skipped}, nil
}

// GetJobItems returns a job and its items ordered by SKU
func (s *LabelService) GetJobItems(ctx context.Context, jobID int64) (*JobItemsResponse, error) {
	snap, err := s.readSnapshot(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return toJobItemsResponse(snap), nil
}

// DeleteJob removes a job and all of its items
func (s *LabelService) DeleteJob(ctx context.Context, jobID int64) error {
	if jobID <= 0 {
		return invalidJobID(jobID)
	}
	err := s.upstream(ctx, "job store", func(ctx context.Context) error {
		return s.jobs.DeleteSnapshot(ctx, jobID)
	})
	if err != nil {
		return err
	}
	s.logger.Info("print job deleted", zap.Int64("jobId", jobID))
	return nil
}

// RenderPDF renders a job as a sheet of labels
func (s *LabelService) RenderPDF(ctx context.Context, jobID int64) (*RenderedFile, error) {
	return s.render(ctx, jobID, FormatPDF, "application/pdf", s.pdf.RenderPDF)
}

// RenderCSV exports a job's items as CSV
func (s *LabelService) RenderCSV(ctx context.Context, jobID int64) (*RenderedFile, error) {
	return s.render(ctx, jobID, FormatCSV, "text/csv; charset=utf-8", s.csv)
}

func (s *LabelService) render(
	ctx context.Context,
	jobID int64,
	format, contentType string,
	draw func(context.Context, *printing.JobSnapshot) ([]byte, error),
) (*RenderedFile, error) {
	snap, err := s.readSnapshot(ctx, jobID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	data, err := draw(ctx, snap)
	s.telemetry.ObserveRender(format, time.Since(start), err)
	if err != nil {
		s.logger.Error("render failed",
			zap.Int64("jobId", jobID),
			zap.String("format", format),
			zap.Error(err))
		return nil, fmt.Errorf("failed to render job %d as %s: %w", jobID, format, err)
	}

	return &RenderedFile{
		Filename:    fmt.Sprintf("labels_job_%d.%s", jobID, format),
		ContentType: contentType,
		Data:        data,
	}, nil
}

// SweepExpired deletes jobs created more than age ago
func (s *LabelService) SweepExpired(ctx context.Context, age time.Duration) (int64, error) {
	var deleted int64
	err := s.upstream(ctx, "job store", func(ctx context.Context) error {
		var err error
		deleted, err = s.jobs.DeleteOlderThan(ctx, time.Now().UTC().Add(-age))
		return err
	})
	if err != nil {
		return 0, err
	}
	s.telemetry.Swept(deleted)
	return deleted, nil
}

func (s *LabelService) readSnapshot(ctx context.Context, jobID int64) (*printing.JobSnapshot, error) {
	if jobID <= 0 {
		return nil, invalidJobID(jobID)
	}
	var snap *printing.JobSnapshot
	err := s.upstream(ctx, "job store", func(ctx context.Context) error {
		var err error
		snap, err = s.jobs.ReadSnapshot(ctx, jobID)
		return err
	})
	return snap, err
}

// upstream runs fn under the upstream timeout. A timeout that the dependency
// did not already report as an upstream failure is wrapped as one.
func (s *LabelService) upstream(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := fn(callCtx)
	if err == nil || shared.IsRetryable(err) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return shared.NewUpstreamError(op, err)
	}
	return err
}

func jobMeta(req CreateJobRequest) (printing.JobMeta, error) {
	var meta printing.JobMeta
	if by := strings.TrimSpace(req.CreatedBy); by != "" {
		meta.CreatedBy = &by
	}
	if raw := strings.TrimSpace(req.LineDate); raw != "" {
		d, err := time.Parse(LineDateFormat, raw)
		if err != nil {
			return meta, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("line_date %q is not a YYYY-MM-DD date", raw))
		}
		meta.LineDate = &d
	}
	return meta, nil
}

// itemFilter returns nil when ids is nil. A present but blank list is rejected
// since it would always produce an empty job.
func itemFilter(ids []string) (map[string]struct{}, error) {
	if ids == nil {
		return nil, nil
	}
	only := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			only[id] = struct{}{}
		}
	}
	if len(only) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "item_ids must contain at least one id when given")
	}
	return only, nil
}

func anyNonBlank(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}

func filterRows(rows []printing.ResolvedRow, only map[string]struct{}) []printing.ResolvedRow {
	kept := rows[:0:0]
	for _, row := range rows {
		if _, ok := only[row.ItemID]; ok {
			kept = append(kept, row)
		}
	}
	return kept
}

func invalidJobID(jobID int64) error {
	return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("invalid job id %d", jobID))
}

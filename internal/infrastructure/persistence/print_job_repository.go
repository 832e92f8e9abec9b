package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/helenrm365/rm365-tools-testing-sub001/internal/domain/printing"
	"github.com/helenrm365/rm365-tools-testing-sub001/internal/domain/shared"
	"github.com/helenrm365/rm365-tools-testing-sub001/internal/domain/shared/valueobject"
	"github.com/helenrm365/rm365-tools-testing-sub001/internal/infrastructure/persistence/models"
)

const defaultInsertBatchSize = 500

// GormPrintJobRepository implements printing.JobRepository using GORM
type GormPrintJobRepository struct {
	db        *gorm.DB
	schema    *SchemaGuard
	logger    *zap.Logger
	batchSize int
	now       func() time.Time
}

// NewGormPrintJobRepository creates a new GormPrintJobRepository
func NewGormPrintJobRepository(db *gorm.DB, logger *zap.Logger) *GormPrintJobRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GormPrintJobRepository{
		db:        db,
		schema:    NewSchemaGuard(db, logger),
		logger:    logger,
		batchSize: defaultInsertBatchSize,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateSnapshot inserts the job and all its items in one transaction.
// Prices are parsed from the catalog's text; a bad price or a negative count
// degrades to zero with a warning instead of failing the job.
func (r *GormPrintJobRepository) CreateSnapshot(ctx context.Context, rows []printing.ResolvedRow, meta printing.JobMeta) (int64, error) {
	if err := r.schema.Ensure(ctx); err != nil {
		return 0, err
	}

	createdAt := r.now()
	job := models.PrintJobModel{
		CreatedBy: meta.CreatedBy,
		LineDate:  meta.LineDate,
		CreatedAt: createdAt,
	}
	items := make([]models.PrintItemModel, 0, len(rows))
	for _, row := range rows {
		items = append(items, r.itemFromRow(row, createdAt))
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&job).Error; err != nil {
			return fmt.Errorf("insert job: %w", err)
		}
		if len(items) == 0 {
			return nil
		}
		for i := range items {
			items[i].JobID = job.ID
		}
		if err := tx.Omit(clause.Associations).CreateInBatches(&items, r.batchSize).Error; err != nil {
			return fmt.Errorf("insert %d items: %w", len(items), err)
		}
		return nil
	})
	if err != nil {
		return 0, shared.NewUpstreamError("create print job", err)
	}
	return job.ID, nil
}

func (r *GormPrintJobRepository) itemFromRow(row printing.ResolvedRow, createdAt time.Time) models.PrintItemModel {
	price, err := valueobject.ParseMoney(row.PriceRaw, valueobject.DefaultCurrency)
	if err != nil {
		r.logger.Warn("unparseable price, using 0.00",
			zap.String("sku", row.SKUUsed),
			zap.String("price", row.PriceRaw),
			zap.Error(err))
	}
	return models.PrintItemModel{
		ItemID:      row.ItemID,
		SKU:         row.SKUUsed,
		ProductName: row.ProductName,
		UKMetric:    max(row.UKMetric, 0),
		FRMetric:    max(row.FRMetric, 0),
		Price:       price.Amount(),
		CreatedAt:   createdAt,
	}
}

// ReadSnapshot loads a job and its items ordered by SKU. Items without their
// own line date take the job's.
func (r *GormPrintJobRepository) ReadSnapshot(ctx context.Context, jobID int64) (*printing.JobSnapshot, error) {
	if err := r.schema.Ensure(ctx); err != nil {
		return nil, err
	}

	db := r.db.WithContext(ctx)
	var job models.PrintJobModel
	if err := db.First(&job, "id = ?", jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, jobNotFound(jobID)
		}
		return nil, shared.NewUpstreamError("read print job", err)
	}

	var itemModels []models.PrintItemModel
	if err := db.Where("job_id = ?", jobID).Order("sku ASC, id ASC").Find(&itemModels).Error; err != nil {
		return nil, shared.NewUpstreamError("read print items", err)
	}

	snap := &printing.JobSnapshot{Job: job.ToDomain(), Items: make([]printing.PrintItem, len(itemModels))}
	for i := range itemModels {
		item := itemModels[i].ToDomain()
		item.LineDate = snap.EffectiveLineDate(item)
		snap.Items[i] = item
	}
	return snap, nil
}

// DeleteSnapshot deletes a job's items and then the job itself
func (r *GormPrintJobRepository) DeleteSnapshot(ctx context.Context, jobID int64) error {
	if err := r.schema.Ensure(ctx); err != nil {
		return err
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("job_id = ?", jobID).Delete(&models.PrintItemModel{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.PrintJobModel{}, "id = ?", jobID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return jobNotFound(jobID)
		}
		return nil
	})
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	if err != nil {
		return shared.NewUpstreamError("delete print job", err)
	}
	return nil
}

// DeleteOlderThan removes every job created before cutoff along with its items
func (r *GormPrintJobRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := r.schema.Ensure(ctx); err != nil {
		return 0, err
	}

	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		expired := tx.Model(&models.PrintJobModel{}).Select("id").Where("created_at < ?", cutoff)
		if err := tx.Where("job_id IN (?)", expired).Delete(&models.PrintItemModel{}).Error; err != nil {
			return err
		}
		res := tx.Where("created_at < ?", cutoff).Delete(&models.PrintJobModel{})
		deleted = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, shared.NewUpstreamError("delete expired print jobs", err)
	}
	return deleted, nil
}

func jobNotFound(jobID int64) error {
	return shared.NewDomainError("NOT_FOUND", fmt.Sprintf("print job %d not found", jobID))
}

// Ensure GormPrintJobRepository implements JobRepository
var _ printing.JobRepository = (*GormPrintJobRepository)(nil)

package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/helenrm365/rm365-tools-testing-sub001/internal/domain/printing"
	"github.com/helenrm365/rm365-tools-testing-sub001/internal/domain/shared"
	"github.com/helenrm365/rm365-tools-testing-sub001/internal/infrastructure/persistence/models"
)

// metricsLookupChunk bounds the size of each IN list.
const metricsLookupChunk = 1000

// GormSalesMetricsRepository reads sales figures from the sales_metrics table
type GormSalesMetricsRepository struct {
	db *gorm.DB
}

// NewGormSalesMetricsRepository creates a new GormSalesMetricsRepository
func NewGormSalesMetricsRepository(db *gorm.DB) *GormSalesMetricsRepository {
	return &GormSalesMetricsRepository{db: db}
}

// LookupMetrics returns the raw figures for the given item ids. Ids without a
// row are absent from the result.
func (r *GormSalesMetricsRepository) LookupMetrics(ctx context.Context, itemIDs []string) (map[string]printing.SalesMetrics, error) {
	result := make(map[string]printing.SalesMetrics, len(itemIDs))
	for start := 0; start < len(itemIDs); start += metricsLookupChunk {
		end := min(start+metricsLookupChunk, len(itemIDs))

		var rows []models.SalesMetricModel
		if err := r.db.WithContext(ctx).Where("item_id IN ?", itemIDs[start:end]).Find(&rows).Error; err != nil {
			return nil, shared.NewUpstreamError("sales metrics lookup", err)
		}
		for i := range rows {
			result[rows[i].ItemID] = rows[i].ToDomain()
		}
	}
	return result, nil
}

var _ printing.MetricsSource = (*GormSalesMetricsRepository)(nil)

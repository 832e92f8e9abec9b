package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/helenrm365/rm365-tools-testing-sub001/internal/domain/printing"
)

// PrintJobModel is the GORM model for label_print_jobs table
type PrintJobModel struct {
	ID        int64      `gorm:"primaryKey;autoIncrement"`
	CreatedBy *string    `gorm:"column:created_by;type:varchar(100)"`
	LineDate  *time.Time `gorm:"column:line_date;type:date"`
	CreatedAt time.Time  `gorm:"not null;index"`
}

// TableName returns the table name for PrintJobModel
func (PrintJobModel) TableName() string {
	return "label_print_jobs"
}

// ToDomain converts PrintJobModel to domain PrintJob
func (m *PrintJobModel) ToDomain() printing.PrintJob {
	return printing.PrintJob{
		ID:        m.ID,
		CreatedBy: m.CreatedBy,
		LineDate:  m.LineDate,
		CreatedAt: m.CreatedAt,
	}
}

// PrintItemModel is the GORM model for label_print_items table
type PrintItemModel struct {
	ID          int64           `gorm:"primaryKey;autoIncrement"`
	JobID       int64           `gorm:"column:job_id;not null;index:idx_label_print_items_job_sku,priority:1"`
	Job         *PrintJobModel  `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE"`
	ItemID      string          `gorm:"column:item_id;type:varchar(64);not null"`
	SKU         string          `gorm:"column:sku;type:varchar(100);not null;index:idx_label_print_items_job_sku,priority:2"`
	ProductName string          `gorm:"column:product_name;type:varchar(500);not null;default:''"`
	UKMetric    int             `gorm:"column:uk_metric;not null;default:0"`
	FRMetric    int             `gorm:"column:fr_metric;not null;default:0"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	LineDate    *time.Time      `gorm:"column:line_date;type:date"`
	CreatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for PrintItemModel
func (PrintItemModel) TableName() string {
	return "label_print_items"
}

// ToDomain converts PrintItemModel to domain PrintItem
func (m *PrintItemModel) ToDomain() printing.PrintItem {
	return printing.PrintItem{
		ID:          m.ID,
		JobID:       m.JobID,
		ItemID:      m.ItemID,
		SKU:         m.SKU,
		ProductName: m.ProductName,
		UKMetric:    m.UKMetric,
		FRMetric:    m.FRMetric,
		Price:       m.Price,
		LineDate:    m.LineDate,
		CreatedAt:   m.CreatedAt,
	}
}

// ProductModel is the read-only view of the products table used as the
// print allow-list
type ProductModel struct {
	SKU          string `gorm:"column:sku;primaryKey;type:varchar(100)"`
	Discontinued bool   `gorm:"column:discontinued;not null;default:false"`
}

// TableName returns the table name for ProductModel
func (ProductModel) TableName() string {
	return "products"
}

// SalesMetricModel is the read-only view of the sales_metrics table. The
// figures are stored as text by the reporting job that owns the table.
type SalesMetricModel struct {
	ItemID   string `gorm:"column:item_id;primaryKey;type:varchar(64)"`
	UKMetric string `gorm:"column:uk_metric;type:varchar(32)"`
	FRMetric string `gorm:"column:fr_metric;type:varchar(32)"`
}

// TableName returns the table name for SalesMetricModel
func (SalesMetricModel) TableName() string {
	return "sales_metrics"
}

// ToDomain converts SalesMetricModel to domain SalesMetrics
func (m *SalesMetricModel) ToDomain() printing.SalesMetrics {
	return printing.SalesMetrics{
		ItemID:   m.ItemID,
		UKMetric: m.UKMetric,
		FRMetric: m.FRMetric,
	}
}

package printing

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PrintJob is the header of an immutable label snapshot.
type PrintJob struct {
	ID        int64
	CreatedBy *string    // Who requested the job (optional)
	LineDate  *time.Time // Production line date printed on every label (optional)
	CreatedAt time.Time
}

// PrintItem is one label row of a print job. Items are written once when the
// job is created and never updated.
type PrintItem struct {
	ID          int64
	JobID       int64
	ItemID      string
	SKU         string
	ProductName string
	UKMetric    int
	FRMetric    int
	Price       decimal.Decimal
	LineDate    *time.Time // Per-item override of the job line date
	CreatedAt   time.Time
}

// JobMeta carries the caller supplied attributes of a new print job.
type JobMeta struct {
	CreatedBy *string
	LineDate  *time.Time
}

// JobSnapshot is the read model of a print job: the header plus its items
// ordered by SKU ascending.
type JobSnapshot struct {
	Job   PrintJob
	Items []PrintItem
}

// EffectiveLineDate returns the item's own line date, falling back to the job's.
func (s *JobSnapshot) EffectiveLineDate(item PrintItem) *time.Time {
	if item.LineDate != nil {
		return item.LineDate
	}
	return s.Job.LineDate
}

// Barcode returns the value encoded in the item's barcode: the catalog item id,
// or the SKU when the item id is blank.
func (i PrintItem) Barcode() string {
	if id := strings.TrimSpace(i.ItemID); id != "" {
		return id
	}
	return i.SKU
}

// ResolvedRow is one canonical product produced by resolution and enriched
// with its sales figures. PriceRaw is the catalog's price text, which is
// normalised when the snapshot is stored.
type ResolvedRow struct {
	ItemID      string
	SKUUsed     string
	ProductName string
	UKMetric    int
	FRMetric    int
	PriceRaw    string
}

// CatalogItem is a record of the external item catalog.
type CatalogItem struct {
	ItemID string
	SKU    string
	Name   string
	Status string
	Rate   string
}

// SalesMetrics holds the raw sales-velocity figures for one catalog item.
type SalesMetrics struct {
	ItemID   string
	UKMetric string
	FRMetric string
}

package printing

import (
	"time"

	"github.com/helenrm365/rm365-tools-testing-sub001/internal/domain/printing"
)

// LineDateFormat is the wire format of line dates
const LineDateFormat = "2006-01-02"

// CreateJobRequest represents a request to create a print job. When
// CandidateSKUs is omitted the product allow-list is used; an explicit empty
// list is rejected. A non-nil ItemIDs limits the
// job to those catalog items.
type CreateJobRequest struct {
	CandidateSKUs []string `json:"candidate_skus" binding:"omitempty,max=20000,dive,max=100"`
	ItemIDs       []string `json:"item_ids" binding:"omitempty,max=20000,dive,max=64"`
	CreatedBy     string   `json:"created_by" binding:"max=100"`
	LineDate      string   `json:"line_date" binding:"omitempty,datetime=2006-01-02"`
}

// CreateJobResponse is the result of creating a print job
type CreateJobResponse struct {
	JobID   int64          `json:"job_id"`
	Items   int            `json:"items"`
	Skipped map[string]int `json:"skipped"`
}

// JobResponse represents a print job header
type JobResponse struct {
	ID        int64     `json:"id"`
	CreatedBy *string   `json:"created_by,omitempty"`
	LineDate  *string   `json:"line_date,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ItemResponse represents one label row
type ItemResponse struct {
	ID          int64   `json:"id"`
	ItemID      string  `json:"item_id"`
	SKU         string  `json:"sku"`
	ProductName string  `json:"product_name"`
	UKMetric    int     `json:"uk_metric"`
	FRMetric    int     `json:"fr_metric"`
	Price       string  `json:"price"`
	LineDate    *string `json:"line_date,omitempty"`
}

// JobItemsResponse is a job with its items ordered by SKU
type JobItemsResponse struct {
	Job   JobResponse    `json:"job"`
	Items []ItemResponse `json:"items"`
}

// RenderedFile is a rendered job ready to be downloaded
type RenderedFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

func toJobItemsResponse(snap *printing.JobSnapshot) *JobItemsResponse {
	resp := &JobItemsResponse{
		Job: JobResponse{
			ID:        snap.Job.ID,
			CreatedBy: snap.Job.CreatedBy,
			LineDate:  formatDate(snap.Job.LineDate),
			CreatedAt: snap.Job.CreatedAt,
		},
		Items: make([]ItemResponse, len(snap.Items)),
	}
	for i, item := range snap.Items {
		resp.Items[i] = ItemResponse{
			ID:          item.ID,
			ItemID:      item.ItemID,
			SKU:         item.SKU,
			ProductName: item.ProductName,
			UKMetric:    item.UKMetric,
			FRMetric:    item.FRMetric,
			Price:       item.Price.StringFixed(2),
			LineDate:    formatDate(snap.EffectiveLineDate(item)),
		}
	}
	return resp
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(LineDateFormat)
	return &s
}

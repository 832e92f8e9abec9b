package printing

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/helenrm365/rm365-tools-testing-sub001/internal/domain/printing"
)

// CSVHeader is the column order of the flat export.
var CSVHeader = []string{
	"id", "job_id", "line_date", "sku", "item_id",
	"product_name", "uk_metric", "fr_metric", "created_at",
}

const (
	csvDateFormat      = "2006-01-02"
	csvTimestampFormat = "2006-01-02 15:04:05"
)

// WriteCSV writes the snapshot rows in item order. line_date is the item's
// own date falling back to the job's; created_at is the job creation time.
func WriteCSV(ctx context.Context, w io.Writer, snap *printing.JobSnapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	createdAt := snap.Job.CreatedAt.Format(csvTimestampFormat)
	for _, item := range snap.Items {
		if err := ctx.Err(); err != nil {
			return err
		}
		lineDate := ""
		if d := snap.EffectiveLineDate(item); d != nil {
			lineDate = d.Format(csvDateFormat)
		}
		record := []string{
			strconv.FormatInt(item.ID, 10),
			strconv.FormatInt(item.JobID, 10),
			lineDate,
			item.SKU,
			item.ItemID,
			item.ProductName,
			strconv.Itoa(item.UKMetric),
			strconv.Itoa(item.FRMetric),
			createdAt,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %d: %w", item.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// RenderCSV returns the whole export, or nothing if writing failed part way.
func RenderCSV(ctx context.Context, snap *printing.JobSnapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(ctx, &buf, snap); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

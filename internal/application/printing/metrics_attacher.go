package printing

import (
	"context"

	"go.uber.org/zap"

	"github.com/helenrm365/rm365-tools-testing-sub001/internal/domain/printing"
	"github.com/helenrm365/rm365-tools-testing-sub001/internal/domain/shared/valueobject"
)

// MetricsAttacher fills in sales figures for resolved rows with one bulk lookup.
type MetricsAttacher struct {
	source printing.MetricsSource
	logger *zap.Logger
}

// NewMetricsAttacher creates an attacher reading from source
func NewMetricsAttacher(source printing.MetricsSource, logger *zap.Logger) *MetricsAttacher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MetricsAttacher{source: source, logger: logger}
}

// Attach sets UKMetric and FRMetric on every row that has figures. Rows are
// never dropped; missing or unparseable figures leave zero.
func (a *MetricsAttacher) Attach(ctx context.Context, rows []printing.ResolvedRow) ([]printing.ResolvedRow, error) {
	ids := make([]string, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		if row.ItemID == "" {
			continue
		}
		if _, ok := seen[row.ItemID]; ok {
			continue
		}
		seen[row.ItemID] = struct{}{}
		ids = append(ids, row.ItemID)
	}
	if len(ids) == 0 {
		return rows, nil
	}

	figures, err := a.source.LookupMetrics(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]printing.ResolvedRow, len(rows))
	for i, row := range rows {
		if m, ok := figures[row.ItemID]; ok {
			row.UKMetric = a.parse(row, "uk", m.UKMetric)
			row.FRMetric = a.parse(row, "fr", m.FRMetric)
		}
		out[i] = row
	}
	return out, nil
}

func (a *MetricsAttacher) parse(row printing.ResolvedRow, market, raw string) int {
	n, err := valueobject.ParseCount(raw)
	if err != nil {
		a.logger.Warn("unparseable sales figure, using 0",
			zap.String("item_id", row.ItemID),
			zap.String("market", market),
			zap.String("value", raw))
	}
	return n
}

package printing

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/helenrm365/rm365-tools-testing-sub001/internal/domain/printing"
)

// Resolution is the outcome of one catalog resolution pass.
type Resolution struct {
	Rows  []printing.ResolvedRow
	Skips map[printing.SkipReason]int
}

// Skipped returns the total number of groups dropped
func (r *Resolution) Skipped() int {
	n := 0
	for _, c := range r.Skips {
		n += c
	}
	return n
}

// CatalogResolver maps candidate SKUs onto catalog items, one row per base SKU.
type CatalogResolver struct {
	catalog printing.CatalogSource
	logger  *zap.Logger
}

// NewCatalogResolver creates a resolver over catalog
func NewCatalogResolver(catalog printing.CatalogSource, logger *zap.Logger) *CatalogResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogResolver{catalog: catalog, logger: logger}
}

// Resolve groups candidates by base, picks each group's variant and looks it
// up in the catalog, falling back to the alternate spelling. Groups that
// cannot be matched are skipped and counted. Only a catalog fetch failure
// fails the pass.
func (r *CatalogResolver) Resolve(ctx context.Context, candidates []string) (*Resolution, error) {
	res := &Resolution{Skips: make(map[printing.SkipReason]int)}
	groups := printing.GroupCandidates(candidates)
	if len(groups) == 0 {
		return res, nil
	}

	items, err := r.catalog.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	index := indexBySKU(items)

	for _, g := range groups {
		sku, ok := g.ChosenVariant()
		if !ok {
			r.skip(res, printing.SkipNoVariant, g.Base, "")
			continue
		}
		item, ok := index[sku]
		if !ok {
			item, ok = index[printing.AlternateSKU(sku)]
		}
		if !ok {
			r.skip(res, printing.SkipNoCatalogMatch, g.Base, sku)
			continue
		}
		res.Rows = append(res.Rows, printing.ResolvedRow{
			ItemID:      item.ItemID,
			SKUUsed:     item.SKU,
			ProductName: item.Name,
			PriceRaw:    item.Rate,
		})
	}
	return res, nil
}

func (r *CatalogResolver) skip(res *Resolution, reason printing.SkipReason, base, sku string) {
	res.Skips[reason]++
	r.logger.Info("candidate skipped",
		zap.String("base", base),
		zap.String("sku", sku),
		zap.String("reason", string(reason)))
}

// indexBySKU keys catalog items by trimmed SKU. The first occurrence of a
// duplicated SKU wins.
func indexBySKU(items []printing.CatalogItem) map[string]printing.CatalogItem {
	index := make(map[string]printing.CatalogItem, len(items))
	for _, item := range items {
		sku := strings.TrimSpace(item.SKU)
		if sku == "" {
			continue
		}
		if _, dup := index[sku]; dup {
			continue
		}
		item.SKU = sku
		index[sku] = item
	}
	return index
}

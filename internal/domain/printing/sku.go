package printing

import (
	"sort"
	"strings"
)

// VariantSuffix is the alternate spelling accepted when a bare base SKU is not
// among the candidates.
const VariantSuffix = "-MD"

// SkipReason explains why a canonical group produced no row.
type SkipReason string

const (
	SkipNoVariant      SkipReason = "no_variant"
	SkipNoCatalogMatch SkipReason = "no_catalog_match"
)

// SKUBase returns the portion of sku before the first "-", trimmed.
func SKUBase(sku string) string {
	base, _, _ := strings.Cut(strings.TrimSpace(sku), "-")
	return strings.TrimSpace(base)
}

// AlternateSKU switches between the bare base and its "-MD" spelling.
func AlternateSKU(sku string) string {
	if strings.HasSuffix(sku, VariantSuffix) {
		return strings.TrimSuffix(sku, VariantSuffix)
	}
	return sku + VariantSuffix
}

// CanonicalGroup collects every candidate spelling sharing a base.
type CanonicalGroup struct {
	Base       string
	Candidates map[string]struct{}
}

// ChosenVariant picks the one SKU printed for the group: the bare base when it
// is a candidate, otherwise base+"-MD". It reports false when neither is present.
func (g CanonicalGroup) ChosenVariant() (string, bool) {
	if _, ok := g.Candidates[g.Base]; ok {
		return g.Base, true
	}
	md := g.Base + VariantSuffix
	if _, ok := g.Candidates[md]; ok {
		return md, true
	}
	return "", false
}

// GroupCandidates partitions candidate SKUs by base. Blank candidates are
// ignored. Groups are returned ordered by base.
func GroupCandidates(candidates []string) []CanonicalGroup {
	byBase := make(map[string]*CanonicalGroup)
	for _, raw := range candidates {
		sku := strings.TrimSpace(raw)
		if sku == "" {
			continue
		}
		base := SKUBase(sku)
		if base == "" {
			continue
		}
		g, ok := byBase[base]
		if !ok {
			g = &CanonicalGroup{Base: base, Candidates: make(map[string]struct{})}
			byBase[base] = g
		}
		g.Candidates[sku] = struct{}{}
	}

	groups := make([]CanonicalGroup, 0, len(byBase))
	for _, g := range byBase {
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Base < groups[j].Base })
	return groups
}

package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/helenrm365/rm365-tools-testing-sub001/internal/domain/printing"
	"github.com/helenrm365/rm365-tools-testing-sub001/internal/domain/shared"
	"github.com/helenrm365/rm365-tools-testing-sub001/internal/infrastructure/persistence/models"
)

// GormProductAllowList lists the SKUs of products that are not discontinued
type GormProductAllowList struct {
	db *gorm.DB
}

// NewGormProductAllowList creates a new GormProductAllowList
func NewGormProductAllowList(db *gorm.DB) *GormProductAllowList {
	return &GormProductAllowList{db: db}
}

// ListCandidateSKUs returns every printable SKU ordered by SKU
func (r *GormProductAllowList) ListCandidateSKUs(ctx context.Context) ([]string, error) {
	var skus []string
	err := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("discontinued = ?", false).
		Order("sku").
		Pluck("sku", &skus).Error
	if err != nil {
		return nil, shared.NewUpstreamError("allow-list lookup", err)
	}
	return skus, nil
}

var _ printing.CandidateSource = (*GormProductAllowList)(nil)

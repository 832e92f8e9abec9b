// Package models holds the GORM models for the label tables and the
// read-only views of the upstream products and sales_metrics tables.
// Domain types never carry GORM tags; each model converts with ToDomain.
package models

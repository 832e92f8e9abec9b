package persistence

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/helenrm365/rm365-tools-testing-sub001/internal/domain/shared"
	"github.com/helenrm365/rm365-tools-testing-sub001/internal/infrastructure/persistence/models"
)

// LabelSchemaModels are the tables owned by the label job store, in creation order.
var LabelSchemaModels = []any{
	&models.PrintJobModel{},
	&models.PrintItemModel{},
}

// SchemaGuard makes sure the label tables and columns exist before first use.
// Patching is additive: missing tables are created and missing columns added,
// nothing is dropped or renamed. Once the schema is current the check is skipped.
type SchemaGuard struct {
	db     *gorm.DB
	logger *zap.Logger
	tables []any

	mu    sync.Mutex
	ready bool
}

// NewSchemaGuard creates a guard over the label tables
func NewSchemaGuard(db *gorm.DB, logger *zap.Logger) *SchemaGuard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchemaGuard{db: db, logger: logger, tables: LabelSchemaModels}
}

// Ensure verifies the schema, patching it if needed. Failures are wrapped in
// shared.ErrSchemaDrift and the check is retried on the next call.
func (g *SchemaGuard) Ensure(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.ready {
		return nil
	}

	migrator := g.db.WithContext(ctx).Migrator()
	for _, model := range g.tables {
		stmt := &gorm.Statement{DB: g.db}
		if err := stmt.Parse(model); err != nil {
			return fmt.Errorf("%w: parse %T: %v", shared.ErrSchemaDrift, model, err)
		}
		table := stmt.Schema.Table

		if !migrator.HasTable(model) {
			g.logger.Warn("creating missing table", zap.String("table", table))
			if err := migrator.CreateTable(model); err != nil {
				return fmt.Errorf("%w: create table %s: %v", shared.ErrSchemaDrift, table, err)
			}
			continue
		}

		for _, field := range stmt.Schema.Fields {
			if field.DBName == "" || migrator.HasColumn(model, field.DBName) {
				continue
			}
			g.logger.Warn("adding missing column",
				zap.String("table", table),
				zap.String("column", field.DBName))
			if err := migrator.AddColumn(model, field.DBName); err != nil {
				return fmt.Errorf("%w: add column %s.%s: %v", shared.ErrSchemaDrift, table, field.DBName, err)
			}
		}
	}

	g.ready = true
	return nil
}

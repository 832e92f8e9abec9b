package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"

	"github.com/helenrm365/rm365-tools-testing-sub001/internal/domain/printing"
	"github.com/helenrm365/rm365-tools-testing-sub001/internal/domain/shared"
	"github.com/helenrm365/rm365-tools-testing-sub001/internal/infrastructure/persistence/models"
)

func setupPrintJobRepo(t *testing.T) (*GormPrintJobRepository, *gorm.DB, *observer.ObservedLogs) {
	t.Helper()
	db := newSQLiteDB(t)
	core, logs := observer.New(zapcore.WarnLevel)
	return NewGormPrintJobRepository(db, zap.New(core)), db, logs
}

func strPtr(s string) *string { return &s }

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestGormPrintJobRepository_CreateAndRead(t *testing.T) {
	repo, _, _ := setupPrintJobRepo(t)
	ctx := context.Background()

	rows := []printing.ResolvedRow{
		{ItemID: "300", SKUUsed: "ZED", ProductName: "Zed Lamp", UKMetric: 5, FRMetric: 2, PriceRaw: "£1,234.50"},
		{ItemID: "100", SKUUsed: "ABC", ProductName: "Widget", UKMetric: 12, FRMetric: 0, PriceRaw: "£12.50"},
		{ItemID: "200", SKUUsed: "MID-MD", ProductName: "Gadget", UKMetric: 7, FRMetric: 9, PriceRaw: "3"},
	}
	meta := printing.JobMeta{CreatedBy: strPtr("warehouse-1"), LineDate: datePtr(2024, 5, 1)}

	jobID, err := repo.CreateSnapshot(ctx, rows, meta)
	require.NoError(t, err)
	assert.Positive(t, jobID)

	snap, err := repo.ReadSnapshot(ctx, jobID)
	require.NoError(t, err)

	assert.Equal(t, jobID, snap.Job.ID)
	require.NotNil(t, snap.Job.CreatedBy)
	assert.Equal(t, "warehouse-1", *snap.Job.CreatedBy)
	require.NotNil(t, snap.Job.LineDate)
	assert.Equal(t, "2024-05-01", snap.Job.LineDate.Format("2006-01-02"))

	require.Len(t, snap.Items, 3)
	assert.Equal(t, []string{"ABC", "MID-MD", "ZED"},
		[]string{snap.Items[0].SKU, snap.Items[1].SKU, snap.Items[2].SKU})

	abc := snap.Items[0]
	assert.Equal(t, jobID, abc.JobID)
	assert.Equal(t, "100", abc.ItemID)
	assert.Equal(t, "Widget", abc.ProductName)
	assert.Equal(t, 12, abc.UKMetric)
	assert.Equal(t, 0, abc.FRMetric)
	assert.True(t, abc.Price.Equal(decimal.RequireFromString("12.50")), abc.Price.String())
	assert.True(t, snap.Items[1].Price.Equal(decimal.NewFromInt(3)))
	assert.True(t, snap.Items[2].Price.Equal(decimal.RequireFromString("1234.50")))

	// items inherit the job line date
	require.NotNil(t, abc.LineDate)
	assert.Equal(t, "2024-05-01", abc.LineDate.Format("2006-01-02"))
}

func TestGormPrintJobRepository_MalformedNumbersDegrade(t *testing.T) {
	repo, _, logs := setupPrintJobRepo(t)
	ctx := context.Background()

	rows := []printing.ResolvedRow{
		{ItemID: "1", SKUUsed: "BAD", ProductName: "Broken price", PriceRaw: "£1,234.5x", UKMetric: -4},
		{ItemID: "2", SKUUsed: "GOOD", ProductName: "Fine", PriceRaw: "£12.50"},
	}

	jobID, err := repo.CreateSnapshot(ctx, rows, printing.JobMeta{})
	require.NoError(t, err)

	snap, err := repo.ReadSnapshot(ctx, jobID)
	require.NoError(t, err)
	require.Len(t, snap.Items, 2)

	assert.Equal(t, "0.00", snap.Items[0].Price.StringFixed(2))
	assert.Equal(t, 0, snap.Items[0].UKMetric)
	assert.Equal(t, "12.50", snap.Items[1].Price.StringFixed(2))
	assert.Equal(t, 1, logs.FilterMessage("unparseable price, using 0.00").Len())
	assert.Nil(t, snap.Items[0].LineDate)
}

func TestGormPrintJobRepository_EmptyJob(t *testing.T) {
	repo, _, _ := setupPrintJobRepo(t)
	ctx := context.Background()

	jobID, err := repo.CreateSnapshot(ctx, nil, printing.JobMeta{})
	require.NoError(t, err)

	snap, err := repo.ReadSnapshot(ctx, jobID)
	require.NoError(t, err)
	assert.Empty(t, snap.Items)
	assert.Nil(t, snap.Job.CreatedBy)
}

func TestGormPrintJobRepository_NotFound(t *testing.T) {
	repo, _, _ := setupPrintJobRepo(t)
	ctx := context.Background()

	_, err := repo.ReadSnapshot(ctx, 404)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
	assert.False(t, shared.IsRetryable(err))

	err = repo.DeleteSnapshot(ctx, 404)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestGormPrintJobRepository_DeleteRemovesItems(t *testing.T) {
	repo, db, _ := setupPrintJobRepo(t)
	ctx := context.Background()

	rows := []printing.ResolvedRow{
		{ItemID: "1", SKUUsed: "A", ProductName: "A"},
		{ItemID: "2", SKUUsed: "B", ProductName: "B"},
	}
	keep, err := repo.CreateSnapshot(ctx, rows, printing.JobMeta{})
	require.NoError(t, err)
	drop, err := repo.CreateSnapshot(ctx, rows, printing.JobMeta{})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteSnapshot(ctx, drop))

	var orphans int64
	require.NoError(t, db.Model(&models.PrintItemModel{}).Where("job_id = ?", drop).Count(&orphans).Error)
	assert.Zero(t, orphans)

	_, err = repo.ReadSnapshot(ctx, drop)
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	snap, err := repo.ReadSnapshot(ctx, keep)
	require.NoError(t, err)
	assert.Len(t, snap.Items, 2)
}

func TestGormPrintJobRepository_DeleteOlderThan(t *testing.T) {
	repo, db, _ := setupPrintJobRepo(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	rows := []printing.ResolvedRow{{ItemID: "1", SKUUsed: "A", ProductName: "A"}}

	repo.now = func() time.Time { return base.AddDate(0, 0, -30) }
	_, err := repo.CreateSnapshot(ctx, rows, printing.JobMeta{})
	require.NoError(t, err)

	repo.now = func() time.Time { return base }
	recent, err := repo.CreateSnapshot(ctx, rows, printing.JobMeta{})
	require.NoError(t, err)

	deleted, err := repo.DeleteOlderThan(ctx, base.AddDate(0, 0, -7))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var items int64
	require.NoError(t, db.Model(&models.PrintItemModel{}).Count(&items).Error)
	assert.Equal(t, int64(1), items)

	_, err = repo.ReadSnapshot(ctx, recent)
	assert.NoError(t, err)
}

func TestGormPrintJobRepository_FailedInsertLeavesNoJob(t *testing.T) {
	repo, db, _ := setupPrintJobRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.schema.Ensure(ctx))
	// break the item table behind the guard's back
	require.NoError(t, db.Migrator().DropTable(&models.PrintItemModel{}))

	_, err := repo.CreateSnapshot(ctx, []printing.ResolvedRow{{ItemID: "1", SKUUsed: "A"}}, printing.JobMeta{})
	require.Error(t, err)
	assert.True(t, shared.IsRetryable(err))

	var jobs int64
	require.NoError(t, db.Model(&models.PrintJobModel{}).Count(&jobs).Error)
	assert.Zero(t, jobs)
}

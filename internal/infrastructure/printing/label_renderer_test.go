package printing

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/helenrm365/rm365-tools-testing-sub001/internal/domain/printing"
)

type drawnText struct {
	x, y float64
	text string
	size float64
	bold bool
}

// recordingCanvas keeps every drawing call for inspection.
type recordingCanvas struct {
	pages    int
	rects    []Rect
	texts    []drawnText
	images   []string
	finished bool
}

func (c *recordingCanvas) AddPage() { c.pages++ }

func (c *recordingCanvas) Rect(r Rect, lw float64) { c.rects = append(c.rects, r) }

func (c *recordingCanvas) Text(x, y float64, text string, size float64, bold bool) {
	c.texts = append(c.texts, drawnText{x: x, y: y, text: text, size: size, bold: bold})
}

func (c *recordingCanvas) Image(name string, png []byte, r Rect) error {
	c.images = append(c.images, name)
	return nil
}

func (c *recordingCanvas) Finish(ctx context.Context) ([]byte, error) {
	c.finished = true
	return []byte("%PDF-recorded"), nil
}

func (c *recordingCanvas) hasText(s string) bool {
	for _, t := range c.texts {
		if t.text == s {
			return true
		}
	}
	return false
}

func newTestRenderer(t *testing.T, canvas *recordingCanvas, logger *zap.Logger) *LabelSheetRenderer {
	t.Helper()
	opts := DefaultBarcodeOptions()
	opts.CaptionSize = 0
	enc, err := NewBarcodeEncoder(opts)
	require.NoError(t, err)

	r, err := NewLabelSheetRenderer(LabelSheetConfig{
		Layout:   DefaultLabelLayout(),
		Style:    DefaultLabelStyle(),
		Measurer: monoMeasurer{},
		Barcodes: enc,
		Canvas: func(layout LabelLayout, title string) (Canvas, error) {
			return canvas, nil
		},
		Logger: logger,
	})
	require.NoError(t, err)
	r.now = func() time.Time { return time.Date(2024, 5, 17, 9, 0, 0, 0, time.UTC) }
	return r
}

func snapshotWithItems(n int) *printing.JobSnapshot {
	snap := &printing.JobSnapshot{Job: printing.PrintJob{ID: 9}}
	for i := 0; i < n; i++ {
		snap.Items = append(snap.Items, printing.PrintItem{
			ID:          int64(i + 1),
			JobID:       9,
			ItemID:      "46000" + string(rune('A'+i)),
			SKU:         "SKU" + string(rune('A'+i)),
			ProductName: "Blue Widget Deluxe",
			UKMetric:    12,
			FRMetric:    3,
			Price:       decimal.RequireFromString("12.5"),
		})
	}
	return snap
}

func TestLabelSheetRenderer_Pagination(t *testing.T) {
	canvas := &recordingCanvas{}
	r := newTestRenderer(t, canvas, nil)

	out, err := r.RenderPDF(context.Background(), snapshotWithItems(8))
	require.NoError(t, err)

	assert.Equal(t, []byte("%PDF-recorded"), out)
	assert.True(t, canvas.finished)
	assert.Equal(t, 2, canvas.pages)
	assert.Len(t, canvas.rects, 8)
	assert.Len(t, canvas.images, 8)
	// eighth label starts at the top of page two
	assert.Equal(t, DefaultLabelLayout().Place(0).Frame, canvas.rects[7])
}

func TestLabelSheetRenderer_LabelContent(t *testing.T) {
	canvas := &recordingCanvas{}
	r := newTestRenderer(t, canvas, nil)

	_, err := r.RenderPDF(context.Background(), snapshotWithItems(1))
	require.NoError(t, err)

	for _, s := range []string{"Blue", "Widget Deluxe", "17/05/2024", "£12.50", "SKUA", "12", "3", "Line:", "UK sales:", "FR sales:"} {
		assert.True(t, canvas.hasText(s), "missing %q", s)
	}

	for _, txt := range canvas.texts {
		if txt.text == "Blue" {
			assert.True(t, txt.bold, "first word of the name is bold")
		}
		if txt.text == "Widget Deluxe" {
			assert.False(t, txt.bold)
		}
		if txt.text == "SKUA" {
			assert.Equal(t, DefaultLabelStyle().Info.BaseSize, txt.size)
		}
	}
}

func TestLabelSheetRenderer_ZeroPriceIsBlank(t *testing.T) {
	canvas := &recordingCanvas{}
	r := newTestRenderer(t, canvas, nil)

	snap := snapshotWithItems(1)
	snap.Items[0].Price = decimal.Zero

	_, err := r.RenderPDF(context.Background(), snap)
	require.NoError(t, err)

	assert.True(t, canvas.hasText("Price:"))
	assert.False(t, canvas.hasText("£0.00"))
}

func TestLabelSheetRenderer_EmptyJob(t *testing.T) {
	canvas := &recordingCanvas{}
	r := newTestRenderer(t, canvas, nil)

	_, err := r.RenderPDF(context.Background(), &printing.JobSnapshot{Job: printing.PrintJob{ID: 1}})
	require.NoError(t, err)

	assert.Equal(t, 1, canvas.pages)
	assert.Empty(t, canvas.rects)
	assert.True(t, canvas.finished)
}

func TestLabelSheetRenderer_Cancelled(t *testing.T) {
	canvas := &recordingCanvas{}
	r := newTestRenderer(t, canvas, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := r.RenderPDF(ctx, snapshotWithItems(3))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, out)
	assert.False(t, canvas.finished)
}

func TestLabelSheetRenderer_UnencodableBarcodeIsSkipped(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	canvas := &recordingCanvas{}
	r := newTestRenderer(t, canvas, zap.New(core))

	snap := snapshotWithItems(2)
	snap.Items[0].ItemID = "crème☃"

	_, err := r.RenderPDF(context.Background(), snap)
	require.NoError(t, err)

	assert.Len(t, canvas.rects, 2)
	assert.Equal(t, []string{"barcode-1"}, canvas.images)
	assert.Equal(t, 1, logs.FilterMessage("skipping barcode").Len())
}

func TestNewLabelSheetRenderer_Validation(t *testing.T) {
	layout := DefaultLabelLayout()
	layout.RowsPerPage = 0
	_, err := NewLabelSheetRenderer(LabelSheetConfig{Layout: layout})
	assert.Error(t, err)

	_, err = NewLabelSheetRenderer(LabelSheetConfig{Layout: DefaultLabelLayout()})
	assert.Error(t, err)
}

func TestFitImage(t *testing.T) {
	box := Rect{X: 10, Y: 20, W: 100, H: 10}

	r := fitImage(box, 200, 50)
	assert.InDelta(t, 40.0, r.W, 1e-9)
	assert.InDelta(t, 10.0, r.H, 1e-9)
	assert.InDelta(t, 40.0, r.X, 1e-9)
	assert.InDelta(t, 20.0, r.Y, 1e-9)

	assert.Equal(t, box, fitImage(box, 0, 10))
}

func TestLabelSheetRenderer_FpdfOutput(t *testing.T) {
	m, err := NewOpenTypeMeasurer()
	require.NoError(t, err)
	enc, err := NewBarcodeEncoder(DefaultBarcodeOptions())
	require.NoError(t, err)

	r, err := NewLabelSheetRenderer(LabelSheetConfig{
		Layout:   DefaultLabelLayout(),
		Style:    DefaultLabelStyle(),
		Measurer: m,
		Barcodes: enc,
		Canvas:   NewFpdfCanvas,
	})
	require.NoError(t, err)

	out, err := r.RenderPDF(context.Background(), snapshotWithItems(9))
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Equal(t, 2, estimatePageCount(out))
}

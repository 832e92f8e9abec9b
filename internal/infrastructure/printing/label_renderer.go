package printing

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/helenrm365/rm365-tools-testing-sub001/internal/domain/printing"
	"github.com/helenrm365/rm365-tools-testing-sub001/internal/domain/shared/valueobject"
)

// LabelStyle holds the typographic settings of a label.
type LabelStyle struct {
	Name        FitOptions    `mapstructure:"name"`
	Info        ShrinkOptions `mapstructure:"info"`
	Metric      ShrinkOptions `mapstructure:"metric"`
	BorderWidth float64       `mapstructure:"border_width" validate:"gt=0"`
	DateFormat  string        `mapstructure:"date_format" validate:"required"`
}

// DefaultLabelStyle is the reference label typography.
func DefaultLabelStyle() LabelStyle {
	return LabelStyle{
		Name:        DefaultFitOptions(),
		Info:        DefaultShrinkOptions(),
		Metric:      ShrinkOptions{LabelSize: 6.5, BaseSize: 8, FloorSize: 5, Step: 0.5},
		BorderWidth: 0.3,
		DateFormat:  "02/01/2006",
	}
}

// Validate checks the font size ranges
func (s LabelStyle) Validate() error {
	if err := validator.New().Struct(s); err != nil {
		return fmt.Errorf("invalid label style: %w", err)
	}
	return nil
}

// Field captions printed on every label.
var (
	infoCaptions   = [InfoLines]string{"Date:", "Line:", "Price:", "SKU:"}
	metricCaptions = [MetricLines]string{"UK sales:", "FR sales:"}
)

// LabelSheetConfig wires a LabelSheetRenderer.
type LabelSheetConfig struct {
	Layout   LabelLayout
	Style    LabelStyle
	Measurer TextMeasurer
	Barcodes *BarcodeEncoder
	Canvas   CanvasFactory
	Logger   *zap.Logger
}

// LabelSheetRenderer draws job snapshots as sheets of labels.
type LabelSheetRenderer struct {
	layout    LabelLayout
	style     LabelStyle
	measurer  TextMeasurer
	barcodes  *BarcodeEncoder
	newCanvas CanvasFactory
	logger    *zap.Logger
	now       func() time.Time
}

// NewLabelSheetRenderer validates the layout and creates a renderer
func NewLabelSheetRenderer(cfg LabelSheetConfig) (*LabelSheetRenderer, error) {
	if err := cfg.Layout.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Style.Validate(); err != nil {
		return nil, err
	}
	if cfg.Measurer == nil || cfg.Barcodes == nil || cfg.Canvas == nil {
		return nil, fmt.Errorf("label renderer needs a measurer, a barcode encoder and a canvas")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LabelSheetRenderer{
		layout:    cfg.Layout,
		style:     cfg.Style,
		measurer:  cfg.Measurer,
		barcodes:  cfg.Barcodes,
		newCanvas: cfg.Canvas,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Layout returns the sheet geometry in use
func (r *LabelSheetRenderer) Layout() LabelLayout {
	return r.layout
}

// RenderPDF draws one label per snapshot item in item order. A job without
// items yields a single blank page. If ctx is cancelled the partial document
// is dropped and ctx's error returned.
func (r *LabelSheetRenderer) RenderPDF(ctx context.Context, snap *printing.JobSnapshot) ([]byte, error) {
	canvas, err := r.newCanvas(r.layout, fmt.Sprintf("labels_job_%d", snap.Job.ID))
	if err != nil {
		return nil, err
	}

	if len(snap.Items) == 0 {
		canvas.AddPage()
	}
	printedOn := r.now().Format(r.style.DateFormat)
	for i, item := range snap.Items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := r.layout.Place(i)
		if i == 0 || p.NewPage {
			canvas.AddPage()
		}
		r.drawLabel(canvas, p, item, printedOn)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return canvas.Finish(ctx)
}

func (r *LabelSheetRenderer) drawLabel(c Canvas, p Placement, item printing.PrintItem, printedOn string) {
	boxes := r.layout.Boxes(p)
	c.Rect(boxes.Border, r.style.BorderWidth)

	r.drawName(c, boxes.Name, item.ProductName)

	values := [InfoLines]string{printedOn, "", priceText(item), item.SKU}
	for k, box := range boxes.Info {
		size := r.style.Info.BaseSize
		// SKU is printed as is
		if k != 3 && values[k] != "" {
			size = ShrinkToFit(r.measurer, infoCaptions[k], values[k], box.W, r.style.Info)
		}
		r.drawPair(c, box, infoCaptions[k], values[k], r.style.Info.LabelSize, size)
	}

	metrics := [MetricLines]string{strconv.Itoa(item.UKMetric), strconv.Itoa(item.FRMetric)}
	for k, box := range boxes.Metrics {
		size := ShrinkToFit(r.measurer, metricCaptions[k], metrics[k], box.W, r.style.Metric)
		r.drawPair(c, box, metricCaptions[k], metrics[k], r.style.Metric.LabelSize, size)
	}

	r.drawBarcode(c, boxes.Barcode, p.Index, item)
}

// drawName fits the product name into box, with the first word bold.
func (r *LabelSheetRenderer) drawName(c Canvas, box Rect, name string) {
	fit := FitText(r.measurer, name, box, r.style.Name)
	lh := LineHeight(fit.Size)
	for k, line := range fit.Lines {
		y := box.Y + float64(k)*lh + fit.Size*PtToMM
		if k > 0 {
			c.Text(box.X, y, line, fit.Size, false)
			continue
		}
		head, rest, found := strings.Cut(line, " ")
		c.Text(box.X, y, head, fit.Size, true)
		if found {
			x := box.X + r.measurer.Width(head, fit.Size, true) + r.measurer.Width(" ", fit.Size, false)
			c.Text(x, y, rest, fit.Size, false)
		}
	}
}

// drawPair draws a bold caption followed by its value on the box's baseline.
func (r *LabelSheetRenderer) drawPair(c Canvas, box Rect, caption, value string, captionSize, valueSize float64) {
	y := box.Bottom() - box.H*0.2
	c.Text(box.X, y, caption, captionSize, true)
	if value == "" {
		return
	}
	x := box.X + r.measurer.Width(caption, captionSize, true) + r.measurer.Width(" ", valueSize, false)
	c.Text(x, y, value, valueSize, false)
}

func (r *LabelSheetRenderer) drawBarcode(c Canvas, box Rect, index int, item printing.PrintItem) {
	value := item.Barcode()
	img, err := r.barcodes.Encode(value)
	if err != nil {
		r.logger.Warn("skipping barcode",
			zap.String("sku", item.SKU),
			zap.String("value", value),
			zap.Error(err))
		return
	}
	if err := c.Image(fmt.Sprintf("barcode-%d", index), img.PNG, fitImage(box, img.Width, img.Height)); err != nil {
		r.logger.Warn("failed to place barcode", zap.String("sku", item.SKU), zap.Error(err))
	}
}

// fitImage scales a w x h pixel image into box keeping its aspect ratio,
// centred in the box.
func fitImage(box Rect, w, h int) Rect {
	if w <= 0 || h <= 0 {
		return box
	}
	scale := min(box.W/float64(w), box.H/float64(h))
	fw, fh := float64(w)*scale, float64(h)*scale
	return Rect{
		X: box.X + (box.W-fw)/2,
		Y: box.Y + (box.H-fh)/2,
		W: fw,
		H: fh,
	}
}

// priceText formats the item price, blank when there is none.
func priceText(item printing.PrintItem) string {
	if item.Price.IsZero() {
		return ""
	}
	return valueobject.NewMoneyGBP(item.Price).Display()
}

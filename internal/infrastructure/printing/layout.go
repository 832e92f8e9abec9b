package printing

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Rect is an axis-aligned box in millimetres, origin at the page's top-left.
type Rect struct {
	X, Y, W, H float64
}

// Right returns the x coordinate of the right edge
func (r Rect) Right() float64 { return r.X + r.W }

// Bottom returns the y coordinate of the bottom edge
func (r Rect) Bottom() float64 { return r.Y + r.H }

// LabelLayout holds the physical constants of a label sheet. All lengths are
// in millimetres.
type LabelLayout struct {
	PageWidth         float64 `mapstructure:"page_width" validate:"gt=0"`
	PageHeight        float64 `mapstructure:"page_height" validate:"gt=0"`
	LabelWidth        float64 `mapstructure:"label_width" validate:"gt=0"`
	LabelHeight       float64 `mapstructure:"label_height" validate:"gt=0"`
	TopMargin         float64 `mapstructure:"top_margin" validate:"gte=0"`
	LeftMargin        float64 `mapstructure:"left_margin" validate:"gte=0"`
	RowsPerPage       int     `mapstructure:"rows_per_page" validate:"gte=1"`
	ColsPerPage       int     `mapstructure:"cols_per_page" validate:"gte=1"`
	Padding           float64 `mapstructure:"padding" validate:"gte=0"`
	InfoColumnWidth   float64 `mapstructure:"info_column_width" validate:"gt=0"`
	InfoLineHeight    float64 `mapstructure:"info_line_height" validate:"gt=0"`
	MetricLineHeight  float64 `mapstructure:"metric_line_height" validate:"gt=0"`
	MetricColumnWidth float64 `mapstructure:"metric_column_width" validate:"gt=0"`
	BarcodeHeight     float64 `mapstructure:"barcode_height" validate:"gt=0"`
}

// DefaultLabelLayout is the reference A4 sheet: one column of seven 190x38mm labels.
func DefaultLabelLayout() LabelLayout {
	return LabelLayout{
		PageWidth:         210,
		PageHeight:        297,
		LabelWidth:        190,
		LabelHeight:       38,
		TopMargin:         15,
		LeftMargin:        10,
		RowsPerPage:       7,
		ColsPerPage:       1,
		Padding:           2,
		InfoColumnWidth:   70,
		InfoLineHeight:    4.5,
		MetricLineHeight:  4,
		MetricColumnWidth: 45,
		BarcodeHeight:     12,
	}
}

// InfoLines is the number of label/value lines in the info column.
const InfoLines = 4

// MetricLines is the number of sales figure lines at the bottom of a label.
const MetricLines = 2

// Validate checks field ranges and that the grid and sub-regions fit.
func (l LabelLayout) Validate() error {
	if err := validator.New().Struct(l); err != nil {
		return fmt.Errorf("invalid label layout: %w", err)
	}
	if l.LeftMargin+float64(l.ColsPerPage)*l.LabelWidth > l.PageWidth {
		return fmt.Errorf("invalid label layout: %d columns of %.1fmm do not fit a %.1fmm page",
			l.ColsPerPage, l.LabelWidth, l.PageWidth)
	}
	if l.TopMargin+float64(l.RowsPerPage)*l.LabelHeight > l.PageHeight {
		return fmt.Errorf("invalid label layout: %d rows of %.1fmm do not fit a %.1fmm page",
			l.RowsPerPage, l.LabelHeight, l.PageHeight)
	}
	if l.InfoColumnWidth+2*l.Padding >= l.LabelWidth {
		return fmt.Errorf("invalid label layout: info column %.1fmm leaves no room for the name", l.InfoColumnWidth)
	}
	if l.topBandHeight()+MetricLines*l.MetricLineHeight+2*l.Padding > l.LabelHeight {
		return fmt.Errorf("invalid label layout: label height %.1fmm is too small for its fields", l.LabelHeight)
	}
	return nil
}

// LabelsPerPage is rows times columns.
func (l LabelLayout) LabelsPerPage() int {
	return l.RowsPerPage * l.ColsPerPage
}

// Placement is where label i sits on the sheet.
type Placement struct {
	Index   int
	Page    int
	Row     int
	Col     int
	NewPage bool // label i starts a new page after the first
	Frame   Rect
}

// Place computes the placement of the zero-based label index i.
func (l LabelLayout) Place(i int) Placement {
	perPage := l.LabelsPerPage()
	within := i % perPage
	p := Placement{
		Index:   i,
		Page:    i / perPage,
		Row:     within / l.ColsPerPage,
		Col:     within % l.ColsPerPage,
		NewPage: i > 0 && within == 0,
	}
	p.Frame = Rect{
		X: l.LeftMargin + float64(p.Col)*l.LabelWidth,
		Y: l.TopMargin + float64(p.Row)*l.LabelHeight,
		W: l.LabelWidth,
		H: l.LabelHeight,
	}
	return p
}

// PageCount returns the number of pages needed for n labels. An empty job
// still produces one page.
func (l LabelLayout) PageCount(n int) int {
	if n <= 0 {
		return 1
	}
	perPage := l.LabelsPerPage()
	return (n + perPage - 1) / perPage
}

// LabelBoxes are the sub-regions of one label.
type LabelBoxes struct {
	Border  Rect
	Name    Rect
	Info    [InfoLines]Rect // date, line, price, SKU
	Metrics [MetricLines]Rect
	Barcode Rect
}

func (l LabelLayout) topBandHeight() float64 {
	return InfoLines * l.InfoLineHeight
}

// Boxes computes the sub-regions of the label at p. The top band holds the
// name box on the left and the info column on the right. Below it the metric
// lines sit bottom-left and the barcode spans the rest of the width,
// vertically centred in the space under the top band.
func (l LabelLayout) Boxes(p Placement) LabelBoxes {
	f := p.Frame
	pad := l.Padding
	band := l.topBandHeight()

	b := LabelBoxes{Border: f}
	b.Name = Rect{
		X: f.X + pad,
		Y: f.Y + pad,
		W: f.W - l.InfoColumnWidth - 2*pad,
		H: band,
	}

	infoX := f.Right() - l.InfoColumnWidth
	for k := 0; k < InfoLines; k++ {
		b.Info[k] = Rect{
			X: infoX,
			Y: f.Y + pad + float64(k)*l.InfoLineHeight,
			W: l.InfoColumnWidth - pad,
			H: l.InfoLineHeight,
		}
	}

	metricsTop := f.Bottom() - pad - MetricLines*l.MetricLineHeight
	for k := 0; k < MetricLines; k++ {
		b.Metrics[k] = Rect{
			X: f.X + pad,
			Y: metricsTop + float64(k)*l.MetricLineHeight,
			W: l.MetricColumnWidth,
			H: l.MetricLineHeight,
		}
	}

	freeTop := f.Y + pad + band
	freeHeight := f.Bottom() - pad - freeTop
	h := l.BarcodeHeight
	if h > freeHeight {
		h = freeHeight
	}
	barcodeX := f.X + 2*pad + l.MetricColumnWidth
	b.Barcode = Rect{
		X: barcodeX,
		Y: freeTop + (freeHeight-h)/2,
		W: f.Right() - pad - barcodeX,
		H: h,
	}
	return b
}

package printing

import (
	"context"
	"fmt"
)

// Canvas is a page-oriented drawing surface measured in millimetres with the
// origin at the top-left of each page.
type Canvas interface {
	AddPage()
	Rect(r Rect, lineWidth float64)
	// Text draws text with its baseline at y
	Text(x, y float64, text string, sizePt float64, bold bool)
	Image(name string, png []byte, r Rect) error
	// Finish produces the PDF. The canvas must not be used afterwards.
	Finish(ctx context.Context) ([]byte, error)
}

// CanvasFactory creates a fresh canvas for one document.
type CanvasFactory func(layout LabelLayout, title string) (Canvas, error)

// Engine names accepted by NewCanvasFactory.
const (
	EngineFpdf     = "fpdf"
	EngineChromedp = "chromedp"
)

// NewCanvasFactory selects the PDF backend. The chromedp engine needs a renderer.
func NewCanvasFactory(engine string, renderer PDFRenderer) (CanvasFactory, error) {
	switch engine {
	case "", EngineFpdf:
		return NewFpdfCanvas, nil
	case EngineChromedp:
		if renderer == nil {
			return nil, NewRenderError(ErrCodeUnknownEngine, "chromedp engine requires a renderer", nil)
		}
		return func(layout LabelLayout, title string) (Canvas, error) {
			return NewHTMLCanvas(layout, title, renderer), nil
		}, nil
	default:
		return nil, NewRenderError(ErrCodeUnknownEngine, fmt.Sprintf("unknown render engine %q", engine), nil)
	}
}

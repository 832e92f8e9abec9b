package printing

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// Font family names registered with the PDF canvases.
const (
	FontFamily = "GoSans"
)

// FontFiles returns the TTF data of the regular and bold faces used on labels.
func FontFiles() (regular, bold []byte) {
	return goregular.TTF, gobold.TTF
}

// OpenTypeMeasurer measures text with the advance widths of the Go fonts, the
// same faces embedded in the rendered PDF.
type OpenTypeMeasurer struct {
	mu      sync.Mutex
	regular *sfnt.Font
	bold    *sfnt.Font
	buf     sfnt.Buffer
}

// NewOpenTypeMeasurer parses the embedded fonts
func NewOpenTypeMeasurer() (*OpenTypeMeasurer, error) {
	regular, err := sfnt.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	bold, err := sfnt.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	return &OpenTypeMeasurer{regular: regular, bold: bold}, nil
}

// Width implements TextMeasurer
func (m *OpenTypeMeasurer) Width(text string, sizePt float64, bold bool) float64 {
	if text == "" || sizePt <= 0 {
		return 0
	}
	f := m.regular
	if bold {
		f = m.bold
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// At ppem == unitsPerEm advances come back in font units.
	upem := int(f.UnitsPerEm())
	ppem := fixed.I(upem)
	var total fixed.Int26_6
	prev := sfnt.GlyphIndex(0)
	for i, r := range text {
		idx, err := f.GlyphIndex(&m.buf, r)
		if err != nil {
			continue
		}
		if i > 0 {
			if kern, err := f.Kern(&m.buf, prev, idx, ppem, font.HintingNone); err == nil {
				total += kern
			}
		}
		adv, err := f.GlyphAdvance(&m.buf, idx, ppem, font.HintingNone)
		if err != nil {
			continue
		}
		total += adv
		prev = idx
	}
	units := float64(total) / 64
	return units / float64(upem) * sizePt * PtToMM
}

var _ TextMeasurer = (*OpenTypeMeasurer)(nil)

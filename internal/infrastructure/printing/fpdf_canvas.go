package printing

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-pdf/fpdf"
)

// FpdfCanvas draws directly into a PDF document.
type FpdfCanvas struct {
	pdf *fpdf.Fpdf
}

// NewFpdfCanvas creates a PDF sized to the layout's page with the label fonts embedded
func NewFpdfCanvas(layout LabelLayout, title string) (Canvas, error) {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: layout.PageWidth, Ht: layout.PageHeight},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(title, true)

	regular, bold := FontFiles()
	pdf.AddUTF8FontFromBytes(FontFamily, "", regular)
	pdf.AddUTF8FontFromBytes(FontFamily, "B", bold)
	if err := pdf.Error(); err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "load label fonts", err)
	}
	return &FpdfCanvas{pdf: pdf}, nil
}

func (c *FpdfCanvas) AddPage() {
	c.pdf.AddPage()
}

func (c *FpdfCanvas) Rect(r Rect, lineWidth float64) {
	c.pdf.SetLineWidth(lineWidth)
	c.pdf.Rect(r.X, r.Y, r.W, r.H, "D")
}

func (c *FpdfCanvas) Text(x, y float64, text string, sizePt float64, bold bool) {
	style := ""
	if bold {
		style = "B"
	}
	c.pdf.SetFont(FontFamily, style, sizePt)
	c.pdf.Text(x, y, text)
}

func (c *FpdfCanvas) Image(name string, png []byte, r Rect) error {
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	c.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))
	c.pdf.ImageOptions(name, r.X, r.Y, r.W, r.H, false, opts, 0, "")
	if err := c.pdf.Error(); err != nil {
		return fmt.Errorf("place image %s: %w", name, err)
	}
	return nil
}

func (c *FpdfCanvas) Finish(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		c.pdf.Close()
		return nil, err
	}
	var buf bytes.Buffer
	if err := c.pdf.Output(&buf); err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "write PDF", err)
	}
	return buf.Bytes(), nil
}

var _ Canvas = (*FpdfCanvas)(nil)

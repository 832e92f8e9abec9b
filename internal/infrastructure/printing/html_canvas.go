package printing

import (
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"strings"
)

// htmlBaselineRatio is where the baseline of a line-height:1 box sits, as a
// fraction of the font size, for the Go fonts.
const htmlBaselineRatio = 0.85

// HTMLCanvas lays the sheet out as absolutely positioned HTML and prints it
// through a PDFRenderer.
type HTMLCanvas struct {
	layout   LabelLayout
	title    string
	renderer PDFRenderer
	body     strings.Builder
	pageOpen bool
}

// NewHTMLCanvas creates a canvas that renders through renderer on Finish
func NewHTMLCanvas(layout LabelLayout, title string, renderer PDFRenderer) *HTMLCanvas {
	return &HTMLCanvas{layout: layout, title: title, renderer: renderer}
}

func (c *HTMLCanvas) AddPage() {
	c.closePage()
	c.body.WriteString(`<div class="sheet">`)
	c.pageOpen = true
}

func (c *HTMLCanvas) closePage() {
	if c.pageOpen {
		c.body.WriteString("</div>\n")
		c.pageOpen = false
	}
}

func (c *HTMLCanvas) Rect(r Rect, lineWidth float64) {
	fmt.Fprintf(&c.body,
		`<div class="box" style="left:%.3fmm;top:%.3fmm;width:%.3fmm;height:%.3fmm;border-width:%.3fmm"></div>`,
		r.X, r.Y, r.W-lineWidth, r.H-lineWidth, lineWidth)
}

func (c *HTMLCanvas) Text(x, y float64, text string, sizePt float64, bold bool) {
	class := "t"
	if bold {
		class = "t b"
	}
	top := y - sizePt*PtToMM*htmlBaselineRatio
	fmt.Fprintf(&c.body, `<span class="%s" style="left:%.3fmm;top:%.3fmm;font-size:%.2fpt">%s</span>`,
		class, x, top, sizePt, html.EscapeString(text))
}

func (c *HTMLCanvas) Image(name string, png []byte, r Rect) error {
	fmt.Fprintf(&c.body, `<img alt="%s" style="left:%.3fmm;top:%.3fmm;width:%.3fmm;height:%.3fmm" src="data:image/png;base64,%s">`,
		html.EscapeString(name), r.X, r.Y, r.W, r.H, base64.StdEncoding.EncodeToString(png))
	return nil
}

// Document returns the complete HTML for the pages drawn so far.
func (c *HTMLCanvas) Document() string {
	c.closePage()
	regular, bold := FontFiles()

	var doc strings.Builder
	doc.WriteString("<!DOCTYPE html><html><head><meta charset=\"UTF-8\">")
	fmt.Fprintf(&doc, "<title>%s</title><style>", html.EscapeString(c.title))
	fmt.Fprintf(&doc, "@font-face{font-family:'%s';font-weight:400;src:url(data:font/ttf;base64,%s)}",
		FontFamily, base64.StdEncoding.EncodeToString(regular))
	fmt.Fprintf(&doc, "@font-face{font-family:'%s';font-weight:700;src:url(data:font/ttf;base64,%s)}",
		FontFamily, base64.StdEncoding.EncodeToString(bold))
	fmt.Fprintf(&doc, "@page{size:%.3fmm %.3fmm;margin:0}", c.layout.PageWidth, c.layout.PageHeight)
	doc.WriteString("html,body{margin:0;padding:0}")
	fmt.Fprintf(&doc, ".sheet{position:relative;overflow:hidden;width:%.3fmm;height:%.3fmm;page-break-after:always}",
		c.layout.PageWidth, c.layout.PageHeight)
	doc.WriteString(".sheet:last-child{page-break-after:auto}")
	doc.WriteString(".box{position:absolute;border-style:solid;border-color:#000}")
	fmt.Fprintf(&doc, ".t{position:absolute;white-space:pre;line-height:1;font-family:'%s';font-weight:400}", FontFamily)
	doc.WriteString(".b{font-weight:700}")
	doc.WriteString("img{position:absolute}")
	doc.WriteString("</style></head><body>\n")
	doc.WriteString(c.body.String())
	doc.WriteString("</body></html>")
	return doc.String()
}

func (c *HTMLCanvas) Finish(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result, err := c.renderer.Render(ctx, &RenderRequest{
		HTML:         c.Document(),
		PageWidthMM:  c.layout.PageWidth,
		PageHeightMM: c.layout.PageHeight,
		Title:        c.title,
	})
	if err != nil {
		return nil, err
	}
	return result.PDFData, nil
}

var _ Canvas = (*HTMLCanvas)(nil)

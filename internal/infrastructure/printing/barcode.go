package printing

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// BarcodeOptions controls the raster produced for a Code 128 symbol.
type BarcodeOptions struct {
	ModuleWidth  int     // pixels per narrow bar
	BarHeight    int     // pixels
	QuietZone    int     // modules of white space either side
	CaptionSize  float64 // points at 72 DPI; 0 disables the human-readable text
	CaptionSpace int     // pixels reserved under the bars for the caption
}

// DefaultBarcodeOptions produce a sharp symbol when scaled into a ~12mm strip.
func DefaultBarcodeOptions() BarcodeOptions {
	return BarcodeOptions{
		ModuleWidth:  3,
		BarHeight:    90,
		QuietZone:    4,
		CaptionSize:  22,
		CaptionSpace: 28,
	}
}

// BarcodeEncoder turns a value into a PNG barcode image.
type BarcodeEncoder struct {
	opts    BarcodeOptions
	mu      sync.Mutex // guards caption, which is not safe for concurrent use
	caption font.Face
}

// NewBarcodeEncoder prepares the caption face
func NewBarcodeEncoder(opts BarcodeOptions) (*BarcodeEncoder, error) {
	enc := &BarcodeEncoder{opts: opts}
	if opts.CaptionSize > 0 {
		f, err := opentype.Parse(goregular.TTF)
		if err != nil {
			return nil, fmt.Errorf("parse caption font: %w", err)
		}
		face, err := opentype.NewFace(f, &opentype.FaceOptions{
			Size:    opts.CaptionSize,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err != nil {
			return nil, fmt.Errorf("create caption face: %w", err)
		}
		enc.caption = face
	}
	return enc, nil
}

// BarcodeImage is an encoded PNG with its pixel dimensions.
type BarcodeImage struct {
	PNG    []byte
	Width  int
	Height int
}

// Encode renders value as Code 128 with a quiet zone and, when enabled, the
// value printed under the bars.
func (e *BarcodeEncoder) Encode(value string) (*BarcodeImage, error) {
	if value == "" {
		return nil, fmt.Errorf("barcode value is empty")
	}
	symbol, err := code128.Encode(value)
	if err != nil {
		return nil, fmt.Errorf("encode %q as code128: %w", value, err)
	}

	modules := symbol.Bounds().Dx()
	scaled, err := barcode.Scale(symbol, modules*e.opts.ModuleWidth, e.opts.BarHeight)
	if err != nil {
		return nil, fmt.Errorf("scale barcode: %w", err)
	}

	quiet := e.opts.QuietZone * e.opts.ModuleWidth
	captionSpace := 0
	if e.caption != nil {
		captionSpace = e.opts.CaptionSpace
	}
	width := scaled.Bounds().Dx() + 2*quiet
	height := scaled.Bounds().Dy() + captionSpace

	img := imaging.New(width, height, color.White)
	img = imaging.Paste(img, scaled, image.Pt(quiet, 0))

	if e.caption != nil {
		e.mu.Lock()
		d := &font.Drawer{Dst: img, Src: image.Black, Face: e.caption}
		textWidth := d.MeasureString(value).Ceil()
		ascent := e.caption.Metrics().Ascent.Ceil()
		x := (width - textWidth) / 2
		if x < 0 {
			x = 0
		}
		d.Dot = fixed.P(x, scaled.Bounds().Dy()+(captionSpace+ascent)/2)
		d.DrawString(value)
		e.mu.Unlock()
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode barcode png: %w", err)
	}
	return &BarcodeImage{PNG: buf.Bytes(), Width: width, Height: height}, nil
}

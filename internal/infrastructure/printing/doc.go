// Package printing renders label print jobs.
//
// This package contains:
// - LabelLayout, the sheet geometry and per-label sub-regions
// - text fitting (single-line shrink and multi-line wrap-and-fit)
// - OpenTypeMeasurer, text widths from the embedded Go fonts
// - BarcodeEncoder, Code 128 symbols with a quiet zone and caption
// - Canvas implementations: FpdfCanvas (native) and HTMLCanvas (printed by ChromedpRenderer)
// - LabelSheetRenderer and the CSV export
//
// Example usage:
//
//	measurer, _ := NewOpenTypeMeasurer()
//	barcodes, _ := NewBarcodeEncoder(DefaultBarcodeOptions())
//	renderer, err := NewLabelSheetRenderer(LabelSheetConfig{
//	    Layout:   DefaultLabelLayout(),
//	    Style:    DefaultLabelStyle(),
//	    Measurer: measurer,
//	    Barcodes: barcodes,
//	    Canvas:   NewFpdfCanvas,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	pdf, err := renderer.RenderPDF(ctx, snapshot)
package printing

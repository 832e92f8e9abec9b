package printing

import (
	"strings"
)

const (
	// PtToMM converts typographic points to millimetres.
	PtToMM = 25.4 / 72
	// LineSpacing is the line height as a multiple of the font size.
	LineSpacing = 1.2
)

// TextMeasurer reports the rendered width of text in millimetres.
type TextMeasurer interface {
	Width(text string, sizePt float64, bold bool) float64
}

// ShrinkOptions configures a single-line "Label: value" fit.
type ShrinkOptions struct {
	LabelSize float64 `mapstructure:"label_size" validate:"gt=0"`
	BaseSize  float64 `mapstructure:"base_size" validate:"gt=0"`
	FloorSize float64 `mapstructure:"floor_size" validate:"gt=0,ltefield=BaseSize"`
	Step      float64 `mapstructure:"step" validate:"gt=0"`
}

// DefaultShrinkOptions are used for the info and metric lines.
func DefaultShrinkOptions() ShrinkOptions {
	return ShrinkOptions{LabelSize: 7, BaseSize: 9, FloorSize: 5, Step: 0.5}
}

// ShrinkToFit returns the largest value font size, stepping down from
// BaseSize to FloorSize, at which the bold label, a space and the value fit in
// maxWidth. If nothing fits the floor size is returned.
func ShrinkToFit(m TextMeasurer, label, value string, maxWidth float64, opts ShrinkOptions) float64 {
	labelWidth := 0.0
	if label != "" {
		labelWidth = m.Width(label, opts.LabelSize, true)
	}
	// Iterate on step counts so float drift never skips the floor.
	steps := int((opts.BaseSize-opts.FloorSize)/opts.Step + 1e-9)
	for k := 0; k <= steps; k++ {
		size := opts.BaseSize - float64(k)*opts.Step
		width := labelWidth + m.Width(" ", size, false) + m.Width(value, size, false)
		if width <= maxWidth {
			return size
		}
	}
	return opts.FloorSize
}

// FitOptions configures the multi-line name fit.
type FitOptions struct {
	MinSize       float64 `mapstructure:"min_size" validate:"gt=0"`
	MaxSize       float64 `mapstructure:"max_size" validate:"gt=0,gtefield=MinSize"`
	MaxLines      int     `mapstructure:"max_lines" validate:"gte=1"`
	Tolerance     float64 `mapstructure:"tolerance" validate:"gt=0"`
	MaxIterations int     `mapstructure:"max_iterations" validate:"gte=1"`
}

// DefaultFitOptions are used for the product name box.
func DefaultFitOptions() FitOptions {
	return FitOptions{MinSize: 6, MaxSize: 16, MaxLines: 3, Tolerance: 0.1, MaxIterations: 32}
}

// FitResult is the outcome of FitText.
type FitResult struct {
	Size       float64
	Lines      []string
	Height     float64
	Overflow   bool // true when the text does not fit even at MinSize
	Iterations int
}

// WrapLines greedily packs words into lines no wider than boxWidth. The first
// word of the first line is measured bold since that is how it is drawn. A
// word wider than the box gets a line of its own.
func WrapLines(m TextMeasurer, text string, sizePt, boxWidth float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]
	for _, w := range words[1:] {
		candidate := current + " " + w
		if lineWidth(m, candidate, sizePt, len(lines) == 0) <= boxWidth {
			current = candidate
			continue
		}
		lines = append(lines, current)
		current = w
	}
	return append(lines, current)
}

// MeasureWrap wraps text at sizePt into boxWidth and returns the lines with
// their total height in millimetres.
func MeasureWrap(m TextMeasurer, text string, sizePt, boxWidth float64) ([]string, float64) {
	lines := WrapLines(m, text, sizePt, boxWidth)
	return lines, LineHeight(sizePt) * float64(len(lines))
}

// LineHeight returns the height of one text line at sizePt in millimetres.
func LineHeight(sizePt float64) float64 {
	return sizePt * PtToMM * LineSpacing
}

// FitText finds the largest font size in [MinSize, MaxSize] at which text
// wraps into at most MaxLines lines, each within the box width, with a total
// height within the box. The search narrows until the bracket is within
// Tolerance or MaxIterations is reached. When even MinSize does not fit, the
// result is MinSize with Overflow set.
func FitText(m TextMeasurer, text string, box Rect, opts FitOptions) FitResult {
	type attempt struct {
		lines  []string
		height float64
		ok     bool
	}
	try := func(size float64) attempt {
		lines, height := MeasureWrap(m, text, size, box.W)
		ok := len(lines) <= opts.MaxLines && height <= box.H
		for i := 0; ok && i < len(lines); i++ {
			ok = lineWidth(m, lines[i], size, i == 0) <= box.W
		}
		return attempt{lines: lines, height: height, ok: ok}
	}

	if a := try(opts.MaxSize); a.ok {
		return FitResult{Size: opts.MaxSize, Lines: a.lines, Height: a.height}
	}
	best := try(opts.MinSize)
	if !best.ok {
		return FitResult{Size: opts.MinSize, Lines: best.lines, Height: best.height, Overflow: true}
	}

	lo, hi := opts.MinSize, opts.MaxSize
	iterations := 0
	for hi-lo > opts.Tolerance && iterations < opts.MaxIterations {
		iterations++
		mid := (lo + hi) / 2
		if a := try(mid); a.ok {
			lo, best = mid, a
		} else {
			hi = mid
		}
	}
	return FitResult{Size: lo, Lines: best.lines, Height: best.height, Iterations: iterations}
}

// lineWidth measures a line, with its first word bold when it is the first line.
func lineWidth(m TextMeasurer, line string, sizePt float64, firstLine bool) float64 {
	if !firstLine {
		return m.Width(line, sizePt, false)
	}
	head, rest, found := strings.Cut(line, " ")
	w := m.Width(head, sizePt, true)
	if found {
		w += m.Width(" "+rest, sizePt, false)
	}
	return w
}

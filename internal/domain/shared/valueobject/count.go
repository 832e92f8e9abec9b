package valueobject

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxCount is the largest figure ParseCount accepts
const MaxCount = math.MaxInt32

var maxCountDecimal = decimal.NewFromInt(MaxCount)

var countNoise = strings.NewReplacer(",", "", " ", "", " ", "", "\t", "")

// ParseCount parses a non-negative whole-number figure that arrives as text,
// e.g. "1,204" or "12.0". Fractions are truncated and negative values are
// clamped to zero. An empty string is zero. Figures above MaxCount are
// rejected as malformed.
func ParseCount(raw string) (int, error) {
	cleaned := countNoise.Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("invalid count %q: %w", raw, err)
	}
	if d.IsNegative() {
		return 0, nil
	}
	if d.Truncate(0).GreaterThan(maxCountDecimal) {
		return 0, fmt.Errorf("count %q exceeds %d", raw, MaxCount)
	}
	return int(d.IntPart()), nil
}

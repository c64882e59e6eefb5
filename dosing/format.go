package dosing

import (
	"math"
	"math/big"
	"strings"

	"github.com/giygas/anesdose/catalog"
)

// formatNumber rounds the exact binary value of v half away from zero to the
// given number of decimals. 1.75 renders "1.8", while 1.45, stored just
// below 1.45, renders "1.4". v must be finite.
func formatNumber(v float64, precision int) string {
	if precision < 0 {
		precision = 0
	}

	x := new(big.Float).SetPrec(2048).SetFloat64(math.Abs(v))
	scale := new(big.Float).SetPrec(2048).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(precision)), nil))
	x.Mul(x, scale)
	x.Add(x, big.NewFloat(0.5))
	n, _ := x.Int(nil)

	digits := n.String()
	if precision > 0 {
		if len(digits) <= precision {
			digits = strings.Repeat("0", precision-len(digits)+1) + digits
		}
		cut := len(digits) - precision
		digits = digits[:cut] + "." + digits[cut:]
	}
	if math.Signbit(v) && n.Sign() != 0 {
		return "-" + digits
	}
	return digits
}

// formatDose renders "<lo>-<hi> <unit> (<note>)". A single value is
// rendered when hi is nil. The note is omitted when empty. A product that
// overflowed is an invalid weight, never a rendered value.
func formatDose(lo float64, hi *float64, r catalog.Range) (string, error) {
	if !finite(lo) || (hi != nil && !finite(*hi)) {
		return "", invalid("weight", "dose is out of range for this weight")
	}

	var b strings.Builder
	b.WriteString(formatNumber(lo, r.Precision))
	if hi != nil {
		b.WriteByte('-')
		b.WriteString(formatNumber(*hi, r.Precision))
	}
	if r.Unit != "" {
		b.WriteByte(' ')
		b.WriteString(r.Unit)
	}
	if r.Note != "" {
		b.WriteString(" (")
		b.WriteString(r.Note)
		b.WriteByte(')')
	}
	return b.String(), nil
}

func finite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}

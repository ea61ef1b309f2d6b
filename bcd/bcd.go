// Package bcd implements the six byte binary coded decimal float
// format the interpreter stores numeric constants in. Byte zero holds
// the sign in bit 7 and an excess-64 exponent in powers of one hundred
// in the low bits; the other five bytes hold ten decimal digits as
// packed BCD pairs, normalized so the first pair is nonzero.
package bcd

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Length is the stored size of a float.
const Length = 6

// Float is a number in the stored format. The zero value is the
// canonical zero, all six bytes clear.
type Float [Length]byte

// ErrBadNumber reports a constant that cannot be parsed.
var ErrBadNumber = errors.New("malformed numeric constant")

// Encode converts v to the stored format. Magnitudes past the format
// saturate to the largest representable value with the same sign,
// magnitudes too small for the exponent underflow to zero, and NaN
// encodes as zero.
func Encode(v float64) Float {
	if v == 0 || math.IsNaN(v) {
		return Float{}
	}
	neg := math.Signbit(v)
	if math.IsInf(v, 0) {
		return saturated(neg)
	}

	m := math.Abs(v)
	exp := 0
	for m >= 100 {
		m /= 100
		exp++
	}
	for m < 1 {
		m *= 100
		exp--
	}

	// round at the tenth significant digit
	n := int64(math.Round(m * 1e8))
	if n >= 1e10 {
		n /= 100
		exp++
	}
	if exp > 63 {
		return saturated(neg)
	}
	if exp < -64 {
		return Float{}
	}

	var f Float
	f[0] = byte(exp + 64)
	if neg {
		f[0] |= 0x80
	}
	div := int64(1e8)
	for i := 1; i < Length; i++ {
		pair := byte(n / div % 100)
		f[i] = pair/10<<4 | pair%10
		div /= 100
	}
	return f
}

// Decode converts a stored float back to a float64. A zeroed mantissa
// decodes to zero whatever the exponent byte says.
func Decode(f Float) float64 {
	mant := int64(0)
	for i := 1; i < Length; i++ {
		mant = mant*100 + int64(f[i]>>4)*10 + int64(f[i]&0x0F)
	}
	if mant == 0 {
		return 0
	}
	exp := int(f[0]&0x7F) - 64
	v := float64(mant) * pow100(exp-4)
	if f[0]&0x80 != 0 {
		v = -v
	}
	return v
}

// Parse reads a numeric constant the way the line editor accepts them:
// plain decimal, E notation, or $ followed by hex digits. Hex
// constants are unsigned.
func Parse(lit string) (Float, error) {
	s := strings.TrimSpace(lit)
	if s == "" {
		return Float{}, ErrBadNumber
	}
	if hex, ok := strings.CutPrefix(s, "$"); ok {
		u, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return Float{}, fmt.Errorf("%w: %q", ErrBadNumber, lit)
		}
		return Encode(float64(u)), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Float{}, fmt.Errorf("%w: %q", ErrBadNumber, lit)
	}
	return Encode(v), nil
}

// IsZero reports whether f is the canonical zero pattern.
func (f Float) IsZero() bool {
	return f == Float{}
}

// Negative reports the sign bit.
func (f Float) Negative() bool {
	return f[0]&0x80 != 0
}

// Exponent returns the unbiased exponent in powers of one hundred.
func (f Float) Exponent() int {
	return int(f[0]&0x7F) - 64
}

// AsSmallInt reports whether f holds an integer that fits a single
// byte, which is what the short constant form can carry.
func (f Float) AsSmallInt() (byte, bool) {
	v := Decode(f)
	if v != math.Trunc(v) || v < 0 || v > 255 {
		return 0, false
	}
	return byte(v), true
}

// String renders f the way LIST prints numbers: integers below ten
// digits come out bare, everything else uses up to ten significant
// digits with an uppercase E exponent when positional form would not
// fit.
func (f Float) String() string {
	return FormatNumber(Decode(f))
}

// FormatNumber renders v in listing form.
func FormatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e10 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strconv.FormatFloat(v, 'G', 10, 64)
}

func saturated(neg bool) Float {
	f := Float{0x7F, 0x99, 0x99, 0x99, 0x99, 0x99}
	if neg {
		f[0] |= 0x80
	}
	return f
}

func pow100(exp int) float64 {
	return math.Pow(10, float64(2*exp))
}

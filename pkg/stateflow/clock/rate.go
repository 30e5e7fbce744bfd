package clock

import (
	"math"
	"strconv"
)

// rateScale is 2^2: Rate carries two fractional bits.
const rateScale = 4

// Rate is the speed of a clock relative to real time, in signed fixed
// point with two fractional bits. NewRate(1) == 4, NewRate(0.25) == 1,
// NewRate(-2) == -8. Positive runs forward, negative backward, zero is
// stopped.
type Rate int16

// Common rates.
const (
	RateStopped  Rate = 0
	RateRealTime Rate = rateScale
)

// NewRate converts a multiplier to a Rate, rounding to the nearest
// quarter and saturating at the int16 range.
func NewRate(f float64) Rate {
	v := math.Round(f * rateScale)
	switch {
	case v > math.MaxInt16:
		return Rate(math.MaxInt16)
	case v < math.MinInt16:
		return Rate(math.MinInt16)
	}
	return Rate(v)
}

// Float returns the rate as a multiplier.
func (r Rate) Float() float64 {
	return float64(r) / rateScale
}

// String formats the rate as a multiplier, e.g. "2.5x".
func (r Rate) String() string {
	return strconv.FormatFloat(r.Float(), 'f', -1, 64) + "x"
}

// abs returns |r| as an unsigned value; -32768 is representable there.
func (r Rate) abs() uint64 {
	if r < 0 {
		return uint64(-int64(r))
	}
	return uint64(r)
}

package clock

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScaledSeconds_Extremes(t *testing.T) {
	long := time.Duration(math.MaxInt64)
	want := (int64(long) / (int64(time.Second) * rateScale)) * math.MaxInt16
	got := scaledSeconds(long, Rate(math.MaxInt16))
	assert.Positive(t, got)
	assert.InDelta(t, want, got, math.MaxInt16)

	assert.Negative(t, scaledSeconds(long, Rate(math.MinInt16)))
	assert.Zero(t, scaledSeconds(long, 0))
}

func TestRateAbs(t *testing.T) {
	assert.Equal(t, uint64(32768), Rate(math.MinInt16).abs())
	assert.Equal(t, uint64(4), Rate(-4).abs())
	assert.Equal(t, uint64(4), Rate(4).abs())
}

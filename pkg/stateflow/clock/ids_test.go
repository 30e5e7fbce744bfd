package clock_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/randalmurphal/stateflow/pkg/stateflow/clock"
	"github.com/randalmurphal/stateflow/pkg/stateflow/event"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClockIDsAreAligned(t *testing.T) {
	for _, id := range []event.ID{
		clock.DefaultFastClock,
		clock.DefaultRealTimeClock,
		clock.AlternateClock1,
		clock.AlternateClock2,
	} {
		assert.Zero(t, uint64(id)&clock.EventMask, "%s", id)
	}
}

func TestEventHelpers(t *testing.T) {
	at := time.Date(2024, time.December, 31, 23, 59, 0, 0, time.UTC)

	assert.Equal(t, event.ID(0x010100000100173B), clock.TimeEvent(clock.DefaultFastClock, at))
	assert.Equal(t, event.ID(0x0101000001002C1F), clock.DateEvent(clock.DefaultFastClock, at))
	assert.Equal(t, event.ID(0x01010000010037E8), clock.YearEvent(clock.DefaultFastClock, at))
	assert.Equal(t, event.ID(0x0101000001012C1F), clock.DateEvent(clock.DefaultRealTimeClock, at))
}

func TestYearEventClamps(t *testing.T) {
	far := time.Date(5000, time.January, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, event.ID(0x0101000001003FFF), clock.YearEvent(clock.DefaultFastClock, far))
}

package clock

import (
	"time"

	"github.com/randalmurphal/stateflow/pkg/stateflow/event"
)

// Well-known broadcast clock identifiers. A clock owns the 65536 event
// IDs starting at its identifier.
const (
	DefaultFastClock     event.ID = 0x0101000001000000
	DefaultRealTimeClock event.ID = 0x0101000001010000
	AlternateClock1      event.ID = 0x0101000001020000
	AlternateClock2      event.ID = 0x0101000001030000
)

// EventMask covers the event block owned by one clock.
const EventMask event.Mask = 0xFFFF

// Low 16 bits of clock events.
const (
	timeEventBase = 0x0000 // hour<<8 | minute
	dateEventBase = 0x2000 // month<<8 | day
	yearEventBase = 0x3000 // year
)

// TimeEvent returns the event reporting the time of day of t on clock id.
func TimeEvent(id event.ID, t time.Time) event.ID {
	return id | event.ID(timeEventBase|t.Hour()<<8|t.Minute())
}

// DateEvent returns the event reporting the date of t on clock id.
func DateEvent(id event.ID, t time.Time) event.ID {
	return id | event.ID(dateEventBase|int(t.Month())<<8|t.Day())
}

// YearEvent returns the event reporting the year of t on clock id.
// Years outside 0..4095 do not fit and are clamped.
func YearEvent(id event.ID, t time.Time) event.ID {
	y := min(max(t.Year(), 0), 0xFFF)
	return id | event.ID(yearEventBase|y)
}

package alarm

import (
	"time"

	"github.com/randalmurphal/stateflow/pkg/stateflow"
	"github.com/randalmurphal/stateflow/pkg/stateflow/clock"
)

// secondsPerDay is the re-arm step of a DateAlarm.
const secondsPerDay = 24 * 60 * 60

// DateAlarm fires at each date rollover of its clock: the next midnight
// when running forward, the previous one when running backward. It re-arms
// itself one day further after every firing and re-targets the rollover
// whenever the clock changes.
type DateAlarm struct {
	*Alarm
	user func()
}

// NewDate creates a date alarm on clk and arms it for the coming rollover.
func NewDate(exec *stateflow.Executor, clk *clock.Clock, callback func(), opts ...Option) *DateAlarm {
	d := &DateAlarm{user: callback}
	d.Alarm = newAlarm(exec, clk, d.rollover, opts)
	d.attach(d.clockChanged)
	exec.Post(d.clockChanged)
	return d
}

// rollover runs the user callback and arms the next day, one day past the
// deadline that just fired.
func (d *DateAlarm) rollover() {
	deadline, _ := d.Expires()
	if d.user != nil {
		d.user()
	}
	switch rate := d.clock.Rate(); {
	case !d.clock.IsRunning():
	case rate > 0:
		d.Set(deadline + secondsPerDay)
	case rate < 0:
		d.Set(deadline - secondsPerDay)
	}
}

// clockChanged re-targets the alarm at the rollover ahead in the clock's
// direction, then wakes the flow.
func (d *DateAlarm) clockChanged() {
	now, rate := d.clock.TimeAndRate()
	if next, ok := nextRollover(now, rate); ok {
		d.Set(next)
	}
	d.wakeup()
}

// nextRollover returns the midnight after now (rate > 0) or the midnight
// at or before now (rate < 0), from the UTC calendar breakdown of now. A
// stopped clock has none.
func nextRollover(now int64, rate clock.Rate) (int64, bool) {
	tm := time.Unix(now, 0).UTC()
	switch {
	case rate > 0:
		return now + int64(60-tm.Second()) + 60*int64(59-tm.Minute()) + 3600*int64(23-tm.Hour()), true
	case rate < 0:
		return now - int64(tm.Second()+60*tm.Minute()+3600*tm.Hour()), true
	default:
		return 0, false
	}
}

// Package alarm implements alarms against a virtual broadcast clock.
//
// An Alarm fires its callback once when the clock reaches a deadline. The
// deadline is in clock seconds; the alarm converts the remaining gap into
// real time using the clock's rate and sleeps on an executor timer. Any
// change to the clock wakes the alarm so it re-evaluates against the new
// time and rate.
//
//	a := alarm.New(exec, clk, func() { log.Print("lights on") })
//	a.SetPeriod(30 * 60) // thirty clock minutes from now
//
// DateAlarm fires at every midnight of the clock (or every midnight
// passed, when the clock runs backward) and re-arms itself.
package alarm

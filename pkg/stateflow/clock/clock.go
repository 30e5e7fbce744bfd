package clock

import (
	"log/slog"
	"math"
	"math/bits"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/randalmurphal/stateflow/pkg/stateflow/event"
	"github.com/randalmurphal/stateflow/pkg/stateflow/observability"
)

// Clock is a virtual broadcast clock. Its time is whole seconds since the
// Unix epoch and advances at Rate times real time while running. Time can
// jump with Set and the rate can change at any moment.
//
// Internally the clock keeps an anchor: the virtual time at a wall-clock
// instant. Every change re-anchors at the current virtual time, so a rate
// change never makes the time jump.
//
// All methods are safe for concurrent use. Subscribers are called after
// every change of time, rate or running state, on the goroutine that made
// the change, after the clock's lock is released.
type Clock struct {
	id     event.ID
	name   string
	wall   clockwork.Clock
	logger *slog.Logger

	mu         sync.Mutex
	anchorTime int64
	anchorWall time.Time
	rate       Rate
	running    bool
	subs       []subscriber
	nextSub    uint64
}

type subscriber struct {
	id uint64
	fn func()
}

// Option configures a Clock.
type Option func(*Clock)

// WithWallClock sets the real-time base.
// Default: clockwork.NewRealClock()
func WithWallClock(wall clockwork.Clock) Option {
	return func(c *Clock) {
		if wall != nil {
			c.wall = wall
		}
	}
}

// WithStartTime sets the initial virtual time in seconds since the epoch.
// Default: the wall clock's current time.
func WithStartTime(t int64) Option {
	return func(c *Clock) {
		c.anchorTime = t
	}
}

// WithRate sets the initial rate.
// Default: RateRealTime
func WithRate(r Rate) Option {
	return func(c *Clock) {
		c.rate = r
	}
}

// WithRunning sets whether the clock starts running.
// Default: true
func WithRunning(running bool) Option {
	return func(c *Clock) {
		c.running = running
	}
}

// WithLogger sets the logger for clock updates.
// Default: slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return func(c *Clock) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a clock identified by id.
func New(id event.ID, opts ...Option) *Clock {
	c := &Clock{
		id:         id,
		name:       id.String(),
		wall:       clockwork.NewRealClock(),
		logger:     slog.Default(),
		anchorTime: math.MinInt64,
		rate:       RateRealTime,
		running:    true,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.anchorWall = c.wall.Now()
	if c.anchorTime == math.MinInt64 {
		c.anchorTime = c.anchorWall.Unix()
	}
	return c
}

// ID returns the clock identifier.
func (c *Clock) ID() event.ID {
	return c.id
}

// TimeAndRate returns the current time and the effective rate, which is
// zero while the clock is stopped.
func (c *Clock) TimeAndRate() (int64, Rate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return c.anchorTime, 0
	}
	return c.nowLocked(), c.rate
}

// Time returns the current virtual time in seconds since the epoch.
func (c *Clock) Time() int64 {
	t, _ := c.TimeAndRate()
	return t
}

// Rate returns the configured rate. It is kept while the clock is stopped.
func (c *Clock) Rate() Rate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rate
}

// IsRunning reports whether the clock is running.
func (c *Clock) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Calendar returns the current virtual time as a UTC calendar value.
func (c *Clock) Calendar() time.Time {
	return time.Unix(c.Time(), 0).UTC()
}

// Set jumps to t.
func (c *Clock) Set(t int64) {
	c.update(func() {
		c.anchorTime = t
		c.anchorWall = c.wall.Now()
	})
}

// SetRate changes the rate from now on.
func (c *Clock) SetRate(r Rate) {
	c.update(func() {
		c.reanchorLocked()
		c.rate = r
	})
}

// Start resumes the clock from its current time.
func (c *Clock) Start() {
	c.update(func() {
		c.anchorWall = c.wall.Now()
		c.running = true
	})
}

// Stop freezes the clock at its current time.
func (c *Clock) Stop() {
	c.update(func() {
		c.reanchorLocked()
		c.running = false
	})
}

// Subscribe registers fn to run after every change. The returned function
// removes the subscription; it is safe to call more than once.
func (c *Clock) Subscribe(fn func()) (cancel func()) {
	c.mu.Lock()
	c.nextSub++
	id := c.nextSub
	c.subs = append(c.subs, subscriber{id: id, fn: fn})
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			for i, s := range c.subs {
				if s.id == id {
					c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// RateSecToRealPeriod converts a span of clock seconds into the real time
// it takes at the current rate, rounded up to the nanosecond. The sign of
// sec is ignored. It returns 0 when the rate is zero and saturates at the
// largest Duration.
func (c *Clock) RateSecToRealPeriod(sec int64) time.Duration {
	return realPeriod(sec, c.Rate())
}

func realPeriod(sec int64, r Rate) time.Duration {
	if r == 0 || sec == 0 {
		return 0
	}
	mag := uint64(sec)
	if sec < 0 {
		mag = uint64(-sec)
	}
	// |sec| * 1e9 * rateScale / |rate|, rounded up.
	hi, lo := bits.Mul64(mag, uint64(time.Second)*rateScale)
	den := r.abs()
	if hi >= den {
		return time.Duration(math.MaxInt64)
	}
	q, rem := bits.Div64(hi, lo, den)
	if rem != 0 {
		q++
	}
	if q > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(q)
}

// nowLocked computes the running clock's time. Caller holds c.mu.
func (c *Clock) nowLocked() int64 {
	elapsed := c.wall.Since(c.anchorWall)
	if elapsed <= 0 {
		return c.anchorTime
	}
	return c.anchorTime + scaledSeconds(elapsed, c.rate)
}

// scaledSeconds returns elapsed*rate in whole clock seconds, truncated
// toward zero, without overflowing for any elapsed and rate.
func scaledSeconds(elapsed time.Duration, r Rate) int64 {
	const unit = int64(time.Second) * rateScale
	n := int64(elapsed)
	mag := int64(r.abs())
	delta := (n/unit)*mag + (n%unit)*mag/unit
	if r < 0 {
		return -delta
	}
	return delta
}

// reanchorLocked moves the anchor to the current instant. Caller holds c.mu.
func (c *Clock) reanchorLocked() {
	if c.running {
		c.anchorTime = c.nowLocked()
	}
	c.anchorWall = c.wall.Now()
}

// update applies change under the lock and then notifies subscribers.
func (c *Clock) update(change func()) {
	c.mu.Lock()
	change()
	now := c.anchorTime
	if c.running {
		now = c.nowLocked()
	}
	rate, running := c.rate, c.running
	subs := make([]func(), len(c.subs))
	for i, s := range c.subs {
		subs[i] = s.fn
	}
	c.mu.Unlock()

	observability.LogClockUpdate(c.logger, c.name, now, rate.Float(), running)
	for _, fn := range subs {
		fn()
	}
}

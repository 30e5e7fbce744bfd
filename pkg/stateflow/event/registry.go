package event

import (
	"context"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/randalmurphal/stateflow/pkg/stateflow"
	"github.com/randalmurphal/stateflow/pkg/stateflow/observability"
	"go.opentelemetry.io/otel/attribute"
)

// registration is one (handler, block) pair.
type registration struct {
	handler Handler
	event   ID
	mask    Mask
}

// Registry maps aligned blocks of event IDs to handlers.
//
// A node creates one Registry at startup and passes it to every component
// that registers or dispatches. Registration order is kept; dispatch visits
// matches in that order.
//
// The table is guarded by a RWMutex, and Dispatch snapshots the matches
// before calling any handler, so a handler may register or unregister
// without deadlocking. Unregistering a handler that an in-flight dispatch
// has already selected does not stop that call.
type Registry struct {
	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager

	mu      sync.RWMutex
	entries []registration
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger for dispatch logs.
// Default: slog.Default()
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics sets the recorder for dispatch metrics.
// Default: observability.NoopMetrics{}
func WithMetrics(m observability.MetricsRecorder) RegistryOption {
	return func(r *Registry) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithSpanManager sets the span manager wrapping each dispatch.
// Default: observability.NoopSpanManager{}
func WithSpanManager(s observability.SpanManager) RegistryOption {
	return func(r *Registry) {
		if s != nil {
			r.spans = s
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		logger:  slog.Default(),
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds h for the block [event, event+mask]. The mask must be 0,
// 2^k-1 or MaskGlobal, and event must be aligned to the block. Violations
// panic with *RegistrationError.
//
// Handlers are identified by ==, so the dynamic type of h must be
// comparable. Register pointers to handler structs.
func (r *Registry) Register(h Handler, event ID, mask Mask) {
	if h == nil {
		invalidRegistration("register", event, mask, "nil handler")
	}
	if !reflect.TypeOf(h).Comparable() {
		invalidRegistration("register", event, mask, "handler type is not comparable")
	}
	checkBlock("register", event, mask)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, registration{handler: h, event: event, mask: mask})
}

// Unregister removes the registration made with the same handler, event
// and mask. Removing a pair that is not registered is a no-op.
func (r *Registry) Unregister(h Handler, event ID, mask Mask) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if e.handler == h && e.event == event && e.mask == mask {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return
		}
	}
}

// Len returns the number of registrations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Handlers returns the handlers a dispatch of report under cat would
// invoke, in invocation order.
//
// A registration matches when its block overlaps [report.Event,
// report.Event+report.Mask]. For single-event categories the report mask
// is 0, so that is plain containment. A report with MaskGlobal overlaps
// every block; in that case each handler appears once, at its first
// registration.
func (r *Registry) Handlers(cat Category, report *Report) []Handler {
	if !cat.Valid() {
		panic(&stateflow.ContractError{Component: "registry", Msg: "unknown dispatch category " + cat.String()})
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		out  []Handler
		seen map[Handler]struct{}
	)
	if report.IsGlobal() {
		seen = make(map[Handler]struct{}, len(r.entries))
	}
	for _, e := range r.entries {
		if !overlaps(e.event, e.mask, report.Event, report.Mask) {
			continue
		}
		if seen != nil {
			if _, dup := seen[e.handler]; dup {
				continue
			}
			seen[e.handler] = struct{}{}
		}
		out = append(out, e.handler)
	}
	return out
}

// Dispatch invokes every matching handler's cat operation with report and
// a ticket on a shared barrier. done runs exactly once, when the last
// ticket is released; with no matches it runs before Dispatch returns.
// Dispatch returns the number of handlers invoked.
//
// Handlers run synchronously on the caller's goroutine. A handler that
// keeps its ticket delays done until it releases it.
func (r *Registry) Dispatch(ctx context.Context, cat Category, report *Report, done func()) int {
	matches := r.Handlers(cat, report)
	name := cat.String()
	eventStr := report.Event.String()

	spanCtx, span := r.spans.StartDispatchSpan(ctx, name, eventStr)
	r.spans.AddSpanEvent(spanCtx, "handlers.matched", attribute.Int("handlers", len(matches)))
	observability.LogDispatch(r.logger, name, eventStr, len(matches))
	start := time.Now()

	barrier := stateflow.NewBarrier(func() {
		elapsed := time.Since(start)
		r.metrics.RecordDispatch(ctx, name, len(matches), elapsed)
		observability.LogDispatchComplete(r.logger, name, eventStr, float64(elapsed.Microseconds())/1000)
		r.spans.EndSpanWithError(span, nil)
		if done != nil {
			done()
		}
	}, 1)

	for _, h := range matches {
		invoke(h, cat, report, barrier.Ticket())
	}
	barrier.Done()
	return len(matches)
}

// AlignMask computes the smallest aligned block covering the size IDs that
// start at *event. It rounds *event down to the block start and returns
// the block mask. size must be positive.
//
//	size 1    -> mask 0
//	size 5    -> mask 7
//	size 1024 -> mask 1023 (when *event is 1024-aligned)
//
// A range that straddles a block boundary gets a larger block.
func AlignMask(event *ID, size uint64) Mask {
	if size == 0 {
		invalidRegistration("align", *event, 0, "empty range")
	}
	first := uint64(*event)
	last := first + size - 1
	if last < first {
		invalidRegistration("align", *event, 0, "range overflows the id space")
	}

	var mask Mask
	for first != last {
		first >>= 1
		last >>= 1
		mask = mask<<1 | 1
	}
	*event &^= ID(mask)
	return mask
}

// checkBlock panics unless mask is 2^k-1 and event is aligned to it.
func checkBlock(op string, event ID, mask Mask) {
	if mask&(mask+1) != 0 {
		invalidRegistration(op, event, mask, "mask is not of the form 2^k-1")
	}
	if uint64(event)&mask != 0 {
		invalidRegistration(op, event, mask, "event not aligned to mask")
	}
}

// overlaps reports whether two aligned blocks share any ID. Aligned
// power-of-two blocks either nest or are disjoint, so they overlap exactly
// when they agree above the larger mask.
func overlaps(e1 ID, m1 Mask, e2 ID, m2 Mask) bool {
	m := m1 | m2
	return uint64(e1)&^m == uint64(e2)&^m
}

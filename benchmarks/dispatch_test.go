package benchmarks

import (
	"context"
	"testing"

	"github.com/randalmurphal/stateflow/pkg/stateflow/event"
)

const base event.ID = 0x0501010122000000

type nopHandler struct {
	event.BaseHandler
}

func buildRegistry(exact, ranged, global int) *event.Registry {
	reg := event.NewRegistry(event.WithLogger(quietLogger()))
	for i := 0; i < exact; i++ {
		reg.Register(&nopHandler{}, base+event.ID(i), event.MaskExact)
	}
	for i := 0; i < ranged; i++ {
		reg.Register(&nopHandler{}, base, 0xFF)
	}
	for i := 0; i < global; i++ {
		reg.Register(&nopHandler{}, 0, event.MaskGlobal)
	}
	return reg
}

func benchmarkDispatch(b *testing.B, reg *event.Registry) {
	ctx := context.Background()
	report := &event.Report{Event: base}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		reg.Dispatch(ctx, event.CategoryReport, report, nil)
	}
}

// BenchmarkDispatch_Exact_1 dispatches to a single exact handler.
func BenchmarkDispatch_Exact_1(b *testing.B) {
	benchmarkDispatch(b, buildRegistry(1, 0, 0))
}

// BenchmarkDispatch_Exact_100 dispatches among 100 exact registrations.
func BenchmarkDispatch_Exact_100(b *testing.B) {
	benchmarkDispatch(b, buildRegistry(100, 0, 0))
}

// BenchmarkDispatch_Mixed dispatches to exact, range and global handlers.
func BenchmarkDispatch_Mixed(b *testing.B) {
	benchmarkDispatch(b, buildRegistry(10, 10, 10))
}

// BenchmarkDispatch_Unmatched dispatches an event nobody registered.
func BenchmarkDispatch_Unmatched(b *testing.B) {
	reg := buildRegistry(100, 0, 0)
	ctx := context.Background()
	report := &event.Report{Event: 0x0909090909090909}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		reg.Dispatch(ctx, event.CategoryReport, report, nil)
	}
}

// BenchmarkAlignMask_1024 aligns an unaligned 1024-id range.
func BenchmarkAlignMask_1024(b *testing.B) {
	for i := 0; i < b.N; i++ {
		id := base + 0x411
		_ = event.AlignMask(&id, 1024)
	}
}

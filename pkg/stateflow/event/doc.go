// Package event implements the event registry and dispatch protocol of a
// control-network node.
//
// Components register a Handler for an aligned block of event IDs. When
// traffic arrives, the protocol layer builds a Report and asks the Registry
// to dispatch it under one of the dispatch categories. Every handler whose
// block matches is invoked with the report and a completion ticket; when the
// last ticket is released the caller is notified once.
//
// # Blocks and masks
//
// A registration is a pair (event, mask). The mask is 0 for a single ID or
// 2^k-1 for a block of 2^k consecutive IDs starting at event, which must be
// aligned to the block size. MaskGlobal registers for every event.
//
//	var start event.ID = 0x0501010122000005
//	mask := event.AlignMask(&start, 5) // start = ...00, mask = 7
//	registry.Register(h, start, mask)
//
// # Handlers
//
// Handler has one method per dispatch category. Embed BaseHandler and
// override only the categories the component cares about; the defaults
// release the ticket immediately.
//
//	type producer struct {
//	    event.BaseHandler
//	    id event.ID
//	}
//
//	func (p *producer) HandleIdentifyProducer(r *event.Report, done stateflow.Notifiable) {
//	    defer done.Done()
//	    p.announce()
//	}
//
// # Dispatch
//
// Registry.Dispatch runs every matching handler synchronously on the
// caller's goroutine, in registration order. Handlers that finish their work
// later keep the ticket and release it when they are done. Dispatcher wraps
// the registry in a state flow that takes one report at a time and waits
// for its completion before taking the next.
package event

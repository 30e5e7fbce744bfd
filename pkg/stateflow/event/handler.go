package event

import "github.com/randalmurphal/stateflow/pkg/stateflow"

// Handler receives dispatched protocol operations. Each method gets the
// report and a completion ticket, and must call done.Done() exactly once,
// either before returning or later from any goroutine.
//
// Handlers are compared by identity for Unregister, so implementations
// should be pointer types.
type Handler interface {
	// HandleEventReport: an event was observed on the bus.
	HandleEventReport(r *Report, done stateflow.Notifiable)
	// HandleConsumerIdentified: a node announced it consumes r.Event.
	HandleConsumerIdentified(r *Report, done stateflow.Notifiable)
	// HandleConsumerRangeIdentified: a node announced it consumes a block.
	HandleConsumerRangeIdentified(r *Report, done stateflow.Notifiable)
	// HandleProducerIdentified: a node announced it produces r.Event.
	HandleProducerIdentified(r *Report, done stateflow.Notifiable)
	// HandleProducerRangeIdentified: a node announced it produces a block.
	HandleProducerRangeIdentified(r *Report, done stateflow.Notifiable)
	// HandleIdentifyGlobal: announce every event this handler owns.
	HandleIdentifyGlobal(r *Report, done stateflow.Notifiable)
	// HandleIdentifyConsumer: announce whether r.Event is consumed here.
	HandleIdentifyConsumer(r *Report, done stateflow.Notifiable)
	// HandleIdentifyProducer: announce whether r.Event is produced here.
	HandleIdentifyProducer(r *Report, done stateflow.Notifiable)
}

// BaseHandler completes every operation immediately. Embed it and
// override the categories of interest.
type BaseHandler struct{}

var _ Handler = BaseHandler{}

func (BaseHandler) HandleEventReport(_ *Report, done stateflow.Notifiable)             { done.Done() }
func (BaseHandler) HandleConsumerIdentified(_ *Report, done stateflow.Notifiable)      { done.Done() }
func (BaseHandler) HandleConsumerRangeIdentified(_ *Report, done stateflow.Notifiable) { done.Done() }
func (BaseHandler) HandleProducerIdentified(_ *Report, done stateflow.Notifiable)      { done.Done() }
func (BaseHandler) HandleProducerRangeIdentified(_ *Report, done stateflow.Notifiable) { done.Done() }
func (BaseHandler) HandleIdentifyGlobal(_ *Report, done stateflow.Notifiable)          { done.Done() }
func (BaseHandler) HandleIdentifyConsumer(_ *Report, done stateflow.Notifiable)        { done.Done() }
func (BaseHandler) HandleIdentifyProducer(_ *Report, done stateflow.Notifiable)        { done.Done() }

// invoke calls the operation of h selected by cat.
func invoke(h Handler, cat Category, r *Report, done stateflow.Notifiable) {
	switch cat {
	case CategoryReport:
		h.HandleEventReport(r, done)
	case CategoryConsumerIdentified:
		h.HandleConsumerIdentified(r, done)
	case CategoryConsumerRangeIdentified:
		h.HandleConsumerRangeIdentified(r, done)
	case CategoryProducerIdentified:
		h.HandleProducerIdentified(r, done)
	case CategoryProducerRangeIdentified:
		h.HandleProducerRangeIdentified(r, done)
	case CategoryIdentifyGlobal:
		h.HandleIdentifyGlobal(r, done)
	case CategoryIdentifyConsumer:
		h.HandleIdentifyConsumer(r, done)
	case CategoryIdentifyProducer:
		h.HandleIdentifyProducer(r, done)
	}
}

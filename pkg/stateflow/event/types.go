package event

import "fmt"

// ID is a 64-bit event identifier.
type ID uint64

// String formats the ID as eight dotted hex bytes, most significant first.
func (id ID) String() string {
	return fmt.Sprintf("%02X.%02X.%02X.%02X.%02X.%02X.%02X.%02X",
		byte(id>>56), byte(id>>48), byte(id>>40), byte(id>>32),
		byte(id>>24), byte(id>>16), byte(id>>8), byte(id))
}

// Mask selects a block of IDs: 0 for a single ID, 2^k-1 for 2^k IDs.
type Mask = uint64

// Well-known masks.
const (
	// MaskExact registers a single event ID.
	MaskExact Mask = 0
	// MaskGlobal registers for every event ID. In a Report it marks an
	// identify request that is not about any particular event.
	MaskGlobal Mask = ^Mask(0)
)

// NodeID is a 48-bit node identifier stored in the low bits. Zero means
// no node.
type NodeID uint64

// String formats the node ID as six dotted hex bytes.
func (n NodeID) String() string {
	return fmt.Sprintf("%02X.%02X.%02X.%02X.%02X.%02X",
		byte(n>>40), byte(n>>32), byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
}

// State is the validity a producer or consumer reports for an event.
type State uint8

// Event states.
const (
	StateValid State = iota
	StateInvalid
	StateUnknown
	StateReserved
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateValid:
		return "valid"
	case StateInvalid:
		return "invalid"
	case StateUnknown:
		return "unknown"
	case StateReserved:
		return "reserved"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Report carries one protocol operation to the handlers.
//
// Which fields are meaningful depends on the Category it is dispatched
// under:
//
//	CategoryReport                  Event, Mask=0, Source
//	CategoryConsumerIdentified      Event, Mask=0, Source, State
//	CategoryConsumerRangeIdentified Event, Mask!=0, Source
//	CategoryProducerIdentified      Event, Mask=0, Source, State
//	CategoryProducerRangeIdentified Event, Mask!=0, Source
//	CategoryIdentify*               Event (or Mask=MaskGlobal for all), Dest
//
// Handlers must not read fields outside their category.
type Report struct {
	Event  ID
	Mask   Mask
	Source NodeID
	// Dest is the addressed node of an identify request, zero if broadcast.
	Dest  NodeID
	State State
}

// IsGlobal reports whether the report addresses every event.
func (r *Report) IsGlobal() bool {
	return r.Mask == MaskGlobal
}

// Category selects the handler operation a dispatch invokes.
type Category uint8

// Dispatch categories.
const (
	CategoryReport Category = iota
	CategoryConsumerIdentified
	CategoryConsumerRangeIdentified
	CategoryProducerIdentified
	CategoryProducerRangeIdentified
	CategoryIdentifyGlobal
	CategoryIdentifyConsumer
	CategoryIdentifyProducer
)

var categoryNames = [...]string{
	CategoryReport:                  "event_report",
	CategoryConsumerIdentified:      "consumer_identified",
	CategoryConsumerRangeIdentified: "consumer_range_identified",
	CategoryProducerIdentified:      "producer_identified",
	CategoryProducerRangeIdentified: "producer_range_identified",
	CategoryIdentifyGlobal:          "identify_global",
	CategoryIdentifyConsumer:        "identify_consumer",
	CategoryIdentifyProducer:        "identify_producer",
}

// String returns the category name used in logs and metrics.
func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return fmt.Sprintf("category(%d)", uint8(c))
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return int(c) < len(categoryNames)
}

package event

import "fmt"

// RegistrationError is the panic value for a malformed registration:
// a mask that is not 2^k-1, an event not aligned to its block, a nil
// handler, or an empty AlignMask range.
type RegistrationError struct {
	Op    string
	Event ID
	Mask  Mask
	Msg   string
}

// Error implements the error interface.
func (e *RegistrationError) Error() string {
	return fmt.Sprintf("event: %s %s/%#x: %s", e.Op, e.Event, e.Mask, e.Msg)
}

func invalidRegistration(op string, event ID, mask Mask, msg string) {
	panic(&RegistrationError{Op: op, Event: event, Mask: mask, Msg: msg})
}

package webhookrepo

import "github.com/prabin319/BookByte-sub000/model"

// Dispatcher forwards a stored notification to an external delivery
// channel. Delivery is advisory: callers treat a failed Deliver as a
// logged warning, never as a reason to roll anything back.
type Dispatcher interface {
	Deliver(n model.Notification) error
}

// NewNoop is the dispatcher used when no webhook is configured.
func NewNoop() Dispatcher { return noop{} }

type noop struct{}

func (noop) Deliver(model.Notification) error { return nil }

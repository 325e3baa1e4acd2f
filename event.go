package hsm

import "github.com/stateforward/ghsm/muid"

// Event is a trigger dispatched to the current state's handler. The
// library treats Name/Data as opaque application data; how a concrete
// state type interprets Data is entirely up to application code (see the
// package doc's Top-interface contract).
//
// Event binds roughly to the C++ source's `Event(&Top::handler, args...)`
// idea, minus the bound-member-function pointer: Go state types get the
// whole Event and switch on Name themselves, which is the idiomatic
// equivalent once HandleEvent is an ordinary interface method.
type Event struct {
	Name string
	ID   string
	Data any
}

// NewEvent builds an Event with a fresh monotonic ID (via the muid
// submodule), useful for correlating a dispatched event with trace
// output.
func NewEvent(name string, data any) Event {
	return Event{Name: name, ID: muid.MakeString(), Data: data}
}

// WithData returns a copy of e carrying new Data.
func (e Event) WithData(data any) Event {
	e.Data = data
	return e
}

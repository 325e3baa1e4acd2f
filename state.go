package hsm

import "context"

// State is the protocol every state class in a Top family implements. It
// is deliberately small: Entry/Exit/Init are the lifecycle callbacks
// spec'd in §4.2, and HandleEvent is the single virtual operation through
// which the Machine forwards events to the current state (§6,
// "Top-state contract"). Event signatures and action bodies beyond that
// are entirely application-defined.
//
// A concrete state type that wants "delegate to my superstate when I
// don't handle an event" — the classic HSM behavior — gets it for free
// by embedding its superstate's Go type and only overriding the methods
// it cares about; Go's method promotion through embedding is this
// library's answer to the "hierarchical virtual dispatch without
// inheritance chains" design note.
type State[T any] interface {
	// Entry runs once when this state becomes active, after any
	// ancestors between the transition's LCA and this state have
	// already run their own Entry.
	Entry(ctx context.Context, m *Machine[T])
	// Exit runs once when this state stops being active, before any
	// ancestor between this state and the transition's LCA runs Exit.
	Exit(ctx context.Context, m *Machine[T])
	// Init runs once after Entry completes on the final target of a
	// transition. It is the only callback allowed to schedule a further
	// transition, and only to a proper descendant of this state.
	Init(ctx context.Context, m *Machine[T])
	// HandleEvent processes an Event dispatched while this state is
	// current. It may call m.SetState and/or m.Dispatch at most once
	// each; both take effect only after HandleEvent returns.
	HandleEvent(ctx context.Context, m *Machine[T], event Event)
}

// Base is a convenience embeddable providing no-op Entry/Exit/Init/
// HandleEvent implementations, so application state types only need to
// override what they actually use.
type Base[T any] struct{}

func (Base[T]) Entry(context.Context, *Machine[T])              {}
func (Base[T]) Exit(context.Context, *Machine[T])               {}
func (Base[T]) Init(context.Context, *Machine[T])               {}
func (Base[T]) HandleEvent(context.Context, *Machine[T], Event) {}

// Package hsm provides a hierarchical state machine (HSM) runtime for Go.
//
// # Overview
//
// It models application behavior as a tree of nested states with
// entry/exit/init actions, shallow and deep history, per-state "box" data
// whose lifetime tracks state activation, queued event dispatch, and
// whole-machine snapshots. The runtime is single-threaded and cooperative:
// every public call runs to completion before returning, and a machine is
// not safe for concurrent use without external synchronization.
//
// # Features
//
//   - Hierarchical states with shallow/deep history.
//   - Per-state box data: created on entry, destroyed on exit, or
//     persistent across activations.
//   - A queued-event "settle" loop (rattleOn) that interleaves transitions
//     and events deterministically.
//   - In-memory snapshot/restore without replaying entry/exit actions.
//
// # Usage
//
// Declare a family interface embedding State, give each state class a
// package-scope StateKey via NewKey, build a Model describing the tree,
// and construct a Machine from it:
//
//	type Top interface { hsm.State[Top] }
//
//	var (
//	    TopKey = hsm.NewKey()
//	    AKey   = hsm.NewKey()
//	    BKey   = hsm.NewKey()
//	)
//
//	model := hsm.NewModel[Top](TopKey,
//	    &hsm.StateDescriptor[Top]{Key: TopKey, Parent: hsm.RootKey, Name: "Top", NewInstance: func() Top { return &TopState{} }},
//	    &hsm.StateDescriptor[Top]{Key: AKey, Parent: TopKey, Name: "A", NewInstance: func() Top { return &AState{} }},
//	    &hsm.StateDescriptor[Top]{Key: BKey, Parent: TopKey, Name: "B", NewInstance: func() Top { return &BState{} }},
//	)
//
//	m := hsm.New[Top](ctx, model, nil)
//	m.Dispatch(ctx, hsm.NewEvent("go", nil))
package hsm

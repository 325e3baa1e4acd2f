package hsm

import (
	"context"

	"github.com/stateforward/ghsm/kind"
)

// stateInfo is the per-machine, per-state runtime record described in
// spec.md §3. parent and history are non-owning back-references: they
// never extend a StateInfo's lifetime. The Machine is the sole owner of
// every stateInfo and its box/instance.
type stateInfo[T State[T]] struct {
	machine *Machine[T]
	key     StateKey
	parent  *stateInfo[T]
	history *stateInfo[T]

	instance T
	box      any
}

func (si *stateInfo[T]) descriptor() *StateDescriptor[T] {
	return si.machine.model.descriptors[si.key]
}

func (si *stateInfo[T]) isRoot() bool {
	return kind.Is(si.descriptor().kind, rootTag)
}

// setBox pre-installs a caller-supplied box. It panics if a box is
// already installed, mirroring the C++ source's assertion on double
// install.
func (si *stateInfo[T]) setBox(box any) {
	if si.box != nil {
		faultf("state %q already has a box installed", si.descriptor().Name)
	}
	si.box = box
}

// createBox allocates a box via the descriptor's factory when no box was
// preinstalled.
func (si *stateInfo[T]) createBox(ctx context.Context) {
	if si.box != nil {
		return
	}
	d := si.descriptor()
	if d.NewBox == nil {
		return
	}
	si.box = d.NewBox()
}

// deleteBox destroys the box unless the state is persistent.
func (si *stateInfo[T]) deleteBox(ctx context.Context) {
	d := si.descriptor()
	if d.Persistent && !si.machine.ignorePersistentBoxes {
		return
	}
	si.destroyBox(ctx)
}

// destroyBox drops the box via DropBox unconditionally, ignoring the
// Persistent flag. Only Machine.Shutdown and Machine.Restore call this
// directly: both represent the machine itself going away or being wholly
// replaced, the one case the C++ source's _SubStateInfo destructor also
// bypasses the persistent no-op hook for, calling the raw deleteBox
// virtual at machine teardown regardless of persistence (spec.md §5:
// "Persistent boxes ... are destroyed only with the machine").
func (si *stateInfo[T]) destroyBox(ctx context.Context) {
	if si.box == nil {
		return
	}
	d := si.descriptor()
	if d.DropBox != nil {
		d.DropBox(si.box)
	}
	si.box = nil
}

// entry runs this state's Entry callback and creates its box if one
// wasn't preinstalled by the caller. The Machine's transition engine is
// responsible for calling entry on exactly the states between a
// transition's LCA and its target, top-down; entry itself does not
// recurse (§4.4 "Entry/exit ordering guarantees").
func (si *stateInfo[T]) entry(ctx context.Context, m *Machine[T]) {
	if si.isRoot() {
		return
	}
	si.createBox(ctx)
	m.trace("entry", si, Event{})
	m.withPhase(phaseEntry, func() {
		si.instance.Entry(ctx, m)
	})
}

// exit runs this state's Exit callback and destroys its box (unless
// persistent). Like entry, it does not recurse; the engine calls exit on
// exactly the states between the source and the LCA, bottom-up.
func (si *stateInfo[T]) exit(ctx context.Context, m *Machine[T]) {
	if si.isRoot() {
		return
	}
	m.trace("exit", si, Event{})
	m.withPhase(phaseExit, func() {
		si.instance.Exit(ctx, m)
	})
	si.deleteBox(ctx)
}

// init runs after entry completes on the final target of a transition.
// If withHistory is set and a history pointer is recorded, it schedules
// a pending transition to the history target instead of invoking the
// user's Init callback, and clears the history pointer (it is consumed
// exactly once).
func (si *stateInfo[T]) init(ctx context.Context, m *Machine[T], withHistory bool) {
	if si.isRoot() {
		return
	}
	if withHistory && si.history != nil {
		target := si.history
		si.history = nil
		m.trace("history-resume", si, Event{})
		m.schedulePending(target, false, nil)
		return
	}
	m.trace("init", si, Event{})
	m.withPhase(phaseInit, func() {
		si.instance.Init(ctx, m)
	})
	if m.pendingTarget != nil && !m.model.IsAncestor(si.key, m.pendingTarget.key) {
		faultf("init on %q scheduled a transition to %q, which is not a descendant", si.descriptor().Name, m.pendingTarget.descriptor().Name)
	}
}

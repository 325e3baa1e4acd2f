package hsm

import (
	"context"
	"fmt"

	"github.com/stateforward/ghsm/muid"
)

// Snapshot is a point-in-time capture of a Machine's active state path,
// every materialized state's box (cloned, not shared — including boxes
// kept alive by a Persistent state that is no longer active), and every
// recorded history pointer, per spec.md §4.7. It carries no references
// back into the Machine it was taken from: a Snapshot is safe to keep,
// serialize (see pkg/hsmyaml), or hand to Restore on a different Machine
// built from the same Model.
type Snapshot[T State[T]] struct {
	ID string

	// Active lists the active path from Top down to the innermost current
	// state, in that order. It is empty only for a machine that was never
	// started (which cannot produce a Snapshot in the first place).
	Active []StateKey

	// Boxes holds a clone of every materialized state's box, keyed by
	// StateKey — not only the states on the active path. A Persistent
	// state that was entered earlier and has since been exited still
	// keeps its box alive (spec.md §4.7's Invariant 5, "persistent boxes
	// survive until machine destruction"), so it must round-trip through
	// Snapshot/Restore the same as an active one. A state with no box (or
	// whose descriptor left Box* nil) has no entry here.
	Boxes map[StateKey]any

	// History holds every recorded shallow/deep history pointer, keyed by
	// the history-bearing ancestor's StateKey.
	History map[StateKey]StateKey
}

// Snapshot captures the machine's current active path, every materialized
// state's box contents, and the history table. It requires the machine to
// have been built with WithSnapshots, and every state currently holding a
// box (active or not) to supply a CloneBox hook; otherwise it returns
// ErrSnapshotsDisabled or ErrMissingCloneBox.
func (m *Machine[T]) Snapshot() (*Snapshot[T], error) {
	if !m.snapshotsEnabled {
		return nil, ErrSnapshotsDisabled
	}
	m.requireActive()

	var active []StateKey
	for si := m.current; si != nil && !si.isRoot(); si = si.parent {
		active = append(active, si.key)
	}
	for i, j := 0, len(active)-1; i < j; i, j = i+1, j-1 {
		active[i], active[j] = active[j], active[i]
	}

	boxes := make(map[StateKey]any, len(m.infos))
	for key, si := range m.infos {
		if key == RootKey || si.box == nil {
			continue
		}
		d := si.descriptor()
		if d.CloneBox == nil {
			return nil, fmt.Errorf("%w: %q", ErrMissingCloneBox, d.Name)
		}
		boxes[key] = d.CloneBox(si.box)
	}

	history := make(map[StateKey]StateKey)
	for key, si := range m.infos {
		if key != RootKey && si.history != nil {
			history[key] = si.history.key
		}
	}

	m.trace("snapshot", m.current, Event{})
	return &Snapshot[T]{ID: muid.MakeString(), Active: active, Boxes: boxes, History: history}, nil
}

// Restore replaces the machine's entire materialized state — active path,
// every box (active or merely persisted), and history table — with s's,
// without invoking any Entry, Exit, or Init callback — it is a direct
// state-table swap, not a replayed transition (spec.md §4.7). Every box
// the machine currently holds, including ones kept alive only by a
// Persistent state, is dropped via its descriptor's DropBox hook before
// s's boxes are installed: the original source documents this exact case
// ("no exit/entry actions ... are performed! Box destructors however are
// executed!") because Restore wholly replaces the StateInfo table rather
// than exiting it. It returns ErrForeignState if s names a key absent
// from the machine's model.
func (m *Machine[T]) Restore(s *Snapshot[T]) error {
	m.requireActive()
	for _, key := range s.Active {
		if m.model.Descriptor(key) == nil {
			return fmt.Errorf("%w: %d", ErrForeignState, key)
		}
	}
	for key := range s.Boxes {
		if m.model.Descriptor(key) == nil {
			return fmt.Errorf("%w: %d", ErrForeignState, key)
		}
	}
	for key := range s.History {
		if m.model.Descriptor(key) == nil {
			return fmt.Errorf("%w: %d", ErrForeignState, key)
		}
	}

	m.destroyAllBoxes(context.Background())

	m.infos = map[StateKey]*stateInfo[T]{RootKey: m.infos[RootKey]}
	for key, box := range s.Boxes {
		si := m.infoFor(key)
		if d := si.descriptor(); d.CloneBox != nil {
			box = d.CloneBox(box)
		}
		si.box = box
	}
	var leaf *stateInfo[T]
	for _, key := range s.Active {
		leaf = m.infoFor(key)
	}
	if leaf != nil {
		m.current = leaf
	}
	for ancestor, target := range s.History {
		m.infoFor(ancestor).history = m.infoFor(target)
	}

	m.trace("restore", m.current, Event{})
	return nil
}

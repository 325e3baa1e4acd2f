package hsm

import (
	"sort"
	"sync/atomic"

	"github.com/stateforward/ghsm/kind"
)

// StateKey is a dense, process-stable identifier for a state class,
// assigned once via NewKey at package-init time. Key 0 is reserved for
// the implicit Root pseudo-state.
type StateKey uint64

// RootKey identifies the implicit Root pseudo-state. Every top-state
// registered in a Model has Parent == RootKey.
const RootKey StateKey = 0

var nextKey uint64 // NewKey increments before returning, so the first key is 1 and 0 stays RootKey's

// NewKey allocates a fresh, process-unique StateKey for a state class.
// Call it once per state type at package scope:
//
//	var RunningKey = hsm.NewKey()
func NewKey() StateKey {
	return StateKey(atomic.AddUint64(&nextKey, 1))
}

// kind's global ID counter hands out 0 on its very first call process-
// wide, and kind.Is treats an unset higher byte as implicitly base ID 0
// — so whichever Kind happens to be valued 0 matches every other Kind
// passed through Is, not just itself. The teacher avoids this by
// reserving that first ID for its own throwaway NullKind (hsm.go:69) and
// never passing it to Is(); this package does the same, discarding the
// first Make() call so rootTag's ID can never land on 0.
var _ = kind.Make()

// rootTag/stateTag classify a descriptor as the implicit Root vs. an
// ordinary state, reusing the teacher's kind package the same way it
// tags ElementKind/StateKind for its own element hierarchy. Both are
// independent Make() calls with no base: a state descriptor is never
// also the Root, so there is nothing to inherit between the two tags.
var (
	rootTag  = kind.Make()
	stateTag = kind.Make()
)

// Box* are the type-erased lifecycle hooks a StateDescriptor supplies
// for its state's per-activation data. NewBox is called on entry unless
// a preinitialized box was supplied by the caller (via StateAlias or
// SetState's box argument); DropBox is called on exit unless the state
// is Persistent; CloneBox is required only when a Machine is constructed
// with WithSnapshots.
type (
	BoxFactory = func() any
	BoxDropper = func(any)
	BoxCloner  = func(any) any
)

// StateDescriptor is the static, immutable metadata for one state class:
// its key, parent, display name, history strategy, persistence flag, and
// box lifecycle hooks. Exactly one StateDescriptor exists per state
// class per Model.
type StateDescriptor[T State[T]] struct {
	Key    StateKey
	Parent StateKey
	Name   string

	History    HistoryKind
	Persistent bool

	NewInstance func() T

	NewBox   BoxFactory
	DropBox  BoxDropper
	CloneBox BoxCloner

	kind kind.Kind
}

// Model is the static, immutable state-tree description for one
// top-state family: a table of StateDescriptors indexed by StateKey,
// complete once built with NewModel. A Model is safe to share across
// many concurrently running Machines of the same Top type — it is never
// mutated after construction.
type Model[T State[T]] struct {
	top         StateKey
	descriptors map[StateKey]*StateDescriptor[T]
}

// NewModel builds the static descriptor table for a top-state family.
// top is the StateKey of the application's Top state, whose Parent must
// be RootKey. It panics (a build-time programming error, not a runtime
// Fault) if the tree is malformed: a missing parent, a cycle, or two
// descriptors claiming the same key.
func NewModel[T State[T]](top StateKey, descriptors ...*StateDescriptor[T]) *Model[T] {
	m := &Model[T]{top: top, descriptors: make(map[StateKey]*StateDescriptor[T], len(descriptors)+1)}
	root := &StateDescriptor[T]{Key: RootKey, Parent: RootKey, Name: "Root", kind: rootTag}
	m.descriptors[RootKey] = root
	for _, d := range descriptors {
		if d.Key == RootKey {
			panic("hsm: state descriptor must not reuse RootKey")
		}
		if _, exists := m.descriptors[d.Key]; exists {
			panic("hsm: duplicate state key in model")
		}
		d.kind = stateTag
		if d.History == 0 {
			d.History = NoHistory
		}
		m.descriptors[d.Key] = d
	}
	if _, ok := m.descriptors[top]; !ok {
		panic("hsm: model's top state has no descriptor")
	}
	if m.descriptors[top].Parent != RootKey {
		panic("hsm: model's top state must have RootKey as its parent")
	}
	for key, d := range m.descriptors {
		if key == RootKey {
			continue
		}
		if key != top {
			if _, ok := m.descriptors[d.Parent]; !ok {
				panic("hsm: state descriptor references an undefined parent")
			}
		}
	}
	for key := range m.descriptors {
		if key == RootKey {
			continue
		}
		seen := map[StateKey]bool{key: true}
		cur := m.descriptors[key].Parent
		for cur != RootKey {
			if seen[cur] {
				panic("hsm: cycle detected in state tree")
			}
			seen[cur] = true
			cur = m.descriptors[cur].Parent
		}
	}
	return m
}

// Top returns the StateKey of this model's Top state.
func (m *Model[T]) Top() StateKey { return m.top }

// Descriptor looks up a state's static metadata, or nil if key is not
// registered in this model.
func (m *Model[T]) Descriptor(key StateKey) *StateDescriptor[T] {
	return m.descriptors[key]
}

// Keys returns every registered StateKey, including RootKey, in
// ascending order. Useful for tooling (see pkg/plantuml) that needs to
// walk the whole tree.
func (m *Model[T]) Keys() []StateKey {
	keys := make([]StateKey, 0, len(m.descriptors))
	for key := range m.descriptors {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// IsAncestor reports whether ancestor is a strict ancestor of key in the
// state tree (Root is considered an ancestor of every registered state).
func (m *Model[T]) IsAncestor(ancestor, key StateKey) bool {
	if ancestor == key {
		return false
	}
	d, ok := m.descriptors[key]
	if !ok {
		return false
	}
	for d.Key != RootKey {
		if d.Parent == ancestor {
			return true
		}
		d = m.descriptors[d.Parent]
	}
	return ancestor == RootKey
}

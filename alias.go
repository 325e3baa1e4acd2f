package hsm

// StateAlias is a value representing a deferred transition target plus
// an optional preinitialized box (spec.md §4.5). It decouples "which
// state to go to" from the call site: application code can build an
// alias eagerly, hand it to NewFromAlias or Machine.GotoAlias later, and
// the box travels with it.
//
// Go has no destructors, so the C++ source's "the alias's destructor
// releases an unconsumed box" contract is approximated here: an alias
// that is never consumed by NewFromAlias/GotoAlias is just an ordinary Go value
// that will be garbage collected along with its box, UNLESS the box
// needs an explicit release (a file handle, a goroutine, …) — for that
// case call Release explicitly before letting the alias go out of scope.
type StateAlias[T State[T]] struct {
	key      StateKey
	box      any
	dropBox  BoxDropper
	consumed bool
}

// NewStateAlias builds an alias targeting key, optionally carrying a
// preinitialized box. dropBox, if non-nil, is invoked by Release on an
// alias that was never consumed by a transition; consuming the alias
// hands the box over without calling dropBox.
func NewStateAlias[T State[T]](key StateKey, box any, dropBox BoxDropper) StateAlias[T] {
	return StateAlias[T]{key: key, box: box, dropBox: dropBox}
}

// Key reports the alias's target state.
func (a StateAlias[T]) Key() StateKey { return a.key }

// Clone duplicates the alias's box via cloneBox, producing an
// independent alias that still owns its own copy. It panics if a box is
// present but cloneBox is nil — callers whose box type isn't copyable
// must not call Clone.
func (a StateAlias[T]) Clone(cloneBox BoxCloner) StateAlias[T] {
	if a.box == nil {
		return a
	}
	if cloneBox == nil {
		faultf("StateAlias.Clone called on a non-copyable box")
	}
	return StateAlias[T]{key: a.key, box: cloneBox(a.box), dropBox: a.dropBox}
}

// Release destroys an alias's box through the dropBox hook given to
// NewStateAlias (if any) if the alias was never consumed by a transition. Calling Release on an
// already-consumed or already-released alias is a no-op.
func (a *StateAlias[T]) Release() {
	if a.consumed || a.box == nil {
		return
	}
	if a.dropBox != nil {
		a.dropBox(a.box)
	}
	a.box = nil
	a.consumed = true
}

// consume marks the alias used and hands back its box, so the caller
// that actually performs the transition becomes the new owner.
func (a *StateAlias[T]) consume() any {
	box := a.box
	a.box = nil
	a.consumed = true
	return box
}

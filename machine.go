package hsm

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
)

// phase tracks what the settle loop is currently doing, so the
// re-entrancy constraints in spec.md §5/§7 can be enforced by assertion
// rather than left to convention.
type phase int

const (
	phaseIdle phase = iota
	phaseEntry
	phaseExit
	phaseInit
	phaseHandling
)

// Option configures a Machine at construction time, the same
// functional-options shape the teacher library uses for its own Config
// and that comalice-statechartx's internal/core.Option also follows.
type Option[T State[T]] func(*Machine[T])

// WithTrace routes entry/exit/init/dispatch/history-resume/snapshot/restore
// narration to logger at slog.LevelDebug. A nil logger (trace disabled) is
// the default, matching spec.md §6's "trace" flag being off unless supplied.
func WithTrace[T State[T]](logger *slog.Logger) Option[T] {
	return func(m *Machine[T]) { m.logger = logger }
}

// WithSnapshots enables Machine.Snapshot. Every state descriptor whose
// state holds a box at the time of a snapshot (active, or kept by a
// Persistent state after exit) must supply CloneBox, or Snapshot returns
// ErrMissingCloneBox.
func WithSnapshots[T State[T]]() Option[T] {
	return func(m *Machine[T]) { m.snapshotsEnabled = true }
}

// WithoutPersistentBoxes opts out of honoring each StateDescriptor's
// Persistent flag: every box is destroyed on exit regardless, per
// spec.md §6's persistent_boxes_opt_in flag (default on; this Option
// turns it off).
func WithoutPersistentBoxes[T State[T]]() Option[T] {
	return func(m *Machine[T]) { m.ignorePersistentBoxes = true }
}

// Machine owns every StateInfo, box, and instance for one running HSM of
// family T. It is single-threaded and cooperative (spec.md §5): no
// public method may be called concurrently with another on the same
// Machine. Use Serialized to add external locking.
type Machine[T State[T]] struct {
	model *Model[T]

	infos   map[StateKey]*stateInfo[T]
	current *stateInfo[T]

	pendingTarget  *stateInfo[T]
	pendingBox     any
	pendingHistory bool
	pendingEvent   *Event

	started bool
	down    bool
	phase   phase

	logger                *slog.Logger
	snapshotsEnabled      bool
	ignorePersistentBoxes bool
}

// New constructs a Machine for model, enters Root then the Top state
// (and Top's init cascade), and returns it ready to receive events.
// topBox, if given, preinitializes Top's box instead of calling its
// descriptor's NewBox.
func New[T State[T]](ctx context.Context, model *Model[T], topBox any, opts ...Option[T]) *Machine[T] {
	m := &Machine[T]{model: model, infos: make(map[StateKey]*stateInfo[T])}
	for _, opt := range opts {
		opt(m)
	}
	top := m.infoFor(model.top)
	if topBox != nil {
		top.setBox(topBox)
	}
	m.start(ctx, top)
	return m
}

// NewFromAlias constructs a Machine that starts at alias's target state
// instead of Top, carrying alias's box if any. Every ancestor between
// Root and the target is entered first, exactly as if a transition had
// landed there (spec.md §4.3 "new(alias)").
func NewFromAlias[T State[T]](ctx context.Context, model *Model[T], alias StateAlias[T], opts ...Option[T]) *Machine[T] {
	m := &Machine[T]{model: model, infos: make(map[StateKey]*stateInfo[T])}
	for _, opt := range opts {
		opt(m)
	}
	target := m.infoFor(alias.key)
	if box := alias.consume(); box != nil {
		target.setBox(box)
	}
	m.start(ctx, target)
	return m
}

func (m *Machine[T]) start(ctx context.Context, target *stateInfo[T]) {
	root := m.infoFor(RootKey)
	m.current = target
	m.enterPath(ctx, root, target)
	m.started = true
	target.init(ctx, m, false)
	m.rattleOn(ctx)
}

// infoFor returns the StateInfo for key, lazily creating it (and its
// ancestor chain, recursively) on first reference within this machine,
// per spec.md §3's lifecycle rule.
func (m *Machine[T]) infoFor(key StateKey) *stateInfo[T] {
	if si, ok := m.infos[key]; ok {
		return si
	}
	d := m.model.descriptors[key]
	if d == nil {
		fault(fmt.Errorf("%w: %d", ErrUnknownState, key))
	}
	si := &stateInfo[T]{machine: m, key: key}
	if key != RootKey {
		si.parent = m.infoFor(d.Parent)
		if d.NewInstance != nil {
			si.instance = d.NewInstance()
		}
	}
	m.infos[key] = si
	return si
}

func (m *Machine[T]) trace(action string, si *stateInfo[T], event Event) {
	if m.logger == nil {
		return
	}
	name := "Root"
	if si != nil && !si.isRoot() {
		name = si.descriptor().Name
	}
	if event.Name != "" {
		m.logger.Debug("hsm", "action", action, "state", name, "event", event.Name)
	} else {
		m.logger.Debug("hsm", "action", action, "state", name)
	}
}

// withPhase runs fn under the given phase, restoring the previous phase
// afterward even if fn panics (a user callback error propagates, per
// spec.md §7, but must not corrupt the machine's phase bookkeeping for a
// caller that recovers).
func (m *Machine[T]) withPhase(p phase, fn func()) {
	previous := m.phase
	m.phase = p
	defer func() { m.phase = previous }()
	fn()
}

// requireActive panics with a Fault if the machine hasn't been started
// or has been shut down, per spec.md §7's "dispatching to a not-yet-
// started or shut-down machine" assertion-class error.
func (m *Machine[T]) requireActive() {
	if !m.started {
		fault(ErrNotStarted)
	}
	if m.down {
		fault(ErrShutdown)
	}
}

// Current returns the StateKey of the innermost active state.
func (m *Machine[T]) Current() StateKey {
	if m.current == nil {
		return RootKey
	}
	return m.current.key
}

// IsCurrent reports whether key names the current state or one of its
// ancestors.
func (m *Machine[T]) IsCurrent(key StateKey) bool {
	if m.current == nil {
		return false
	}
	if key == RootKey {
		return true
	}
	for si := m.current; si != nil; si = si.parent {
		if si.key == key {
			return true
		}
	}
	return false
}

// IsCurrentDirect reports whether key is exactly the innermost current
// state.
func (m *Machine[T]) IsCurrentDirect(key StateKey) bool {
	return m.current != nil && m.current.key == key
}

// Box returns Top's box. It is read-only by convention: callers that
// need to mutate it should do so from inside a handler/entry/exit/init
// callback via the box's own methods.
func (m *Machine[T]) Box() any {
	top := m.infos[m.model.top]
	if top == nil {
		return nil
	}
	return top.box
}

// StateBox returns the box currently installed for key, or nil if key
// has no StateInfo in this machine yet or carries no box. A Persistent
// state keeps its box after exit, so its box is returned even while the
// state is inactive.
func (m *Machine[T]) StateBox(key StateKey) any {
	si := m.infos[key]
	if si == nil {
		return nil
	}
	return si.box
}

// ClearHistory sets key's own history pointer to nil without touching
// its descendants' history pointers.
func (m *Machine[T]) ClearHistory(key StateKey) {
	if si := m.infos[key]; si != nil {
		si.history = nil
	}
}

// ClearHistoryDeep sets key's history pointer to nil along with every
// descendant's history pointer that this machine has materialized so
// far.
func (m *Machine[T]) ClearHistoryDeep(key StateKey) {
	m.ClearHistory(key)
	for k, si := range m.infos {
		if k != RootKey && m.model.IsAncestor(key, k) {
			si.history = nil
		}
	}
}

// schedulePending installs the single pending-transition slot. It is
// called both by application code (via SetState) and internally (by
// init's history resumption), and enforces the "at most one pending
// transition" invariant.
func (m *Machine[T]) schedulePending(target *stateInfo[T], withHistory bool, box any) {
	if m.phase == phaseEntry || m.phase == phaseExit {
		faultf("entry/exit actions must not schedule a transition")
	}
	if m.pendingTarget != nil {
		faultf("a transition is already pending")
	}
	m.pendingTarget = target
	m.pendingHistory = withHistory
	m.pendingBox = box
}

// SetState schedules a transition to key, to be applied by the settle
// loop once the current handler/init callback returns. If history is
// true and key has a recorded history pointer, the machine resumes
// there instead of running key's Init callback. box, if given,
// preinitializes key's box instead of calling its descriptor's NewBox.
func (m *Machine[T]) SetState(key StateKey, history bool, box any) {
	m.requireActive()
	m.schedulePending(m.infoFor(key), history, box)
}

// SetStateDirect schedules a transition to key ignoring any recorded
// history, equivalent to SetState(key, false, box). Per the Open
// Question in spec.md §9, "direct" always means "no history". It is the
// only *Direct entry point; GotoAlias takes its history flag explicitly.
func (m *Machine[T]) SetStateDirect(key StateKey, box any) {
	m.SetState(key, false, box)
}

// GotoAlias schedules a transition to alias's target, consuming its box.
func (m *Machine[T]) GotoAlias(alias *StateAlias[T], history bool) {
	m.requireActive()
	m.schedulePending(m.infoFor(alias.key), history, alias.consume())
}

// Dispatch sends event to the current state's handler. Called from
// outside any handler (the normal case), it invokes the handler
// synchronously and then runs the settle loop before returning. Called
// reentrantly from inside a handler/init callback, it instead fills the
// single pending-event slot (spec.md §4.6): the settle loop dispatches
// it only after any transition pending at that point has been taken.
func (m *Machine[T]) Dispatch(ctx context.Context, event Event) {
	m.requireActive()
	if m.phase == phaseEntry || m.phase == phaseExit {
		faultf("entry/exit actions must not dispatch events")
	}
	if m.phase == phaseHandling || m.phase == phaseInit {
		if m.pendingEvent != nil {
			faultf("a second event was queued before the first was dispatched")
		}
		e := event
		m.pendingEvent = &e
		return
	}
	m.invokeCurrent(ctx, event)
	m.rattleOn(ctx)
}

func (m *Machine[T]) invokeCurrent(ctx context.Context, event Event) {
	m.trace("dispatch", m.current, event)
	m.withPhase(phaseHandling, func() {
		m.current.instance.HandleEvent(ctx, m, event)
	})
}

// Do runs fn with the current state's instance and machine, then runs
// the settle loop — the Go realization of spec.md §4.3's
// `operator→ / currentProxy`: a scoped view of Top that settles on
// scope exit.
func (m *Machine[T]) Do(ctx context.Context, fn func(ctx context.Context, top T, m *Machine[T])) {
	m.requireActive()
	fn(ctx, m.current.instance, m)
	m.rattleOn(ctx)
}

// Settle drains any pending transition and pending event to a fixed
// point. Go has no destructors to run this automatically at scope exit
// the way currentProxy does, so application code that calls SetState
// directly (outside a handler) must call Settle itself afterward;
// Dispatch and Do already call it for you.
func (m *Machine[T]) Settle(ctx context.Context) {
	m.requireActive()
	m.rattleOn(ctx)
}

// rattleOn is the settle loop from spec.md §4.3: it drains the pending
// transition and pending event slots to a fixed point, interleaving them
// so a transition scheduled by a handler always lands before a queued
// event is dispatched.
func (m *Machine[T]) rattleOn(ctx context.Context) {
	for m.pendingTarget != nil || m.pendingEvent != nil {
		for m.pendingTarget != nil {
			target := m.pendingTarget
			withHistory := m.pendingHistory
			box := m.pendingBox
			m.pendingTarget = nil
			m.pendingHistory = false
			m.pendingBox = nil

			m.applyTransition(ctx, target, withHistory, box)
		}
		if m.pendingEvent != nil {
			event := *m.pendingEvent
			m.pendingEvent = nil
			m.invokeCurrent(ctx, event)
		}
	}
}

// applyTransition runs one exit/entry/init cycle from the current state
// to target. See transition.go for the LCA/ordering algorithms.
func (m *Machine[T]) applyTransition(ctx context.Context, target *stateInfo[T], withHistory bool, box any) {
	source := m.current
	lca := m.lowestCommonAncestor(source, target)

	m.exitPath(ctx, source, lca)
	if box != nil {
		target.setBox(box)
	}
	// current is set to target before running the entry cascade, matching
	// the C++ source's `myCurrentState = myPendingState;` preceding
	// `.entry()`: Current()/IsCurrent() must already report target while
	// intermediate ancestors' Entry callbacks are still running.
	m.current = target
	m.enterPath(ctx, lca, target)
	target.init(ctx, m, withHistory)
}

// Shutdown simulates a transition to Root so every active state exits in
// order, then unconditionally destroys every materialized state's box —
// including Persistent ones, which exitPath's exit()/deleteBox() left
// alone — before freeing the StateInfo table. Persistent boxes are
// destroyed only with the machine (spec.md §5), and Shutdown is that
// moment. It is idempotent.
func (m *Machine[T]) Shutdown(ctx context.Context) {
	if m.down || !m.started {
		m.down = true
		return
	}
	root := m.infos[RootKey]
	m.exitPath(ctx, m.current, root)
	m.current = root
	m.down = true
	m.destroyAllBoxes(ctx)
	m.infos = map[StateKey]*stateInfo[T]{RootKey: root}
}

// destroyAllBoxes unconditionally drops every materialized state's box
// (bypassing Persistent) in reverse key order, children before parents.
// Used by Shutdown and Restore, the two points where the whole StateInfo
// table is discarded rather than a single state exiting mid-run.
func (m *Machine[T]) destroyAllBoxes(ctx context.Context) {
	keys := make([]StateKey, 0, len(m.infos))
	for key := range m.infos {
		if key != RootKey {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] > keys[j] })
	for _, key := range keys {
		m.infos[key].destroyBox(ctx)
	}
}

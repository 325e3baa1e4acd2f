package hsm

import "context"

// lowestCommonAncestor returns the deepest state that is an ancestor of
// both a and b (Root if nothing closer qualifies). When a == b it
// returns a's parent, which is the correct LCA for a self-transition
// (spec.md §4.4 "Self-transitions exit and re-enter the state itself").
func (m *Machine[T]) lowestCommonAncestor(a, b *stateInfo[T]) *stateInfo[T] {
	if a == b {
		return a.parent
	}
	ancestors := make(map[StateKey]bool)
	for si := a; si != nil; si = si.parent {
		ancestors[si.key] = true
	}
	for si := b; si != nil; si = si.parent {
		if ancestors[si.key] {
			return si
		}
	}
	return m.infos[RootKey]
}

// exitPath walks from source up to (exclusive of) lca, saving history
// along the way and then running each Exit callback bottom-up — exactly
// the order spec.md §4.4 requires ("Exit actions run bottom-up: the
// innermost active state first").
func (m *Machine[T]) exitPath(ctx context.Context, source, lca *stateInfo[T]) {
	m.saveHistory(source, lca)
	for si := source; si != nil && si != lca; si = si.parent {
		si.exit(ctx, m)
	}
}

// saveHistory records, for every history-bearing ancestor strictly
// between source and lca, what to resume into next time that ancestor is
// re-entered with history. A Shallow history state records the
// immediate child on this exit path; a Deep history state always records
// source itself, the leaf actually being exited (spec.md §4.4).
func (m *Machine[T]) saveHistory(source, lca *stateInfo[T]) {
	if source == lca {
		return
	}
	child := source
	for si := source.parent; si != nil && si != lca; si = si.parent {
		switch d := si.descriptor(); {
		case isHistoryKind(d.History, ShallowHistory):
			si.history = child
		case isHistoryKind(d.History, DeepHistory):
			si.history = source
		}
		child = si
	}
}

// enterPath walks down from lca (exclusive) to target (inclusive),
// running each Entry callback top-down, the mirror image of exitPath.
func (m *Machine[T]) enterPath(ctx context.Context, lca, target *stateInfo[T]) {
	if target == lca {
		return
	}
	chain := make([]*stateInfo[T], 0, 4)
	for si := target; si != nil && si != lca; si = si.parent {
		chain = append(chain, si)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		chain[i].entry(ctx, m)
	}
}

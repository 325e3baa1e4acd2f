package hsm

import "github.com/stateforward/ghsm/kind"

// HistoryKind classifies a state's history strategy, mirroring the
// teacher library's ShallowHistoryKind/DeepHistoryKind bit-packed tags.
// Unlike the teacher's use (which tags transient pseudostate vertices
// inside a declarative model), here the tag lives directly on the
// owning state's StateDescriptor.
type HistoryKind = kind.Kind

var (
	// NoHistory means the state never records which child was active;
	// saveHistory is a no-op and the state's history pointer stays nil.
	NoHistory = kind.Make()
	// ShallowHistory records the immediate child active on the exit
	// path; re-entering with history re-enters that child (and its own
	// default init cascade runs from there).
	ShallowHistory = kind.Make()
	// DeepHistory records the deepest descendant active on the exit
	// path; re-entering with history re-enters that exact leaf.
	DeepHistory = kind.Make()
)

func isHistoryKind(k HistoryKind, want HistoryKind) bool {
	return kind.Is(k, want)
}

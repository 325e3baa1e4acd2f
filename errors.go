package hsm

import (
	"errors"
	"fmt"
	"runtime"
)

// Sentinel errors for common HSM error conditions. Check with errors.Is
// (on a returned error, or on a recovered *Fault).
var (
	// ErrNotStarted is carried by the Fault panic raised when an
	// operation is attempted on a machine that has not yet been started
	// via New or NewFromAlias.
	ErrNotStarted = errors.New("hsm: machine not started")
	// ErrShutdown is carried by the Fault panic raised when an operation
	// is attempted on a machine that has already been shut down.
	ErrShutdown = errors.New("hsm: machine shut down")
	// ErrUnknownState is carried by the Fault panic raised when a
	// StateKey has no registered StateDescriptor in the model.
	ErrUnknownState = errors.New("hsm: unknown state key")
	// ErrMissingCloneBox is returned when Snapshot is requested for a
	// machine containing a box whose descriptor has no CloneBox hook.
	ErrMissingCloneBox = errors.New("hsm: state has an active box with no CloneBox hook")
	// ErrForeignState is returned when Restore is given a snapshot whose
	// states don't belong to the machine's model.
	ErrForeignState = errors.New("hsm: snapshot references a state outside this model")
	// ErrSnapshotsDisabled is returned by Snapshot when the machine was
	// not constructed with WithSnapshots.
	ErrSnapshotsDisabled = errors.New("hsm: machine was not constructed with WithSnapshots")
)

// Fault is a programming-error panic raised by the engine when a caller
// violates one of its invariants (double-pending transition, a transition
// scheduled from entry/exit, an init callback targeting a non-descendant,
// dispatch on a not-yet-started or shut-down machine). These are fatal by
// design: the engine does not attempt to recover from them. A snapshot
// attempted without a clone hook is not a Fault: Snapshot returns
// ErrMissingCloneBox instead.
type Fault struct {
	Err  error
	Site string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s: %v", f.Site, f.Err)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// fault panics with a Fault annotated with the call site of its caller's
// caller, mirroring the teacher library's traceback() helper.
func fault(err error) {
	_, file, line, _ := runtime.Caller(2)
	panic(&Fault{Err: err, Site: fmt.Sprintf("%s:%d", file, line)})
}

func faultf(format string, args ...any) {
	_, file, line, _ := runtime.Caller(2)
	panic(&Fault{Err: fmt.Errorf(format, args...), Site: fmt.Sprintf("%s:%d", file, line)})
}

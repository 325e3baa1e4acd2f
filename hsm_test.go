package hsm_test

import (
	"context"
	"testing"

	"github.com/stateforward/ghsm"
)

// Top is the shared event protocol for every test machine in this
// package: a single HandleEvent big enough for scenario-driven tests to
// switch on event.Name, matching the teacher's own trace-slice
// comparison test style (see kind_test.go/muid_test.go for the sibling
// submodules' equally plain style).
type Top interface {
	hsm.State[Top]
}

// recorder is a reusable test state: every lifecycle callback appends a
// line to *trace, and onInit/onHandle are optional test-supplied hooks
// for scheduling transitions or events.
type recorder struct {
	hsm.Base[Top]
	trace    *[]string
	name     string
	onInit   func(ctx context.Context, m *hsm.Machine[Top])
	onHandle func(ctx context.Context, m *hsm.Machine[Top], event hsm.Event)
}

func (r *recorder) Entry(ctx context.Context, m *hsm.Machine[Top]) {
	*r.trace = append(*r.trace, r.name+":entry")
}

func (r *recorder) Exit(ctx context.Context, m *hsm.Machine[Top]) {
	*r.trace = append(*r.trace, r.name+":exit")
}

func (r *recorder) Init(ctx context.Context, m *hsm.Machine[Top]) {
	*r.trace = append(*r.trace, r.name+":init")
	if r.onInit != nil {
		r.onInit(ctx, m)
	}
}

func (r *recorder) HandleEvent(ctx context.Context, m *hsm.Machine[Top], event hsm.Event) {
	*r.trace = append(*r.trace, r.name+":"+event.Name)
	if r.onHandle != nil {
		r.onHandle(ctx, m, event)
	}
}

func equalTrace(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("trace = %v, want %v", got, want)
		return
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("trace = %v, want %v", got, want)
			return
		}
	}
}

package hsm_test

import (
	"context"
	"testing"

	"github.com/stateforward/ghsm"
)

func TestDeepHistoryRoundTrip(t *testing.T) {
	var trace []string
	ctx := context.Background()

	topKey := hsm.NewKey()
	cKey := hsm.NewKey()
	caKey := hsm.NewKey()
	caaKey := hsm.NewKey()
	bKey := hsm.NewKey()

	model := hsm.NewModel[Top](topKey,
		&hsm.StateDescriptor[Top]{Key: topKey, Parent: hsm.RootKey, Name: "Top",
			NewInstance: func() Top {
				return &recorder{trace: &trace, name: "Top", onInit: func(ctx context.Context, m *hsm.Machine[Top]) {
					m.SetState(cKey, false, nil)
				}}
			}},
		&hsm.StateDescriptor[Top]{Key: cKey, Parent: topKey, Name: "C", History: hsm.DeepHistory,
			NewInstance: func() Top {
				return &recorder{trace: &trace, name: "C", onInit: func(ctx context.Context, m *hsm.Machine[Top]) {
					m.SetState(caKey, false, nil)
				}}
			}},
		&hsm.StateDescriptor[Top]{Key: caKey, Parent: cKey, Name: "CA",
			NewInstance: func() Top {
				return &recorder{trace: &trace, name: "CA", onInit: func(ctx context.Context, m *hsm.Machine[Top]) {
					m.SetState(caaKey, false, nil)
				}}
			}},
		&hsm.StateDescriptor[Top]{Key: caaKey, Parent: caKey, Name: "CAA",
			NewInstance: func() Top { return &recorder{trace: &trace, name: "CAA"} }},
		&hsm.StateDescriptor[Top]{Key: bKey, Parent: topKey, Name: "B",
			NewInstance: func() Top { return &recorder{trace: &trace, name: "B"} }},
	)

	m := hsm.New[Top](ctx, model, nil)
	if !m.IsCurrentDirect(caaKey) {
		t.Fatalf("expected CAA current after startup, got %d", m.Current())
	}

	m.SetState(bKey, false, nil)
	m.Settle(ctx)
	if !m.IsCurrentDirect(bKey) {
		t.Fatalf("expected B current after leaving C")
	}

	trace = nil
	m.SetState(cKey, true, nil)
	m.Settle(ctx)

	equalTrace(t, trace, []string{"B:exit", "C:entry", "CA:entry", "CAA:entry", "CAA:init"})
	if !m.IsCurrentDirect(caaKey) {
		t.Fatalf("expected history resume to land on CAA, current is %d", m.Current())
	}

	// Leaving C re-records its deep history (to CAA again), but
	// SetStateDirect ignores history regardless of what's recorded, so
	// re-entering runs the full init cascade instead of jumping to CAA.
	m.SetState(bKey, false, nil)
	m.Settle(ctx)
	trace = nil
	m.SetStateDirect(cKey, nil)
	m.Settle(ctx)
	equalTrace(t, trace, []string{"B:exit", "C:entry", "C:init", "CA:entry", "CA:init", "CAA:entry", "CAA:init"})
}

package hsm_test

import (
	"context"
	"testing"

	"github.com/stateforward/ghsm"
)

func TestStateAliasDeliversPreinstalledBox(t *testing.T) {
	ctx := context.Background()
	var trace []string

	topKey := hsm.NewKey()
	aKey := hsm.NewKey()

	model := hsm.NewModel[Top](topKey,
		&hsm.StateDescriptor[Top]{Key: topKey, Parent: hsm.RootKey, Name: "Top",
			NewInstance: func() Top { return &recorder{trace: &trace, name: "Top"} }},
		&hsm.StateDescriptor[Top]{Key: aKey, Parent: topKey, Name: "A",
			NewInstance: func() Top { return &recorder{trace: &trace, name: "A"} }},
	)

	alias := hsm.NewStateAlias[Top](aKey, &counterBox{n: 7}, nil)
	m := hsm.NewFromAlias[Top](ctx, model, alias)

	if !m.IsCurrentDirect(aKey) {
		t.Fatalf("expected A current, got %d", m.Current())
	}
	if got := m.StateBox(aKey).(*counterBox).n; got != 7 {
		t.Fatalf("box value = %d, want 7", got)
	}
}

func TestStateAliasReleaseDropsUnconsumedBox(t *testing.T) {
	var dropped *counterBox
	alias := hsm.NewStateAlias[Top](hsm.NewKey(), &counterBox{n: 3}, func(box any) {
		dropped = box.(*counterBox)
	})

	alias.Release()

	if dropped == nil || dropped.n != 3 {
		t.Fatalf("expected Release to invoke dropBox with the alias's box")
	}

	// Releasing twice must not invoke dropBox again.
	dropped = nil
	alias.Release()
	if dropped != nil {
		t.Fatalf("expected second Release to be a no-op")
	}
}

func TestStateAliasCloneRequiresCloneBoxHook(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected Clone to panic without a CloneBox hook")
		}
	}()
	alias := hsm.NewStateAlias[Top](hsm.NewKey(), &counterBox{n: 1}, nil)
	alias.Clone(nil)
}

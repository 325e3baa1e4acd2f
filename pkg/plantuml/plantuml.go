// Package plantuml renders a Model's state tree as a PlantUML state
// diagram, for documentation and debugging. Only static structure is
// drawn — nesting, persistence, and history markers — since this
// library keeps transitions imperative rather than a first-class
// transition table (see the package hsm doc comment); there is nothing
// resembling the teacher's elements.Transition to walk.
package plantuml

import (
	"fmt"
	"io"
	"strings"

	"github.com/stateforward/ghsm"
)

func sanitize(name string) string {
	return strings.ReplaceAll(strings.ReplaceAll(name, " ", "_"), "-", "_")
}

// Generate writes a PlantUML state diagram for model's tree to w, rooted
// at model.Top().
func Generate[T hsm.State[T]](w io.Writer, model *hsm.Model[T]) error {
	var b strings.Builder
	fmt.Fprintln(&b, "@startuml")
	generateChildren(&b, model, hsm.RootKey, 0)
	fmt.Fprintln(&b, "@enduml")
	_, err := w.Write([]byte(b.String()))
	return err
}

func generateChildren[T hsm.State[T]](b *strings.Builder, model *hsm.Model[T], parent hsm.StateKey, depth int) {
	children := childrenOf(model, parent)
	for _, key := range children {
		generateState(b, model, key, depth)
	}
}

func childrenOf[T hsm.State[T]](model *hsm.Model[T], parent hsm.StateKey) []hsm.StateKey {
	var keys []hsm.StateKey
	for _, key := range model.Keys() {
		if key == hsm.RootKey {
			continue
		}
		if d := model.Descriptor(key); d.Parent == parent {
			keys = append(keys, key)
		}
	}
	return keys
}

func generateState[T hsm.State[T]](b *strings.Builder, model *hsm.Model[T], key hsm.StateKey, depth int) {
	d := model.Descriptor(key)
	indent := strings.Repeat("  ", depth)
	id := sanitize(d.Name)
	children := childrenOf(model, key)
	if len(children) == 0 {
		fmt.Fprintf(b, "%sstate %s\n", indent, id)
	} else {
		fmt.Fprintf(b, "%sstate %s {\n", indent, id)
		generateChildren(b, model, key, depth+1)
		fmt.Fprintf(b, "%s}\n", indent)
	}
	if d.Persistent {
		fmt.Fprintf(b, "%sstate %s: persistent box\n", indent, id)
	}
	switch {
	case d.History == hsm.ShallowHistory:
		fmt.Fprintf(b, "%sstate %s: history [H]\n", indent, id)
	case d.History == hsm.DeepHistory:
		fmt.Fprintf(b, "%sstate %s: history [H*]\n", indent, id)
	}
}

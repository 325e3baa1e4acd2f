// Package hsmyaml dumps an hsm.Snapshot to YAML for debugging and
// postmortem logging, the same shape comalice-statechartx's
// MachineSnapshot uses its yaml struct tags for: a flat, human-readable
// view of what a machine was doing. It is one-way — box values come back
// from yaml.v3 as generic maps, not the original concrete Go types, so
// this package is not a substitute for hsm.Machine.Restore.
package hsmyaml

import (
	"fmt"

	"github.com/stateforward/ghsm"
	"gopkg.in/yaml.v3"
)

// doc mirrors a Snapshot but with string-keyed maps and a resolved state
// name list, so the YAML output is self-describing without a Model in
// hand to decode StateKeys against.
type doc struct {
	ID      string            `yaml:"id"`
	Active  []string          `yaml:"active"`
	Boxes   map[string]any    `yaml:"boxes,omitempty"`
	History map[string]string `yaml:"history,omitempty"`
}

// Dump renders snapshot as YAML, resolving every StateKey to its display
// name via model.
func Dump[T hsm.State[T]](model *hsm.Model[T], snapshot *hsm.Snapshot[T]) ([]byte, error) {
	name := func(key hsm.StateKey) string {
		if d := model.Descriptor(key); d != nil {
			return d.Name
		}
		return fmt.Sprintf("key(%d)", key)
	}

	d := doc{
		ID:      snapshot.ID,
		Active:  make([]string, len(snapshot.Active)),
		Boxes:   make(map[string]any, len(snapshot.Boxes)),
		History: make(map[string]string, len(snapshot.History)),
	}
	for i, key := range snapshot.Active {
		d.Active[i] = name(key)
	}
	for key, box := range snapshot.Boxes {
		d.Boxes[name(key)] = box
	}
	for ancestor, target := range snapshot.History {
		d.History[name(ancestor)] = name(target)
	}

	return yaml.Marshal(d)
}

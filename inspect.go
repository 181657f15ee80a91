package params

import (
	"encoding/json"

	"github.com/goliatone/go-params/internal/clone"
)

// Inspection captures one execution context's override stack at a point in
// time, base entry first.
type Inspection struct {
	Param   string       `json:"param"`
	Context ContextID    `json:"context"`
	Entries []StackEntry `json:"entries"`
}

// StackEntry details one stack entry. Scope is the serial of the scope that
// pushed the entry, zero for the base entry seeded from the default.
type StackEntry struct {
	Depth int    `json:"depth"`
	Scope uint64 `json:"scope,omitempty"`
	Value any    `json:"value,omitempty"`
}

// ToJSON serialises the inspection into JSON for logging or transport
// helpers.
func (i Inspection) ToJSON() ([]byte, error) {
	type alias Inspection
	return json.Marshal(alias(i))
}

// InspectionFromJSON deserialises a JSON payload that was previously
// generated via ToJSON.
func InspectionFromJSON(payload []byte) (Inspection, error) {
	type alias Inspection
	var inspection alias
	if err := json.Unmarshal(payload, &inspection); err != nil {
		return Inspection{}, err
	}
	return Inspection(inspection), nil
}

// Inspect snapshots the calling context's stack for debugging. Entry values
// are deep-cloned so live state cannot be reached through the snapshot.
// Contexts that never touched the parameter see the single base entry without
// a stack being materialized; a released parameter yields no entries.
func (p *Parameter[T]) Inspect() Inspection {
	inspection := Inspection{
		Param:   p.label(),
		Context: CurrentContext(),
	}
	if p.released.Load() {
		return inspection
	}
	raw, ok := p.cells.Load(inspection.Context)
	if !ok {
		inspection.Entries = []StackEntry{{Depth: 0, Value: clone.Value(any(p.def))}}
		return inspection
	}
	c := raw.(*cell[T])
	inspection.Entries = make([]StackEntry, len(c.entries))
	for i := range c.entries {
		inspection.Entries[i] = StackEntry{
			Depth: i,
			Scope: c.entries[i].serial,
			Value: clone.Value(any(c.entries[i].value)),
		}
	}
	return inspection
}

package dfd

import (
	"github.com/charmbracelet/log"
)

// Build turns a validated model into an ordered, positioned cell list:
// boundary cells first (ancestors before descendants), then leaf nodes,
// then flow edges. The result is complete or the build fails - a partial
// layout is never returned.
//
// Cell ids are minted fresh on every call, so two builds of the same model
// agree on geometry but not on ids.
func Build(m *Model) ([]Cell, error) {
	hier, err := newHierarchy(m.Components)
	if err != nil {
		return nil, err
	}

	log.Debug("building diagram cells",
		"components", len(m.Components), "flows", len(m.Flows))

	b := &builder{
		model:       m,
		hier:        hier,
		byComponent: make(map[string]*Cell, len(m.Components)),
	}
	b.addBoundaryCells()
	b.addLeafCells()
	b.layoutRoots()
	b.addEdgeCells()

	out := make([]Cell, len(b.cells))
	for i, c := range b.cells {
		out[i] = *c
	}

	log.Debug("diagram cells built", "cells", len(out))
	return out, nil
}

// builder accumulates cells for a single Build call. The component-id index
// lets later stages (layout, edges) reach the cells created earlier; it is
// discarded with the builder.
type builder struct {
	model       *Model
	hier        *hierarchy
	cells       []*Cell
	byComponent map[string]*Cell
}

func (b *builder) add(c Component, cell *Cell) {
	b.cells = append(b.cells, cell)
	b.byComponent[c.ID] = cell
}

package dfd

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// addBoundaryCells emits a cell for every boundary component, shallowest
// first so a nested boundary's parent cell already exists when it is built.
func (b *builder) addBoundaryCells() {
	for _, c := range b.hier.boundariesByDepth() {
		b.add(c, b.newNodeCell(c, boundaryZIndex(b.hier.depth(c.ID))))
	}
}

// addLeafCells emits a cell for every leaf component in input order.
// Compute and gateway nodes get connection ports; stores and actors do not.
func (b *builder) addLeafCells() {
	for _, c := range b.hier.leaves() {
		cell := b.newNodeCell(c, leafZIndex(c.Type))
		if c.Type == TypeCompute || c.Type == TypeGateway {
			cell.Ports = defaultPorts()
		}
		b.add(c, cell)
	}
}

// newNodeCell builds the cell for one component. Position starts at the
// origin; the layout engine assigns real coordinates afterwards.
func (b *builder) newNodeCell(c Component, zIndex int) *Cell {
	w, h := defaultNodeWidth, defaultNodeHeight
	if c.Type.IsBoundary() {
		w, h = defaultBoundaryWidth, defaultBoundaryHeight
	}

	cell := &Cell{
		ID:     uuid.NewString(),
		Shape:  shapeFor(c.Type),
		ZIndex: zIndex,
		Width:  w,
		Height: h,
		Attrs: CellAttrs{
			Body: bodyAttrsFor(c.Type),
			Text: &TextAttrs{Text: c.Name},
		},
		Data: &CellData{
			Metadata: []MetadataEntry{
				{Key: MetaKeyComponentID, Value: c.ID},
				{Key: MetaKeyComponentType, Value: string(c.Type)},
				{Key: MetaKeyComponentSubtype, Value: c.Subtype},
			},
		},
	}

	// The parent reference is the parent's cell id, not the component id.
	if c.ParentID != "" {
		if parent := b.byComponent[c.ParentID]; parent != nil {
			cell.Parent = parent.ID
		}
	}

	return cell
}

// defaultPorts returns the two-port configuration shared by compute and
// gateway nodes: inbound connections land on the left, outbound leave right.
func defaultPorts() *Ports {
	return &Ports{
		Groups: map[string]PortGroup{
			"in":  {Position: "left"},
			"out": {Position: "right"},
		},
		Items: []PortItem{
			{ID: "port-in", Group: "in"},
			{ID: "port-out", Group: "out"},
		},
	}
}

// portFor returns the id of the cell's port in the given group, or "" when
// the cell has no ports.
func portFor(cell *Cell, group string) string {
	if cell.Ports == nil {
		return ""
	}
	for _, item := range cell.Ports.Items {
		if item.Group == group {
			return item.ID
		}
	}
	return ""
}

// addEdgeCells emits edge cells for every flow, two per flow with swapped
// endpoints when the flow is bidirectional.
func (b *builder) addEdgeCells() {
	for _, f := range b.model.Flows {
		if f.Bidirectional {
			b.addEdge(f, f.SourceID, f.TargetID, f.Name+" →")
			b.addEdge(f, f.TargetID, f.SourceID, f.Name+" ←")
			continue
		}
		b.addEdge(f, f.SourceID, f.TargetID, f.Name)
	}
}

// addEdge emits a single edge cell. A flow whose endpoint never produced a
// node cell is skipped with a warning rather than failing the build: input
// was already validated, so a gap here points at an internal inconsistency.
func (b *builder) addEdge(f Flow, sourceID, targetID, label string) {
	source := b.byComponent[sourceID]
	target := b.byComponent[targetID]
	if source == nil || target == nil {
		log.Warn("skipping flow: endpoint component has no cell",
			"flow", f.ID, "source", sourceID, "target", targetID)
		return
	}

	edge := &Cell{
		ID:     uuid.NewString(),
		Shape:  ShapeEdge,
		ZIndex: zEdge,
		Source: &Endpoint{Cell: source.ID, Port: portFor(source, "out")},
		Target: &Endpoint{Cell: target.ID, Port: portFor(target, "in")},
		Attrs: CellAttrs{
			Line: &LineAttrs{
				Stroke:      edgeStroke,
				StrokeWidth: edgeStrokeWidth,
				TargetMarker: &Marker{
					Name:   edgeMarkerName,
					Width:  edgeMarkerWidth,
					Height: edgeMarkerHeight,
				},
			},
		},
		Labels:    []Label{{Attrs: LabelAttrs{Text: TextAttrs{Text: edgeLabel(label, f)}}}},
		Router:    &Router{Name: routerManhattan},
		Connector: &Router{Name: connectorRounded},
	}
	b.cells = append(b.cells, edge)
}

// edgeLabel appends the protocol suffix to an edge label: "name (tcp:5432)",
// "name (https)", or just the name when the flow has no protocol. The port
// rides inside the protocol parenthetical and never appears alone.
func edgeLabel(base string, f Flow) string {
	if f.Protocol == "" {
		return base
	}
	if f.Port != 0 {
		return fmt.Sprintf("%s (%s:%d)", base, f.Protocol, f.Port)
	}
	return fmt.Sprintf("%s (%s)", base, f.Protocol)
}

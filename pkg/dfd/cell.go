package dfd

import (
	"encoding/json"
	"fmt"
	"os"
)

// =============================================================================
// Cell - Diagram Output Format
// =============================================================================

// Shape identifies the visual kind of a cell in the diagram schema.
type Shape string

// Shapes understood by the TM server's diagram renderer.
const (
	ShapeSecurityBoundary Shape = "security-boundary"
	ShapeProcess          Shape = "process"
	ShapeStore            Shape = "store"
	ShapeActor            Shape = "actor"
	ShapeEdge             Shape = "edge"
)

// Cell is the serialization unit of a TM server diagram (AntV X6 v2 format).
//
// This is a discriminated union type - check Shape (or IsEdge) to determine
// which fields are populated:
//
//	Node shapes ("security-boundary", "process", "store", "actor"):
//	  - X/Y/Width/Height: geometry assigned by the layout engine
//	  - Parent: enclosing boundary's cell id, when nested
//	  - Ports: connection points (compute and gateway nodes only)
//	  - Data: metadata echoing the originating component
//
//	Edge shape ("edge"):
//	  - Source/Target: endpoint cell ids plus optional port ids
//	  - Labels: flow name with protocol suffix
//	  - Router/Connector: routing style for the rendered line
//
// Cell ids are minted fresh per build; metadata links cells back to the
// originating component ids.
type Cell struct {
	ID     string `json:"id"`
	Shape  Shape  `json:"shape"`
	ZIndex int    `json:"zIndex"`

	// Node geometry
	X      int `json:"x,omitempty"`
	Y      int `json:"y,omitempty"`
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`

	Parent string    `json:"parent,omitempty"`
	Ports  *Ports    `json:"ports,omitempty"`
	Data   *CellData `json:"data,omitempty"`

	// Edge endpoints and routing
	Source    *Endpoint `json:"source,omitempty"`
	Target    *Endpoint `json:"target,omitempty"`
	Labels    []Label   `json:"labels,omitempty"`
	Router    *Router   `json:"router,omitempty"`
	Connector *Router   `json:"connector,omitempty"`

	Attrs CellAttrs `json:"attrs"`
}

// IsEdge reports whether this cell is a flow edge.
func (c *Cell) IsEdge() bool { return c.Shape == ShapeEdge }

// IsNode reports whether this cell is a positioned node.
func (c *Cell) IsNode() bool { return !c.IsEdge() }

// Label returns the cell's display text: the node label for nodes, the first
// edge label for edges, or "" when unset.
func (c *Cell) Label() string {
	if c.IsNode() {
		if c.Attrs.Text != nil {
			return c.Attrs.Text.Text
		}
		return ""
	}
	if len(c.Labels) > 0 {
		return c.Labels[0].Attrs.Text.Text
	}
	return ""
}

// ComponentID returns the originating component id from cell metadata,
// or "" for edges and cells without metadata.
func (c *Cell) ComponentID() string {
	return c.metadataValue(MetaKeyComponentID)
}

// ComponentType returns the originating component type from cell metadata.
func (c *Cell) ComponentType() string {
	return c.metadataValue(MetaKeyComponentType)
}

// ComponentSubtype returns the originating component subtype from cell
// metadata, or "" when the component had none.
func (c *Cell) ComponentSubtype() string {
	return c.metadataValue(MetaKeyComponentSubtype)
}

func (c *Cell) metadataValue(key string) string {
	if c.Data == nil {
		return ""
	}
	for _, entry := range c.Data.Metadata {
		if entry.Key == key {
			return entry.Value
		}
	}
	return ""
}

// Metadata keys attached to every node cell.
const (
	MetaKeyComponentID      = "component_id"
	MetaKeyComponentType    = "component_type"
	MetaKeyComponentSubtype = "component_subtype"
)

// CellAttrs carries the style attributes for a cell. Body and Text are set
// on nodes, Line on edges.
type CellAttrs struct {
	Body *BodyAttrs `json:"body,omitempty"`
	Text *TextAttrs `json:"text,omitempty"`
	Line *LineAttrs `json:"line,omitempty"`
}

// BodyAttrs is the fill/stroke pair for a node body.
type BodyAttrs struct {
	Fill   string `json:"fill"`
	Stroke string `json:"stroke"`
}

// TextAttrs holds display text.
type TextAttrs struct {
	Text string `json:"text"`
}

// LineAttrs styles an edge line.
type LineAttrs struct {
	Stroke       string  `json:"stroke"`
	StrokeWidth  int     `json:"strokeWidth"`
	TargetMarker *Marker `json:"targetMarker,omitempty"`
}

// Marker is an edge arrowhead.
type Marker struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// CellData wraps the metadata list attached to node cells.
type CellData struct {
	Metadata []MetadataEntry `json:"_metadata"`
}

// MetadataEntry is a single key/value metadata pair.
type MetadataEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Ports describes the connection points of a node.
type Ports struct {
	Groups map[string]PortGroup `json:"groups"`
	Items  []PortItem           `json:"items"`
}

// PortGroup positions a family of ports on a node edge.
type PortGroup struct {
	Position string `json:"position"`
}

// PortItem is a single connectable port belonging to a group.
type PortItem struct {
	ID    string `json:"id"`
	Group string `json:"group"`
}

// Endpoint references a cell (and optionally one of its ports) as an edge
// source or target.
type Endpoint struct {
	Cell string `json:"cell"`
	Port string `json:"port,omitempty"`
}

// Label is an edge label.
type Label struct {
	Attrs LabelAttrs `json:"attrs"`
}

// LabelAttrs holds the text of an edge label.
type LabelAttrs struct {
	Text TextAttrs `json:"text"`
}

// Router names an edge routing or connector algorithm.
type Router struct {
	Name string `json:"name"`
}

// =============================================================================
// Cell Serialization API
// =============================================================================

// MarshalCells serializes a cell list to pretty-printed JSON bytes.
func MarshalCells(cells []Cell) ([]byte, error) {
	return json.MarshalIndent(cells, "", "  ")
}

// UnmarshalCells deserializes JSON bytes into a cell list.
// Every cell must carry an id and a shape.
func UnmarshalCells(data []byte) ([]Cell, error) {
	var cells []Cell
	if err := json.Unmarshal(data, &cells); err != nil {
		return nil, fmt.Errorf("unmarshal cells: %w", err)
	}
	for i, c := range cells {
		if c.ID == "" || c.Shape == "" {
			return nil, fmt.Errorf("cell %d: missing id or shape", i)
		}
	}
	return cells, nil
}

// WriteCellsFile writes a cell list to a JSON file.
func WriteCellsFile(cells []Cell, path string) error {
	data, err := MarshalCells(cells)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadCellsFile reads a cell list from a JSON file.
func ReadCellsFile(path string) ([]Cell, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalCells(data)
}

package dfd

// Z-index ladder: outer boundaries paint lowest, nested boundaries one step
// higher per depth level, leaf nodes above all boundaries, edges on top.
const (
	zBoundaryBase = 1
	zBoundaryStep = 1
	zGateway      = 10
	zLeaf         = 11
	zEdge         = 20
)

// Edge line style.
const (
	edgeStroke       = "#333333"
	edgeStrokeWidth  = 2
	edgeMarkerName   = "block"
	edgeMarkerWidth  = 12
	edgeMarkerHeight = 8
	routerManhattan  = "manhattan"
	connectorRounded = "rounded"
)

// shapeFor maps a component type to its diagram shape.
func shapeFor(t ComponentType) Shape {
	switch t {
	case TypeTenancy, TypeContainer, TypeNetwork:
		return ShapeSecurityBoundary
	case TypeGateway, TypeCompute:
		return ShapeProcess
	case TypeStorage:
		return ShapeStore
	case TypeActor:
		return ShapeActor
	default:
		return ShapeProcess
	}
}

// bodyAttrsFor returns the fill/stroke pair for a component type.
func bodyAttrsFor(t ComponentType) *BodyAttrs {
	switch t {
	case TypeTenancy:
		return &BodyAttrs{Fill: "#FFF3E0", Stroke: "#FF9800"}
	case TypeContainer:
		return &BodyAttrs{Fill: "#E3F2FD", Stroke: "#2196F3"}
	case TypeNetwork:
		return &BodyAttrs{Fill: "#F3E5F5", Stroke: "#9C27B0"}
	case TypeGateway:
		return &BodyAttrs{Fill: "#E8F5E9", Stroke: "#4CAF50"}
	case TypeCompute:
		return &BodyAttrs{Fill: "#E1F5FE", Stroke: "#03A9F4"}
	case TypeStorage:
		return &BodyAttrs{Fill: "#FFF9C4", Stroke: "#FBC02D"}
	case TypeActor:
		return &BodyAttrs{Fill: "#FFEBEE", Stroke: "#F44336"}
	default:
		return &BodyAttrs{Fill: "#FFFFFF", Stroke: "#333333"}
	}
}

// leafZIndex returns the paint order for a leaf node type.
func leafZIndex(t ComponentType) int {
	if t == TypeGateway {
		return zGateway
	}
	return zLeaf
}

// boundaryZIndex returns the paint order for a boundary at the given depth.
func boundaryZIndex(depth int) int {
	return zBoundaryBase + depth*zBoundaryStep
}

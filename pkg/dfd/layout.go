package dfd

import "math"

// Layout constants. Boundaries start at the default size so their children
// can be spaced on a predictable grid, then shrink or grow to fit.
const (
	boundaryPadding       = 50
	nodeSpacing           = 30
	defaultNodeWidth      = 120
	defaultNodeHeight     = 60
	defaultBoundaryWidth  = 800
	defaultBoundaryHeight = 600
	minBoundaryWidth      = defaultBoundaryWidth / 2
	minBoundaryHeight     = defaultBoundaryHeight / 2
	rootMargin            = 50
)

// layoutRoots positions every root component and recurses into its
// containment tree. Tenancy and container roots stack top-to-bottom;
// network and leaf roots advance left-to-right. Roots are visited in
// input order, and cursor advances read the size a boundary ended up with
// after fitting its children.
func (b *builder) layoutRoots() {
	x, y := rootMargin, rootMargin
	for _, c := range b.hier.roots() {
		cell := b.byComponent[c.ID]
		if cell == nil {
			continue
		}
		b.layoutComponent(c, x, y)
		if c.Type == TypeTenancy || c.Type == TypeContainer {
			y += cell.Height + boundaryPadding
		} else {
			x += cell.Width + nodeSpacing
		}
	}
}

// layoutComponent places one component at (x, y) and, for boundaries, lays
// out its children depth-first: every descendant reaches its final position
// and size before the boundary itself is resized around them. Children of
// non-boundary components get no sub-layout.
func (b *builder) layoutComponent(c Component, x, y int) {
	cell := b.byComponent[c.ID]
	if cell == nil {
		return
	}
	cell.X, cell.Y = x, y

	children := b.hier.childrenOf(c.ID)
	if len(children) == 0 || !c.Type.IsBoundary() {
		return
	}

	positions := gridPositions(len(children), x, y, cell.Width, cell.Height)
	for i, child := range children {
		b.layoutComponent(child, positions[i].x, positions[i].y)
	}
	b.resizeToFit(cell, children)
}

type gridPos struct {
	x, y int
}

// gridPositions arranges n children in a near-square grid inside the
// parent's padded interior: ceil(sqrt(n)) columns, filled row-major in
// input order. The interior is divided evenly into grid cells with fixed
// spacing gaps; children larger than a grid cell overflow it and are
// reclaimed by the parent's resize pass.
func gridPositions(n, parentX, parentY, parentWidth, parentHeight int) []gridPos {
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	if cols < 1 {
		cols = 1
	}
	rows := (n + cols - 1) / cols

	availWidth := parentWidth - 2*boundaryPadding
	availHeight := parentHeight - 2*boundaryPadding
	cellWidth := (availWidth - (cols-1)*nodeSpacing) / cols
	cellHeight := (availHeight - (rows-1)*nodeSpacing) / rows

	positions := make([]gridPos, n)
	for i := range positions {
		row, col := i/cols, i%cols
		positions[i] = gridPos{
			x: parentX + boundaryPadding + col*(cellWidth+nodeSpacing),
			y: parentY + boundaryPadding + row*(cellHeight+nodeSpacing),
		}
	}
	return positions
}

// resizeToFit tightens a boundary around the final extents of its immediate
// children, keeping the padding margin on every side and never dropping
// below the minimum boundary size.
func (b *builder) resizeToFit(cell *Cell, children []Component) {
	found := false
	maxX, maxY := 0, 0
	for _, child := range children {
		cc := b.byComponent[child.ID]
		if cc == nil {
			continue
		}
		found = true
		if right := cc.X + cc.Width; right > maxX {
			maxX = right
		}
		if bottom := cc.Y + cc.Height; bottom > maxY {
			maxY = bottom
		}
	}
	if !found {
		return
	}

	cell.Width = max(maxX-cell.X+boundaryPadding, minBoundaryWidth)
	cell.Height = max(maxY-cell.Y+boundaryPadding, minBoundaryHeight)
}

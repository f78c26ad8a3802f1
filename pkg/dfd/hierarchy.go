package dfd

import (
	"slices"

	"github.com/threatmap/threatmap/pkg/errors"
)

// hierarchy resolves parent/child containment over the component batch.
// Components live in an index arena so depth walks follow integer indices
// and a visited set turns a cyclic parent chain into a detected error
// instead of unbounded recursion.
//
// All lookups preserve the input component order; the layout engine relies
// on that for deterministic placement.
type hierarchy struct {
	components []Component
	index      map[string]int // component id -> arena index
	depths     []int          // arena-parallel nesting depth
}

// newHierarchy indexes the components and computes every nesting depth up
// front. Returns ErrCodeCycleDetected when a parent_id chain loops.
func newHierarchy(components []Component) (*hierarchy, error) {
	h := &hierarchy{
		components: components,
		index:      make(map[string]int, len(components)),
		depths:     make([]int, len(components)),
	}
	for i, c := range components {
		h.index[c.ID] = i
	}
	for i := range components {
		d, err := h.walkDepth(i)
		if err != nil {
			return nil, err
		}
		h.depths[i] = d
	}
	return h, nil
}

// walkDepth follows the parent chain from arena index i, counting hops.
// A parent_id that resolves to nothing ends the walk: the component is
// treated as rooted at whatever depth the chain reached.
func (h *hierarchy) walkDepth(i int) (int, error) {
	start := i
	depth := 0
	visited := make(map[int]bool)
	for {
		visited[i] = true
		pid := h.components[i].ParentID
		if pid == "" {
			return depth, nil
		}
		pi, ok := h.index[pid]
		if !ok {
			return depth, nil
		}
		if visited[pi] {
			return 0, errors.New(errors.ErrCodeCycleDetected,
				"component %s: parent chain loops back to %s", h.components[start].ID, pid)
		}
		i = pi
		depth++
	}
}

// depth returns the nesting depth for a component id, 0 when unknown.
func (h *hierarchy) depth(id string) int {
	if i, ok := h.index[id]; ok {
		return h.depths[i]
	}
	return 0
}

// roots returns components without a parent, in input order.
func (h *hierarchy) roots() []Component {
	var out []Component
	for _, c := range h.components {
		if c.ParentID == "" {
			out = append(out, c)
		}
	}
	return out
}

// childrenOf returns the immediate children of a component, in input order.
func (h *hierarchy) childrenOf(id string) []Component {
	var out []Component
	for _, c := range h.components {
		if c.ParentID == id {
			out = append(out, c)
		}
	}
	return out
}

// boundariesByDepth returns the boundary-kind components ordered shallowest
// first, so an ancestor's cell always exists before its descendants are
// emitted. The sort is stable: equal depths keep their input order.
func (h *hierarchy) boundariesByDepth() []Component {
	var out []Component
	for _, c := range h.components {
		if c.Type.IsBoundary() {
			out = append(out, c)
		}
	}
	slices.SortStableFunc(out, func(a, b Component) int {
		return h.depth(a.ID) - h.depth(b.ID)
	})
	return out
}

// leaves returns the non-boundary components in input order.
func (h *hierarchy) leaves() []Component {
	var out []Component
	for _, c := range h.components {
		if !c.Type.IsBoundary() {
			out = append(out, c)
		}
	}
	return out
}

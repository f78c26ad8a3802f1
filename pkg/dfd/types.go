package dfd

import (
	"github.com/threatmap/threatmap/pkg/errors"
)

// ComponentType classifies a component as a containment boundary or a leaf
// node. The enumeration is closed: ParseComponentType rejects anything else.
type ComponentType string

const (
	// Boundary kinds - rendered as security boundaries that contain children.
	TypeTenancy   ComponentType = "tenancy"
	TypeContainer ComponentType = "container"
	TypeNetwork   ComponentType = "network"

	// Leaf kinds - rendered as process, store, and actor nodes.
	TypeGateway ComponentType = "gateway"
	TypeCompute ComponentType = "compute"
	TypeStorage ComponentType = "storage"
	TypeActor   ComponentType = "actor"
)

// ParseComponentType returns the typed constant for s, or an error when s is
// outside the closed enumeration.
func ParseComponentType(s string) (ComponentType, error) {
	t := ComponentType(s)
	switch t {
	case TypeTenancy, TypeContainer, TypeNetwork, TypeGateway, TypeCompute, TypeStorage, TypeActor:
		return t, nil
	}
	return "", errors.New(errors.ErrCodeInvalidComponent, "unknown component type %q", s)
}

// IsBoundary reports whether the type contains other components.
func (t ComponentType) IsBoundary() bool {
	switch t {
	case TypeTenancy, TypeContainer, TypeNetwork:
		return true
	}
	return false
}

// Component is a node or container in the analyzed architecture.
//
// The JSON field names match the extraction contract given to the model, so
// a validated extraction payload unmarshals directly into this type.
type Component struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Type     ComponentType `json:"type"`
	Subtype  string        `json:"subtype,omitempty"`   // Free text, carried through to cell metadata only
	ParentID string        `json:"parent_id,omitempty"` // Containment; must reference another component in the batch
}

// Flow is a directed relationship between two components.
type Flow struct {
	ID            string `json:"id"`
	SourceID      string `json:"source_id"`
	TargetID      string `json:"target_id"`
	Name          string `json:"name"`
	Protocol      string `json:"protocol,omitempty"` // Appended to the edge label when present
	Port          int    `json:"port,omitempty"`     // Appended after the protocol when non-zero
	Bidirectional bool   `json:"bidirectional,omitempty"`
}

// Model is the validated component/flow structure extracted from model
// output. Slice order is preserved from the input payload; the layout engine
// depends on it for deterministic placement.
type Model struct {
	Components []Component `json:"components"`
	Flows      []Flow      `json:"flows"`
}

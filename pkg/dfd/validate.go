package dfd

import (
	"encoding/json"

	"github.com/threatmap/threatmap/pkg/errors"
)

// Parse decodes raw JSON bytes into a Model and validates it. The top-level
// value must be an object carrying both the components and flows keys, each a
// list; anything else is rejected before the records are inspected.
func Parse(data []byte) (*Model, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "structured data is not a JSON object")
	}

	rawComponents, ok := top["components"]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidInput, "structured data is missing the components key")
	}
	rawFlows, ok := top["flows"]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidInput, "structured data is missing the flows key")
	}

	m := &Model{}
	if err := json.Unmarshal(rawComponents, &m.Components); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidComponent, err, "components is not a list of component records")
	}
	if err := json.Unmarshal(rawFlows, &m.Flows); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFlow, err, "flows is not a list of flow records")
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks every component and flow against the model contract.
// Diagnostics name the offending record index so extraction failures can be
// traced back to the model output.
//
// Components may reference later components as parents, so parent references
// are checked in a second pass once the full id set is known.
func (m *Model) Validate() error {
	known := make(map[string]bool, len(m.Components))
	for i, c := range m.Components {
		if c.ID == "" {
			return errors.New(errors.ErrCodeInvalidComponent, "component %d: missing id", i)
		}
		if err := errors.ValidateIdentifier(c.ID); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidComponent, err, "component %d: invalid id %q", i, c.ID)
		}
		if c.Name == "" {
			return errors.New(errors.ErrCodeInvalidComponent, "component %d (%s): missing name", i, c.ID)
		}
		if _, err := ParseComponentType(string(c.Type)); err != nil {
			return errors.New(errors.ErrCodeInvalidComponent, "component %d (%s): unknown type %q", i, c.ID, c.Type)
		}
		known[c.ID] = true
	}

	for i, c := range m.Components {
		if c.ParentID != "" && !known[c.ParentID] {
			return errors.New(errors.ErrCodeInvalidComponent, "component %d (%s): parent_id %q does not match any component", i, c.ID, c.ParentID)
		}
	}

	for i, f := range m.Flows {
		if f.ID == "" {
			return errors.New(errors.ErrCodeInvalidFlow, "flow %d: missing id", i)
		}
		if err := errors.ValidateIdentifier(f.ID); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFlow, err, "flow %d: invalid id %q", i, f.ID)
		}
		if f.SourceID == "" {
			return errors.New(errors.ErrCodeInvalidFlow, "flow %d (%s): missing source_id", i, f.ID)
		}
		if f.TargetID == "" {
			return errors.New(errors.ErrCodeInvalidFlow, "flow %d (%s): missing target_id", i, f.ID)
		}
		if !known[f.SourceID] {
			return errors.New(errors.ErrCodeInvalidFlow, "flow %d (%s): source_id %q does not match any component", i, f.ID, f.SourceID)
		}
		if !known[f.TargetID] {
			return errors.New(errors.ErrCodeInvalidFlow, "flow %d (%s): target_id %q does not match any component", i, f.ID, f.TargetID)
		}
	}

	return nil
}

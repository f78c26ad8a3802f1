package tmserver

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/threatmap/threatmap/pkg/cache"
	"github.com/threatmap/threatmap/pkg/errors"
	"github.com/threatmap/threatmap/pkg/integrations"
)

// Client is a typed REST client for a threat model server.
// Threat model and repository reads go through the cache (with a refresh
// escape hatch); notes and diagrams are always read live because
// create-or-update decisions depend on the server's current state.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a client for the given server, authenticated with the
// bearer token. Construct it after the session is ensured so the token is
// fresh for the whole run.
func NewClient(serverURL, token string, backend cache.Cache, cacheTTL time.Duration) *Client {
	headers := map[string]string{"Accept": "application/json"}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}

	return &Client{
		Client:  integrations.NewClient(backend, "tmserver:", cacheTTL, headers),
		baseURL: strings.TrimSuffix(serverURL, "/"),
	}
}

// GetThreatModel retrieves a threat model by UUID.
func (c *Client) GetThreatModel(ctx context.Context, id string, refresh bool) (*ThreatModel, error) {
	if err := errors.ValidateThreatModelID(id); err != nil {
		return nil, err
	}

	var tm ThreatModel
	err := c.Cached(ctx, "threat_model:"+id, refresh, &tm, func() error {
		return c.Get(ctx, fmt.Sprintf("%s/threat_models/%s", c.baseURL, id), &tm)
	})
	if err != nil {
		return nil, wrapServerErr(err, "get threat model %s", id)
	}
	return &tm, nil
}

// ListRepositories retrieves the repositories attached to a threat model.
func (c *Client) ListRepositories(ctx context.Context, tmID string, refresh bool) ([]Repository, error) {
	if err := errors.ValidateThreatModelID(tmID); err != nil {
		return nil, err
	}

	var repos []Repository
	err := c.Cached(ctx, "repositories:"+tmID, refresh, &repos, func() error {
		return c.Get(ctx, fmt.Sprintf("%s/threat_models/%s/repositories", c.baseURL, tmID), &repos)
	})
	if err != nil {
		return nil, wrapServerErr(err, "list repositories for %s", tmID)
	}
	return repos, nil
}

// ListNotes retrieves all notes for a threat model. Never cached.
func (c *Client) ListNotes(ctx context.Context, tmID string) ([]Note, error) {
	if err := errors.ValidateThreatModelID(tmID); err != nil {
		return nil, err
	}

	var notes []Note
	if err := c.Get(ctx, fmt.Sprintf("%s/threat_models/%s/notes", c.baseURL, tmID), &notes); err != nil {
		return nil, wrapServerErr(err, "list notes for %s", tmID)
	}
	return notes, nil
}

// CreateNote creates a note in a threat model.
func (c *Client) CreateNote(ctx context.Context, tmID string, in NoteInput) (*Note, error) {
	if err := errors.ValidateNoteName(in.Name); err != nil {
		return nil, err
	}

	var note Note
	url := fmt.Sprintf("%s/threat_models/%s/notes", c.baseURL, tmID)
	if err := c.Post(ctx, url, nil, in, &note); err != nil {
		return nil, wrapServerErr(err, "create note %q", in.Name)
	}
	return &note, nil
}

// UpdateNote replaces an existing note's name, content, and description.
func (c *Client) UpdateNote(ctx context.Context, tmID, noteID string, in NoteInput) (*Note, error) {
	if err := errors.ValidateNoteName(in.Name); err != nil {
		return nil, err
	}

	var note Note
	url := fmt.Sprintf("%s/threat_models/%s/notes/%s", c.baseURL, tmID, noteID)
	if err := c.Put(ctx, url, nil, in, &note); err != nil {
		return nil, wrapServerErr(err, "update note %s", noteID)
	}
	return &note, nil
}

// FindNoteByName returns the first note with the given name, or nil when
// no note matches.
func (c *Client) FindNoteByName(ctx context.Context, tmID, name string) (*Note, error) {
	notes, err := c.ListNotes(ctx, tmID)
	if err != nil {
		return nil, err
	}
	for i := range notes {
		if notes[i].Name == name {
			return &notes[i], nil
		}
	}
	return nil, nil
}

// CreateOrUpdateNote updates the note with the matching name if one
// exists, otherwise creates it. Repeated analysis runs converge on a
// single report note this way.
func (c *Client) CreateOrUpdateNote(ctx context.Context, tmID string, in NoteInput) (*Note, error) {
	existing, err := c.FindNoteByName(ctx, tmID, in.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return c.UpdateNote(ctx, tmID, existing.ID, in)
	}
	return c.CreateNote(ctx, tmID, in)
}

// ListDiagrams retrieves all diagrams for a threat model. Never cached.
func (c *Client) ListDiagrams(ctx context.Context, tmID string) ([]Diagram, error) {
	if err := errors.ValidateThreatModelID(tmID); err != nil {
		return nil, err
	}

	var diagrams []Diagram
	if err := c.Get(ctx, fmt.Sprintf("%s/threat_models/%s/diagrams", c.baseURL, tmID), &diagrams); err != nil {
		return nil, wrapServerErr(err, "list diagrams for %s", tmID)
	}
	return diagrams, nil
}

// CreateDiagram creates a diagram in a threat model. An empty input type
// defaults to DiagramTypeDFD.
func (c *Client) CreateDiagram(ctx context.Context, tmID string, in DiagramInput) (*Diagram, error) {
	if in.Type == "" {
		in.Type = DiagramTypeDFD
	}

	var diagram Diagram
	url := fmt.Sprintf("%s/threat_models/%s/diagrams", c.baseURL, tmID)
	if err := c.Post(ctx, url, nil, in, &diagram); err != nil {
		return nil, wrapServerErr(err, "create diagram %q", in.Name)
	}
	return &diagram, nil
}

// UpdateDiagram replaces an existing diagram's name, type, and cells.
func (c *Client) UpdateDiagram(ctx context.Context, tmID, diagramID string, in DiagramInput) (*Diagram, error) {
	if in.Type == "" {
		in.Type = DiagramTypeDFD
	}

	var diagram Diagram
	url := fmt.Sprintf("%s/threat_models/%s/diagrams/%s", c.baseURL, tmID, diagramID)
	if err := c.Put(ctx, url, nil, in, &diagram); err != nil {
		return nil, wrapServerErr(err, "update diagram %s", diagramID)
	}
	return &diagram, nil
}

// FindDiagramByName returns the first diagram with the given name, or nil
// when no diagram matches.
func (c *Client) FindDiagramByName(ctx context.Context, tmID, name string) (*Diagram, error) {
	diagrams, err := c.ListDiagrams(ctx, tmID)
	if err != nil {
		return nil, err
	}
	for i := range diagrams {
		if diagrams[i].Name == name {
			return &diagrams[i], nil
		}
	}
	return nil, nil
}

// CreateOrUpdateDiagram updates the diagram with the matching name if one
// exists, otherwise creates it.
func (c *Client) CreateOrUpdateDiagram(ctx context.Context, tmID string, in DiagramInput) (*Diagram, error) {
	existing, err := c.FindDiagramByName(ctx, tmID, in.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return c.UpdateDiagram(ctx, tmID, existing.ID, in)
	}
	return c.CreateDiagram(ctx, tmID, in)
}

// wrapServerErr maps transport errors onto threatmap error codes so the
// CLI can show actionable messages.
func wrapServerErr(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	switch {
	case stderrors.Is(err, integrations.ErrNotFound):
		return errors.Wrap(errors.ErrCodeNotFound, err, "%s", msg)
	case stderrors.Is(err, integrations.ErrUnauthorized):
		return errors.Wrap(errors.ErrCodeUnauthorized, err, "%s: run 'threatmap auth login'", msg)
	case stderrors.Is(err, integrations.ErrForbidden):
		return errors.Wrap(errors.ErrCodeForbidden, err, "%s", msg)
	default:
		return errors.Wrap(errors.ErrCodeNetwork, err, "%s", msg)
	}
}

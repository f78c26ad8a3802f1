package tmserver

import "time"

// ThreatModel is a threat model as returned by the server.
type ThreatModel struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Owner       string     `json:"owner,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	ModifiedAt  *time.Time `json:"modified_at,omitempty"`
}

// Repository is a source repository attached to a threat model.
type Repository struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	URI         string `json:"uri"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
}

// Note is a markdown note attached to a threat model.
type Note struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Content     string     `json:"content"`
	Description string     `json:"description,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	ModifiedAt  *time.Time `json:"modified_at,omitempty"`
}

// NoteInput is the payload for creating or updating a note.
type NoteInput struct {
	Name        string `json:"name"`
	Content     string `json:"content"`
	Description string `json:"description,omitempty"`
}

// DiagramTypeDFD is the diagram type tag for data flow diagrams.
const DiagramTypeDFD = "DFD-1.0.0"

// Diagram is a diagram attached to a threat model. Cells are kept raw;
// the server is the source of truth for their schema once stored.
type Diagram struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Type       string     `json:"type,omitempty"`
	CellCount  int        `json:"cell_count,omitempty"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
	ModifiedAt *time.Time `json:"modified_at,omitempty"`
}

// DiagramInput is the payload for creating or updating a diagram. Cells
// is marshaled as-is, typically a []dfd.Cell.
type DiagramInput struct {
	Name  string `json:"name"`
	Type  string `json:"type,omitempty"`
	Cells any    `json:"cells"`
}

// tokenResponse is the server's token payload, from the OAuth callback
// parameters or the refresh endpoint body.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
}

// authorizeResponse is returned by servers that answer the authorize
// request with JSON instead of a redirect.
type authorizeResponse struct {
	AuthorizationURL string `json:"authorization_url"`
}

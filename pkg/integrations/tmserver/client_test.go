package tmserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/threatmap/threatmap/pkg/cache"
	"github.com/threatmap/threatmap/pkg/errors"
)

const testTMID = "12345678-1234-1234-1234-123456789abc"

// testClient spins up a fake TM server and returns a client pointed at it.
func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	backend, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	t.Cleanup(func() { backend.Close() })

	return NewClient(srv.URL, "test-token", backend, time.Hour)
}

func TestClient_GetThreatModel(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q, want %q", got, "Bearer test-token")
		}
		if r.URL.Path != "/threat_models/"+testTMID {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(ThreatModel{
			ID:    testTMID,
			Name:  "Payment Platform",
			Owner: "security-team",
		})
	})

	tm, err := client.GetThreatModel(context.Background(), testTMID, false)
	if err != nil {
		t.Fatalf("GetThreatModel() error = %v", err)
	}

	if tm.Name != "Payment Platform" {
		t.Errorf("Name = %q, want %q", tm.Name, "Payment Platform")
	}
	if tm.Owner != "security-team" {
		t.Errorf("Owner = %q, want %q", tm.Owner, "security-team")
	}
}

func TestClient_GetThreatModelInvalidID(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("server should not be reached for an invalid id")
	})

	_, err := client.GetThreatModel(context.Background(), "not-a-uuid", false)
	if err == nil {
		t.Fatal("GetThreatModel() expected error for invalid id")
	}
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidInput)
	}
}

func TestClient_GetThreatModelNotFound(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := client.GetThreatModel(context.Background(), testTMID, false)
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeNotFound)
	}
}

func TestClient_GetThreatModelUnauthorized(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.GetThreatModel(context.Background(), testTMID, false)
	if !errors.Is(err, errors.ErrCodeUnauthorized) {
		t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeUnauthorized)
	}
	if !strings.Contains(err.Error(), "threatmap auth login") {
		t.Errorf("error %q should hint at re-login", err)
	}
}

func TestClient_GetThreatModelCached(t *testing.T) {
	requests := 0
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		json.NewEncoder(w).Encode(ThreatModel{ID: testTMID, Name: "Cached Model"})
	})

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := client.GetThreatModel(ctx, testTMID, false); err != nil {
			t.Fatalf("GetThreatModel() call %d error = %v", i, err)
		}
	}
	if requests != 1 {
		t.Errorf("requests = %d after two cached reads, want 1", requests)
	}

	if _, err := client.GetThreatModel(ctx, testTMID, true); err != nil {
		t.Fatalf("GetThreatModel(refresh) error = %v", err)
	}
	if requests != 2 {
		t.Errorf("requests = %d after refresh, want 2", requests)
	}
}

func TestClient_ListRepositories(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/threat_models/"+testTMID+"/repositories" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode([]Repository{
			{ID: "r1", Name: "infra", URI: "https://github.com/acme/infra"},
			{ID: "r2", Name: "platform", URI: "https://github.com/acme/platform"},
		})
	})

	repos, err := client.ListRepositories(context.Background(), testTMID, false)
	if err != nil {
		t.Fatalf("ListRepositories() error = %v", err)
	}

	if len(repos) != 2 {
		t.Fatalf("len(repos) = %d, want 2", len(repos))
	}
	if repos[0].URI != "https://github.com/acme/infra" {
		t.Errorf("URI = %q, want %q", repos[0].URI, "https://github.com/acme/infra")
	}
}

func TestClient_FindNoteByName(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]Note{
			{ID: "n1", Name: "Meeting Notes"},
			{ID: "n2", Name: "Terraform Analysis Report"},
		})
	})

	ctx := context.Background()

	note, err := client.FindNoteByName(ctx, testTMID, "Terraform Analysis Report")
	if err != nil {
		t.Fatalf("FindNoteByName() error = %v", err)
	}
	if note == nil || note.ID != "n2" {
		t.Errorf("note = %+v, want ID n2", note)
	}

	missing, err := client.FindNoteByName(ctx, testTMID, "Does Not Exist")
	if err != nil {
		t.Fatalf("FindNoteByName() error = %v", err)
	}
	if missing != nil {
		t.Errorf("missing note = %+v, want nil", missing)
	}
}

// notesHandler is a stateful fake for the notes endpoints, enough to
// exercise both branches of create-or-update.
func notesHandler(t *testing.T, notes *[]Note) http.HandlerFunc {
	t.Helper()

	base := "/threat_models/" + testTMID + "/notes"
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == base:
			json.NewEncoder(w).Encode(*notes)
		case r.Method == http.MethodPost && r.URL.Path == base:
			var in NoteInput
			json.NewDecoder(r.Body).Decode(&in)
			note := Note{ID: fmt.Sprintf("n%d", len(*notes)+1), Name: in.Name, Content: in.Content}
			*notes = append(*notes, note)
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(note)
		case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, base+"/"):
			id := strings.TrimPrefix(r.URL.Path, base+"/")
			var in NoteInput
			json.NewDecoder(r.Body).Decode(&in)
			for i := range *notes {
				if (*notes)[i].ID == id {
					(*notes)[i].Name = in.Name
					(*notes)[i].Content = in.Content
					json.NewEncoder(w).Encode((*notes)[i])
					return
				}
			}
			http.NotFound(w, r)
		default:
			http.NotFound(w, r)
		}
	}
}

func TestClient_CreateOrUpdateNote(t *testing.T) {
	var notes []Note
	client := testClient(t, notesHandler(t, &notes))

	ctx := context.Background()

	created, err := client.CreateOrUpdateNote(ctx, testTMID, NoteInput{
		Name:    "Terraform Analysis Report",
		Content: "first run",
	})
	if err != nil {
		t.Fatalf("CreateOrUpdateNote() error = %v", err)
	}
	if created.ID != "n1" {
		t.Errorf("created ID = %q, want n1", created.ID)
	}

	updated, err := client.CreateOrUpdateNote(ctx, testTMID, NoteInput{
		Name:    "Terraform Analysis Report",
		Content: "second run",
	})
	if err != nil {
		t.Fatalf("CreateOrUpdateNote() second call error = %v", err)
	}
	if updated.ID != "n1" {
		t.Errorf("updated ID = %q, want n1 (should update, not create)", updated.ID)
	}
	if len(notes) != 1 {
		t.Errorf("server has %d notes, want 1", len(notes))
	}
	if notes[0].Content != "second run" {
		t.Errorf("note content = %q, want %q", notes[0].Content, "second run")
	}
}

func TestClient_CreateNoteEmptyName(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("server should not be reached for an empty note name")
	})

	_, err := client.CreateNote(context.Background(), testTMID, NoteInput{Content: "body"})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidInput)
	}
}

func TestClient_CreateDiagramDefaultsType(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		var in DiagramInput
		json.NewDecoder(r.Body).Decode(&in)
		if in.Type != DiagramTypeDFD {
			t.Errorf("diagram type = %q, want %q", in.Type, DiagramTypeDFD)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(Diagram{ID: "d1", Name: in.Name, Type: in.Type})
	})

	diagram, err := client.CreateDiagram(context.Background(), testTMID, DiagramInput{
		Name: "Terraform Architecture DFD",
	})
	if err != nil {
		t.Fatalf("CreateDiagram() error = %v", err)
	}
	if diagram.Type != DiagramTypeDFD {
		t.Errorf("Type = %q, want %q", diagram.Type, DiagramTypeDFD)
	}
}

func TestClient_CreateOrUpdateDiagram(t *testing.T) {
	var putHits int
	existing := []Diagram{{ID: "d1", Name: "Terraform Architecture DFD", Type: DiagramTypeDFD}}

	base := "/threat_models/" + testTMID + "/diagrams"
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == base:
			json.NewEncoder(w).Encode(existing)
		case r.Method == http.MethodPut && r.URL.Path == base+"/d1":
			putHits++
			json.NewEncoder(w).Encode(existing[0])
		case r.Method == http.MethodPost:
			t.Error("should update the existing diagram, not create a new one")
		default:
			http.NotFound(w, r)
		}
	})

	_, err := client.CreateOrUpdateDiagram(context.Background(), testTMID, DiagramInput{
		Name: "Terraform Architecture DFD",
	})
	if err != nil {
		t.Fatalf("CreateOrUpdateDiagram() error = %v", err)
	}
	if putHits != 1 {
		t.Errorf("putHits = %d, want 1", putHits)
	}
}

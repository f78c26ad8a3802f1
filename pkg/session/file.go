package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps sessions as JSON files, one per session ID. It backs the
// CLI when no Redis URL is configured.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore opens a store rooted at baseDir, creating the directory if
// needed. An empty baseDir selects ~/.config/threatmap/sessions.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".config", "threatmap", "sessions")
	}
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) sessionPath(sessionID string) string {
	return filepath.Join(s.baseDir, sessionID+".json")
}

// readSession loads one session file. A missing file yields (nil, nil).
func (s *FileStore) readSession(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	return &sess, nil
}

func (s *FileStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path := s.sessionPath(sessionID)
	sess, err := s.readSession(path)
	if err != nil || sess == nil {
		return nil, err
	}

	// An expired session that still holds a refresh token is returned so
	// the caller can refresh instead of forcing an interactive login.
	if sess.IsExpired() && !sess.CanRefresh() {
		os.Remove(path)
		return nil, nil
	}
	return sess, nil
}

func (s *FileStore) Set(ctx context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := os.WriteFile(s.sessionPath(sess.ID), data, 0600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.sessionPath(sessionID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// Cleanup drops session files that are expired beyond refresh. Unreadable
// or corrupt files are left alone.
func (s *FileStore) Cleanup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return fmt.Errorf("read session dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(s.baseDir, entry.Name())
		sess, err := s.readSession(path)
		if err != nil || sess == nil {
			continue
		}
		if sess.IsExpired() && !sess.CanRefresh() {
			os.Remove(path)
		}
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

// Path returns the directory holding the session files.
func (s *FileStore) Path() string {
	return s.baseDir
}

var _ Store = (*FileStore)(nil)

// CLIStore binds a Store to a single server, deriving the session ID from
// the server URL so each server keeps its own login.
type CLIStore struct {
	store     Store
	serverURL string
	sessionID string
}

// NewCLIStore selects the backend from redisURL: Redis when set, files
// under the user's config directory otherwise.
func NewCLIStore(serverURL, redisURL string) (*CLIStore, error) {
	var (
		store Store
		err   error
	)
	if redisURL != "" {
		store, err = NewRedisStore(redisURL)
	} else {
		store, err = NewFileStore("")
	}
	if err != nil {
		return nil, err
	}
	return &CLIStore{
		store:     store,
		serverURL: serverURL,
		sessionID: ServerID(serverURL),
	}, nil
}

// GetSession retrieves the session for the bound server.
func (c *CLIStore) GetSession(ctx context.Context) (*Session, error) {
	return c.store.Get(ctx, c.sessionID)
}

// SaveSession stores the session for the bound server.
func (c *CLIStore) SaveSession(ctx context.Context, sess *Session) error {
	sess.ID = c.sessionID
	return c.store.Set(ctx, sess)
}

// DeleteSession removes the session for the bound server.
func (c *CLIStore) DeleteSession(ctx context.Context) error {
	return c.store.Delete(ctx, c.sessionID)
}

// Store exposes the underlying backend, for cleanup and status commands.
func (c *CLIStore) Store() Store {
	return c.store
}

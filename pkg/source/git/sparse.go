// Package git acquires repository sources through shallow sparse clones.
//
// A sparse clone pulls only Terraform sources and documentation, so even
// large monorepos land quickly and the checkout stays small enough to feed
// an LLM prompt. The checkout lives in a temp directory and is removed by
// [Checkout.Close].
package git

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/threatmap/threatmap/pkg/cache"
	"github.com/threatmap/threatmap/pkg/errors"
)

// setupTimeout bounds the local git steps (init, remote add, config).
// Only the pull talks to the network and gets the configurable timeout.
const setupTimeout = 30 * time.Second

// sparsePatterns limits the checkout to Terraform sources and docs.
var sparsePatterns = []string{"*.tf", "*.tfvars", "*.md", "README*", "LICENSE*", "*.txt"}

// SparseCloner clones repositories shallowly with sparse checkout.
type SparseCloner struct {
	// Timeout bounds the pull step. Zero means no limit beyond the
	// caller's context.
	Timeout time.Duration
}

// NewSparseCloner creates a cloner with the given pull timeout.
func NewSparseCloner(timeout time.Duration) *SparseCloner {
	return &SparseCloner{Timeout: timeout}
}

// File is one collected file from a checkout.
type File struct {
	Path    string // relative to the checkout root
	Content string
}

// Checkout is the on-disk result of a sparse clone with its collected
// contents.
type Checkout struct {
	Name  string
	URL   string
	Dir   string
	Files []File // Terraform sources (*.tf, *.tfvars)
	Docs  []File // documentation (README*, *.md, LICENSE*, *.txt)
}

// Close removes the checkout directory.
func (c *Checkout) Close() error {
	return os.RemoveAll(c.Dir)
}

// ContentHash returns a stable hash over the collected Terraform files,
// used to key cached analyses so a changed repo re-analyzes.
func (c *Checkout) ContentHash() string {
	var buf bytes.Buffer
	for _, f := range c.Files {
		buf.WriteString(f.Path)
		buf.WriteByte(0)
		buf.WriteString(f.Content)
		buf.WriteByte(0)
	}
	return cache.Hash(buf.Bytes())
}

// Clone performs a sparse, depth-1 clone of repoURL and collects its
// Terraform and documentation files. The name is used for the temp
// directory and log lines. Repositories without Terraform files produce
// an ErrCodeNoTerraform error and leave nothing behind.
func (s *SparseCloner) Clone(ctx context.Context, repoURL, name string) (*Checkout, error) {
	if _, err := exec.LookPath("git"); err != nil {
		return nil, errors.New(errors.ErrCodeCloneFailed,
			"cloning requires git. Install with:\n  macOS:  brew install git\n  Linux:  apt install git")
	}

	dir, err := os.MkdirTemp("", "threatmap-"+slug(name)+"-")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create temp dir")
	}

	checkout, err := s.clone(ctx, dir, repoURL, name)
	if err != nil {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			log.Warn("Failed to clean up checkout", "dir", dir, "error", rmErr)
		}
		return nil, err
	}
	return checkout, nil
}

func (s *SparseCloner) clone(ctx context.Context, dir, repoURL, name string) (*Checkout, error) {
	setupCtx, cancel := context.WithTimeout(ctx, setupTimeout)
	defer cancel()

	steps := [][]string{
		{"init"},
		{"remote", "add", "origin", repoURL},
		{"config", "core.sparseCheckout", "true"},
	}
	for _, args := range steps {
		if err := runGit(setupCtx, dir, args...); err != nil {
			return nil, err
		}
	}

	sparseFile := filepath.Join(dir, ".git", "info", "sparse-checkout")
	if err := os.WriteFile(sparseFile, []byte(strings.Join(sparsePatterns, "\n")+"\n"), 0o644); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "write sparse-checkout patterns")
	}

	pullCtx := ctx
	if s.Timeout > 0 {
		var pullCancel context.CancelFunc
		pullCtx, pullCancel = context.WithTimeout(ctx, s.Timeout)
		defer pullCancel()
	}

	log.Debug("Pulling repository", "repo", name, "url", repoURL)
	if err := runGit(pullCtx, dir, "pull", "--depth=1", "origin", "HEAD"); err != nil {
		if pullCtx.Err() == context.DeadlineExceeded {
			return nil, errors.Wrap(errors.ErrCodeTimeout, err, "clone of %s timed out after %s", name, s.Timeout)
		}
		return nil, err
	}

	tf, docs, err := Collect(dir)
	if err != nil {
		return nil, err
	}
	if len(tf) == 0 {
		return nil, errors.New(errors.ErrCodeNoTerraform, "no Terraform files in %s", name)
	}

	return &Checkout{
		Name:  name,
		URL:   repoURL,
		Dir:   dir,
		Files: tf,
		Docs:  docs,
	}, nil
}

// runGit executes one git command in dir, surfacing stderr in the error.
func runGit(ctx context.Context, dir string, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return errors.Wrap(errors.ErrCodeCloneFailed, err, "git %s: %s", strings.Join(args, " "), detail)
	}
	return nil
}

// slug makes a repository name safe for use in a temp directory pattern.
func slug(name string) string {
	if name == "" {
		return "repo"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '-'
		}
	}, name)
}

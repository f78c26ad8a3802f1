package git

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/threatmap/threatmap/pkg/errors"
)

// initOriginRepo builds a committed local git repository to clone from.
func initOriginRepo(t *testing.T, files map[string]string) string {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir := writeTree(t, files)
	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
			"GIT_CONFIG_GLOBAL=/dev/null", "GIT_CONFIG_SYSTEM=/dev/null",
		)
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}

	run("init")
	run("add", ".")
	run("-c", "commit.gpgsign=false", "commit", "-m", "initial")
	return dir
}

func TestSparseCloner_Clone(t *testing.T) {
	origin := initOriginRepo(t, map[string]string{
		"main.tf":            `resource "aws_vpc" "main" {}`,
		"modules/vpc/vpc.tf": `resource "aws_subnet" "a" {}`,
		"README.md":          "# Infra",
		"app.py":             "print('skipped by sparse checkout')",
	})

	cloner := NewSparseCloner(time.Minute)
	checkout, err := cloner.Clone(context.Background(), "file://"+origin, "acme/infra")
	if err != nil {
		t.Fatalf("Clone() error = %v", err)
	}
	defer checkout.Close()

	got := map[string]bool{}
	for _, f := range checkout.Files {
		got[f.Path] = true
	}
	if !got["main.tf"] || !got["modules/vpc/vpc.tf"] {
		t.Errorf("terraform files = %v, want main.tf and modules/vpc/vpc.tf", paths(checkout.Files))
	}

	docs := map[string]bool{}
	for _, f := range checkout.Docs {
		docs[f.Path] = true
	}
	if !docs["README.md"] {
		t.Errorf("docs = %v, want README.md", paths(checkout.Docs))
	}

	// app.py matches no sparse pattern and must not be checked out.
	if _, err := os.Stat(checkout.Dir + "/app.py"); !os.IsNotExist(err) {
		t.Error("app.py should not be in the sparse checkout")
	}

	if !strings.Contains(checkout.Dir, "threatmap-acme-infra-") {
		t.Errorf("checkout dir = %q, want threatmap-acme-infra-* prefix", checkout.Dir)
	}

	if err := checkout.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := os.Stat(checkout.Dir); !os.IsNotExist(err) {
		t.Error("Close() should remove the checkout directory")
	}
}

func TestSparseCloner_CloneNoTerraform(t *testing.T) {
	origin := initOriginRepo(t, map[string]string{
		"README.md": "# Docs only",
	})

	cloner := NewSparseCloner(time.Minute)
	_, err := cloner.Clone(context.Background(), "file://"+origin, "acme/docs")
	if !errors.Is(err, errors.ErrCodeNoTerraform) {
		t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeNoTerraform)
	}
}

func TestSparseCloner_CloneBadRemote(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	cloner := NewSparseCloner(30 * time.Second)
	_, err := cloner.Clone(context.Background(), "file:///nonexistent/repo", "broken")
	if !errors.Is(err, errors.ErrCodeCloneFailed) {
		t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeCloneFailed)
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"acme/infra", "acme-infra"},
		{"simple", "simple"},
		{"", "repo"},
		{"weird name!", "weird-name-"},
	}

	for _, tt := range tests {
		if got := slug(tt.in); got != tt.want {
			t.Errorf("slug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

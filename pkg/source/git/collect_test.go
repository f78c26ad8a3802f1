package git

import (
	"os"
	"path/filepath"
	"testing"
)

// writeTree lays out files under a temp root and returns it.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for path, content := range files {
		full := filepath.Join(root, filepath.FromSlash(path))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("MkdirAll() error = %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}
	return root
}

func paths(files []File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}

func TestCollect(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.tf":             `resource "aws_vpc" "main" {}`,
		"variables.tfvars":    `region = "eu-west-1"`,
		"modules/vpc/vpc.tf":  `resource "aws_subnet" "a" {}`,
		"README.md":           "# Infra",
		"LICENSE":             "MIT",
		"docs/runbook.txt":    "restart the thing",
		"app.py":              "print('not terraform')",
		".git/config":         "[core]",
		".git/info/exclude":   "",
		"modules/vpc/main.go": "package vpc",
	})

	tf, docs, err := Collect(root)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	wantTF := []string{"main.tf", "modules/vpc/vpc.tf", "variables.tfvars"}
	gotTF := paths(tf)
	if len(gotTF) != len(wantTF) {
		t.Fatalf("terraform paths = %v, want %v", gotTF, wantTF)
	}
	for i := range wantTF {
		if gotTF[i] != wantTF[i] {
			t.Errorf("terraform[%d] = %q, want %q", i, gotTF[i], wantTF[i])
		}
	}

	wantDocs := []string{"LICENSE", "README.md", "docs/runbook.txt"}
	gotDocs := paths(docs)
	if len(gotDocs) != len(wantDocs) {
		t.Fatalf("doc paths = %v, want %v", gotDocs, wantDocs)
	}
	for i := range wantDocs {
		if gotDocs[i] != wantDocs[i] {
			t.Errorf("docs[%d] = %q, want %q", i, gotDocs[i], wantDocs[i])
		}
	}

	if tf[0].Content != `resource "aws_vpc" "main" {}` {
		t.Errorf("main.tf content = %q", tf[0].Content)
	}
}

func TestCollectSkipsUnsafePaths(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.tf": `resource "aws_vpc" "main" {}`,
	})
	// Backslash file names are valid on POSIX but fail path validation.
	if err := os.WriteFile(filepath.Join(root, `evil\name.tf`), []byte("x"), 0o644); err != nil {
		t.Skipf("cannot create backslash file name: %v", err)
	}

	tf, _, err := Collect(root)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if got := paths(tf); len(got) != 1 || got[0] != "main.tf" {
		t.Errorf("terraform paths = %v, want [main.tf]", got)
	}
}

func TestCollectEmpty(t *testing.T) {
	tf, docs, err := Collect(t.TempDir())
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(tf) != 0 || len(docs) != 0 {
		t.Errorf("Collect() = %d tf, %d docs, want 0, 0", len(tf), len(docs))
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		want fileKind
	}{
		{"main.tf", fileTerraform},
		{"prod.tfvars", fileTerraform},
		{"Main.TF", fileTerraform},
		{"README.md", fileDoc},
		{"README", fileDoc},
		{"LICENSE", fileDoc},
		{"LICENSE-APACHE", fileDoc},
		{"notes.txt", fileDoc},
		{"main.go", fileOther},
		{"terraform.tfstate", fileOther},
		{"app.py", fileOther},
	}

	for _, tt := range tests {
		if got := classify(tt.name); got != tt.want {
			t.Errorf("classify(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestCheckoutContentHash(t *testing.T) {
	a := &Checkout{Files: []File{{Path: "main.tf", Content: "resource {}"}}}
	b := &Checkout{Files: []File{{Path: "main.tf", Content: "resource {}"}}}
	c := &Checkout{Files: []File{{Path: "main.tf", Content: "changed"}}}

	if a.ContentHash() != b.ContentHash() {
		t.Error("identical checkouts should hash the same")
	}
	if a.ContentHash() == c.ContentHash() {
		t.Error("changed content should change the hash")
	}
	if len(a.ContentHash()) != 64 {
		t.Errorf("hash length = %d, want 64", len(a.ContentHash()))
	}
}

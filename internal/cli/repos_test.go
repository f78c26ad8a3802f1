package cli

import (
	"strings"
	"testing"

	"github.com/threatmap/threatmap/pkg/integrations/tmserver"
)

func TestRepoBadge(t *testing.T) {
	tests := []struct {
		name string
		repo tmserver.Repository
		want string
	}{
		{"github", tmserver.Repository{URI: "https://github.com/acme/infra"}, "[github]"},
		{"github with type", tmserver.Repository{URI: "https://github.com/acme/infra", Type: "git"}, "[github:git]"},
		{"other host", tmserver.Repository{URI: "https://git.acme.internal/infra"}, "[other]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := repoBadge(tt.repo); !strings.Contains(got, tt.want) {
				t.Errorf("repoBadge() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestCountGitHub(t *testing.T) {
	if got := countGitHub(testRepos()); got != 2 {
		t.Errorf("countGitHub() = %d, want 2", got)
	}
	if got := countGitHub(nil); got != 0 {
		t.Errorf("countGitHub(nil) = %d, want 0", got)
	}
}

package github

import (
	"fmt"
	"regexp"
)

// GitHub naming rules: owners run 1-39 alphanumerics or hyphens with no
// leading hyphen; repository names additionally allow dots and underscores
// up to 100 characters.
var (
	ownerPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]{0,38}$`)
	repoPattern  = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,100}$`)
)

// ValidateRepoRef checks an owner/repository pair before it is spliced into
// an API path. The parts usually come out of [ParseRepoURL], so a failure
// here points at a malformed repository URI on the threat model.
func ValidateRepoRef(owner, repo string) error {
	switch {
	case owner == "":
		return fmt.Errorf("repository owner is required")
	case !ownerPattern.MatchString(owner):
		return fmt.Errorf("invalid repository owner %q", owner)
	case repo == "":
		return fmt.Errorf("repository name is required")
	case !repoPattern.MatchString(repo):
		return fmt.Errorf("invalid repository name %q", repo)
	}
	return nil
}

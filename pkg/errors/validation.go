package errors

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	maxIdentifierLength = 256
	maxPathLength       = 500
	maxNoteNameLength   = 256
)

// ValidateIdentifier checks a component or flow identifier from extracted
// model data. Identifiers end up in diagram metadata and cache keys, so
// control characters, traversal sequences, and oversized values are all
// rejected.
func ValidateIdentifier(id string) error {
	switch {
	case id == "":
		return New(ErrCodeInvalidInput, "identifier is empty")
	case len(id) > maxIdentifierLength:
		return New(ErrCodeInvalidInput, "identifier exceeds %d characters", maxIdentifierLength)
	case strings.ContainsFunc(id, unicode.IsControl):
		return New(ErrCodeInvalidInput, "identifier contains control characters")
	}
	for _, seq := range []string{"..", "//", "\\"} {
		if strings.Contains(id, seq) {
			return New(ErrCodeInvalidInput, "identifier contains %q", seq)
		}
	}
	return nil
}

// ValidatePath checks a file path inside a repository checkout. Only clean
// relative paths pass; anything that could escape the checkout root or
// smuggle Windows separators is rejected.
func ValidatePath(path string) error {
	switch {
	case path == "":
		return New(ErrCodeInvalidPath, "path is empty")
	case len(path) > maxPathLength:
		return New(ErrCodeInvalidPath, "path exceeds %d characters", maxPathLength)
	case strings.ContainsFunc(path, unicode.IsControl):
		return New(ErrCodeInvalidPath, "path contains control characters")
	case strings.HasPrefix(path, "/"):
		return New(ErrCodeInvalidPath, "path is absolute, want relative")
	case strings.Contains(path, ".."):
		return New(ErrCodeInvalidPath, "path contains traversal sequence (..)")
	case strings.Contains(path, "\\"):
		return New(ErrCodeInvalidPath, "path contains a backslash")
	}
	return nil
}

// ValidateURL checks that a URL uses http or https. Scheme sniffing is by
// prefix on purpose; full parsing happens later in the HTTP client.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL is empty")
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}
	return nil
}

// threatModelIDRegex matches UUID-shaped threat model identifiers.
var threatModelIDRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// ValidateThreatModelID checks a threat model identifier. The TM server
// issues UUIDs; anything else is rejected before it reaches a request path.
func ValidateThreatModelID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "threat model id is empty")
	}
	if !threatModelIDRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "invalid threat model id: %q (expected UUID)", id)
	}
	return nil
}

// ValidateRepoURL checks a repository URL linked to a threat model. Only
// http and https clone URLs pass; ssh remotes are rejected because the
// sparse-clone path runs unattended and cannot answer host key prompts.
func ValidateRepoURL(rawURL string) error {
	if err := ValidateURL(rawURL); err != nil {
		return New(ErrCodeInvalidRepoURL, "invalid repository URL: %s", UserMessage(err))
	}
	if strings.Contains(rawURL, " ") {
		return New(ErrCodeInvalidRepoURL, "repository URL contains spaces")
	}
	return nil
}

// ValidateNoteName checks a note name before it is sent to the TM server.
func ValidateNoteName(name string) error {
	switch {
	case name == "":
		return New(ErrCodeInvalidInput, "note name is empty")
	case len(name) > maxNoteNameLength:
		return New(ErrCodeInvalidInput, "note name exceeds %d characters", maxNoteNameLength)
	case strings.ContainsFunc(name, unicode.IsControl):
		return New(ErrCodeInvalidInput, "note name contains control characters")
	}
	return nil
}

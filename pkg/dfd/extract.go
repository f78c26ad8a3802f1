package dfd

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/threatmap/threatmap/pkg/errors"
)

// Model responses rarely arrive as clean JSON: the payload is usually wrapped
// in narrative text, a markdown code fence, or both. Extraction tries the
// cheapest interpretation first and falls back to progressively looser scans.
var (
	fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n(.*?)\\n```")
	braceObjectRe = regexp.MustCompile(`(?s)\{.*\}`)
)

// ExtractJSON locates the first well-formed JSON document in raw model
// output. It tries the whole text, then every fenced code block, then the
// largest brace-delimited span. The first candidate that parses wins; its
// content is validated separately by Parse.
func ExtractJSON(text string) ([]byte, error) {
	if candidate := strings.TrimSpace(text); json.Valid([]byte(candidate)) {
		return []byte(candidate), nil
	}

	for _, m := range fencedBlockRe.FindAllStringSubmatch(text, -1) {
		if candidate := strings.TrimSpace(m[1]); json.Valid([]byte(candidate)) {
			return []byte(candidate), nil
		}
	}

	if candidate := braceObjectRe.FindString(text); candidate != "" && json.Valid([]byte(candidate)) {
		return []byte(candidate), nil
	}

	return nil, errors.New(errors.ErrCodeExtractionFailed, "no structured data found in model output")
}

// Extract pulls a JSON document out of raw model output and validates it
// against the component/flow contract.
func Extract(text string) (*Model, error) {
	raw, err := ExtractJSON(text)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

package cache

// Keyer generates cache keys for the pipeline stages and HTTP clients.
//
// Keys must incorporate every option that changes a stage's output. The
// default implementation hashes option structs so key length stays bounded
// regardless of input size.
type Keyer interface {
	// HTTPKey generates a key for an HTTP response.
	HTTPKey(namespace, key string) string

	// AnalysisKey generates a key for an LLM repository analysis.
	AnalysisKey(repoURL string, opts AnalysisKeyOpts) string

	// ExtractKey generates a key for a structured extraction result.
	ExtractKey(reportHash string, opts ExtractKeyOpts) string
}

// AnalysisKeyOpts captures the inputs that affect a repository analysis.
type AnalysisKeyOpts struct {
	// Model is the LLM model identifier.
	Model string

	// ContentHash is the hash of all collected file contents. A changed
	// repository yields a different hash and therefore a different key.
	ContentHash string

	// MaxFiles bounds how many files were included in the prompt.
	MaxFiles int
}

// ExtractKeyOpts captures the inputs that affect model extraction.
type ExtractKeyOpts struct {
	// Model is the LLM model identifier.
	Model string
}

// DefaultKeyer is the standard key generator.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard key generator.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// HTTPKey generates a key for HTTP response caching.
// Format: http:<namespace>:<key>
func (k *DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// AnalysisKey generates a key for an LLM repository analysis.
// Format: analysis:<hash(repoURL, opts)>
func (k *DefaultKeyer) AnalysisKey(repoURL string, opts AnalysisKeyOpts) string {
	return hashKey("analysis", repoURL, opts)
}

// ExtractKey generates a key for a structured extraction result.
// Format: extract:<hash(reportHash, opts)>
func (k *DefaultKeyer) ExtractKey(reportHash string, opts ExtractKeyOpts) string {
	return hashKey("extract", reportHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)

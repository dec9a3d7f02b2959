package anthropic

// Well-known hosted model names. Any name the endpoint accepts works; these
// cover the common ones.
const (
	ModelSonnet = "claude-sonnet-4-0"
	ModelOpus   = "claude-opus-4-0"
	ModelHaiku  = "claude-3-5-haiku-latest"
)

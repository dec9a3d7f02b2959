package openai

// Well-known hosted model names, for use with WithModel and request Model
// overrides. Any model name the endpoint accepts works; these just spare
// callers the typos on the common ones.
const (
	ModelGPT4oMini = "gpt-4o-mini"
	ModelGPT4o     = "gpt-4o"
	ModelO3Mini    = "o3-mini"
	ModelO1        = "o1"
)

// Package openai implements the generation interfaces against an
// OpenAI-compatible chat completions endpoint. It owns the transient vs
// permanent failure classification and the bounded exponential-backoff
// retry loop for cloze generation.
package openai

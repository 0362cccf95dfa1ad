package generation

import "context"

// PageContext carries the provenance of a captured selection into prompt
// rendering.
type PageContext struct {
	Title string
	URL   string
}

// QuestionGenerator produces a front-side question for the given selection
// text. The call is single-shot: failures are not retried and the caller
// falls back to manual entry.
type QuestionGenerator interface {
	GenerateQuestion(ctx context.Context, text string, page PageContext) (string, error)
}

// ClozeGenerator rewrites the given selection text with inline cloze
// markers. Implementations retry transient failures with bounded
// exponential backoff; the caller falls back to the unmodified selection on
// any error.
type ClozeGenerator interface {
	GenerateCloze(ctx context.Context, text, guidance string, page PageContext) (string, error)
}

package domain

import "time"

// PromptHistoryCap bounds the prompt history log. Once exceeded, the oldest
// entry is evicted.
const PromptHistoryCap = 50

// GenerationKind identifies which generation path produced a history entry.
type GenerationKind string

// Possible generation kinds.
const (
	GenerationQuestion GenerationKind = "question"
	GenerationCloze    GenerationKind = "cloze"
)

// PromptHistoryEntry records one successful generation for user review. It
// is kept newest-first and is not on the critical save path.
type PromptHistoryEntry struct {
	Kind       GenerationKind `json:"kind"`
	SourceText string         `json:"source_text"`
	Result     string         `json:"result"`
	PageURL    string         `json:"page_url,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

package domain

import (
	"errors"
	"regexp"
	"strings"
)

// Card-specific validation errors.
var (
	// ErrFrontBackRequired is returned when a basic card is missing front
	// or back content.
	ErrFrontBackRequired = errors.New("front and back content required")

	// ErrClozeTextRequired is returned when a cloze card has no text
	// content to fill the Text field.
	ErrClozeTextRequired = errors.New("text content required for cloze card")
)

// clozeModelPattern selects the cloze field shape. Any model whose name
// contains "cloze", case-insensitively, uses {Text, Extra} fields.
var clozeModelPattern = regexp.MustCompile(`(?i)cloze`)

// Card represents a flashcard captured from a web selection. It is the unit
// of work for the save pipeline: built by the orchestrator, submitted to the
// card target service, and queued verbatim when that service is unreachable.
type Card struct {
	Front     string `json:"front"`
	BackHTML  string `json:"backHtml"`
	DeckName  string `json:"deckName"`
	ModelName string `json:"modelName"`

	// Extra is the cloze "Extra" field content. Unused for basic cards.
	Extra string `json:"extra,omitempty"`

	// Provenance of the captured selection.
	PageTitle string `json:"pageTitle,omitempty"`
	PageURL   string `json:"pageUrl,omitempty"`

	// ImageHTML is appended to the extra content when present.
	ImageHTML string `json:"imageHtml,omitempty"`
}

// IsCloze reports whether the card's model selects the cloze field shape.
func (c *Card) IsCloze() bool {
	return clozeModelPattern.MatchString(c.ModelName)
}

// ClozeText returns the content that fills the cloze "Text" field,
// preferring the back HTML and falling back to the front.
func (c *Card) ClozeText() string {
	if strings.TrimSpace(c.BackHTML) != "" {
		return c.BackHTML
	}
	return c.Front
}

// Validate checks the card's content invariants: a basic card needs both
// front and back after trimming, a cloze card needs non-blank text.
// Violations are permanent validation faults and must never be retried or
// queued.
func (c *Card) Validate() error {
	if c.IsCloze() {
		if strings.TrimSpace(c.ClozeText()) == "" {
			return NewFault(FaultValidation, ErrClozeTextRequired)
		}
		return nil
	}

	if strings.TrimSpace(c.Front) == "" || strings.TrimSpace(c.BackHTML) == "" {
		return NewFault(FaultValidation, ErrFrontBackRequired)
	}

	return nil
}

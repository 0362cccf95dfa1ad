package generation

import "strings"

// Placeholders recognized by RenderPrompt. Replacement is literal: no
// escaping, no HTML encoding, every occurrence replaced.
const (
	PlaceholderText  = "{{text}}"
	PlaceholderTitle = "{{title}}"
	PlaceholderURL   = "{{url}}"
)

// RenderPrompt substitutes the selection text and page context into a
// prompt template. It is a pure function, kept separate from the
// network-calling code so it is independently testable.
func RenderPrompt(template, text string, page PageContext) string {
	s := strings.ReplaceAll(template, PlaceholderText, text)
	s = strings.ReplaceAll(s, PlaceholderTitle, page.Title)
	s = strings.ReplaceAll(s, PlaceholderURL, page.URL)
	return s
}

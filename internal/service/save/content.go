package save

import (
	"fmt"
	"html"
)

// extraSeparator visually separates the image from the source attribution
// in a cloze card's Extra field.
const extraSeparator = "<br><br>"

// wrapParagraph wraps raw selection HTML in a paragraph element.
func wrapParagraph(selectionHTML string) string {
	return "<p>" + selectionHTML + "</p>"
}

// sourceLink renders the source-attribution anchor for the capture's page.
// Returns "" when no URL was captured; a missing title falls back to the
// URL itself.
func sourceLink(title, url string) string {
	if url == "" {
		return ""
	}
	if title == "" {
		title = url
	}
	return fmt.Sprintf(`<a href=%q>%s</a>`, url, html.EscapeString(title))
}

// withSource appends the source attribution to a basic card's back HTML.
// Cloze cards deliberately skip this: their attribution rides in the Extra
// field so the clozed text stays clean.
func withSource(backHTML, title, url string) string {
	link := sourceLink(title, url)
	if link == "" {
		return backHTML
	}
	return backHTML + `<p class="clipdeck-source">Source: ` + link + `</p>`
}

// joinExtra assembles a cloze card's Extra field from the optional image
// HTML and the optional source attribution, separated only when both are
// present.
func joinExtra(imageHTML, source string) string {
	switch {
	case imageHTML == "":
		return source
	case source == "":
		return imageHTML
	default:
		return imageHTML + extraSeparator + source
	}
}

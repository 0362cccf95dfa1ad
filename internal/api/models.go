package api

import (
	"time"

	"github.com/clipdeck/clipdeck/internal/domain"
	"github.com/clipdeck/clipdeck/internal/service/save"
)

// CaptureRequest is the body of POST /api/capture.
type CaptureRequest struct {
	TabID         string `json:"tab_id"          validate:"required"`
	SelectionHTML string `json:"selection_html"`
	PageTitle     string `json:"page_title"`
	PageURL       string `json:"page_url"`
	ImageHTML     string `json:"image_html"`
	Guidance      string `json:"guidance"`
	Mode          string `json:"mode"            validate:"omitempty,oneof=basic cloze"`
}

// ConfirmRequest is the body of POST /api/confirm, carrying the
// user-edited card back for the actual save.
type ConfirmRequest struct {
	TabID string       `json:"tab_id" validate:"required"`
	Card  CardPayload  `json:"card"   validate:"required"`
}

// CardPayload mirrors domain.Card on the wire.
type CardPayload struct {
	Front     string `json:"front"`
	BackHTML  string `json:"back_html"`
	DeckName  string `json:"deck_name"`
	ModelName string `json:"model_name"`
	Extra     string `json:"extra,omitempty"`
	PageTitle string `json:"page_title,omitempty"`
	PageURL   string `json:"page_url,omitempty"`
	ImageHTML string `json:"image_html,omitempty"`
}

// OutcomeResponse reports how an orchestration ended.
type OutcomeResponse struct {
	Status           string      `json:"status"`
	NoteID           int64       `json:"note_id,omitempty"`
	Card             CardPayload `json:"card"`
	GenerationFailed bool        `json:"generation_failed,omitempty"`
}

// QueueResponse reports the pending queue.
type QueueResponse struct {
	Count int            `json:"count"`
	Clips []ClipResponse `json:"clips"`
}

// ClipResponse is one pending clip.
type ClipResponse struct {
	ID       string      `json:"id"`
	Card     CardPayload `json:"card"`
	TabID    string      `json:"tab_id,omitempty"`
	QueuedAt time.Time   `json:"queued_at"`
}

// NamesResponse carries a deck or model name enumeration.
type NamesResponse struct {
	Names []string `json:"names"`
}

func cardToPayload(card domain.Card) CardPayload {
	return CardPayload{
		Front:     card.Front,
		BackHTML:  card.BackHTML,
		DeckName:  card.DeckName,
		ModelName: card.ModelName,
		Extra:     card.Extra,
		PageTitle: card.PageTitle,
		PageURL:   card.PageURL,
		ImageHTML: card.ImageHTML,
	}
}

func payloadToCard(p CardPayload) domain.Card {
	return domain.Card{
		Front:     p.Front,
		BackHTML:  p.BackHTML,
		DeckName:  p.DeckName,
		ModelName: p.ModelName,
		Extra:     p.Extra,
		PageTitle: p.PageTitle,
		PageURL:   p.PageURL,
		ImageHTML: p.ImageHTML,
	}
}

func outcomeToResponse(outcome *save.Outcome) OutcomeResponse {
	return OutcomeResponse{
		Status:           string(outcome.Status),
		NoteID:           outcome.NoteID,
		Card:             cardToPayload(outcome.Card),
		GenerationFailed: outcome.GenerationFailed,
	}
}

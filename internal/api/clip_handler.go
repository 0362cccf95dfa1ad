package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/clipdeck/clipdeck/internal/api/shared"
	"github.com/clipdeck/clipdeck/internal/domain"
	"github.com/clipdeck/clipdeck/internal/service/save"
)

// CaptureService is the orchestrator slice consumed by the HTTP surface.
type CaptureService interface {
	Save(ctx context.Context, req save.CaptureRequest) (*save.Outcome, error)
	Confirm(ctx context.Context, req save.ConfirmRequest) (*save.Outcome, error)
	SyncPending(ctx context.Context)
}

// NameLister enumerates decks and note models from the card service.
type NameLister interface {
	DeckNames(ctx context.Context) ([]string, error)
	ModelNames(ctx context.Context) ([]string, error)
}

// QueueReader exposes the persistent queue and prompt history read side.
type QueueReader interface {
	Len() int
	Clips() []domain.QueuedClip
	History(ctx context.Context) ([]domain.PromptHistoryEntry, error)
}

// ClipHandler handles capture, confirmation, queue and history requests.
type ClipHandler struct {
	service   CaptureService
	lister    NameLister
	queue     QueueReader
	validator *validator.Validate
	logger    *slog.Logger
}

// NewClipHandler creates a ClipHandler.
func NewClipHandler(service CaptureService, lister NameLister, queue QueueReader, logger *slog.Logger) *ClipHandler {
	return &ClipHandler{
		service:   service,
		lister:    lister,
		queue:     queue,
		validator: validator.New(),
		logger:    logger.With("component", "clip_handler"),
	}
}

// Capture handles POST /api/capture requests.
func (h *ClipHandler) Capture(w http.ResponseWriter, r *http.Request) {
	var req CaptureRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "validation error: "+err.Error())
		return
	}

	outcome, err := h.service.Save(r.Context(), save.CaptureRequest{
		TabID:         req.TabID,
		SelectionHTML: req.SelectionHTML,
		PageTitle:     req.PageTitle,
		PageURL:       req.PageURL,
		ImageHTML:     req.ImageHTML,
		Guidance:      req.Guidance,
		ClozeMode:     req.Mode == "cloze",
	})
	if err != nil {
		h.logger.Error("capture failed",
			"tab_id", req.TabID,
			"error", err)
		shared.RespondWithError(w, r, MapErrorToStatusCode(err), err.Error())
		return
	}

	status := http.StatusOK
	if outcome.Status == save.StatusQueued {
		status = http.StatusAccepted
	}
	shared.RespondWithJSON(w, r, status, outcomeToResponse(outcome))
}

// Confirm handles POST /api/confirm requests, completing a manual-entry
// hand-off with the user-edited card.
func (h *ClipHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req ConfirmRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "validation error: "+err.Error())
		return
	}

	outcome, err := h.service.Confirm(r.Context(), save.ConfirmRequest{
		TabID: req.TabID,
		Card:  payloadToCard(req.Card),
	})
	if err != nil {
		h.logger.Error("confirm failed",
			"tab_id", req.TabID,
			"error", err)
		shared.RespondWithError(w, r, MapErrorToStatusCode(err), err.Error())
		return
	}

	status := http.StatusOK
	if outcome.Status == save.StatusQueued {
		status = http.StatusAccepted
	}
	shared.RespondWithJSON(w, r, status, outcomeToResponse(outcome))
}

// Decks handles GET /api/decks requests.
func (h *ClipHandler) Decks(w http.ResponseWriter, r *http.Request) {
	names, err := h.lister.DeckNames(r.Context())
	if err != nil {
		shared.RespondWithError(w, r, MapErrorToStatusCode(err), err.Error())
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, NamesResponse{Names: names})
}

// Models handles GET /api/models requests.
func (h *ClipHandler) Models(w http.ResponseWriter, r *http.Request) {
	names, err := h.lister.ModelNames(r.Context())
	if err != nil {
		shared.RespondWithError(w, r, MapErrorToStatusCode(err), err.Error())
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, NamesResponse{Names: names})
}

// Queue handles GET /api/queue requests.
func (h *ClipHandler) Queue(w http.ResponseWriter, r *http.Request) {
	clips := h.queue.Clips()
	resp := QueueResponse{Count: len(clips), Clips: make([]ClipResponse, 0, len(clips))}
	for _, clip := range clips {
		resp.Clips = append(resp.Clips, ClipResponse{
			ID:       clip.ID.String(),
			Card:     cardToPayload(clip.Card),
			TabID:    clip.TabID,
			QueuedAt: clip.QueuedAt,
		})
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// FlushQueue handles POST /api/queue/flush requests, forcing an immediate
// sync attempt ahead of the scheduled one.
func (h *ClipHandler) FlushQueue(w http.ResponseWriter, r *http.Request) {
	h.service.SyncPending(r.Context())
	shared.RespondWithJSON(w, r, http.StatusOK, QueueResponse{Count: h.queue.Len(), Clips: []ClipResponse{}})
}

// History handles GET /api/history requests.
func (h *ClipHandler) History(w http.ResponseWriter, r *http.Request) {
	entries, err := h.queue.History(r.Context())
	if err != nil {
		shared.RespondWithError(w, r, http.StatusInternalServerError, "failed to read prompt history")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, entries)
}

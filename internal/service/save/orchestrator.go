package save

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/clipdeck/clipdeck/internal/config"
	"github.com/clipdeck/clipdeck/internal/domain"
	"github.com/clipdeck/clipdeck/internal/generation"
	"github.com/clipdeck/clipdeck/internal/notify"
	"github.com/clipdeck/clipdeck/internal/queue"
)

// CardSaver is the card target client slice used by the orchestrator.
type CardSaver interface {
	AddNote(ctx context.Context, card domain.Card) (int64, error)
}

// ClipStore is the persistent queue slice used by the orchestrator.
type ClipStore interface {
	Enqueue(ctx context.Context, clip domain.QueuedClip) error
	Flush(ctx context.Context, trySave func(ctx context.Context, clip domain.QueuedClip) error) error
	Len() int
	AddHistory(ctx context.Context, entry domain.PromptHistoryEntry) error
}

// SyncArmer arms the delayed queue flush.
type SyncArmer interface {
	Arm()
}

var _ ClipStore = (*queue.Store)(nil)

// CaptureRequest is one user-initiated capture event.
type CaptureRequest struct {
	TabID         string
	SelectionHTML string
	PageTitle     string
	PageURL       string
	ImageHTML     string

	// Guidance is optional user direction for the cloze rewrite.
	Guidance string

	// ClozeMode selects the cloze card shape instead of basic Q/A.
	ClozeMode bool
}

// ConfirmRequest carries a manually confirmed card back into the pipeline.
type ConfirmRequest struct {
	TabID string
	Card  domain.Card
}

// Status is the terminal state of one orchestration.
type Status string

// Possible orchestration outcomes.
const (
	// StatusSaved means the card reached the target service.
	StatusSaved Status = "saved"

	// StatusQueued means the service was unreachable and the card is in
	// the persistent queue awaiting sync.
	StatusQueued Status = "queued"

	// StatusManualInput means the invocation ended with a hand-off to the
	// manual-entry UI; the save happens in a follow-up Confirm call.
	StatusManualInput Status = "manual_input"
)

// Outcome describes how an orchestration ended.
type Outcome struct {
	Status Status
	NoteID int64
	Card   domain.Card

	// GenerationFailed is set when an LLM call failed and the pipeline
	// degraded to manual input or unmodified text.
	GenerationFailed bool
}

// Service is the save orchestrator.
type Service struct {
	saver     CardSaver
	questions generation.QuestionGenerator
	clozes    generation.ClozeGenerator
	store     ClipStore
	syncer    SyncArmer
	notifier  notify.Emitter
	cfg       config.SaveConfig
	apiKey    string
	strip     *bluemonday.Policy
	logger    *slog.Logger
}

// New creates a Service. The apiKey is only shape-checked here; the
// generators hold the credential for their own calls.
func New(
	saver CardSaver,
	questions generation.QuestionGenerator,
	clozes generation.ClozeGenerator,
	store ClipStore,
	syncer SyncArmer,
	notifier notify.Emitter,
	cfg config.SaveConfig,
	apiKey string,
	logger *slog.Logger,
) *Service {
	return &Service{
		saver:     saver,
		questions: questions,
		clozes:    clozes,
		store:     store,
		syncer:    syncer,
		notifier:  notifier,
		cfg:       cfg,
		apiKey:    apiKey,
		strip:     bluemonday.StrictPolicy(),
		logger:    logger.With("component", "save_orchestrator"),
	}
}

// Save runs the orchestration for one captured selection.
//
// Generation failures are never fatal: they degrade to manual entry or to
// the unmodified selection. Only the final save step surfaces an error to
// the user, and only a connectivity failure there is queued.
func (s *Service) Save(ctx context.Context, req CaptureRequest) (*Outcome, error) {
	text := strings.TrimSpace(s.strip.Sanitize(req.SelectionHTML))
	if text == "" {
		err := domain.Faultf(domain.FaultValidation, "nothing selected")
		s.notifyStatus(ctx, req.TabID, notify.LevelError, "nothing selected")
		return nil, err
	}

	page := generation.PageContext{Title: req.PageTitle, URL: req.PageURL}
	card := domain.Card{
		DeckName:  s.cfg.DeckName,
		PageTitle: req.PageTitle,
		PageURL:   req.PageURL,
		ImageHTML: req.ImageHTML,
	}

	genFailed := false
	genKind := domain.GenerationKind("")
	generationEnabled := s.cfg.GenerateFront
	if req.ClozeMode {
		generationEnabled = s.cfg.GenerateCloze
	}

	if req.ClozeMode {
		card.ModelName = s.cfg.ClozeModelName
		card.BackHTML = wrapParagraph(req.SelectionHTML)
		if s.cfg.GenerateCloze {
			rewritten, err := s.clozes.GenerateCloze(ctx, text, req.Guidance, page)
			if err != nil {
				// Non-fatal: the user fills in clozes manually downstream.
				s.logger.Warn("cloze generation failed, keeping raw selection",
					"tab_id", req.TabID,
					"error", err)
				genFailed = true
			} else {
				card.BackHTML = rewritten
				genKind = domain.GenerationCloze
			}
		}
		card.Extra = joinExtra(req.ImageHTML, sourceLink(req.PageTitle, req.PageURL))
	} else {
		card.ModelName = s.cfg.ModelName
		card.BackHTML = withSource(wrapParagraph(req.SelectionHTML), req.PageTitle, req.PageURL)
		if s.cfg.GenerateFront {
			front, err := s.generateFront(ctx, text, page)
			if err != nil {
				// Non-fatal: route to manual input with an empty front.
				s.logger.Warn("front generation failed, routing to manual entry",
					"tab_id", req.TabID,
					"error", err)
				genFailed = true
			} else {
				card.Front = front
				genKind = domain.GenerationQuestion
			}
		}
	}

	needManual := !generationEnabled ||
		genFailed ||
		s.cfg.AlwaysConfirm ||
		(!req.ClozeMode && strings.TrimSpace(card.Front) == "")
	if needManual {
		s.logger.Info("handing capture to manual entry",
			"tab_id", req.TabID,
			"generation_failed", genFailed,
			"cloze", req.ClozeMode)
		return &Outcome{Status: StatusManualInput, Card: card, GenerationFailed: genFailed}, nil
	}

	outcome, err := s.attemptSave(ctx, req.TabID, card)
	if err != nil {
		return nil, err
	}
	if outcome.Status == StatusSaved && genKind != "" {
		s.recordHistory(ctx, genKind, text, card, req.PageURL)
	}
	return outcome, nil
}

// Confirm re-enters the pipeline at the save step with a user-confirmed
// card.
func (s *Service) Confirm(ctx context.Context, req ConfirmRequest) (*Outcome, error) {
	return s.attemptSave(ctx, req.TabID, req.Card)
}

// SyncPending flushes the persistent queue against the card target service
// and re-arms the scheduler when clips remain.
func (s *Service) SyncPending(ctx context.Context) {
	err := s.store.Flush(ctx, func(ctx context.Context, clip domain.QueuedClip) error {
		_, err := s.saver.AddNote(ctx, clip.Card)
		return err
	})
	if err != nil {
		s.logger.Error("queue flush failed", "error", err)
	}

	if remaining := s.store.Len(); remaining > 0 {
		s.logger.Info("clips still pending after flush, re-arming", "count", remaining)
		s.syncer.Arm()
	}
}

// generateFront runs the question generation behind the credential shape
// check. A missing credential silently falls back to manual entry.
func (s *Service) generateFront(ctx context.Context, text string, page generation.PageContext) (string, error) {
	if err := generation.ValidateAPIKey(s.apiKey); err != nil {
		return "", err
	}
	return s.questions.GenerateQuestion(ctx, text, page)
}

// attemptSave is the final step: one immediate save attempt, with the
// failure classification that drives the queue-vs-report decision.
func (s *Service) attemptSave(ctx context.Context, tabID string, card domain.Card) (*Outcome, error) {
	noteID, err := s.saver.AddNote(ctx, card)
	if err == nil {
		s.notifyStatus(ctx, tabID, notify.LevelSuccess, "card saved")
		return &Outcome{Status: StatusSaved, NoteID: noteID, Card: card}, nil
	}

	if domain.IsKind(err, domain.FaultConnectivity) {
		clip := domain.NewQueuedClip(card, tabID)
		if qerr := s.store.Enqueue(ctx, clip); qerr != nil {
			// Losing the clip here would break the no-data-loss guarantee,
			// so storage failures surface as errors.
			s.notifyStatus(ctx, tabID, notify.LevelError, "failed to save card locally")
			return nil, qerr
		}
		s.syncer.Arm()
		s.notifyStatus(ctx, tabID, notify.LevelInfo, "card service unreachable, saved locally and will sync")
		return &Outcome{Status: StatusQueued, Card: card}, nil
	}

	// Validation and structural failures cannot succeed on retry without
	// user correction: report, never enqueue.
	s.notifyStatus(ctx, tabID, notify.LevelError, err.Error())
	return nil, err
}

func (s *Service) recordHistory(ctx context.Context, kind domain.GenerationKind, text string, card domain.Card, pageURL string) {
	result := card.Front
	if kind == domain.GenerationCloze {
		result = card.ClozeText()
	}
	entry := domain.PromptHistoryEntry{
		Kind:       kind,
		SourceText: text,
		Result:     result,
		PageURL:    pageURL,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.AddHistory(ctx, entry); err != nil {
		// History is review-only data; failures must not disturb the save.
		s.logger.Warn("failed to record prompt history", "error", err)
	}
}

func (s *Service) notifyStatus(ctx context.Context, tabID string, level notify.Level, message string) {
	if err := s.notifier.Emit(ctx, notify.NewStatus(tabID, level, message)); err != nil {
		s.logger.Error("failed to emit status notification",
			"tab_id", tabID,
			"level", level,
			"error", err)
	}
}

package save

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipdeck/clipdeck/internal/config"
	"github.com/clipdeck/clipdeck/internal/domain"
	"github.com/clipdeck/clipdeck/internal/generation"
	"github.com/clipdeck/clipdeck/internal/notify"
)

// mockSaver implements CardSaver for testing.
type mockSaver struct {
	calls []domain.Card
	fn    func(card domain.Card) (int64, error)
}

func (m *mockSaver) AddNote(_ context.Context, card domain.Card) (int64, error) {
	m.calls = append(m.calls, card)
	if m.fn != nil {
		return m.fn(card)
	}
	return 1, nil
}

// mockQuestionGen implements generation.QuestionGenerator.
type mockQuestionGen struct {
	calls  int
	result string
	err    error
}

func (m *mockQuestionGen) GenerateQuestion(context.Context, string, generation.PageContext) (string, error) {
	m.calls++
	return m.result, m.err
}

// mockClozeGen implements generation.ClozeGenerator.
type mockClozeGen struct {
	calls  int
	result string
	err    error
}

func (m *mockClozeGen) GenerateCloze(context.Context, string, string, generation.PageContext) (string, error) {
	m.calls++
	return m.result, m.err
}

// mockStore implements ClipStore in memory.
type mockStore struct {
	clips      []domain.QueuedClip
	history    []domain.PromptHistoryEntry
	enqueueErr error
}

func (m *mockStore) Enqueue(_ context.Context, clip domain.QueuedClip) error {
	if m.enqueueErr != nil {
		return m.enqueueErr
	}
	m.clips = append(m.clips, clip)
	return nil
}

func (m *mockStore) Flush(ctx context.Context, trySave func(context.Context, domain.QueuedClip) error) error {
	var remaining []domain.QueuedClip
	for _, clip := range m.clips {
		if err := trySave(ctx, clip); err != nil {
			remaining = append(remaining, clip)
		}
	}
	m.clips = remaining
	return nil
}

func (m *mockStore) Len() int { return len(m.clips) }

func (m *mockStore) AddHistory(_ context.Context, entry domain.PromptHistoryEntry) error {
	m.history = append(m.history, entry)
	return nil
}

// mockArmer implements SyncArmer.
type mockArmer struct {
	arms int
}

func (m *mockArmer) Arm() { m.arms++ }

// mockNotifier records emitted notifications.
type mockNotifier struct {
	sent []*notify.Notification
}

func (m *mockNotifier) Emit(_ context.Context, n *notify.Notification) error {
	m.sent = append(m.sent, n)
	return nil
}

type fixture struct {
	saver     *mockSaver
	questions *mockQuestionGen
	clozes    *mockClozeGen
	store     *mockStore
	armer     *mockArmer
	notifier  *mockNotifier
	svc       *Service
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func defaultCfg() config.SaveConfig {
	return config.SaveConfig{
		DeckName:       "Default",
		ModelName:      "Basic",
		ClozeModelName: "Cloze",
		GenerateFront:  true,
		GenerateCloze:  true,
	}
}

func newFixture(cfg config.SaveConfig) *fixture {
	f := &fixture{
		saver:     &mockSaver{},
		questions: &mockQuestionGen{result: "What is X?"},
		clozes:    &mockClozeGen{result: "The {{c1::answer}}."},
		store:     &mockStore{},
		armer:     &mockArmer{},
		notifier:  &mockNotifier{},
	}
	f.svc = New(f.saver, f.questions, f.clozes, f.store, f.armer, f.notifier,
		cfg, "sk-test", testLogger())
	return f
}

func basicCapture() CaptureRequest {
	return CaptureRequest{
		TabID:         "tab-1",
		SelectionHTML: "X is Y.",
		PageTitle:     "A Page",
		PageURL:       "https://example.com/a",
	}
}

func requireNotified(t *testing.T, f *fixture, level notify.Level) *notify.Notification {
	t.Helper()
	require.Len(t, f.sent(), 1, "exactly one status notification per terminal outcome")
	n := f.sent()[0]
	assert.Equal(t, level, n.Level)
	return n
}

func (f *fixture) sent() []*notify.Notification { return f.notifier.sent }

func TestSaveEmptySelection(t *testing.T) {
	f := newFixture(defaultCfg())

	_, err := f.svc.Save(context.Background(), CaptureRequest{
		TabID:         "tab-1",
		SelectionHTML: "<div>  \n\t </div>",
	})

	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.FaultValidation))
	assert.Empty(t, f.saver.calls, "no save attempt")
	assert.Empty(t, f.store.clips, "nothing queued")
	n := requireNotified(t, f, notify.LevelError)
	assert.Equal(t, "nothing selected", n.Message)
	assert.Equal(t, "tab-1", n.TabID)
}

func TestSaveSuccess(t *testing.T) {
	f := newFixture(defaultCfg())
	f.saver.fn = func(domain.Card) (int64, error) { return 42, nil }

	outcome, err := f.svc.Save(context.Background(), basicCapture())

	require.NoError(t, err)
	assert.Equal(t, StatusSaved, outcome.Status)
	assert.Equal(t, int64(42), outcome.NoteID)
	assert.Equal(t, "What is X?", outcome.Card.Front)
	assert.Contains(t, outcome.Card.BackHTML, "<p>X is Y.</p>")
	assert.Contains(t, outcome.Card.BackHTML, `href="https://example.com/a"`,
		"basic cards carry source attribution in the back")
	requireNotified(t, f, notify.LevelSuccess)

	require.Len(t, f.store.history, 1)
	assert.Equal(t, domain.GenerationQuestion, f.store.history[0].Kind)
	assert.Equal(t, "What is X?", f.store.history[0].Result)
}

func TestSaveConnectivityFailureQueues(t *testing.T) {
	f := newFixture(defaultCfg())
	f.saver.fn = func(domain.Card) (int64, error) {
		return 0, domain.Faultf(domain.FaultConnectivity, "connection refused")
	}

	outcome, err := f.svc.Save(context.Background(), basicCapture())

	require.NoError(t, err, "connectivity failures are handled, not surfaced")
	assert.Equal(t, StatusQueued, outcome.Status)

	require.Len(t, f.store.clips, 1, "the card must be in the persistent queue")
	assert.Equal(t, outcome.Card, f.store.clips[0].Card)
	assert.Equal(t, "tab-1", f.store.clips[0].TabID)
	assert.Equal(t, 1, f.armer.arms, "the sync scheduler is armed")

	n := requireNotified(t, f, notify.LevelInfo)
	assert.Contains(t, n.Message, "saved locally")
	assert.Empty(t, f.store.history, "no history entry until the card actually saves")
}

func TestSaveStructuralFailureIsNotQueued(t *testing.T) {
	f := newFixture(defaultCfg())
	f.saver.fn = func(domain.Card) (int64, error) {
		return 0, domain.Faultf(domain.FaultStructural, "deck was not found: Missing")
	}

	_, err := f.svc.Save(context.Background(), basicCapture())

	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.FaultStructural))
	assert.Empty(t, f.store.clips, "structural failures are never queued")
	assert.Zero(t, f.armer.arms)

	n := requireNotified(t, f, notify.LevelError)
	assert.Contains(t, n.Message, "deck was not found")
}

func TestConfirmInvalidContentIsNotQueued(t *testing.T) {
	f := newFixture(defaultCfg())
	f.saver.fn = func(card domain.Card) (int64, error) {
		return 0, card.Validate()
	}

	_, err := f.svc.Confirm(context.Background(), ConfirmRequest{
		TabID: "tab-1",
		Card:  domain.Card{DeckName: "Default", ModelName: "Basic"},
	})

	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.FaultValidation))
	assert.Empty(t, f.store.clips, "invalid content is never queued")
	requireNotified(t, f, notify.LevelError)
}

func TestSaveManualRouting(t *testing.T) {
	t.Run("generation disabled", func(t *testing.T) {
		cfg := defaultCfg()
		cfg.GenerateFront = false
		f := newFixture(cfg)

		outcome, err := f.svc.Save(context.Background(), basicCapture())

		require.NoError(t, err)
		assert.Equal(t, StatusManualInput, outcome.Status)
		assert.Zero(t, f.questions.calls)
		assert.Empty(t, f.saver.calls, "hand-off is terminal, no save attempt")
	})

	t.Run("generation failed", func(t *testing.T) {
		f := newFixture(defaultCfg())
		f.questions.err = errors.New("model exploded")

		outcome, err := f.svc.Save(context.Background(), basicCapture())

		require.NoError(t, err, "front generation failure is non-fatal")
		assert.Equal(t, StatusManualInput, outcome.Status)
		assert.True(t, outcome.GenerationFailed)
		assert.Empty(t, outcome.Card.Front, "failed generation clears the front")
	})

	t.Run("always confirm preference", func(t *testing.T) {
		cfg := defaultCfg()
		cfg.AlwaysConfirm = true
		f := newFixture(cfg)

		outcome, err := f.svc.Save(context.Background(), basicCapture())

		require.NoError(t, err)
		assert.Equal(t, StatusManualInput, outcome.Status)
		assert.Equal(t, "What is X?", outcome.Card.Front, "generated front pre-fills the form")
	})

	t.Run("blank generated front", func(t *testing.T) {
		f := newFixture(defaultCfg())
		f.questions.result = "   "

		outcome, err := f.svc.Save(context.Background(), basicCapture())

		require.NoError(t, err)
		assert.Equal(t, StatusManualInput, outcome.Status)
	})

	t.Run("missing credential skips generation silently", func(t *testing.T) {
		f := newFixture(defaultCfg())
		f.svc.apiKey = ""

		outcome, err := f.svc.Save(context.Background(), basicCapture())

		require.NoError(t, err)
		assert.Equal(t, StatusManualInput, outcome.Status)
		assert.Zero(t, f.questions.calls, "credential shape check gates the call")
	})
}

func TestSaveClozeMode(t *testing.T) {
	clozeCapture := func() CaptureRequest {
		req := basicCapture()
		req.ClozeMode = true
		req.ImageHTML = `<img src="pic.png">`
		return req
	}

	t.Run("generated cloze saves directly", func(t *testing.T) {
		f := newFixture(defaultCfg())

		outcome, err := f.svc.Save(context.Background(), clozeCapture())

		require.NoError(t, err)
		assert.Equal(t, StatusSaved, outcome.Status)
		assert.Equal(t, "The {{c1::answer}}.", outcome.Card.BackHTML)
		assert.Equal(t, "Cloze", outcome.Card.ModelName)
		assert.NotContains(t, outcome.Card.BackHTML, "example.com",
			"cloze text must not carry source attribution")
		assert.Contains(t, outcome.Card.Extra, `<img src="pic.png">`)
		assert.Contains(t, outcome.Card.Extra, "<br><br>")
		assert.Contains(t, outcome.Card.Extra, `href="https://example.com/a"`)

		require.Len(t, f.store.history, 1)
		assert.Equal(t, domain.GenerationCloze, f.store.history[0].Kind)
	})

	t.Run("generation failure falls back to wrapped selection", func(t *testing.T) {
		f := newFixture(defaultCfg())
		f.clozes.err = errors.New("model exploded")

		outcome, err := f.svc.Save(context.Background(), clozeCapture())

		require.NoError(t, err, "cloze generation failure is non-fatal")
		assert.Equal(t, StatusManualInput, outcome.Status)
		assert.True(t, outcome.GenerationFailed)
		assert.Equal(t, "<p>X is Y.</p>", outcome.Card.BackHTML,
			"raw selection wrapped in a paragraph")
	})

	t.Run("cloze generation disabled routes to manual", func(t *testing.T) {
		cfg := defaultCfg()
		cfg.GenerateCloze = false
		f := newFixture(cfg)

		outcome, err := f.svc.Save(context.Background(), clozeCapture())

		require.NoError(t, err)
		assert.Equal(t, StatusManualInput, outcome.Status)
		assert.Zero(t, f.clozes.calls)
	})
}

func TestConfirmSaves(t *testing.T) {
	f := newFixture(defaultCfg())
	f.saver.fn = func(domain.Card) (int64, error) { return 7, nil }

	card := domain.Card{
		Front:     "manual front",
		BackHTML:  "<p>manual back</p>",
		DeckName:  "Default",
		ModelName: "Basic",
	}
	outcome, err := f.svc.Confirm(context.Background(), ConfirmRequest{TabID: "tab-2", Card: card})

	require.NoError(t, err)
	assert.Equal(t, StatusSaved, outcome.Status)
	assert.Equal(t, int64(7), outcome.NoteID)
	n := requireNotified(t, f, notify.LevelSuccess)
	assert.Equal(t, "tab-2", n.TabID)
}

func TestSyncPending(t *testing.T) {
	t.Run("drains the queue", func(t *testing.T) {
		f := newFixture(defaultCfg())
		f.store.clips = []domain.QueuedClip{
			domain.NewQueuedClip(domain.Card{Front: "A", BackHTML: "a", DeckName: "Default", ModelName: "Basic"}, "t"),
			domain.NewQueuedClip(domain.Card{Front: "B", BackHTML: "b", DeckName: "Default", ModelName: "Basic"}, "t"),
		}

		f.svc.SyncPending(context.Background())

		assert.Len(t, f.saver.calls, 2)
		assert.Zero(t, f.store.Len())
		assert.Zero(t, f.armer.arms, "nothing left, no re-arm")
	})

	t.Run("re-arms when clips remain", func(t *testing.T) {
		f := newFixture(defaultCfg())
		f.store.clips = []domain.QueuedClip{
			domain.NewQueuedClip(domain.Card{Front: "A", BackHTML: "a", DeckName: "Default", ModelName: "Basic"}, "t"),
		}
		f.saver.fn = func(domain.Card) (int64, error) {
			return 0, domain.Faultf(domain.FaultConnectivity, "still down")
		}

		f.svc.SyncPending(context.Background())

		assert.Equal(t, 1, f.store.Len())
		assert.Equal(t, 1, f.armer.arms)
	})
}

package anki

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/clipdeck/clipdeck/internal/domain"
)

// Service endpoint and protocol constants.
const (
	// DefaultEndpoint is the fixed local address AnkiConnect listens on.
	DefaultEndpoint = "http://127.0.0.1:8765"

	// apiVersion is the AnkiConnect protocol version sent in every request.
	apiVersion = 6

	// noteTag marks every created note so clipped cards are findable later.
	noteTag = "clipdeck"
)

// Field names for the two supported note shapes.
const (
	fieldFront = "Front"
	fieldBack  = "Back"
	fieldText  = "Text"
	fieldExtra = "Extra"
)

// Client talks to the local AnkiConnect service.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Client for the given endpoint. An empty endpoint
// selects DefaultEndpoint.
func NewClient(endpoint string, logger *slog.Logger) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger.With("component", "anki_client"),
	}
}

// request is the AnkiConnect action envelope.
type request struct {
	Action  string `json:"action"`
	Version int    `json:"version"`
	Params  any    `json:"params,omitempty"`
}

// response is the AnkiConnect result envelope. A non-null Error means the
// service was reached but rejected the request.
type response struct {
	Result json.RawMessage `json:"result"`
	Error  *string         `json:"error"`
}

type noteParams struct {
	Note note `json:"note"`
}

type note struct {
	DeckName  string            `json:"deckName"`
	ModelName string            `json:"modelName"`
	Fields    map[string]string `json:"fields"`
	Tags      []string          `json:"tags"`
}

// AddNote validates the card, then issues exactly one addNote call. It
// returns the note identifier assigned by the service.
//
// Validation failures are returned before any network I/O and carry the
// validation fault kind; they must never be retried or queued. A transport
// failure carries the connectivity fault kind; a rejection by the service
// carries the structural kind.
func (c *Client) AddNote(ctx context.Context, card domain.Card) (int64, error) {
	if err := card.Validate(); err != nil {
		return 0, err
	}

	params := noteParams{
		Note: note{
			DeckName:  card.DeckName,
			ModelName: card.ModelName,
			Fields:    noteFields(card),
			Tags:      []string{noteTag},
		},
	}

	var noteID int64
	if err := c.invoke(ctx, "addNote", params, &noteID); err != nil {
		return 0, err
	}

	c.logger.Info("note added",
		"note_id", noteID,
		"deck", card.DeckName,
		"model", card.ModelName)
	return noteID, nil
}

// DeckNames enumerates the deck names known to the service.
func (c *Client) DeckNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.invoke(ctx, "deckNames", nil, &names); err != nil {
		return nil, err
	}
	return names, nil
}

// ModelNames enumerates the note type names known to the service.
func (c *Client) ModelNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.invoke(ctx, "modelNames", nil, &names); err != nil {
		return nil, err
	}
	return names, nil
}

// noteFields shapes the card content for the target model: {Text, Extra}
// for cloze models, {Front, Back} otherwise.
func noteFields(card domain.Card) map[string]string {
	if card.IsCloze() {
		return map[string]string{
			fieldText:  card.ClozeText(),
			fieldExtra: card.Extra,
		}
	}
	return map[string]string{
		fieldFront: card.Front,
		fieldBack:  card.BackHTML,
	}
}

// invoke performs one action round trip and decodes the result into out
// when out is non-nil.
func (c *Client) invoke(ctx context.Context, action string, params any, out any) error {
	body, err := json.Marshal(request{Action: action, Version: apiVersion, Params: params})
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", action, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The peer could not be reached at all. This is the only class the
		// orchestrator queues for later retry.
		return domain.NewFault(domain.FaultConnectivity,
			fmt.Errorf("card service unreachable: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	var envelope response
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return domain.NewFault(domain.FaultStructural,
			fmt.Errorf("undecodable response from card service: %w", err))
	}

	if envelope.Error != nil {
		return domain.NewFault(domain.FaultStructural, errors.New(*envelope.Error))
	}

	if out != nil {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return domain.NewFault(domain.FaultStructural,
				fmt.Errorf("unexpected %s result shape: %w", action, err))
		}
	}

	return nil
}

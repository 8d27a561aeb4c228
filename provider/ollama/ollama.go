package ollama_provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bmaxza/tender-assistant/models"
)

// client implements the phrasing interface against a hosted Ollama API
type client struct {
	host        string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
}

// Message represents a message in a conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
	Options  struct {
		Temperature float64 `json:"temperature"`
		NumPredict  int     `json:"num_predict,omitempty"`
	} `json:"options"`
}

type response struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

// NewClient creates a new Ollama phrasing client
func NewClient(host, apiKey, model string, temperature float64, maxTokens int, timeout time.Duration) *client {
	return &client{
		host:        strings.TrimRight(host, "/"),
		apiKey:      apiKey,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// Available reports whether the client is configured; it does not probe the
// network. Request failures downgrade individual replies instead.
func (c *client) Available() bool {
	return c.apiKey != "" && c.host != ""
}

const systemPrompt = `You are B-Max, an assistant that helps businesses find government tenders.
You are given a user's question and a pre-ranked list of matching tenders.

RULES:
1. Keep every tender block exactly as provided, including links and reference numbers
2. Add one short friendly sentence before the list and one after
3. Never invent tenders, links or closing dates
4. Never mention that the list was pre-ranked for you`

// PhraseResults asks the model to wrap the structured rendering in prose. Any
// failure is returned as models.ErrPhrasingUnavailable so the caller can fall
// back to the structured text alone.
func (c *client) PhraseResults(ctx context.Context, prompt string, structured string, results []models.MatchResult) (string, error) {
	if !c.Available() {
		return "", models.ErrPhrasingUnavailable
	}

	reqBody := request{
		Model: c.model,
		Messages: []Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf("Question: %s\n\nMatched tenders:\n\n%s", prompt, structured)},
		},
		Stream: false,
	}
	reqBody.Options.Temperature = c.temperature
	reqBody.Options.NumPredict = c.maxTokens

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/chat", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrPhrasingUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: API returned status %d", models.ErrPhrasingUnavailable, resp.StatusCode)
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	content := strings.TrimSpace(out.Message.Content)
	if content == "" {
		return "", fmt.Errorf("%w: empty completion", models.ErrPhrasingUnavailable)
	}
	return content, nil
}

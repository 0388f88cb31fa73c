// Package assist is the optional LLM boundary: it proposes keyword
// annotations for ledger events so operators can enrich extension data
// before pattern detection. Suggestions are advisory only and never
// written to the ledger without an explicit operator call.
package assist

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	jsonrepair "github.com/kaptinlin/jsonrepair"
	openai "github.com/sashabaranov/go-openai"

	"github.com/soundprediction/cliodyn/pkg/config"
	"github.com/soundprediction/cliodyn/pkg/types"
)

// Suggestion is the model's proposed annotation for one event.
type Suggestion struct {
	Keywords  []string `json:"keywords"`
	Category  string   `json:"category"`
	Rationale string   `json:"rationale"`
}

// Client proposes annotations for ledger events.
type Client interface {
	Suggest(ctx context.Context, event *types.Event, vocabulary []string) (*Suggestion, error)
	Close() error
}

const systemPrompt = `You annotate historical events for a temporal-pattern
analytics engine. Given an event and a keyword vocabulary, respond with JSON:
{"keywords": [...], "category": "...", "rationale": "..."}.
Pick only vocabulary keywords that plausibly apply to the event.`

// OpenAIClient implements Client against any OpenAI-compatible API.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	logger      *slog.Logger
}

// NewOpenAIClient creates an assist client from configuration.
func NewOpenAIClient(cfg config.AssistConfig, logger *slog.Logger) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("assist requires an API key")
	}
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenAIClient{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      logger,
	}, nil
}

// Suggest asks the model for annotation keywords. Malformed JSON in
// the completion is repaired before parsing; repair failures surface
// as errors, never as partial suggestions.
func (c *OpenAIClient) Suggest(ctx context.Context, event *types.Event, vocabulary []string) (*Suggestion, error) {
	var sb strings.Builder
	sb.WriteString("Event: ")
	sb.WriteString(event.Name)
	if event.Description != "" {
		sb.WriteString("\nDescription: ")
		sb.WriteString(event.Description)
	}
	sb.WriteString(fmt.Sprintf("\nYear: %d", event.YearStart))
	sb.WriteString("\nVocabulary: ")
	sb.WriteString(strings.Join(vocabulary, ", "))

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: sb.String()},
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("assist completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("assist completion returned no choices")
	}

	content := resp.Choices[0].Message.Content
	suggestion := &Suggestion{}
	if err := json.Unmarshal([]byte(content), suggestion); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(content)
		if repairErr != nil {
			return nil, fmt.Errorf("assist returned unparseable JSON: %w", err)
		}
		if err := json.Unmarshal([]byte(repaired), suggestion); err != nil {
			return nil, fmt.Errorf("assist returned unparseable JSON after repair: %w", err)
		}
	}

	c.logger.Debug("assist suggestion", "event", event.ID, "keywords", len(suggestion.Keywords))
	return suggestion, nil
}

// Close implements Client.
func (c *OpenAIClient) Close() error {
	return nil
}

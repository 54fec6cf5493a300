// Package llm classifies message text through an OpenAI compatible chat
// completions endpoint that answers with a JSON object {intent, confidence}.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ThiagoDev202/supersdr-prova-tecnica/core"
	"github.com/ThiagoDev202/supersdr-prova-tecnica/transport"
)

const defaultTimeout = 20 * time.Second

type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// ConfigFromCore reads the classifier section of the service config.
func ConfigFromCore(cfg core.ClassifierConfig) Config {
	return Config{
		BaseURL: strings.TrimSpace(cfg.BaseURL),
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Model:   strings.TrimSpace(cfg.Model),
		Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
}

type Classifier struct {
	config    Config
	transport *transport.RESTAdapter
}

func New(config Config, client transport.HTTPDoer) (*Classifier, error) {
	if strings.TrimSpace(config.BaseURL) == "" {
		return nil, fmt.Errorf("llm: base url is required")
	}
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, fmt.Errorf("llm: api key is required")
	}
	if strings.TrimSpace(config.Model) == "" {
		return nil, fmt.Errorf("llm: model is required")
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	return &Classifier{config: config, transport: transport.NewRESTAdapter(client)}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type verdict struct {
	Intent     *string  `json:"intent"`
	Confidence *float64 `json:"confidence"`
}

// Classify asks the model for a verdict. Intents outside the known set come
// back as other; a missing field or unparsable answer is an error.
func (c *Classifier) Classify(ctx context.Context, text string) (core.Classification, error) {
	if c == nil || c.transport == nil {
		return core.Classification{}, fmt.Errorf("llm: classifier is not configured")
	}
	request := chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt()},
			{Role: "user", Content: text},
		},
		ResponseFormat: responseFormat{Type: "json_object"},
	}
	var response chatResponse
	err := c.transport.PostJSON(ctx,
		strings.TrimSuffix(c.config.BaseURL, "/")+"/chat/completions",
		map[string]string{"Authorization": "Bearer " + c.config.APIKey},
		request,
		&response,
		c.config.Timeout,
	)
	if err != nil {
		return core.Classification{}, err
	}
	if len(response.Choices) == 0 {
		return core.Classification{}, fmt.Errorf("llm: response has no choices")
	}
	return ParseVerdict(response.Choices[0].Message.Content)
}

// ParseVerdict decodes the model answer. Code fences around the JSON object
// are tolerated.
func ParseVerdict(content string) (core.Classification, error) {
	trimmed := strings.TrimSpace(content)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var parsed verdict
	if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
		return core.Classification{}, fmt.Errorf("llm: malformed verdict: %w", err)
	}
	if parsed.Intent == nil {
		return core.Classification{}, fmt.Errorf("llm: verdict is missing intent")
	}
	if parsed.Confidence == nil {
		return core.Classification{}, fmt.Errorf("llm: verdict is missing confidence")
	}
	return core.Classification{
		Intent:     core.NormalizeIntent(*parsed.Intent),
		Confidence: *parsed.Confidence,
	}, nil
}

func systemPrompt() string {
	intents := core.KnownIntents()
	names := make([]string, 0, len(intents))
	for _, intent := range intents {
		names = append(names, string(intent))
	}
	return "You classify customer messages received on WhatsApp. " +
		"Answer only with a JSON object {\"intent\": string, \"confidence\": number}. " +
		"intent must be one of: " + strings.Join(names, ", ") + ". " +
		"confidence is a number between 0 and 1."
}

var _ core.Classifier = (*Classifier)(nil)

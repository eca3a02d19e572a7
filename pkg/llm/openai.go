package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kraklabs/memvcs/pkg/memerrs"
)

const defaultBaseURL = "https://api.openai.com/v1"

// OpenAIProvider calls an OpenAI-compatible /chat/completions
// endpoint. It is also usable against any API that mirrors that wire
// format (several hosted providers do), by overriding BaseURL.
type OpenAIProvider struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	Client       *http.Client
}

// NewOpenAIProvider creates a provider with a sane request timeout.
// BaseURL defaults to the public OpenAI API; DefaultModel is used
// when a call's CompletionOptions.Model is empty.
func NewOpenAIProvider(apiKey, defaultModel string) *OpenAIProvider {
	return &OpenAIProvider{
		APIKey:       apiKey,
		BaseURL:      defaultBaseURL,
		DefaultModel: defaultModel,
		Client:       &http.Client{Timeout: 60 * time.Second},
	}
}

type chatRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete posts messages to the chat completions endpoint and
// returns the first choice's content.
func (p *OpenAIProvider) Complete(ctx context.Context, messages []Message, opts CompletionOptions) (string, error) {
	model := opts.Model
	if model == "" {
		model = p.DefaultModel
	}

	body, err := json.Marshal(chatRequest{Model: model, Messages: messages, MaxTokens: opts.MaxTokens})
	if err != nil {
		return "", memerrs.Wrap(memerrs.ErrValidation, "encode chat completion request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", memerrs.Wrap(memerrs.ErrStorage, "build chat completion request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)

	resp, err := p.Client.Do(req)
	if err != nil {
		return "", memerrs.Wrap(memerrs.ErrStorage, "call LLM provider", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", memerrs.Wrap(memerrs.ErrStorage, "read LLM provider response", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", memerrs.Wrap(memerrs.ErrIntegrity, "decode LLM provider response", err)
	}
	if parsed.Error != nil {
		return "", memerrs.Wrap(memerrs.ErrStorage, "LLM provider error: "+parsed.Error.Message, nil)
	}
	if resp.StatusCode != http.StatusOK {
		return "", memerrs.Wrap(memerrs.ErrStorage, fmt.Sprintf("LLM provider returned status %d", resp.StatusCode), nil)
	}
	if len(parsed.Choices) == 0 {
		return "", memerrs.Wrap(memerrs.ErrIntegrity, "LLM provider returned no choices", nil)
	}

	return parsed.Choices[0].Message.Content, nil
}

// Package openai is a small client for the chat completions and audio
// transcription endpoints of an OpenAI-compatible API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrNotConfigured is returned by every call when no API key is set.
var ErrNotConfigured = errors.New("openai: api key not configured")

// StatusError is a non-2xx answer from the API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 300 {
		body = body[:300]
	}
	return fmt.Sprintf("openai: status %d: %s", e.StatusCode, body)
}

type Config struct {
	APIKey          string
	BaseURL         string
	Model           string
	VisionModel     string
	TranscribeModel string
	Timeout         time.Duration
	MaxRetries      int
}

type Client struct {
	cfg    Config
	json   *resty.Client
	upload *resty.Client
}

func New(cfg Config) *Client {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.VisionModel == "" {
		cfg.VisionModel = cfg.Model
	}

	jsonClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			if err != nil {
				return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
			}
			return resp.StatusCode() == http.StatusTooManyRequests || resp.StatusCode() >= 500
		})

	// multipart bodies are not replayable from a reader, so uploads never retry
	uploadClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.APIKey).
		SetTimeout(cfg.Timeout)

	return &Client{cfg: cfg, json: jsonClient, upload: uploadClient}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c != nil && strings.TrimSpace(c.cfg.APIKey) != ""
}

func (c *Client) Model() string       { return c.cfg.Model }
func (c *Client) VisionModel() string { return c.cfg.VisionModel }

type ImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

// ContentPart is one element of a multimodal user message.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

func TextPart(text string) ContentPart {
	return ContentPart{Type: "text", Text: text}
}

func ImagePart(url string) ContentPart {
	return ContentPart{Type: "image_url", ImageURL: &ImageURL{URL: url, Detail: "low"}}
}

type Message struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type jsonSchema struct {
	Name   string                 `json:"name"`
	Schema map[string]interface{} `json:"schema"`
	Strict bool                   `json:"strict"`
}

type responseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *jsonSchema `json:"json_schema,omitempty"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Temperature    float64         `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// SchemaRequest asks for a single completion constrained to a JSON schema.
type SchemaRequest struct {
	Model      string
	System     string
	User       []ContentPart
	SchemaName string
	Schema     map[string]interface{}
}

// CompleteJSON returns the raw JSON text produced by the model. The caller is
// responsible for decoding and validating it.
func (c *Client) CompleteJSON(ctx context.Context, req SchemaRequest) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	model := req.Model
	if model == "" {
		model = c.cfg.Model
	}

	body := chatRequest{
		Model: model,
		Messages: []Message{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		ResponseFormat: &responseFormat{
			Type:       "json_schema",
			JSONSchema: &jsonSchema{Name: req.SchemaName, Schema: req.Schema, Strict: true},
		},
		Temperature: 0.2,
	}

	var out chatResponse
	resp, err := c.json.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Post("/v1/chat/completions")
	if err != nil {
		return "", fmt.Errorf("openai: chat completion: %w", err)
	}
	if resp.IsError() {
		return "", &StatusError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}
	if len(out.Choices) == 0 {
		return "", errors.New("openai: empty choices")
	}
	choice := out.Choices[0]
	if choice.Message.Refusal != "" {
		return "", fmt.Errorf("openai: model refused: %s", choice.Message.Refusal)
	}
	content := strings.TrimSpace(choice.Message.Content)
	if content == "" {
		return "", fmt.Errorf("openai: empty content (finish_reason=%s)", choice.FinishReason)
	}
	return content, nil
}

// Transcribe uploads an audio file and returns its transcription.
func (c *Client) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	model := c.cfg.TranscribeModel
	if model == "" {
		model = "whisper-1"
	}

	var out struct {
		Text string `json:"text"`
	}
	resp, err := c.upload.R().
		SetContext(ctx).
		SetFileReader("file", filename, audio).
		SetFormData(map[string]string{
			"model":           model,
			"response_format": "json",
		}).
		SetResult(&out).
		Post("/v1/audio/transcriptions")
	if err != nil {
		return "", fmt.Errorf("openai: transcription: %w", err)
	}
	if resp.IsError() {
		return "", &StatusError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}
	return strings.TrimSpace(out.Text), nil
}

package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultTimeout = 120 * time.Second

	// maxDownloadSize bounds generated image downloads
	maxDownloadSize = 20 << 20
)

// ErrNotConfigured is returned when no API key is set
var ErrNotConfigured = errors.New("openai API key not configured")

// Client is an OpenAI API client for chat completions and image generation
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// ClientOption is a function that configures the Client
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithAPIKey sets the API key
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// New creates a new OpenAI API client
func New(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an error from the OpenAI API
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
	Type       string `json:"type"`
	Code       string `json:"code"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("openai API error: %s (status: %d)", e.Message, e.StatusCode)
}

// ErrorResponse represents an error response from the API
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Message is one chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionInput represents input for a chat completion
type ChatCompletionInput struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

// ChatCompletionOutput represents a chat completion response
type ChatCompletionOutput struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int     `json:"index"`
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
}

// Text returns the content of the first choice
func (o *ChatCompletionOutput) Text() string {
	if len(o.Choices) == 0 {
		return ""
	}
	return o.Choices[0].Message.Content
}

// CreateChatCompletion generates text
// POST /chat/completions
func (c *Client) CreateChatCompletion(ctx context.Context, in ChatCompletionInput) (*ChatCompletionOutput, error) {
	var out ChatCompletionOutput
	if err := c.postJSON(ctx, "/chat/completions", in, &out); err != nil {
		return nil, err
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("empty completion response")
	}
	return &out, nil
}

// ImageGenerationInput represents input for image generation
type ImageGenerationInput struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	Size    string `json:"size,omitempty"`
	Quality string `json:"quality,omitempty"`
	Style   string `json:"style,omitempty"`
	N       int    `json:"n"`
}

// GeneratedImage is one generated image
type GeneratedImage struct {
	URL           string `json:"url"`
	RevisedPrompt string `json:"revised_prompt,omitempty"`
}

// ImageGenerationOutput represents an image generation response
type ImageGenerationOutput struct {
	Created int64            `json:"created"`
	Data    []GeneratedImage `json:"data"`
}

// CreateImage generates images from a prompt
// POST /images/generations
func (c *Client) CreateImage(ctx context.Context, in ImageGenerationInput) (*ImageGenerationOutput, error) {
	if in.N == 0 {
		in.N = 1
	}

	var out ImageGenerationOutput
	if err := c.postJSON(ctx, "/images/generations", in, &out); err != nil {
		return nil, err
	}
	if len(out.Data) == 0 || out.Data[0].URL == "" {
		return nil, fmt.Errorf("empty image generation response")
	}
	return &out, nil
}

// Download fetches a generated image. The URL is pre-signed, so no credentials are sent.
func (c *Client) Download(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("downloading image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("downloading image: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("reading image: %w", err)
	}
	if len(data) > maxDownloadSize {
		return nil, "", fmt.Errorf("downloading image: larger than %d bytes", maxDownloadSize)
	}

	return data, resp.Header.Get("Content-Type"), nil
}

func (c *Client) postJSON(ctx context.Context, path string, in, out interface{}) error {
	if c.apiKey == "" {
		return ErrNotConfigured
	}

	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

// do executes an HTTP request and decodes the response
func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp ErrorResponse
		if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Message == "" {
			return &APIError{StatusCode: resp.StatusCode, Message: "Unknown error"}
		}
		errResp.Error.StatusCode = resp.StatusCode
		return &errResp.Error
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}

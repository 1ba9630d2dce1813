package facebook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL    = "https://graph.facebook.com"
	defaultAPIVersion = "v18.0"
	defaultTimeout    = 30 * time.Second
)

// Client is a Facebook Graph API client for page publishing
type Client struct {
	baseURL    string
	apiVersion string
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

// WithAPIVersion sets the API version
func WithAPIVersion(version string) ClientOption {
	return func(c *Client) {
		c.apiVersion = version
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// New creates a new Facebook API client
func New(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		apiVersion: defaultAPIVersion,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an error from the Graph API
type APIError struct {
	StatusCode   int    `json:"-"`
	Message      string `json:"message"`
	Type         string `json:"type"`
	Code         int    `json:"code"`
	ErrorSubcode int    `json:"error_subcode"`
	FBTraceID    string `json:"fbtrace_id"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("facebook API error: %s (status: %d, code: %d)", e.Message, e.StatusCode, e.Code)
}

// ErrorResponse represents an error response from the API
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

// CreatePostOutput is returned by the feed and photo endpoints.
// The feed returns id, photos return id and post_id.
type CreatePostOutput struct {
	ID     string `json:"id"`
	PostID string `json:"post_id,omitempty"`
}

// PlatformPostID returns the identifier of the created post
func (o *CreatePostOutput) PlatformPostID() string {
	if o.ID != "" {
		return o.ID
	}
	return o.PostID
}

// CreateFeedPostInput represents input for a text post
type CreateFeedPostInput struct {
	PageID      string
	AccessToken string
	Message     string
}

// CreateFeedPost publishes a text post
// POST /{page-id}/feed
func (c *Client) CreateFeedPost(ctx context.Context, in CreateFeedPostInput) (*CreatePostOutput, error) {
	endpoint := fmt.Sprintf("%s/%s/%s/feed", c.baseURL, c.apiVersion, in.PageID)

	params := url.Values{}
	params.Set("message", in.Message)
	params.Set("access_token", in.AccessToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out CreatePostOutput
	if err := c.do(req, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// CreatePhotoPostInput represents input for a photo post
type CreatePhotoPostInput struct {
	PageID      string
	AccessToken string
	Message     string
	ImageURL    string // public URL the Graph API downloads the photo from
}

// CreatePhotoPost publishes a photo with a message
// POST /{page-id}/photos
func (c *Client) CreatePhotoPost(ctx context.Context, in CreatePhotoPostInput) (*CreatePostOutput, error) {
	endpoint := fmt.Sprintf("%s/%s/%s/photos", c.baseURL, c.apiVersion, in.PageID)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, field := range [][2]string{
		{"message", in.Message},
		{"url", in.ImageURL},
		{"access_token", in.AccessToken},
	} {
		if err := w.WriteField(field[0], field[1]); err != nil {
			return nil, fmt.Errorf("writing form field %s: %w", field[0], err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var out CreatePostOutput
	if err := c.do(req, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// do executes an HTTP request and decodes the response.
// An error envelope is reported even when it arrives with a 2xx status.
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

	var errResp ErrorResponse
	if jsonErr := json.Unmarshal(body, &errResp); jsonErr == nil && errResp.Error != nil {
		errResp.Error.StatusCode = resp.StatusCode
		if errResp.Error.Message == "" {
			errResp.Error.Message = http.StatusText(resp.StatusCode)
		}
		return errResp.Error
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}

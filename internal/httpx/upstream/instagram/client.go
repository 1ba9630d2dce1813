package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL    = "https://graph.instagram.com"
	defaultAPIVersion = "v21.0"
	defaultTimeout    = 30 * time.Second
)

// Client is an Instagram Graph API client for content publishing
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

// New creates a new Instagram API client
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

// APIError represents an error from the Instagram API
type APIError struct {
	StatusCode   int    `json:"-"`
	Message      string `json:"message"`
	Type         string `json:"type"`
	Code         int    `json:"code"`
	ErrorSubcode int    `json:"error_subcode"`
	FBTraceID    string `json:"fbtrace_id"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("instagram API error: %s (code: %d, subcode: %d)", e.Message, e.Code, e.ErrorSubcode)
}

// ErrorResponse represents an error response from the API
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ContainerStatus represents the status of a media container
type ContainerStatus string

const (
	ContainerStatusExpired    ContainerStatus = "EXPIRED"
	ContainerStatusError      ContainerStatus = "ERROR"
	ContainerStatusFinished   ContainerStatus = "FINISHED"
	ContainerStatusInProgress ContainerStatus = "IN_PROGRESS"
	ContainerStatusPublished  ContainerStatus = "PUBLISHED"
)

// CreateImageContainerInput represents input for creating an image container
type CreateImageContainerInput struct {
	UserID      string
	AccessToken string
	ImageURL    string
	Caption     string
}

// CreateContainerOutput represents output from creating a media container
type CreateContainerOutput struct {
	ID string `json:"id"`
}

// CreateImageContainer creates a single-image media container.
// Step 1 of the publishing process
func (c *Client) CreateImageContainer(ctx context.Context, in CreateImageContainerInput) (*CreateContainerOutput, error) {
	endpoint := fmt.Sprintf("%s/%s/%s/media", c.baseURL, c.apiVersion, in.UserID)

	params := url.Values{}
	params.Set("access_token", in.AccessToken)
	params.Set("image_url", in.ImageURL)
	if in.Caption != "" {
		params.Set("caption", in.Caption)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	var out CreateContainerOutput
	if err := c.do(req, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// ContainerStatusOutput represents output from checking container status
type ContainerStatusOutput struct {
	ID           string          `json:"id"`
	Status       ContainerStatus `json:"status_code"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

// GetContainerStatus checks the status of a media container.
// Step 2 of the publishing process
func (c *Client) GetContainerStatus(ctx context.Context, containerID, accessToken string) (*ContainerStatusOutput, error) {
	endpoint := fmt.Sprintf("%s/%s/%s", c.baseURL, c.apiVersion, containerID)

	params := url.Values{}
	params.Set("access_token", accessToken)
	params.Set("fields", "status_code,error_message")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	var out ContainerStatusOutput
	if err := c.do(req, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// PublishMediaOutput represents output from publishing media
type PublishMediaOutput struct {
	ID string `json:"id"` // Instagram Media ID
}

// PublishContainer publishes a finished media container.
// Step 3 of the publishing process
func (c *Client) PublishContainer(ctx context.Context, userID, accessToken, containerID string) (*PublishMediaOutput, error) {
	endpoint := fmt.Sprintf("%s/%s/%s/media_publish", c.baseURL, c.apiVersion, userID)

	params := url.Values{}
	params.Set("access_token", accessToken)
	params.Set("creation_id", containerID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	var out PublishMediaOutput
	if err := c.do(req, &out); err != nil {
		return nil, err
	}

	return &out, nil
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
			return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
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

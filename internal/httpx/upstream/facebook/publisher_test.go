package facebook

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadim/neo-social/internal/domain/post/entity"
	"github.com/vadim/neo-social/internal/domain/post/publisher"
)

func newTestPublisher(t *testing.T, handler http.HandlerFunc, cfg Config) *Publisher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := New(WithBaseURL(srv.URL), WithAPIVersion("v18.0"), WithHTTPClient(srv.Client()))
	return NewPublisher(client, cfg)
}

func TestPublish_TextPost(t *testing.T) {
	var calls int
	pub := newTestPublisher(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v18.0/me/feed", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "Hello\n\n#a #b", r.PostForm.Get("message"))
		assert.Equal(t, "token", r.PostForm.Get("access_token"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"123_456"}`))
	}, Config{AccessToken: "token"})

	res, err := pub.Publish(context.Background(), publisher.Content{Caption: "Hello", Hashtags: []string{"#a", "#b"}})
	require.NoError(t, err)
	assert.Equal(t, "123_456", res.PlatformPostID)
	assert.Equal(t, 1, calls)
}

func TestPublish_PhotoPost(t *testing.T) {
	pub := newTestPublisher(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v18.0/page-1/photos", r.URL.Path)
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))

		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Look\n\n#pic", r.FormValue("message"))
		assert.Equal(t, "https://cdn.example.com/a.jpg", r.FormValue("url"))
		assert.Equal(t, "token", r.FormValue("access_token"))

		_, _ = w.Write([]byte(`{"post_id":"page-1_789"}`))
	}, Config{PageID: "page-1", AccessToken: "token"})

	res, err := pub.Publish(context.Background(), publisher.Content{
		Caption:  "Look",
		Hashtags: []string{"#pic"},
		ImageURL: "https://cdn.example.com/a.jpg",
	})
	require.NoError(t, err)
	assert.Equal(t, "page-1_789", res.PlatformPostID)
}

func TestPublish_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantMsg    string
		wantStatus int
	}{
		{
			name:       "error envelope",
			status:     http.StatusBadRequest,
			body:       `{"error":{"message":"(#200) Permissions error","type":"OAuthException","code":200}}`,
			wantMsg:    "(#200) Permissions error",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "error envelope with 200",
			status:     http.StatusOK,
			body:       `{"error":{"message":"Duplicate status message","code":506}}`,
			wantMsg:    "Duplicate status message",
			wantStatus: http.StatusOK,
		},
		{
			name:       "plain body",
			status:     http.StatusBadGateway,
			body:       "upstream down",
			wantMsg:    "upstream down",
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := newTestPublisher(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}, Config{AccessToken: "token"})

			_, err := pub.Publish(context.Background(), publisher.Content{Caption: "x"})

			var perr *entity.PlatformError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, entity.PlatformFacebook, perr.Platform)
			assert.Equal(t, tt.wantMsg, perr.Message)
			assert.Equal(t, tt.wantStatus, perr.StatusCode)
		})
	}
}

func TestPublish_MissingToken(t *testing.T) {
	pub := newTestPublisher(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}, Config{})

	_, err := pub.Publish(context.Background(), publisher.Content{Caption: "x"})

	var perr *entity.PlatformError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "facebook access token not configured", perr.Message)
}

func TestFormatMessage(t *testing.T) {
	assert.Equal(t, "Hi\n\n#one #two", FormatMessage("Hi", []string{"#one", "#two"}))
	assert.Equal(t, "Hi\n\n", FormatMessage("Hi", nil))
}

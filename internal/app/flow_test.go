package app

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadim/neo-social/internal/domain/post/dao/daotest"
	"github.com/vadim/neo-social/internal/domain/post/entity"
	"github.com/vadim/neo-social/internal/domain/post/policy"
	"github.com/vadim/neo-social/internal/domain/post/publisher"
	"github.com/vadim/neo-social/internal/domain/post/service"
	"github.com/vadim/neo-social/internal/httpx/upstream/facebook"
)

// apiClient drives the mounted API in-process
type apiClient struct {
	t       *testing.T
	handler http.Handler
}

func (c apiClient) do(method, path string, body any, out any) int {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, "/api/v1"+path, reader)
	req.Header.Set("X-Account-ID", "acc-e2e")
	rr := httptest.NewRecorder()
	c.handler.ServeHTTP(rr, req)

	if out != nil && rr.Body.Len() > 0 {
		require.NoError(c.t, json.Unmarshal(rr.Body.Bytes(), out), rr.Body.String())
	}
	return rr.Code
}

func newFlowAPI(t *testing.T) (apiClient, *atomic.Int32) {
	t.Helper()

	var graphCalls atomic.Int32
	graph := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		graphCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"page_1001"}`))
	}))
	t.Cleanup(graph.Close)

	registry := publisher.NewRegistry()
	fbClient := facebook.New(facebook.WithBaseURL(graph.URL), facebook.WithHTTPClient(graph.Client()))
	registry.Register(entity.PlatformFacebook, facebook.NewPublisher(fbClient, facebook.Config{AccessToken: "token"}))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	posts := daotest.NewPosts()
	svc := service.New(posts, daotest.NewAttempts(posts))

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		mountAPI(r, apiDeps{
			posts:    policy.New(svc, registry, logger),
			location: time.UTC,
			logger:   logger,
		})
	})

	return apiClient{t: t, handler: r}, &graphCalls
}

func TestFlow_ScheduleSeriesThenPublish(t *testing.T) {
	api, graphCalls := newFlowAPI(t)

	var scheduled struct {
		IDs []string `json:"ids"`
	}
	code := api.do(http.MethodPost, "/posts/schedule", map[string]any{
		"caption":      "Monday tips",
		"hashtags":     []string{"tips", "#monday"},
		"platforms":    []string{"facebook", "linkedin"},
		"scheduled_at": "2030-01-31T09:00:00Z",
		"recurrence":   map[string]any{"frequency": "monthly", "occurrences": 3},
	}, &scheduled)
	require.Equal(t, http.StatusCreated, code)
	require.Len(t, scheduled.IDs, 3)

	var second entity.Post
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/posts/"+scheduled.IDs[1], nil, &second))
	assert.Equal(t, time.Date(2030, time.February, 28, 9, 0, 0, 0, time.UTC), second.ScheduledAt.UTC())
	assert.Equal(t, []string{"#tips", "#monday"}, second.Hashtags)

	var report policy.PublishReport
	require.Equal(t, http.StatusOK, api.do(http.MethodPost, "/posts/"+scheduled.IDs[0]+"/publish", nil, &report))
	assert.Equal(t, entity.PostStatusPublished, report.Status)
	require.Len(t, report.Results, 2)
	assert.Equal(t, entity.PlatformFacebook, report.Results[0].Attempt.Platform)
	assert.Equal(t, "page_1001", report.Results[0].Attempt.PlatformPostID)
	assert.Equal(t, entity.PlatformLinkedIn, report.Results[1].Attempt.Platform)
	assert.Equal(t, "platform not supported", report.Results[1].Attempt.ErrorMessage)
	assert.Equal(t, int32(1), graphCalls.Load())

	var attempts struct {
		Attempts []entity.PublishAttempt `json:"attempts"`
	}
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/posts/"+scheduled.IDs[0]+"/attempts", nil, &attempts))
	assert.Len(t, attempts.Attempts, 2)

	// published posts are frozen
	code = api.do(http.MethodPut, "/posts/"+scheduled.IDs[0], map[string]any{"caption": "changed"}, nil)
	assert.Equal(t, http.StatusConflict, code)

	var calendar policy.CalendarOutput
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/posts/calendar?year=2030&month=2", nil, &calendar))
	require.Len(t, calendar.Days, 1)
	assert.Equal(t, "2030-02-28", calendar.Days[0].Date)
	assert.False(t, calendar.Days[0].HasConflict)
}

func TestFlow_DraftLifecycle(t *testing.T) {
	api, graphCalls := newFlowAPI(t)

	var draft entity.Post
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/posts", map[string]any{
		"title":     "Launch",
		"platforms": []string{"facebook"},
	}, &draft))
	assert.Equal(t, entity.PostStatusDraft, draft.Status)

	// no caption yet
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPost, "/posts/"+draft.ID+"/publish", nil, nil))
	assert.Equal(t, int32(0), graphCalls.Load())

	var updated entity.Post
	require.Equal(t, http.StatusOK, api.do(http.MethodPut, "/posts/"+draft.ID, map[string]any{
		"caption":      "We are live",
		"scheduled_at": "2030-05-01T12:00:00Z",
	}, &updated))
	assert.Equal(t, entity.PostStatusScheduled, updated.Status)

	var stats entity.PostStatistics
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/posts/statistics", nil, &stats))
	assert.Equal(t, 1, stats.ScheduledCount)

	assert.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, "/posts/"+draft.ID, nil, nil))
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/posts/"+draft.ID, nil, nil))
}

func TestFlow_OtherAccountCannotSeePosts(t *testing.T) {
	api, _ := newFlowAPI(t)

	var draft entity.Post
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/posts", map[string]any{"caption": "mine"}, &draft))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/posts/"+draft.ID, nil)
	req.Header.Set("X-Account-ID", "intruder")
	rr := httptest.NewRecorder()
	api.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/posts/"+draft.ID, nil)
	rr = httptest.NewRecorder()
	api.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

package dao

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadim/neo-social/internal/domain/post/entity"
)

var postColumnNames = []string{
	"id", "account_id", "title", "caption", "hashtags", "image_url", "platforms",
	"status", "scheduled_at", "created_at", "updated_at",
}

func newMockDB(t *testing.T) pgxmock.PgxPoolIface {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

var (
	created = time.Date(2024, time.March, 1, 8, 0, 0, 0, time.UTC)
	morning = time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC)
	evening = time.Date(2024, time.March, 10, 18, 0, 0, 0, time.UTC)
)

func postRows() *pgxmock.Rows {
	return pgxmock.NewRows(postColumnNames).
		AddRow("p1", "acc", strPtr("Launch"), "Hello", []string{"#go"}, strPtr("https://cdn/a.png"),
			[]string{"facebook", "linkedin"}, entity.PostStatusScheduled, timePtr(morning), created, created).
		AddRow("p2", "acc", (*string)(nil), "Later", []string(nil), (*string)(nil),
			[]string{"twitter"}, entity.PostStatusScheduled, timePtr(evening), created, created)
}

// tail matches the generated query from the FROM clause to the end
func tail(sql string) string {
	return regexp.QuoteMeta(sql) + "$"
}

func TestPostPostgres_List(t *testing.T) {
	scheduled := entity.PostStatusScheduled
	facebook := entity.PlatformFacebook
	from := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	order := " ORDER BY scheduled_at ASC NULLS LAST, created_at ASC"

	tests := []struct {
		name   string
		filter PostFilter
		query  string
		args   []any
	}{
		{
			name:   "no filters",
			filter: PostFilter{},
			query:  "FROM posts WHERE 1=1" + order,
		},
		{
			name:   "account status and limit",
			filter: PostFilter{AccountID: "acc", Status: &scheduled, Limit: 10},
			query:  "FROM posts WHERE 1=1 AND account_id = $1 AND status = $2" + order + " LIMIT $3",
			args:   []any{"acc", scheduled, 10},
		},
		{
			name:   "every filter",
			filter: PostFilter{AccountID: "acc", Status: &scheduled, Platform: &facebook, From: &from, To: &to, Limit: 5},
			query: "FROM posts WHERE 1=1 AND account_id = $1 AND status = $2 AND $3 = ANY(platforms)" +
				" AND scheduled_at >= $4 AND scheduled_at < $5" + order + " LIMIT $6",
			args: []any{"acc", scheduled, "facebook", from, to, 5},
		},
		{
			name:   "platform and range only",
			filter: PostFilter{Platform: &facebook, From: &from, To: &to},
			query:  "FROM posts WHERE 1=1 AND $1 = ANY(platforms) AND scheduled_at >= $2 AND scheduled_at < $3" + order,
			args:   []any{"facebook", from, to},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMockDB(t)
			expect := mock.ExpectQuery(tail(tt.query))
			if len(tt.args) > 0 {
				expect = expect.WithArgs(tt.args...)
			}
			expect.WillReturnRows(postRows())

			posts, err := NewPostPostgres(mock).List(context.Background(), tt.filter)
			require.NoError(t, err)
			require.Len(t, posts, 2)
			assert.Equal(t, "p1", posts[0].ID)
			assert.Equal(t, "p2", posts[1].ID)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostPostgres_ListMapsColumns(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectQuery(tail("FROM posts WHERE 1=1 AND account_id = $1 ORDER BY scheduled_at ASC NULLS LAST, created_at ASC")).
		WithArgs("acc").
		WillReturnRows(postRows())

	posts, err := NewPostPostgres(mock).List(context.Background(), PostFilter{AccountID: "acc"})
	require.NoError(t, err)
	require.Len(t, posts, 2)

	first := posts[0]
	assert.Equal(t, "Launch", first.Title)
	assert.Equal(t, []string{"#go"}, first.Hashtags)
	assert.Equal(t, "https://cdn/a.png", first.ImageURL)
	assert.Equal(t, []entity.Platform{entity.PlatformFacebook, entity.PlatformLinkedIn}, first.Platforms)
	assert.Equal(t, morning, *first.ScheduledAt)

	second := posts[1]
	assert.Empty(t, second.Title)
	assert.Empty(t, second.ImageURL)
	assert.NotNil(t, second.Hashtags)
	assert.Empty(t, second.Hashtags)
}

func TestPostPostgres_ListQueryError(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectQuery("FROM posts").WillReturnError(errors.New("connection reset"))

	_, err := NewPostPostgres(mock).List(context.Background(), PostFilter{})
	assert.ErrorContains(t, err, "querying posts")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostPostgres_ListDue(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE status = 'scheduled' AND scheduled_at <= $1")).
		WithArgs(evening, 50).
		WillReturnRows(postRows())

	posts, err := NewPostPostgres(mock).ListDue(context.Background(), evening, 50)
	require.NoError(t, err)
	assert.Len(t, posts, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostPostgres_GetByID(t *testing.T) {
	query := regexp.QuoteMeta("FROM posts WHERE id = $1")

	t.Run("found", func(t *testing.T) {
		mock := newMockDB(t)
		mock.ExpectQuery(query).WithArgs("p1").WillReturnRows(postRows())

		post, err := NewPostPostgres(mock).GetByID(context.Background(), "p1")
		require.NoError(t, err)
		require.NotNil(t, post)
		assert.Equal(t, "p1", post.ID)
		assert.Equal(t, entity.PostStatusScheduled, post.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	tests := []struct {
		name    string
		id      string
		err     error
		wantErr bool
	}{
		{"no rows", "8b0f4f5e-6b0e-4c53-9a3e-3f0b8f2d1c11", pgx.ErrNoRows, false},
		{"malformed id", "not-a-uuid", &pgconn.PgError{Code: "22P02", Message: `invalid input syntax for type uuid: "not-a-uuid"`}, false},
		{"other postgres error", "p1", &pgconn.PgError{Code: "57P01", Message: "terminating connection"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMockDB(t)
			mock.ExpectQuery(query).WithArgs(tt.id).WillReturnError(tt.err)

			post, err := NewPostPostgres(mock).GetByID(context.Background(), tt.id)
			assert.Nil(t, post)
			if tt.wantErr {
				assert.ErrorIs(t, err, tt.err)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostPostgres_UpdateStatus(t *testing.T) {
	query := regexp.QuoteMeta("UPDATE posts SET status = $2, updated_at = $3 WHERE id = $1")

	mock := newMockDB(t)
	mock.ExpectExec(query).
		WithArgs("p1", entity.PostStatusPublished, evening).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(query).
		WithArgs("gone", entity.PostStatusFailed, evening).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := NewPostPostgres(mock)
	require.NoError(t, repo.UpdateStatus(context.Background(), "p1", entity.PostStatusPublished, evening))
	assert.ErrorIs(t, repo.UpdateStatus(context.Background(), "gone", entity.PostStatusFailed, evening), entity.ErrPostNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostPostgres_Create(t *testing.T) {
	mock := newMockDB(t)
	post := &entity.Post{
		ID:          "p1",
		AccountID:   "acc",
		Caption:     "Hello",
		Platforms:   []entity.Platform{entity.PlatformFacebook},
		Status:      entity.PostStatusScheduled,
		ScheduledAt: timePtr(morning),
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	mock.ExpectExec("INSERT INTO posts").
		WithArgs("p1", "acc", (*string)(nil), "Hello", []string{}, (*string)(nil), []string{"facebook"},
			entity.PostStatusScheduled, timePtr(morning), created, created).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, NewPostPostgres(mock).Create(context.Background(), post))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostPostgres_CountByStatus(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, COUNT(*) FROM posts WHERE account_id = $1 GROUP BY status")).
		WithArgs("acc").
		WillReturnRows(pgxmock.NewRows([]string{"status", "count"}).
			AddRow(entity.PostStatusDraft, 2).
			AddRow(entity.PostStatusPublished, 5))

	counts, err := NewPostPostgres(mock).CountByStatus(context.Background(), "acc")
	require.NoError(t, err)
	assert.Equal(t, map[entity.PostStatus]int{entity.PostStatusDraft: 2, entity.PostStatusPublished: 5}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

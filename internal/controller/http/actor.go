package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/vadim/neo-social/internal/httpx/response"
)

// AccountHeader carries the requesting account, set by the fronting gateway
const AccountHeader = "X-Account-ID"

type accountKey struct{}

// RequireAccount rejects requests without an account header and stores the account in the context
func RequireAccount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accountID := strings.TrimSpace(r.Header.Get(AccountHeader))
		if accountID == "" {
			response.Unauthorized(w, AccountHeader+" header is required")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), accountID)))
	})
}

// WithAccount returns a context carrying the account ID
func WithAccount(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, accountKey{}, accountID)
}

// AccountFromContext returns the account set by RequireAccount
func AccountFromContext(ctx context.Context) string {
	accountID, _ := ctx.Value(accountKey{}).(string)
	return accountID
}

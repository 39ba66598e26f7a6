package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/lingoplay/internal/common"
	"github.com/dmitrijs2005/lingoplay/internal/server/models"
)

type ctxKey struct{}

var userKey ctxKey

func withUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext returns the user resolved by the authentication gate.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey).(*models.User)
	return u, ok && u != nil
}

// bearerToken extracts the credential of an "Authorization: Bearer <token>"
// header. ok is false when the header is absent or malformed.
func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

// gate rejects requests without a valid access token and attaches the
// caller to the request context.
func (h *Handler) gate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			h.metrics.observeAuth("authenticate", common.ErrMissingCredential)
			h.respondError(w, r, common.ErrMissingCredential)
			return
		}

		user, err := h.users.Current(r.Context(), token)
		h.metrics.observeAuth("authenticate", err)
		if err != nil {
			h.respondError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	})
}

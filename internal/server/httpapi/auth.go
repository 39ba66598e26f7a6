package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/lingoplay/internal/common"
	"github.com/dmitrijs2005/lingoplay/internal/server/models"
	"github.com/dmitrijs2005/lingoplay/internal/server/services"
)

const (
	refreshCookieName = "refresh_token"
	refreshCookiePath = "/auth"
)

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondInvalid(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		respondInvalid(w, err)
		return
	}

	user, err := h.users.Register(r.Context(), req.Email, req.Username, req.Password)
	h.metrics.observeAuth("register", err)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.logger.Info(r.Context(), "user registered", "user_id", user.ID)
	respondJSON(w, http.StatusCreated, newUserResponse(user))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondInvalid(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		respondInvalid(w, err)
		return
	}

	pair, user, err := h.users.Login(r.Context(), req.Email, req.Password)
	h.metrics.observeAuth("login", err)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondTokens(w, pair, user)
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		h.metrics.observeAuth("refresh", common.ErrMissingCredential)
		h.respondError(w, r, common.ErrMissingCredential)
		return
	}

	pair, user, err := h.users.Refresh(r.Context(), cookie.Value)
	h.metrics.observeAuth("refresh", err)
	if err != nil {
		if common.IsAuthFailure(err) {
			h.expireRefreshCookie(w)
		}
		h.respondError(w, r, err)
		return
	}

	h.respondTokens(w, pair, user)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	var token string
	if cookie, err := r.Cookie(refreshCookieName); err == nil {
		token = cookie.Value
	}

	h.expireRefreshCookie(w)

	err := h.users.Logout(r.Context(), token)
	h.metrics.observeAuth("logout", err)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, struct{}{})
}

func (h *Handler) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		h.respondError(w, r, common.ErrUnauthorized)
		return
	}
	respondJSON(w, http.StatusOK, newUserResponse(user))
}

func (h *Handler) respondTokens(w http.ResponseWriter, pair *services.TokenPair, user *models.User) {
	h.setRefreshCookie(w, pair.RefreshToken, pair.RefreshExpiresAt)
	respondJSON(w, http.StatusOK, tokenResponse{
		Token:     pair.AccessToken,
		ExpiresAt: pair.AccessExpiresAt,
		User:      newUserResponse(user),
	})
}

func (h *Handler) setRefreshCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     refreshCookiePath,
		Expires:  expires,
		MaxAge:   int(h.cfg.RefreshTokenValidityDuration.Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) expireRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Path:     refreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"tradejournal/internal/models"
	"tradejournal/internal/services"
)

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

type AuthHandler struct {
	auth   *services.AuthService
	cookie CookieConfig
	logger *zap.Logger
}

func NewAuthHandler(auth *services.AuthService, cookie CookieConfig, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, cookie: cookie, logger: logger}
}

type authResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token,omitempty"`
}

// Signup godoc
// @Summary Create an account
// @Description The first account is an approved admin. Later accounts wait for approval and get no session.
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body services.Credentials true "Email and password"
// @Success 201 {object} authResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /auth/signup [post]
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var c services.Credentials
	if !decode(w, r, &c) {
		return
	}
	u, err := h.auth.Signup(r.Context(), c)
	if err != nil {
		fail(w, r, h.logger, "signup", err)
		return
	}
	resp := authResponse{User: u}
	if u.IsApproved {
		token, err := h.startSession(w, u)
		if err != nil {
			fail(w, r, h.logger, "issue token", err)
			return
		}
		resp.Token = token
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Login godoc
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body services.Credentials true "Email and password"
// @Success 200 {object} authResponse
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string "Account pending approval"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var c services.Credentials
	if !decode(w, r, &c) {
		return
	}
	u, err := h.auth.Login(r.Context(), c)
	if err != nil {
		fail(w, r, h.logger, "login", err)
		return
	}
	token, err := h.startSession(w, u)
	if err != nil {
		fail(w, r, h.logger, "issue token", err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{User: u, Token: token})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, u *models.User) (string, error) {
	token, err := h.auth.IssueToken(u)
	if err != nil {
		return "", err
	}
	ttl := h.auth.TTL()
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return token, nil
}

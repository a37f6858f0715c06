package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"filevault/internal/pkg/response"
)

// SessionCookie carries the session token between requests.
const SessionCookie = "session_id"

type Handler struct {
	service        *Service
	cookieSecure   bool
	cookieSameSite string
	cookiePath     string
}

func NewHandler(service *Service, cookieSecure bool, cookieSameSite string) *Handler {
	return &Handler{
		service:        service,
		cookieSecure:   cookieSecure,
		cookieSameSite: cookieSameSite,
		cookiePath:     "/",
	}
}

// Login godoc
// @Summary Log in
// @Description Checks the configured account and sets the session cookie.
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Credentials"
// @Success 200 {object} map[string]interface{}
// @Failure 400,401,503 {object} map[string]interface{}
// @Router /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "login and password are required")
		return
	}

	token, err := h.service.Login(req.Login, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			response.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid login or password")
		case errors.Is(err, ErrNotConfigured):
			response.Error(c, http.StatusServiceUnavailable, "AUTH_DISABLED", "No account is configured")
		default:
			_ = c.Error(err)
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create session")
		}
		return
	}

	c.SetSameSite(parseSameSite(h.cookieSameSite))
	c.SetCookie(SessionCookie, token, int(h.service.tokens.TTL().Seconds()), h.cookiePath, "", h.cookieSecure, true)
	response.Success(c, http.StatusOK, LoginResponse{Token: token})
}

// Logout godoc
// @Summary Log out
// @Tags Auth
// @Success 204
// @Router /auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	c.SetSameSite(parseSameSite(h.cookieSameSite))
	c.SetCookie(SessionCookie, "", -1, h.cookiePath, "", h.cookieSecure, true)
	c.Status(http.StatusNoContent)
}

func parseSameSite(mode string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

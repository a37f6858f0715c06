package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"filevault/internal/pkg/response"
)

// Authenticator resolves a session token to the login it was issued for.
type Authenticator interface {
	Enabled() bool
	Authenticate(token string) (string, error)
}

// SessionAuth requires a valid session token from the given cookie or an
// "Authorization: Bearer" header. When no account is configured every
// request passes.
func SessionAuth(auth Authenticator, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !auth.Enabled() {
			c.Next()
			return
		}

		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token, _ = c.Cookie(cookieName)
		}
		if token == "" {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing session")
			c.Abort()
			return
		}

		login, err := auth.Authenticate(token)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired session")
			c.Abort()
			return
		}

		c.Set("login", login)
		c.Next()
	}
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

package middleware

import (
	"net/http"
	"strings"

	httpdto "github.com/vibast-solutions/ms-go-accounts/app/dto/http"
	"github.com/vibast-solutions/ms-go-accounts/app/security"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const (
	ContextKeyEmail   = "account_email"
	ContextKeyTokenID = "session_token_id"
)

type sessionValidator interface {
	AuthenticateSession(tokenString string) (*security.Claims, error)
}

type AuthMiddleware struct {
	sessions sessionValidator
}

func NewAuthMiddleware(sessions sessionValidator) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions}
}

// RequireAuth accepts only session tokens presented as "Bearer <token>".
// Verification and reset tokens are rejected.
func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			logrus.Debug("Missing authorization header")
			return c.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "missing authorization header"})
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			logrus.Debug("Invalid authorization header format")
			return c.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "invalid authorization header format"})
		}

		claims, err := m.sessions.AuthenticateSession(parts[1])
		if err != nil {
			logrus.WithError(err).Debug("Invalid or expired session token")
			return c.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "invalid or expired token"})
		}

		c.Set(ContextKeyEmail, claims.Subject)
		c.Set(ContextKeyTokenID, claims.ID)

		return next(c)
	}
}

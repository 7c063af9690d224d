package router_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-accounts/app/controller"
	"github.com/vibast-solutions/ms-go-accounts/app/middleware"
	"github.com/vibast-solutions/ms-go-accounts/app/repository"
	"github.com/vibast-solutions/ms-go-accounts/app/router"
	"github.com/vibast-solutions/ms-go-accounts/app/security"
	"github.com/vibast-solutions/ms-go-accounts/app/service"
	"github.com/vibast-solutions/ms-go-accounts/config"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type noopMailer struct{}

func (noopMailer) SendVerification(context.Context, string, string) error  { return nil }
func (noopMailer) SendPasswordReset(context.Context, string, string) error { return nil }

func newTestRouter(t *testing.T) (*echo.Echo, *security.TokenService) {
	t.Helper()

	cfg := &config.Config{
		JWT:      config.JWTConfig{Secret: "test-secret", Algorithm: "HS256", SessionTTL: time.Hour},
		Tokens:   config.TokenConfig{VerificationTTL: time.Hour, ResetTTL: 30 * time.Minute},
		Password: config.PasswordConfig{Policy: config.PasswordPolicy{MinLength: 1}, BcryptCost: bcrypt.MinCost},
		Mail:     config.MailConfig{SendTimeout: time.Second},
	}
	tokens, err := security.NewTokenService(cfg.JWT)
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	svc := service.NewAccountAuthService(
		repository.NewMemoryAccountRepository(),
		security.NewBcryptHasher(cfg.Password.BcryptCost),
		tokens,
		noopMailer{},
		cfg,
		service.WithAsyncRunner(func(task func()) { task() }),
		service.WithMetrics(service.NewMetrics(registry)),
	)

	e := router.New(router.Deps{
		AccountAuth: controller.NewAccountAuthController(svc),
		Auth:        middleware.NewAuthMiddleware(svc),
		Gatherer:    registry,
	})
	return e, tokens
}

func serve(e *echo.Echo, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	e, _ := newTestRouter(t)

	rec := serve(e, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRouter_PublicRoutesAreMounted(t *testing.T) {
	e, _ := newTestRouter(t)

	cases := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodPost, "/register", http.StatusBadRequest},
		{http.MethodPost, "/login", http.StatusBadRequest},
		{http.MethodPost, "/forgot-password", http.StatusBadRequest},
		{http.MethodPost, "/reset-password", http.StatusBadRequest},
		{http.MethodGet, "/verify-email", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := serve(e, tc.method, tc.path, `{}`, nil)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}
}

func TestRouter_VerifyEmailRejectsPost(t *testing.T) {
	e, _ := newTestRouter(t)

	rec := serve(e, http.MethodPost, "/verify-email", `{"token":"x"}`, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouter_MeRequiresSession(t *testing.T) {
	e, tokens := newTestRouter(t)

	rec := serve(e, http.MethodGet, "/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	resetToken, err := tokens.Issue("a@x.io", security.PurposeReset, time.Hour)
	require.NoError(t, err)
	rec = serve(e, http.MethodGet, "/me", "", http.Header{"Authorization": {"Bearer " + resetToken}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_MeReturnsAccount(t *testing.T) {
	e, tokens := newTestRouter(t)

	rec := serve(e, http.MethodPost, "/register", `{"email":"a@x.io","password":"pw1"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	session, err := tokens.Issue("a@x.io", security.PurposeSession, time.Hour)
	require.NoError(t, err)
	rec = serve(e, http.MethodGet, "/me", "", http.Header{"Authorization": {"Bearer " + session}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"email":"a@x.io"`)
	assert.Contains(t, rec.Body.String(), `"is_verified":false`)
}

func TestRouter_MetricsExposeOperations(t *testing.T) {
	e, _ := newTestRouter(t)

	rec := serve(e, http.MethodPost, "/login", `{"email":"ghost@x.io","password":"pw"}`, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(e, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `accounts_operations_total{operation="login",outcome="invalid_credentials"} 1`)
}

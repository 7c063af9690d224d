package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-accounts/app/controller"
	"github.com/vibast-solutions/ms-go-accounts/app/middleware"
	"github.com/vibast-solutions/ms-go-accounts/app/notify"
	"github.com/vibast-solutions/ms-go-accounts/app/repository"
	"github.com/vibast-solutions/ms-go-accounts/app/router"
	"github.com/vibast-solutions/ms-go-accounts/app/security"
	"github.com/vibast-solutions/ms-go-accounts/app/service"
	"github.com/vibast-solutions/ms-go-accounts/config"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"
)

const publicBaseURL = "https://accounts.example.com"

var linkPattern = regexp.MustCompile(`https://accounts\.example\.com/\S+`)

// inbox is a notify.Sender keeping the last link mailed to every address.
type inbox struct {
	mu    sync.Mutex
	links map[string]string
}

func (i *inbox) Send(_ context.Context, to, _, body string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.links == nil {
		i.links = map[string]string{}
	}
	i.links[to] = linkPattern.FindString(body)
	return nil
}

func (i *inbox) token(t *testing.T, to, path string) string {
	t.Helper()

	i.mu.Lock()
	link := i.links[to]
	i.mu.Unlock()

	u, err := url.Parse(link)
	if err != nil || link == "" {
		t.Fatalf("no link mailed to %s (%q)", to, link)
	}
	if u.Path != path {
		t.Fatalf("expected link path %s, got %s", path, u.Path)
	}
	return u.Query().Get("token")
}

type httpClient struct {
	baseURL string
	client  *http.Client
}

func (c *httpClient) do(t *testing.T, method, path string, body any, header http.Header) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal failed: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		t.Fatalf("new request failed: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		t.Fatalf("http request failed: %v", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response failed: %v", err)
	}
	return resp, bodyBytes
}

func (c *httpClient) postJSON(t *testing.T, path string, body any) (*http.Response, []byte) {
	t.Helper()
	return c.do(t, http.MethodPost, path, body, nil)
}

func startService(t *testing.T) (*httpClient, *inbox) {
	t.Helper()

	cfg := &config.Config{
		App:      config.AppConfig{PublicBaseURL: publicBaseURL},
		JWT:      config.JWTConfig{Secret: "e2e-secret", Algorithm: "HS256", SessionTTL: time.Hour},
		Tokens:   config.TokenConfig{VerificationTTL: time.Hour, ResetTTL: 30 * time.Minute},
		Password: config.PasswordConfig{Policy: config.PasswordPolicy{MinLength: 1}, BcryptCost: bcrypt.MinCost},
		Mail:     config.MailConfig{SendTimeout: time.Second},
	}

	tokens, err := security.NewTokenService(cfg.JWT)
	if err != nil {
		t.Fatalf("failed to create token service: %v", err)
	}
	mailbox := &inbox{}
	registry := prometheus.NewRegistry()
	svc := service.NewAccountAuthService(
		repository.NewMemoryAccountRepository(),
		security.NewBcryptHasher(cfg.Password.BcryptCost),
		tokens,
		notify.NewMailer(mailbox, cfg.App.PublicBaseURL, cfg.Tokens.VerificationTTL, cfg.Tokens.ResetTTL),
		cfg,
		service.WithAsyncRunner(func(task func()) { task() }),
		service.WithMetrics(service.NewMetrics(registry)),
	)

	server := httptest.NewServer(router.New(router.Deps{
		AccountAuth: controller.NewAccountAuthController(svc),
		Auth:        middleware.NewAuthMiddleware(svc),
		Gatherer:    registry,
	}))
	t.Cleanup(server.Close)

	return &httpClient{
		baseURL: server.URL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}, mailbox
}

func TestAccountsE2E_HTTPFlow(t *testing.T) {
	client, mailbox := startService(t)

	state := struct {
		email             string
		password          string
		newPassword       string
		verificationToken string
		accessToken       string
		resetToken        string
	}{
		email:       fmt.Sprintf("e2e+%d@example.com", time.Now().UnixNano()),
		password:    "pw1",
		newPassword: "pw2",
	}

	abort := false
	fail := func(t *testing.T, format string, args ...any) {
		abort = true
		t.Fatalf(format, args...)
	}

	step := func(name string, fn func(t *testing.T)) {
		t.Run(name, func(t *testing.T) {
			if abort {
				t.Skip("previous step failed")
			}
			fn(t)
		})
	}

	step("LoginBeforeRegister", func(t *testing.T) {
		resp, _ := client.postJSON(t, "/login", map[string]string{
			"email":    state.email,
			"password": state.password,
		})
		if resp.StatusCode != http.StatusUnauthorized {
			fail(t, "expected login before register to fail, got %d", resp.StatusCode)
		}
	})

	step("Register", func(t *testing.T) {
		resp, body := client.postJSON(t, "/register", map[string]string{
			"email":    state.email,
			"password": state.password,
		})
		if resp.StatusCode != http.StatusOK {
			fail(t, "register status: %d body: %s", resp.StatusCode, string(body))
		}
		state.verificationToken = mailbox.token(t, state.email, notify.VerifyEmailPath)
		if state.verificationToken == "" {
			fail(t, "expected a verification token in the mailed link")
		}
	})

	step("RegisterDuplicate", func(t *testing.T) {
		resp, _ := client.postJSON(t, "/register", map[string]string{
			"email":    state.email,
			"password": "other",
		})
		if resp.StatusCode != http.StatusBadRequest {
			fail(t, "expected duplicate register to fail, got %d", resp.StatusCode)
		}
	})

	step("LoginBeforeVerify", func(t *testing.T) {
		resp, _ := client.postJSON(t, "/login", map[string]string{
			"email":    state.email,
			"password": state.password,
		})
		if resp.StatusCode != http.StatusForbidden {
			fail(t, "expected login before verify to be forbidden, got %d", resp.StatusCode)
		}
	})

	step("VerifyEmail", func(t *testing.T) {
		resp, body := client.do(t, http.MethodGet, "/verify-email?"+url.Values{"token": {state.verificationToken}}.Encode(), nil, nil)
		if resp.StatusCode != http.StatusOK {
			fail(t, "verify status: %d body: %s", resp.StatusCode, string(body))
		}
	})

	step("VerifyEmailReplay", func(t *testing.T) {
		resp, _ := client.do(t, http.MethodGet, "/verify-email?"+url.Values{"token": {state.verificationToken}}.Encode(), nil, nil)
		if resp.StatusCode != http.StatusNotFound {
			fail(t, "expected replayed verification to be rejected, got %d", resp.StatusCode)
		}
	})

	step("Login", func(t *testing.T) {
		resp, body := client.postJSON(t, "/login", map[string]string{
			"email":    state.email,
			"password": state.password,
		})
		if resp.StatusCode != http.StatusOK {
			fail(t, "login status: %d body: %s", resp.StatusCode, string(body))
		}
		var loginRes struct {
			AccessToken string `json:"access_token"`
			TokenType   string `json:"token_type"`
		}
		if err := json.Unmarshal(body, &loginRes); err != nil {
			fail(t, "login unmarshal failed: %v", err)
		}
		if loginRes.AccessToken == "" || loginRes.TokenType != "bearer" {
			fail(t, "unexpected login response: %s", string(body))
		}
		state.accessToken = loginRes.AccessToken
	})

	step("Me", func(t *testing.T) {
		resp, body := client.do(t, http.MethodGet, "/me", nil, http.Header{"Authorization": {"Bearer " + state.accessToken}})
		if resp.StatusCode != http.StatusOK {
			fail(t, "me status: %d body: %s", resp.StatusCode, string(body))
		}
		var me struct {
			Email      string `json:"email"`
			IsVerified bool   `json:"is_verified"`
		}
		if err := json.Unmarshal(body, &me); err != nil {
			fail(t, "me unmarshal failed: %v", err)
		}
		if me.Email != state.email || !me.IsVerified {
			fail(t, "unexpected me response: %s", string(body))
		}
	})

	step("ForgotPasswordUnknown", func(t *testing.T) {
		resp, _ := client.postJSON(t, "/forgot-password", map[string]string{"email": "ghost-" + state.email})
		if resp.StatusCode != http.StatusNotFound {
			fail(t, "expected unknown forgot password to be 404, got %d", resp.StatusCode)
		}
	})

	step("ForgotPassword", func(t *testing.T) {
		resp, body := client.postJSON(t, "/forgot-password", map[string]string{"email": state.email})
		if resp.StatusCode != http.StatusOK {
			fail(t, "forgot password status: %d body: %s", resp.StatusCode, string(body))
		}
		state.resetToken = mailbox.token(t, state.email, notify.ResetPasswordPath)
	})

	step("ResetWithVerificationToken", func(t *testing.T) {
		resp, _ := client.postJSON(t, "/reset-password", map[string]string{
			"token":        state.verificationToken,
			"new_password": state.newPassword,
		})
		if resp.StatusCode != http.StatusBadRequest {
			fail(t, "expected reset with verification token to fail, got %d", resp.StatusCode)
		}
	})

	step("ResetPassword", func(t *testing.T) {
		resp, body := client.postJSON(t, "/reset-password", map[string]string{
			"token":        state.resetToken,
			"new_password": state.newPassword,
		})
		if resp.StatusCode != http.StatusOK {
			fail(t, "reset status: %d body: %s", resp.StatusCode, string(body))
		}
	})

	step("ResetPasswordReplay", func(t *testing.T) {
		resp, _ := client.postJSON(t, "/reset-password", map[string]string{
			"token":        state.resetToken,
			"new_password": "pw3",
		})
		if resp.StatusCode != http.StatusNotFound {
			fail(t, "expected replayed reset to be rejected, got %d", resp.StatusCode)
		}
	})

	step("LoginOldPassword", func(t *testing.T) {
		resp, _ := client.postJSON(t, "/login", map[string]string{
			"email":    state.email,
			"password": state.password,
		})
		if resp.StatusCode != http.StatusUnauthorized {
			fail(t, "expected old password to be rejected, got %d", resp.StatusCode)
		}
	})

	step("LoginNewPassword", func(t *testing.T) {
		resp, body := client.postJSON(t, "/login", map[string]string{
			"email":    state.email,
			"password": state.newPassword,
		})
		if resp.StatusCode != http.StatusOK {
			fail(t, "login with new password status: %d body: %s", resp.StatusCode, string(body))
		}
	})

	step("Metrics", func(t *testing.T) {
		resp, body := client.do(t, http.MethodGet, "/metrics", nil, nil)
		if resp.StatusCode != http.StatusOK {
			fail(t, "metrics status: %d", resp.StatusCode)
		}
		if !bytes.Contains(body, []byte(`accounts_operations_total{operation="reset_password",outcome="success"} 1`)) {
			fail(t, "expected reset_password success counter, got:\n%s", string(body))
		}
	})
}

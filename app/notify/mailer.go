package notify

import (
	"bytes"
	"context"
	"net/url"
	"text/template"
	"time"

	"github.com/samber/oops"
)

const (
	VerifyEmailPath   = "/verify-email"
	ResetPasswordPath = "/reset-password-page"

	verificationSubject = "Verify your email"
	resetSubject        = "Reset your password"
)

// Sender delivers a single plain-text message.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// EmailParams is passed as data when executing the email templates.
type EmailParams struct {
	Email      string
	Link       string
	Expiration time.Duration
}

const DefaultVerificationTemplate = `Hi {{.Email}},

Please verify your email address by opening the link below:

{{.Link}}

The link is valid for {{printf "%.f" .Expiration.Minutes}} minutes.

If you did not create an account, you can ignore this email.
`

const DefaultResetTemplate = `Hi {{.Email}},

We received a request to reset your password. Open the link below to choose a new one:

{{.Link}}

The link is valid for {{printf "%.f" .Expiration.Minutes}} minutes.

If you did not request a password reset, you can ignore this email.
`

// Mailer renders the account emails and hands them to a Sender.
type Mailer struct {
	sender          Sender
	baseURL         string
	verificationTTL time.Duration
	resetTTL        time.Duration
	verification    *template.Template
	reset           *template.Template
}

func NewMailer(sender Sender, baseURL string, verificationTTL, resetTTL time.Duration) *Mailer {
	return &Mailer{
		sender:          sender,
		baseURL:         baseURL,
		verificationTTL: verificationTTL,
		resetTTL:        resetTTL,
		verification:    template.Must(template.New("verification").Parse(DefaultVerificationTemplate)),
		reset:           template.Must(template.New("reset").Parse(DefaultResetTemplate)),
	}
}

func (m *Mailer) SendVerification(ctx context.Context, email, token string) error {
	body, err := m.render(m.verification, EmailParams{
		Email:      email,
		Link:       m.link(VerifyEmailPath, token),
		Expiration: m.verificationTTL,
	})
	if err != nil {
		return err
	}
	return m.sender.Send(ctx, email, verificationSubject, body)
}

func (m *Mailer) SendPasswordReset(ctx context.Context, email, token string) error {
	body, err := m.render(m.reset, EmailParams{
		Email:      email,
		Link:       m.link(ResetPasswordPath, token),
		Expiration: m.resetTTL,
	})
	if err != nil {
		return err
	}
	return m.sender.Send(ctx, email, resetSubject, body)
}

func (m *Mailer) link(path, token string) string {
	return m.baseURL + path + "?" + url.Values{"token": {token}}.Encode()
}

func (m *Mailer) render(tmpl *template.Template, params EmailParams) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, params); err != nil {
		return "", oops.Code("MAIL_TEMPLATE").With("template", tmpl.Name()).Wrap(err)
	}
	return buf.String(), nil
}

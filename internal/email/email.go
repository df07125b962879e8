package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/resend/resend-go/v2"
)

type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogSender logs emails instead of sending them. Used in ENV=local only,
// since the body carries the raw reset link.
type LogSender struct {
	logger *slog.Logger
}

func (s *LogSender) Send(ctx context.Context, to, subject, body string) error {
	s.logger.InfoContext(ctx, "email (local dev)", "to", to, "subject", subject, "body", body)
	return nil
}

// ResendSender sends emails via the Resend API in staging/production.
type ResendSender struct {
	client *resend.Client
	from   string
}

func (s *ResendSender) Send(ctx context.Context, to, subject, body string) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    body,
	}
	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

// NewSender returns a LogSender for ENV=local, ResendSender otherwise.
func NewSender(env, apiKey, from string, logger *slog.Logger) Sender {
	if env == "local" {
		return &LogSender{logger: logger.With("component", "email")}
	}
	return &ResendSender{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

const ResetPasswordSubject = "Reset your password"

var resetPasswordTmpl = template.Must(template.New("reset").Parse(
	`<p>Hi {{.FirstName}},</p>` +
		`<p>We received a request to reset your password. The link below expires in {{.ValidFor}}.</p>` +
		`<p><a href="{{.Link}}">{{.Link}}</a></p>` +
		`<p>If you did not ask for this, you can ignore this email.</p>`,
))

// ResetPasswordBody renders the reset email. firstName is escaped.
func ResetPasswordBody(firstName, link string, validFor time.Duration) (string, error) {
	var buf bytes.Buffer
	err := resetPasswordTmpl.Execute(&buf, struct {
		FirstName string
		Link      string
		ValidFor  string
	}{firstName, link, validFor.String()})
	if err != nil {
		return "", fmt.Errorf("render reset email: %w", err)
	}
	return buf.String(), nil
}

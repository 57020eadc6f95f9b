package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer sends transactional email over SMTP with implicit TLS. Sends are
// fail-fast: a failure surfaces to the caller and is never retried.
type Mailer struct {
	client *mail.Client
	from   string
}

// New creates an SMTP mailer
func New(cfg Config) (*Mailer, error) {
	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSSL(),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTimeout(15*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	return &Mailer{client: client, from: cfg.From}, nil
}

// Send delivers a message with an HTML body and a plain-text fallback
func (m *Mailer) Send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	msg := mail.NewMsg()

	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}

	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, textBody)
	msg.AddAlternativeString(mail.TypeTextHTML, htmlBody)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

// SendOtp delivers a one-time verification code
func (m *Mailer) SendOtp(ctx context.Context, to, code string) error {
	subject := "PolicyNav OTP Verification"
	text := fmt.Sprintf("Your PolicyNav OTP is: %s\nThis code is valid for 2 minutes.", code)
	html := otpHTML(code)

	return m.Send(ctx, to, subject, html, text)
}

func otpHTML(code string) string {
	return fmt.Sprintf(`<html>
<body style="margin:0;padding:0;background-color:#020617;font-family:'Inter','Segoe UI',Arial,sans-serif;">
  <table width="100%%" cellpadding="0" cellspacing="0">
    <tr><td align="center" style="padding:40px 0;">
      <table width="520" cellpadding="0" cellspacing="0" style="background:#0f172a;border-radius:16px;padding:32px;">
        <tr><td align="center" style="padding-bottom:12px;">
          <h1 style="margin:0;font-size:28px;font-weight:800;color:#38bdf8;">PolicyNav</h1>
        </td></tr>
        <tr><td align="center" style="padding-bottom:24px;">
          <p style="margin:0;color:#94a3b8;font-size:15px;">Secure OTP Verification</p>
        </td></tr>
        <tr><td align="center" style="padding:24px 0;">
          <div style="display:inline-block;padding:18px 36px;font-size:32px;letter-spacing:6px;font-weight:700;color:#ffffff;background:#6366f1;border-radius:12px;">%s</div>
        </td></tr>
        <tr><td align="center" style="padding-top:12px;">
          <p style="margin:0;color:#e5e7eb;font-size:14px;">This OTP is valid for <b>2 minutes</b>.</p>
        </td></tr>
        <tr><td align="center" style="padding-top:8px;">
          <p style="margin:0;color:#94a3b8;font-size:13px;">If you did not request this, please ignore this email.</p>
        </td></tr>
      </table>
    </td></tr>
  </table>
</body>
</html>`, code)
}

package accounts

import (
	"fmt"
	"net/smtp"

	"go.uber.org/zap"
)

// Mailer delivers account emails. The SMTP implementation sends
// asynchronously; handlers never block on delivery.
type Mailer interface {
	SendVerificationEmail(to, link string)
	SendPasswordResetEmail(to, link string)
}

type SMTPMailer struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	Enabled  bool
	Log      *zap.Logger
}

func NewSMTPMailer(host, port, user, pass, from string, log *zap.Logger) *SMTPMailer {
	enabled := host != "" && port != "" && from != ""
	if !enabled {
		log.Warn("mailer disabled, missing SMTP configuration")
	}
	return &SMTPMailer{Host: host, Port: port, Username: user, Password: pass, From: from, Enabled: enabled, Log: log}
}

func (m *SMTPMailer) SendVerificationEmail(to, link string) {
	body := fmt.Sprintf(`<p>Welcome! Please verify your email address by clicking the link below:</p>
<p><a href="%s">Verify email</a></p>
<p>The link is valid for 7 days.</p>`, link)
	m.sendAsync(to, "Verify your email address", body)
}

func (m *SMTPMailer) SendPasswordResetEmail(to, link string) {
	body := fmt.Sprintf(`<p>A password reset was requested for your account.</p>
<p><a href="%s">Reset password</a></p>
<p>The link is valid for 1 hour. If you did not request this, ignore this email.</p>`, link)
	m.sendAsync(to, "Reset your password", body)
}

func (m *SMTPMailer) sendAsync(to, subject, body string) {
	if !m.Enabled {
		m.Log.Debug("mailer disabled, dropping email", zap.String("to", to), zap.String("subject", subject))
		return
	}

	go func() {
		var auth smtp.Auth
		if m.Username != "" {
			auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
		}
		addr := m.Host + ":" + m.Port

		msg := []byte(fmt.Sprintf("To: %s\r\nFrom: %s\r\nSubject: %s\r\n"+
			"MIME-version: 1.0;\r\nContent-Type: text/html; charset=\"UTF-8\";\r\n\r\n%s",
			to, m.From, subject, body))

		if err := smtp.SendMail(addr, auth, m.From, []string{to}, msg); err != nil {
			m.Log.Error("send email", zap.String("to", to), zap.String("subject", subject), zap.Error(err))
			return
		}
		m.Log.Info("email sent", zap.String("to", to), zap.String("subject", subject))
	}()
}

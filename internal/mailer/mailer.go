// Package mailer sends the studio's transactional emails. Sends are
// best-effort: without configured credentials every send is a silent no-op,
// and failures are logged but never surfaced to the request path.
package mailer

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

const fromName = "Estudio Popnest Wellness"

// Mailer delivers mail through an SMTPS endpoint (implicit TLS).
type Mailer struct {
	addr        string
	user        string
	password    string
	frontendURL string
	logger      *zap.Logger
}

// New creates a mailer. addr is host:port of the SMTPS server; when user or
// password is empty the mailer is disabled.
func New(addr, user, password, frontendURL string, logger *zap.Logger) *Mailer {
	return &Mailer{
		addr:        addr,
		user:        strings.TrimSpace(user),
		password:    strings.ReplaceAll(strings.TrimSpace(password), " ", ""),
		frontendURL: strings.TrimRight(frontendURL, "/"),
		logger:      logger,
	}
}

// Enabled reports whether SMTP credentials are configured.
func (m *Mailer) Enabled() bool {
	return m.user != "" && m.password != ""
}

// SendWelcome greets a newly registered customer.
func (m *Mailer) SendWelcome(to, firstName string) {
	subject := "Bienvenido a Estudio Popnest Wellness"
	text := fmt.Sprintf("Hola %s,\n\nGracias por registrarte en Estudio Popnest Wellness. Ya puedes reservar clases y disfrutar de nuestro estudio.\n\nSaludos,\nEl equipo de Estudio Popnest Wellness", firstName)
	m.deliver(to, subject, text)
}

// SendPasswordReset mails a customer their reset link, valid for one hour.
func (m *Mailer) SendPasswordReset(to, token string) {
	link := fmt.Sprintf("%s/reset-password?token=%s", m.frontendURL, url.QueryEscape(token))
	subject := "Restablecer tu contraseña - Estudio Popnest Wellness"
	text := fmt.Sprintf("Hola,\n\nRecibimos una solicitud para restablecer la contraseña de tu cuenta. Haz clic en el siguiente enlace (válido 1 hora):\n\n%s\n\nSi no solicitaste esto, ignora este correo.\n\nSaludos,\nEstudio Popnest Wellness", link)
	m.deliver(to, subject, text)
}

// SendAdminPasswordReset mails an administrator their reset link.
func (m *Mailer) SendAdminPasswordReset(to, token string) {
	link := fmt.Sprintf("%s/admin/reset-password?token=%s", m.frontendURL, url.QueryEscape(token))
	subject := "Restablecer contraseña de administrador - Estudio Popnest Wellness"
	text := fmt.Sprintf("Hola,\n\nRecibimos una solicitud para restablecer la contraseña del panel de administración. Haz clic en el siguiente enlace (válido 1 hora):\n\n%s\n\nSi no solicitaste esto, ignora este correo.\n\nSaludos,\nEstudio Popnest Wellness", link)
	m.deliver(to, subject, text)
}

func (m *Mailer) deliver(to, subject, text string) {
	if to == "" {
		return
	}
	if !m.Enabled() {
		m.logger.Warn("email not sent, SMTP not configured", zap.String("to", to))
		return
	}

	if err := m.send(to, subject, text); err != nil {
		m.logger.Error("send email", zap.Error(err), zap.String("to", to))
		return
	}
	m.logger.Info("email sent", zap.String("to", to), zap.String("subject", subject))
}

func (m *Mailer) send(to, subject, text string) error {
	host, _, err := net.SplitHostPort(m.addr)
	if err != nil {
		return fmt.Errorf("split smtp addr: %w", err)
	}

	conn, err := tls.Dial("tcp", m.addr, &tls.Config{ServerName: host})
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp client: %w", err)
	}
	defer client.Close()

	if err := client.Auth(smtp.PlainAuth("", m.user, m.password, host)); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	if err := client.Mail(m.user); err != nil {
		return fmt.Errorf("smtp mail: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("smtp rcpt: %w", err)
	}

	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}

	msg := strings.Join([]string{
		fmt.Sprintf("From: %q <%s>", fromName, m.user),
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="UTF-8"`,
		"",
		text,
	}, "\r\n")

	if _, err := wc.Write([]byte(msg)); err != nil {
		wc.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("smtp close data: %w", err)
	}

	return client.Quit()
}

package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"vpn-storefront/internal/config"
	"vpn-storefront/internal/domain/model"
	"vpn-storefront/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
)

var _ adapter.Mailer = (*SMTPMailer)(nil)

type SMTPMailer struct {
	cfg config.MailConfig
	log *zerolog.Logger

	// send is swapped in tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(cfg config.MailConfig, logger *zerolog.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, log: logger, send: smtp.SendMail}
}

func (m *SMTPMailer) SendCredentials(ctx context.Context, toEmail, toName string, acc *model.VPNAccount) error {
	body := fmt.Sprintf(
		"Hola %s,\n\nTu acceso VPN ya está activo.\n\nUsuario: %s\nContraseña: %s\nServidor: %s\nPuerto: %d\nProtocolo: %s\nExpira: %s\n\nGracias por tu compra.",
		toName, acc.Username, acc.Password, acc.Server, acc.Port, acc.Protocol, acc.ExpiresAt.Format("2006-01-02"),
	)
	return m.deliver(ctx, toEmail, "Tus credenciales VPN", body)
}

func (m *SMTPMailer) SendProcessing(ctx context.Context, toEmail, toName, paymentID string) error {
	body := fmt.Sprintf(
		"Hola %s,\n\nRecibimos tu pago (referencia %s) y estamos preparando tu acceso. Te enviamos las credenciales en unos minutos.",
		toName, paymentID,
	)
	return m.deliver(ctx, toEmail, "Estamos procesando tu compra", body)
}

func (m *SMTPMailer) deliver(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := strings.Join([]string{
		"From: " + m.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	if err := m.send(addr, auth, m.cfg.From, []string{to}, []byte(msg)); err != nil {
		m.log.Error().Err(err).Str("to", to).Msg("smtp send failed")
		return err
	}
	return nil
}

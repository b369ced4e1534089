package auth

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

type Mailer interface {
	SendWelcome(ctx context.Context, email, name string) error
	SendPaymentConfirmation(ctx context.Context, email, name string) error
}

type SMTPMailer struct {
	host string
	port int
	user string
	pass string
	from string
}

type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

func NewSMTPMailer(cfg SMTPConfig) Mailer {
	if strings.TrimSpace(cfg.Host) == "" || cfg.Port <= 0 || strings.TrimSpace(cfg.From) == "" {
		return nil
	}
	return &SMTPMailer{
		host: strings.TrimSpace(cfg.Host),
		port: cfg.Port,
		user: strings.TrimSpace(cfg.User),
		pass: cfg.Pass,
		from: strings.TrimSpace(cfg.From),
	}
}

func (m *SMTPMailer) SendWelcome(ctx context.Context, email, name string) error {
	subject := "Bienvenue sur SmartJihawi"
	body := fmt.Sprintf("Bonjour %s,\n\nVotre compte SmartJihawi a bien été créé.\n"+
		"Vous pourrez accéder aux examens dès la validation de votre paiement.\n\nL'équipe SmartJihawi", name)
	return m.send(ctx, email, subject, body)
}

func (m *SMTPMailer) SendPaymentConfirmation(ctx context.Context, email, name string) error {
	subject := "Paiement confirmé - SmartJihawi"
	body := fmt.Sprintf("Bonjour %s,\n\nVotre paiement a été confirmé. "+
		"Vous avez maintenant accès à tout le contenu de la plateforme.\n\nL'équipe SmartJihawi", name)
	return m.send(ctx, email, subject, body)
}

func (m *SMTPMailer) send(ctx context.Context, email, subject, body string) error {
	_ = ctx
	addr := fmt.Sprintf("%s:%d", m.host, m.port)

	msg := "From: " + m.from + "\r\n" +
		"To: " + email + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n\r\n" +
		body + "\r\n"

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.pass, m.host)
	}

	if err := smtp.SendMail(addr, auth, m.from, []string{email}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

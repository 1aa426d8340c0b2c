package services

import (
	"fmt"
	"net/smtp"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"campusstay_echo/internal/config"
)

// EmailSender delivers plain text email
type EmailSender interface {
	SendEmail(to []string, subject, body string) error
}

// NewEmailSender prefers SendGrid and falls back to SMTP
func NewEmailSender(cfg *config.Config) EmailSender {
	if cfg.SendgridAPIKey != "" {
		return NewSendgridService(cfg.SendgridAPIKey, cfg.EmailFrom)
	}
	return NewEmailService(cfg)
}

type EmailService struct {
	host     string
	port     string
	user     string
	password string
	from     string
}

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPass,
		from:     cfg.EmailFrom,
	}
}

func (s *EmailService) SendEmail(to []string, subject, body string) error {
	if s.host == "" || s.port == "" || s.user == "" || s.password == "" {
		return fmt.Errorf("SMTP credentials not fully configured")
	}
	if len(to) == 0 {
		return fmt.Errorf("no recipients")
	}

	auth := smtp.PlainAuth("", s.user, s.password, s.host)

	message := []byte(fmt.Sprintf("To: %s\r\n"+
		"Subject: %s\r\n"+
		"\r\n"+
		"%s\r\n", to[0], subject, body))

	addr := fmt.Sprintf("%s:%s", s.host, s.port)

	if err := smtp.SendMail(addr, auth, s.from, to, message); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

type SendgridService struct {
	client *sendgrid.Client
	from   string
}

func NewSendgridService(apiKey, from string) *SendgridService {
	return &SendgridService{client: sendgrid.NewSendClient(apiKey), from: from}
}

func (s *SendgridService) SendEmail(to []string, subject, body string) error {
	from := mail.NewEmail("CampusStay", s.from)
	for _, addr := range to {
		msg := mail.NewSingleEmail(from, subject, mail.NewEmail("", addr), body, "")
		resp, err := s.client.Send(msg)
		if err != nil {
			return fmt.Errorf("failed to send email via sendgrid: %w", err)
		}
		if resp.StatusCode >= 400 {
			return fmt.Errorf("sendgrid rejected email with status %d: %s", resp.StatusCode, resp.Body)
		}
	}
	return nil
}

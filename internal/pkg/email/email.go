package email

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"strconv"

	"github.com/rs/zerolog"
)

// EmailService defines the interface for outgoing notifications
type EmailService interface {
	SendApprovalEmail(toEmail, toName string) error
}

// SMTPConfig holds configuration for SMTP server
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
	UseTLS    bool
	BaseURL   string
}

// Configured reports whether enough settings are present to actually send mail
func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.Username != "" && c.Password != ""
}

// EmailServiceImpl implements EmailService over net/smtp
type EmailServiceImpl struct {
	config SMTPConfig
	logger zerolog.Logger
}

// NewEmailService creates a new EmailService
func NewEmailService(config SMTPConfig, logger zerolog.Logger) EmailService {
	return &EmailServiceImpl{
		config: config,
		logger: logger,
	}
}

var approvalTemplate = template.Must(template.New("approval").Parse(`<html>
<body>
	<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
		<h2 style="color: #333;">ClassHub 가입이 승인되었습니다</h2>
		<p>{{.Name}}님, 안녕하세요.</p>
		<p>관리자가 계정을 승인했습니다. 이제 로그인해서 게시판을 이용할 수 있습니다.</p>
		<p style="text-align: center; margin: 30px 0;">
			<a href="{{.LoginURL}}" style="background-color: #4a86e8; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px;">로그인하기</a>
		</p>
	</div>
</body>
</html>`))

// SendApprovalEmail tells a user their account was approved
func (s *EmailServiceImpl) SendApprovalEmail(toEmail, toName string) error {
	loginURL := s.config.BaseURL + "/login"
	if !s.config.Configured() {
		s.logger.Warn().
			Str("toEmail", toEmail).
			Str("loginURL", loginURL).
			Msg("SMTP not configured - approval email not sent")
		return nil
	}

	var body bytes.Buffer
	if err := approvalTemplate.Execute(&body, struct{ Name, LoginURL string }{toName, loginURL}); err != nil {
		return fmt.Errorf("failed to render approval email: %w", err)
	}

	return s.sendHTMLEmail(toEmail, "ClassHub 가입 승인 안내", body.String())
}

// buildMessage renders headers and body in RFC 5322 form
func (s *EmailServiceImpl) buildMessage(toEmail, subject, htmlBody string) []byte {
	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s <%s>\r\n", s.config.FromName, s.config.FromEmail)
	fmt.Fprintf(&msg, "To: %s\r\n", toEmail)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	msg.WriteString(htmlBody)
	return msg.Bytes()
}

// sendHTMLEmail sends an HTML email, over implicit TLS when configured
func (s *EmailServiceImpl) sendHTMLEmail(toEmail, subject, htmlBody string) error {
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	message := s.buildMessage(toEmail, subject, htmlBody)

	if !s.config.UseTLS {
		if err := smtp.SendMail(addr, auth, s.config.FromEmail, []string{toEmail}, message); err != nil {
			s.logger.Error().Err(err).Str("server", addr).Msg("Failed to send email")
			return fmt.Errorf("failed to send email: %w", err)
		}
		return nil
	}

	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: s.config.Host})
	if err != nil {
		s.logger.Error().Err(err).Str("server", addr).Msg("Failed to connect to SMTP server")
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Quit()

	if err := client.Auth(auth); err != nil {
		s.logger.Error().Err(err).Msg("SMTP authentication failed")
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}
	if err := client.Mail(s.config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(toEmail); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err := w.Write(message); err != nil {
		return fmt.Errorf("failed to write email message: %w", err)
	}
	return w.Close()
}

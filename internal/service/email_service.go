package service

import (
	"construction-backend/config"
	"construction-backend/internal/util"
	"crypto/tls"
	"fmt"
	"html"
	"net/url"
	"time"

	"go.uber.org/zap"
	"gopkg.in/mail.v2"
)

// Mailer 发送一封邮件
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

// SMTPMailer 通过 SMTP 发送邮件
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
}

func NewSMTPMailer(cfg config.Config) *SMTPMailer {
	return &SMTPMailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
	}
}

func (m *SMTPMailer) Send(to, subject, htmlBody string) error {
	msg := mail.NewMessage()
	msg.SetHeader("From", m.username)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	d := mail.NewDialer(m.host, m.port, m.username, m.password)
	d.Timeout = 20 * time.Second
	d.SSL = m.port == 465
	d.TLSConfig = &tls.Config{ServerName: m.host}

	if err := d.DialAndSend(msg); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}
	return nil
}

// Notifier 业务流程中需要发送的通知
type Notifier interface {
	SendPasswordResetEmail(to, name, token string) error
	SendAccountApprovedEmail(to, name string) error
}

type EmailService struct {
	mailer      Mailer
	frontendURL string
	// async 为 true 时在后台发送，失败只记录日志
	async bool
}

func NewEmailService(mailer Mailer, frontendURL string, async bool) *EmailService {
	return &EmailService{mailer: mailer, frontendURL: frontendURL, async: async}
}

func (s *EmailService) SendPasswordResetEmail(to, name, token string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", s.frontendURL, url.QueryEscape(token))
	subject := "Reset your password"
	body := fmt.Sprintf(`<p>Hello %s,</p>
<p>We received a request to reset your password. Use the link below to choose a new one:</p>
<p><a href="%s">%s</a></p>
<p>The link expires in one hour. If you did not request a reset you can ignore this email.</p>`,
		html.EscapeString(name), html.EscapeString(link), html.EscapeString(link))
	return s.send(to, subject, body)
}

func (s *EmailService) SendAccountApprovedEmail(to, name string) error {
	subject := "Your account has been approved"
	body := fmt.Sprintf(`<p>Hello %s,</p>
<p>An administrator has approved your account. You can now <a href="%s/login">sign in</a>.</p>`,
		html.EscapeString(name), html.EscapeString(s.frontendURL))
	return s.send(to, subject, body)
}

func (s *EmailService) send(to, subject, body string) error {
	util.Logger.Info("开始发送邮件", zap.String("to", to), zap.String("subject", subject))
	if !s.async {
		return s.mailer.Send(to, subject, body)
	}
	go func() {
		if err := s.mailer.Send(to, subject, body); err != nil {
			util.Logger.Error("异步发送邮件失败", zap.Error(err), zap.String("to", to))
			return
		}
		util.Logger.Info("邮件发送成功", zap.String("to", to))
	}()
	return nil
}

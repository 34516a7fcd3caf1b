package email

import (
	"context"
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"github.com/hireloop/jobboard-api/internal/config"
	"github.com/hireloop/jobboard-api/pkg/logger"
)

type Service interface {
	SendVerification(ctx context.Context, to string, token string) error
	SendPasswordReset(ctx context.Context, to string, token string) error
	SendWelcome(ctx context.Context, to string, name string) error
}

type service struct {
	cfg    config.EmailConfig
	appURL string
	dialer *gomail.Dialer
	logger *logger.Logger
}

func NewService(cfg config.EmailConfig, appURL string, log *logger.Logger) Service {
	return &service{
		cfg:    cfg,
		appURL: appURL,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		logger: log,
	}
}

func (s *service) SendVerification(ctx context.Context, to string, token string) error {
	link := fmt.Sprintf("%s/verify-email?token=%s", s.appURL, token)
	body := fmt.Sprintf(`
		<h2>Verify your email</h2>
		<p>Welcome aboard. Click the link below to activate your account.</p>
		<p><a href="%s">Verify email</a></p>
		<p>The link expires in 24 hours. If you did not sign up, ignore this email.</p>
	`, link)
	return s.send(ctx, to, "Verify your email address", body)
}

func (s *service) SendPasswordReset(ctx context.Context, to string, token string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", s.appURL, token)
	body := fmt.Sprintf(`
		<h2>Reset your password</h2>
		<p>We received a request to reset your password.</p>
		<p><a href="%s">Choose a new password</a></p>
		<p>The link expires in one hour. If you did not ask for this, ignore this email.</p>
	`, link)
	return s.send(ctx, to, "Reset your password", body)
}

func (s *service) SendWelcome(ctx context.Context, to string, name string) error {
	body := fmt.Sprintf(`
		<h2>Welcome, %s</h2>
		<p>Your account is verified. Complete your profile to start applying.</p>
	`, name)
	return s.send(ctx, to, "Welcome to the platform", body)
}

func (s *service) send(_ context.Context, to, subject, body string) error {
	if !s.cfg.Enabled {
		if s.logger != nil {
			s.logger.Info("email delivery disabled, skipping", "to", to, "subject", subject)
		}
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

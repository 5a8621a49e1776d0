package services

import (
	"context"
	"fmt"
	"time"

	"homestay-registration-backend/config"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gopkg.in/gomail.v2"
)

// GomailSender sends plain-text email over SMTP, throttled so a burst of
// transitions cannot flood the relay.
type GomailSender struct {
	dialer  *gomail.Dialer
	from    string
	limiter *rate.Limiter
}

func NewGomailSender(dialer *gomail.Dialer, from string) *GomailSender {
	return &GomailSender{
		dialer:  dialer,
		from:    from,
		limiter: rate.NewLimiter(rate.Every(time.Second), 10),
	}
}

// WithRateLimit replaces the default limit of one message per second with
// bursts of 10.
func (s *GomailSender) WithRateLimit(limiter *rate.Limiter) *GomailSender {
	s.limiter = limiter
	return s
}

// NewGomailSenderFromEnv builds the sender from SMTP_HOST, SMTP_PORT,
// SMTP_USER, SMTP_PASSWORD and SMTP_FROM.
func NewGomailSenderFromEnv() *GomailSender {
	port := config.GetEnvInt("SMTP_PORT", 25)
	dialer := gomail.NewDialer(
		config.GetEnv("SMTP_HOST"),
		port,
		config.GetEnv("SMTP_USER"),
		config.GetEnv("SMTP_PASSWORD"),
	)
	config.Logger.Info("Mailer initialized", zap.String("host", dialer.Host), zap.Int("port", port))
	sender := NewGomailSender(dialer, config.GetEnvDefault("SMTP_FROM", config.GetEnv("SMTP_USER")))
	if perMinute := config.GetEnvInt("SMTP_MAX_PER_MINUTE", 0); perMinute > 0 {
		sender.WithRateLimit(rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute))
	}
	return sender
}

func (s *GomailSender) message(to, subject, body string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	return m
}

// Send waits for the limiter, then dials per message. gomail has no context
// support, so ctx only bounds the wait.
func (s *GomailSender) Send(ctx context.Context, to, subject, body string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(s.message(to, subject, body)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

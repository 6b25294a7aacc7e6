package di

import (
	"log/slog"
	"time"

	"account_portal/internal/app/config"
	accountadapters "account_portal/internal/feature/account/adapters"
	"account_portal/internal/platform/mail"
	"account_portal/internal/shared/ratelimiter"
)

// NewMailSender returns the SMTP transport when SMTP_HOST is set, and the
// logging transport otherwise.
func NewMailSender(cfg *config.Config, logger *slog.Logger) (mail.Sender, error) {
	if cfg.SMTPHost == "" {
		logger.Warn("SMTP_HOST is not set; notification mails are only logged")
		return mail.NewLogSender(logger), nil
	}
	limiter := ratelimiter.NewRateLimiter(cfg.MailRatePerMinute, time.Minute)
	sender, err := mail.NewSMTPSender(mail.SMTPConfig{
		Host:        cfg.SMTPHost,
		Port:        cfg.SMTPPort,
		Username:    cfg.SMTPUser,
		Password:    cfg.SMTPPass,
		From:        cfg.MailFrom,
		FromName:    cfg.MailFromName,
		ImplicitTLS: cfg.SMTPImplicitTLS,
		Timeout:     cfg.SMTPTimeout,
	}, limiter)
	if err != nil {
		return nil, err
	}
	return sender, nil
}

// NewNotifier wraps sender in the account MailNotifier.
func NewNotifier(cfg *config.Config, sender mail.Sender, recorder accountadapters.MailRecorder) *accountadapters.MailNotifier {
	n := accountadapters.NewMailNotifier(sender, cfg.AppName)
	if recorder != nil {
		n.WithRecorder(recorder)
	}
	return n
}

package adapters

import (
	"context"
	"fmt"

	"account_portal/internal/feature/account/domain/entity"
	"account_portal/internal/feature/account/usecase"
	"account_portal/internal/platform/mail"
	"account_portal/internal/platform/metrics"
)

// MailRecorder は通知の種類ごとに送信試行を数えます。
type MailRecorder interface {
	RecordMail(kind, outcome string)
}

// MailNotifier はアカウント通知をプレーンテキストのメールとして組み立てます。
type MailNotifier struct {
	sender   mail.Sender
	appName  string
	recorder MailRecorder
}

// Compile-time check to ensure MailNotifier implements Notifier.
var _ usecase.Notifier = (*MailNotifier)(nil)

// NewMailNotifier はMailNotifierを生成します。appName は件名に使われます。
func NewMailNotifier(sender mail.Sender, appName string) *MailNotifier {
	return &MailNotifier{sender: sender, appName: appName}
}

// WithRecorder sets the recorder notified after every delivery attempt.
func (n *MailNotifier) WithRecorder(r MailRecorder) *MailNotifier {
	n.recorder = r
	return n
}

// Send composes the email for kind and hands it to the mail transport.
func (n *MailNotifier) Send(ctx context.Context, kind usecase.NotificationKind, account *entity.Account, payload usecase.NotificationPayload) error {
	msg, err := n.compose(kind, account, payload)
	if err != nil {
		return err
	}
	err = n.sender.Send(ctx, msg)
	if n.recorder != nil {
		outcome := metrics.OutcomeSuccess
		if err != nil {
			outcome = metrics.OutcomeError
		}
		n.recorder.RecordMail(string(kind), outcome)
	}
	return err
}

func (n *MailNotifier) compose(kind usecase.NotificationKind, account *entity.Account, payload usecase.NotificationPayload) (mail.Message, error) {
	switch kind {
	case usecase.NotificationResetRequested:
		if payload.ResetLink == "" {
			return mail.Message{}, fmt.Errorf("reset link is required for %s", kind)
		}
		return mail.Message{
			To:      account.Email,
			Subject: fmt.Sprintf("Reset your password on %s", n.appName),
			Body: "You are receiving this email because you (or someone else) have requested the reset of the password for your account.\n\n" +
				"Please click on the following link, or paste this into your browser to complete the process:\n\n" +
				payload.ResetLink + "\n\n" +
				"If you did not request this, please ignore this email and your password will remain unchanged.\n",
		}, nil
	case usecase.NotificationResetCompleted:
		return mail.Message{
			To:      account.Email,
			Subject: "Your password has been changed",
			Body:    fmt.Sprintf("Hello,\n\nThis is a confirmation that the password for your account %s has just been changed.\n", account.Email),
		}, nil
	default:
		return mail.Message{}, fmt.Errorf("unknown notification kind %q", kind)
	}
}

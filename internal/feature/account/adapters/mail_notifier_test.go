package adapters

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"account_portal/internal/feature/account/domain/entity"
	"account_portal/internal/feature/account/usecase"
	"account_portal/internal/platform/mail"
)

type captureSender struct {
	sent []mail.Message
	err  error
}

func (s *captureSender) Send(_ context.Context, msg mail.Message) error {
	s.sent = append(s.sent, msg)
	return s.err
}

func TestMailNotifier_Send(t *testing.T) {
	account := &entity.Account{ID: "acc-1", Email: "user@example.com"}

	tests := []struct {
		name        string
		kind        usecase.NotificationKind
		payload     usecase.NotificationPayload
		wantErr     bool
		wantSubject string
		wantBody    []string
	}{
		{
			name:        "reset requested carries the link",
			kind:        usecase.NotificationResetRequested,
			payload:     usecase.NotificationPayload{ResetLink: "http://localhost:3000/reset/abc123"},
			wantSubject: "Reset your password on Account Portal",
			wantBody:    []string{"http://localhost:3000/reset/abc123", "please ignore this email"},
		},
		{
			name:        "reset completed confirms the account",
			kind:        usecase.NotificationResetCompleted,
			wantSubject: "Your password has been changed",
			wantBody:    []string{"the password for your account user@example.com has just been changed"},
		},
		{
			name:    "reset requested without link",
			kind:    usecase.NotificationResetRequested,
			wantErr: true,
		},
		{
			name:    "unknown kind",
			kind:    usecase.NotificationKind("welcome"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &captureSender{}
			n := NewMailNotifier(sender, "Account Portal")

			err := n.Send(context.Background(), tt.kind, account, tt.payload)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Empty(t, sender.sent)
				return
			}
			require.NoError(t, err)
			require.Len(t, sender.sent, 1)

			msg := sender.sent[0]
			assert.Equal(t, "user@example.com", msg.To)
			assert.Equal(t, tt.wantSubject, msg.Subject)
			for _, want := range tt.wantBody {
				assert.Contains(t, msg.Body, want)
			}
		})
	}
}

func TestMailNotifier_SendFailure(t *testing.T) {
	sender := &captureSender{err: errors.New("smtp: 421 try later")}
	n := NewMailNotifier(sender, "Account Portal")

	err := n.Send(context.Background(), usecase.NotificationResetCompleted, &entity.Account{Email: "a@b.c"}, usecase.NotificationPayload{})
	assert.ErrorContains(t, err, "421")
}

type countingRecorder struct {
	counts map[string]int
}

func (r *countingRecorder) RecordMail(kind, outcome string) {
	if r.counts == nil {
		r.counts = map[string]int{}
	}
	r.counts[kind+"/"+outcome]++
}

func TestMailNotifier_Recorder(t *testing.T) {
	sender := &captureSender{}
	rec := &countingRecorder{}
	n := NewMailNotifier(sender, "Account Portal").WithRecorder(rec)
	account := &entity.Account{Email: "a@b.c"}

	require.NoError(t, n.Send(context.Background(), usecase.NotificationResetCompleted, account, usecase.NotificationPayload{}))
	sender.err = errors.New("smtp down")
	require.Error(t, n.Send(context.Background(), usecase.NotificationResetCompleted, account, usecase.NotificationPayload{}))
	// compose failures never reach the transport and are not counted
	require.Error(t, n.Send(context.Background(), usecase.NotificationResetRequested, account, usecase.NotificationPayload{}))

	assert.Equal(t, map[string]int{
		"resetCompleted/success": 1,
		"resetCompleted/error":   1,
	}, rec.counts)
}

// Package entity はsessionフィーチャーのドメインエンティティを定義します。
package entity

import "time"

// FlashKind は表示用にフラッシュメッセージを分類します。
type FlashKind string

const (
	FlashErrors  FlashKind = "errors"
	FlashInfo    FlashKind = "info"
	FlashSuccess FlashKind = "success"
)

// Flash は次に描画されるページで一度だけ表示されるメッセージです。
type Flash struct {
	Kind    FlashKind `json:"kind" bson:"kind"`
	Message string    `json:"message" bson:"message"`
}

// Session はサーバーサイドのブラウザセッションです。
// 匿名セッションの AccountID は空です。
type Session struct {
	ID        string     `json:"id"`         // Cookie value (64-character hex string)
	AccountID string     `json:"account_id"` // Bound account, empty if anonymous
	Flashes   []Flash    `json:"flashes,omitempty"`
	UserAgent string     `json:"user_agent"`
	IPAddress string     `json:"ip_address"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`

	// New marks a session that has not been persisted yet.
	New bool `json:"-"`
}

// IsExpiredAt reports whether the session is expired at now.
func (s *Session) IsExpiredAt(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// IsRevoked returns true if the session has been revoked.
func (s *Session) IsRevoked() bool {
	return s.RevokedAt != nil
}

// IsValidAt reports whether the session is neither expired at now nor revoked.
func (s *Session) IsValidAt(now time.Time) bool {
	return !s.IsExpiredAt(now) && !s.IsRevoked()
}

// IsAuthenticated reports whether an account is bound to the session.
func (s *Session) IsAuthenticated() bool {
	return s.AccountID != ""
}

// AddFlash queues a message for the next page.
func (s *Session) AddFlash(kind FlashKind, message string) {
	s.Flashes = append(s.Flashes, Flash{Kind: kind, Message: message})
}

// ConsumeFlashes returns the queued messages grouped by kind and clears them.
// It returns nil when nothing is queued.
func (s *Session) ConsumeFlashes() map[FlashKind][]string {
	if len(s.Flashes) == 0 {
		return nil
	}
	out := make(map[FlashKind][]string)
	for _, f := range s.Flashes {
		out[f.Kind] = append(out[f.Kind], f.Message)
	}
	s.Flashes = nil
	return out
}

package adapters

import (
	"time"

	"account_portal/internal/feature/session/domain/entity"
)

// SessionModel は sessions テーブルのGORMモデルです。
type SessionModel struct {
	ID        string         `gorm:"primaryKey;size:64"`
	AccountID string         `gorm:"index;size:36"`
	Flashes   []entity.Flash `gorm:"serializer:json"`
	UserAgent string         `gorm:"size:512"`
	IPAddress string         `gorm:"size:45"` // IPv6 max length
	CreatedAt time.Time      `gorm:"not null"`
	ExpiresAt time.Time      `gorm:"index;not null"`
	RevokedAt *time.Time     `gorm:"index"`
}

// TableName returns the table name for GORM.
func (SessionModel) TableName() string {
	return "sessions"
}

// ToEntity converts the GORM model to a domain entity.
func (m *SessionModel) ToEntity() *entity.Session {
	return &entity.Session{
		ID:        m.ID,
		AccountID: m.AccountID,
		Flashes:   m.Flashes,
		UserAgent: m.UserAgent,
		IPAddress: m.IPAddress,
		CreatedAt: m.CreatedAt,
		ExpiresAt: m.ExpiresAt,
		RevokedAt: m.RevokedAt,
	}
}

// SessionModelFromEntity converts a domain entity to a GORM model.
func SessionModelFromEntity(s *entity.Session) *SessionModel {
	return &SessionModel{
		ID:        s.ID,
		AccountID: s.AccountID,
		Flashes:   s.Flashes,
		UserAgent: s.UserAgent,
		IPAddress: s.IPAddress,
		CreatedAt: s.CreatedAt.UTC(),
		ExpiresAt: s.ExpiresAt.UTC(),
		RevokedAt: s.RevokedAt,
	}
}

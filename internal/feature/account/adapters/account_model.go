package adapters

import (
	"time"

	"account_portal/internal/feature/account/domain/entity"
)

// AccountModel は accounts テーブルのGORMモデルです。
type AccountModel struct {
	ID                   string     `gorm:"primaryKey;size:36"`
	Email                string     `gorm:"uniqueIndex;size:255;not null"`
	Password             string     `gorm:"size:255;not null"`
	Name                 string     `gorm:"size:255"`
	Surname              string     `gorm:"size:255"`
	PasswordResetToken   *string    `gorm:"index;size:64"`
	PasswordResetExpires *time.Time
	CreatedAt            time.Time `gorm:"not null"`
	UpdatedAt            time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM.
func (AccountModel) TableName() string {
	return "accounts"
}

// ToEntity converts the GORM model to a domain entity.
func (m *AccountModel) ToEntity() *entity.Account {
	return &entity.Account{
		ID:       m.ID,
		Email:    m.Email,
		Password: m.Password,
		Profile: entity.Profile{
			Name:    m.Name,
			Surname: m.Surname,
		},
		PasswordResetToken:   m.PasswordResetToken,
		PasswordResetExpires: m.PasswordResetExpires,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}

// AccountModelFromEntity converts a domain entity to a GORM model.
// Timestamps are stored in UTC so that range predicates compare consistently on every driver.
func AccountModelFromEntity(a *entity.Account) *AccountModel {
	m := &AccountModel{
		ID:                 a.ID,
		Email:              a.Email,
		Password:           a.Password,
		Name:               a.Profile.Name,
		Surname:            a.Profile.Surname,
		PasswordResetToken: a.PasswordResetToken,
		CreatedAt:          a.CreatedAt.UTC(),
		UpdatedAt:          a.UpdatedAt.UTC(),
	}
	if a.PasswordResetExpires != nil {
		expires := a.PasswordResetExpires.UTC()
		m.PasswordResetExpires = &expires
	}
	return m
}

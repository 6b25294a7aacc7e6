// Package middleware は現在のセッションに紐づくアカウントを解決します。
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"account_portal/internal/feature/account/domain/entity"
	"account_portal/internal/feature/account/usecase"
)

// ContextKey is the gin context key holding the authenticated *entity.Account.
const ContextKey = "account"

// AccountFinder はIDでアカウントを取得します。
type AccountFinder interface {
	FindByID(ctx context.Context, id string) (*entity.Account, error)
}

// LoadAccount looks up the account whose ID accountID reports for the request
// and stores it under ContextKey. Requests without a bound account pass through.
// A bound account that no longer exists is treated as anonymous.
func LoadAccount(accounts AccountFinder, accountID func(c *gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := accountID(c)
		if id == "" {
			c.Next()
			return
		}

		account, err := accounts.FindByID(c.Request.Context(), id)
		switch {
		case err == nil:
			c.Set(ContextKey, account)
		case errors.Is(err, usecase.ErrAccountNotFound):
			slog.Warn("session bound to missing account", "account_id", id, "remote_addr", c.ClientIP())
		default:
			_ = c.Error(err)
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Next()
	}
}

// AccountFromContext returns the authenticated account, or nil.
func AccountFromContext(c *gin.Context) *entity.Account {
	v, ok := c.Get(ContextKey)
	if !ok {
		return nil
	}
	a, _ := v.(*entity.Account)
	return a
}

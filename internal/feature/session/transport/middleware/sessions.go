// Package middleware はサーバーサイドセッションをginハンドラーに提供します。
package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"account_portal/internal/feature/session/domain/entity"
	"account_portal/internal/feature/session/usecase"
)

// ContextKey is the gin context key holding the current *entity.Session.
const ContextKey = "session"

// DefaultCookieName is the session cookie name used when none is configured.
const DefaultCookieName = "sid"

// CookieConfig はセッションCookieの設定です。
type CookieConfig struct {
	Name   string
	Secure bool
}

// Sessions loads the session named by the request cookie and keeps the cookie
// in sync when handlers bind, flash or log out.
type Sessions struct {
	uc      *usecase.SessionUsecase
	cookie  CookieConfig
	onError func(c *gin.Context, err error)
}

// NewSessions はセッションミドルウェアを生成します。
func NewSessions(uc *usecase.SessionUsecase, cookie CookieConfig) *Sessions {
	if cookie.Name == "" {
		cookie.Name = DefaultCookieName
	}
	return &Sessions{
		uc:     uc,
		cookie: cookie,
		onError: func(c *gin.Context, err error) {
			_ = c.Error(err)
			c.AbortWithStatus(http.StatusInternalServerError)
		},
	}
}

// OnError replaces the handler invoked when the session store fails during Middleware.
func (s *Sessions) OnError(fn func(c *gin.Context, err error)) {
	s.onError = fn
}

func meta(c *gin.Context) usecase.Meta {
	return usecase.Meta{
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	}
}

// Middleware attaches the current session to the gin context.
// Requests without a usable cookie get a transient anonymous session that is
// only persisted once something is stored in it.
func (s *Sessions) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var current *entity.Session

		if id, err := c.Cookie(s.cookie.Name); err == nil && id != "" {
			loaded, err := s.uc.Load(c.Request.Context(), id)
			switch {
			case err == nil:
				current = loaded
			case errors.Is(err, usecase.ErrSessionNotFound):
				s.clearCookie(c)
			default:
				s.onError(c, err)
				return
			}
		}

		if current == nil {
			started, err := s.uc.Start(meta(c))
			if err != nil {
				s.onError(c, err)
				return
			}
			current = started
		}

		c.Set(ContextKey, current)
		c.Next()
	}
}

// Current returns the session attached by Middleware, or nil.
func Current(c *gin.Context) *entity.Session {
	v, ok := c.Get(ContextKey)
	if !ok {
		return nil
	}
	s, _ := v.(*entity.Session)
	return s
}

// AccountID returns the account bound to the current session, or "".
func (s *Sessions) AccountID(c *gin.Context) string {
	if cur := Current(c); cur != nil {
		return cur.AccountID
	}
	return ""
}

func (s *Sessions) writeCookie(c *gin.Context, sess *entity.Session) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.cookie.Name, sess.ID, int(s.uc.TTL().Seconds()), "/", "", s.cookie.Secure, true)
}

func (s *Sessions) clearCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.cookie.Name, "", -1, "/", "", s.cookie.Secure, true)
}

// Bind authenticates the client as accountID under a freshly issued session id.
func (s *Sessions) Bind(c *gin.Context, accountID string) error {
	next, err := s.uc.Bind(c.Request.Context(), Current(c), accountID, meta(c))
	if err != nil {
		return err
	}
	c.Set(ContextKey, next)
	s.writeCookie(c, next)
	return nil
}

// RevokeAccount ends every stored session of accountID.
func (s *Sessions) RevokeAccount(c *gin.Context, accountID string) error {
	return s.uc.RevokeAccount(c.Request.Context(), accountID)
}

// Logout revokes the current session and replaces it with an anonymous one.
func (s *Sessions) Logout(c *gin.Context) error {
	next, err := s.uc.Logout(c.Request.Context(), Current(c), meta(c))
	if err != nil {
		return err
	}
	c.Set(ContextKey, next)
	s.clearCookie(c)
	return nil
}

// Flash queues a message for the next rendered page and persists the session.
func (s *Sessions) Flash(c *gin.Context, kind entity.FlashKind, message string) error {
	cur := Current(c)
	if cur == nil {
		return errors.New("session middleware not installed")
	}
	wasNew := cur.New
	cur.AddFlash(kind, message)
	if err := s.uc.Save(c.Request.Context(), cur); err != nil {
		return err
	}
	if wasNew {
		s.writeCookie(c, cur)
	}
	return nil
}

// Flashes consumes the queued messages of the current session.
// Failing to persist the cleared list is logged; the messages are still returned.
func (s *Sessions) Flashes(c *gin.Context) map[string][]string {
	cur := Current(c)
	if cur == nil {
		return nil
	}
	consumed := cur.ConsumeFlashes()
	if consumed == nil {
		return nil
	}
	if !cur.New {
		if err := s.uc.Save(c.Request.Context(), cur); err != nil {
			slog.Warn("failed to clear flashes", "error", err, "remote_addr", c.ClientIP())
		}
	}

	out := make(map[string][]string, len(consumed))
	for kind, msgs := range consumed {
		out[string(kind)] = msgs
	}
	return out
}

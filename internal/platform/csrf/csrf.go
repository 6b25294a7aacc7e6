// Package csrf guards state-changing form posts with a double-submit token.
//
// The token is an HS256 JWT kept in a cookie; forms echo it back in the
// _csrf field (or the X-CSRF-Token header) and the two must match.
package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	CookieName = "csrf"
	FormField  = "_csrf"
	HeaderName = "X-CSRF-Token"

	// ContextToken is the gin context key holding the token for the current response.
	ContextToken = "csrfToken"

	nonceBytes = 16
)

var (
	ErrTokenMissing  = errors.New("csrf token missing")
	ErrTokenMismatch = errors.New("csrf token mismatch")
)

// Config controls token signing and the cookie.
type Config struct {
	Secret string
	TTL    time.Duration
	Secure bool
}

// Guard issues and checks CSRF tokens.
type Guard struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
	reject func(c *gin.Context, err error)
}

// NewGuard creates a Guard. An empty secret is rejected.
func NewGuard(cfg Config) (*Guard, error) {
	if cfg.Secret == "" {
		return nil, errors.New("csrf secret is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	return &Guard{
		secret: []byte(cfg.Secret),
		ttl:    cfg.TTL,
		secure: cfg.Secure,
		now:    time.Now,
		reject: func(c *gin.Context, _ error) {
			c.AbortWithStatus(http.StatusForbidden)
		},
	}, nil
}

// OnReject replaces the handler for failed checks. It must abort the request.
func (g *Guard) OnReject(fn func(c *gin.Context, err error)) {
	g.reject = fn
}

func (g *Guard) issue() (string, error) {
	nonce := make([]byte, nonceBytes)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	now := g.now()
	claims := jwt.RegisteredClaims{
		ID:        hex.EncodeToString(nonce),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(g.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign csrf token: %w", err)
	}
	return signed, nil
}

func (g *Guard) verify(token string) error {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		// HMAC 以外のアルゴリズムは拒否
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return g.secret, nil
	}, jwt.WithTimeFunc(g.now), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return err
	}
	if !parsed.Valid {
		return jwt.ErrTokenInvalidClaims
	}
	return nil
}

func safeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

// Middleware checks unsafe requests and exposes a token to templates.
// A fresh cookie is written whenever the request carries no valid one.
func (g *Guard) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, _ := c.Cookie(CookieName)
		cookieValid := cookie != "" && g.verify(cookie) == nil

		if !safeMethod(c.Request.Method) {
			if err := g.check(c, cookie, cookieValid); err != nil {
				slog.Warn("csrf check failed", "error", err, "path", c.Request.URL.Path, "client_ip", c.ClientIP())
				g.reject(c, err)
				return
			}
		}

		token := cookie
		if !cookieValid {
			issued, err := g.issue()
			if err != nil {
				_ = c.Error(err)
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			token = issued
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(CookieName, token, int(g.ttl.Seconds()), "/", "", g.secure, true)
		}

		c.Set(ContextToken, token)
		c.Next()
	}
}

func (g *Guard) check(c *gin.Context, cookie string, cookieValid bool) error {
	if cookie == "" {
		return ErrTokenMissing
	}
	if !cookieValid {
		return ErrTokenMismatch
	}
	submitted := c.GetHeader(HeaderName)
	if submitted == "" {
		submitted = c.PostForm(FormField)
	}
	if submitted == "" {
		return ErrTokenMissing
	}
	if subtle.ConstantTimeCompare([]byte(submitted), []byte(cookie)) != 1 {
		return ErrTokenMismatch
	}
	return nil
}

// Token returns the token to embed in forms rendered for c.
func Token(c *gin.Context) string {
	return c.GetString(ContextToken)
}

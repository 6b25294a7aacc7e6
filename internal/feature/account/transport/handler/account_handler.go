// Package handler はaccountフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"account_portal/internal/feature/account/domain/entity"
	"account_portal/internal/feature/account/transport/http/dto"
	"account_portal/internal/feature/account/transport/middleware"
	"account_portal/internal/feature/account/usecase"
	sessionentity "account_portal/internal/feature/session/domain/entity"
	"account_portal/internal/platform/metrics"
)

// Flash messages shown on the next rendered page.
const (
	msgEmptyEmail      = "Please enter your email"
	msgEmptyPassword   = "Please enter your password"
	msgInvalidLogin    = "Invalid email or password."
	msgTooShort        = "Password must be at least 4 characters long"
	msgMismatch        = "Passwords do not match"
	msgEmailTaken      = "Account with that email address already exists."
	msgNoSuchAccount   = "Account with that email address does not exist."
	msgTokenInvalid    = "Password reset token is invalid or has expired."
	msgPasswordChanged = "Success! Your password has been changed."
)

// AccountUsecase は認証と登録のユースケースを定義します。
// Goの慣例に従い、インターフェースはコンシューマー（handler）が定義します。
type AccountUsecase interface {
	Authenticate(ctx context.Context, email, password string) (*entity.Account, error)
	Register(ctx context.Context, in usecase.RegisterInput, bind usecase.BindFunc) (*entity.Account, error)
}

// ResetUsecase はパスワードリセットのユースケースを定義します。
type ResetUsecase interface {
	RequestReset(ctx context.Context, email, baseURL string) (*entity.Account, error)
	ValidateToken(ctx context.Context, token string) (*entity.Account, error)
	CompleteReset(ctx context.Context, token, password, confirm string, bind usecase.BindFunc) (*entity.Account, error)
}

// Sessions はセッションへのログイン状態とフラッシュメッセージの操作を定義します。
type Sessions interface {
	Bind(c *gin.Context, accountID string) error
	RevokeAccount(c *gin.Context, accountID string) error
	Logout(c *gin.Context) error
	Flash(c *gin.Context, kind sessionentity.FlashKind, message string) error
}

// Renderer はHTMLページとエラーページを描画します。
type Renderer interface {
	HTML(c *gin.Context, name string, data gin.H)
	Error(c *gin.Context, err error)
}

// Recorder はメトリクスを記録します。
type Recorder interface {
	RecordAuth(event, outcome string)
	RecordReset(step, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) RecordAuth(string, string)  {}
func (nopRecorder) RecordReset(string, string) {}

// AccountHandler はアカウント関連ページのHTTPリクエストを処理します。
type AccountHandler struct {
	accounts AccountUsecase
	resets   ResetUsecase
	sessions Sessions
	render   Renderer
	metrics  Recorder
	baseURL  string
}

// NewAccountHandler はAccountHandlerの新しいインスタンスを生成します。
// baseURL はリセットリンクのオリジンです。リクエストの Host ヘッダは使いません。
func NewAccountHandler(accounts AccountUsecase, resets ResetUsecase, sessions Sessions, render Renderer, baseURL string) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		resets:   resets,
		sessions: sessions,
		render:   render,
		metrics:  nopRecorder{},
		baseURL:  baseURL,
	}
}

// WithRecorder はメトリクスレコーダーを設定します。
func (h *AccountHandler) WithRecorder(r Recorder) *AccountHandler {
	if r != nil {
		h.metrics = r
	}
	return h
}

// flashAndRedirect queues a flash message and redirects to location.
func (h *AccountHandler) flashAndRedirect(c *gin.Context, kind sessionentity.FlashKind, message, location string) {
	if err := h.sessions.Flash(c, kind, message); err != nil {
		h.render.Error(c, err)
		return
	}
	c.Redirect(http.StatusFound, location)
}

// validationMessage returns the flash text for rule violations shared by signup and reset.
func validationMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, usecase.ErrPasswordTooShort):
		return msgTooShort, true
	case errors.Is(err, usecase.ErrPasswordMismatch):
		return msgMismatch, true
	case errors.Is(err, usecase.ErrEmailRequired):
		return msgEmptyEmail, true
	case errors.Is(err, usecase.ErrEmailTaken):
		return msgEmailTaken, true
	case errors.Is(err, usecase.ErrTokenInvalidOrExpired):
		return msgTokenInvalid, true
	}
	return "", false
}

func (h *AccountHandler) bindSession(c *gin.Context) usecase.BindFunc {
	return func(_ context.Context, a *entity.Account) error {
		return h.sessions.Bind(c, a.ID)
	}
}

// Login は POST /login を処理します。
// - メールアドレスまたはパスワードが空の場合はフラッシュを設定して / へリダイレクト
// - 認証失敗時もフラッシュを設定して / へリダイレクト
// - 成功時は新しいセッションIDでログインし / へリダイレクト
func (h *AccountHandler) Login(c *gin.Context) {
	var form dto.LoginForm
	if err := c.ShouldBind(&form); err != nil {
		slog.Warn("login form binding failed", "error", err, "remote_addr", c.ClientIP())
	}

	if form.Email == "" {
		h.flashAndRedirect(c, sessionentity.FlashErrors, msgEmptyEmail, "/")
		return
	}
	if form.Password == "" {
		h.flashAndRedirect(c, sessionentity.FlashErrors, msgEmptyPassword, "/")
		return
	}

	account, err := h.accounts.Authenticate(c.Request.Context(), form.Email, form.Password)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrAccountNotFound):
			h.metrics.RecordAuth("login", metrics.OutcomeFailure)
			slog.Warn("login failed", "reason", "not_found", "remote_addr", c.ClientIP())
			h.flashAndRedirect(c, sessionentity.FlashErrors, fmt.Sprintf("Email %s not found.", form.Email), "/")
		case errors.Is(err, usecase.ErrInvalidCredentials):
			h.metrics.RecordAuth("login", metrics.OutcomeFailure)
			slog.Warn("login failed", "reason", "invalid_credentials", "remote_addr", c.ClientIP())
			h.flashAndRedirect(c, sessionentity.FlashErrors, msgInvalidLogin, "/")
		default:
			h.metrics.RecordAuth("login", metrics.OutcomeError)
			h.render.Error(c, err)
		}
		return
	}

	if err := h.sessions.Bind(c, account.ID); err != nil {
		h.metrics.RecordAuth("login", metrics.OutcomeError)
		h.render.Error(c, err)
		return
	}
	h.metrics.RecordAuth("login", metrics.OutcomeSuccess)
	slog.Info("user login successful", "account_id", account.ID, "remote_addr", c.ClientIP())
	c.Redirect(http.StatusFound, "/")
}

// Logout は GET /logout を処理します。
func (h *AccountHandler) Logout(c *gin.Context) {
	if err := h.sessions.Logout(c); err != nil {
		h.render.Error(c, err)
		return
	}
	h.metrics.RecordAuth("logout", metrics.OutcomeSuccess)
	c.Redirect(http.StatusFound, "/")
}

// GetSignup は GET /account/signup を処理します。
func (h *AccountHandler) GetSignup(c *gin.Context) {
	if middleware.AccountFromContext(c) != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}
	h.render.HTML(c, "account/signup", gin.H{"title": "Create Account"})
}

// PostSignup は POST /account/signup を処理します。
// 登録成功時はそのままログインし / へリダイレクトします。
func (h *AccountHandler) PostSignup(c *gin.Context) {
	var form dto.SignupForm
	if err := c.ShouldBind(&form); err != nil {
		slog.Warn("signup form binding failed", "error", err, "remote_addr", c.ClientIP())
	}
	account, err := h.accounts.Register(c.Request.Context(), usecase.RegisterInput{
		Email:           form.Email,
		Password:        form.Password,
		ConfirmPassword: form.ConfirmPassword,
		Name:            form.Name,
		Surname:         form.Surname,
	}, h.bindSession(c))
	if err != nil {
		if msg, ok := validationMessage(err); ok {
			h.metrics.RecordAuth("signup", metrics.OutcomeFailure)
			slog.Warn("signup rejected", "kind", usecase.KindOf(err).String(), "remote_addr", c.ClientIP())
			h.flashAndRedirect(c, sessionentity.FlashErrors, msg, "/account/signup")
			return
		}
		h.metrics.RecordAuth("signup", metrics.OutcomeError)
		h.render.Error(c, err)
		return
	}

	h.metrics.RecordAuth("signup", metrics.OutcomeSuccess)
	slog.Info("user signup successful", "account_id", account.ID, "remote_addr", c.ClientIP())
	c.Redirect(http.StatusFound, "/")
}

// GetForgot は GET /account/forgot を処理します。
func (h *AccountHandler) GetForgot(c *gin.Context) {
	if middleware.AccountFromContext(c) != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}
	h.render.HTML(c, "account/forgot", gin.H{"title": "Password Reset", "reset": false})
}

// PostForgot は POST /account/forgot を処理します。
// リセットトークンを発行し、リセットリンクをメールで送信します。
func (h *AccountHandler) PostForgot(c *gin.Context) {
	var form dto.ForgotForm
	if err := c.ShouldBind(&form); err != nil {
		slog.Warn("forgot form binding failed", "error", err, "remote_addr", c.ClientIP())
	}

	account, err := h.resets.RequestReset(c.Request.Context(), form.Email, h.baseURL)
	if err != nil {
		if errors.Is(err, usecase.ErrAccountNotFound) {
			h.metrics.RecordReset("request", metrics.OutcomeFailure)
			h.flashAndRedirect(c, sessionentity.FlashErrors, msgNoSuchAccount, "/account/forgot")
			return
		}
		h.metrics.RecordReset("request", metrics.OutcomeError)
		h.render.Error(c, err)
		return
	}

	h.metrics.RecordReset("request", metrics.OutcomeSuccess)
	slog.Info("password reset requested", "account_id", account.ID, "remote_addr", c.ClientIP())
	h.flashAndRedirect(c, sessionentity.FlashInfo,
		fmt.Sprintf("An e-mail has been sent to %s with further instructions.", account.Email), "/account/forgot")
}

// GetReset は GET /reset/:token を処理します。
func (h *AccountHandler) GetReset(c *gin.Context) {
	if middleware.AccountFromContext(c) != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}

	token := c.Param("token")
	if _, err := h.resets.ValidateToken(c.Request.Context(), token); err != nil {
		if errors.Is(err, usecase.ErrTokenInvalidOrExpired) {
			h.flashAndRedirect(c, sessionentity.FlashErrors, msgTokenInvalid, "/account/forgot")
			return
		}
		h.render.Error(c, err)
		return
	}
	h.render.HTML(c, "account/forgot", gin.H{"title": "Password Reset", "reset": true, "token": token})
}

// PostReset は POST /reset を処理します。
// パスワードを変更した後、このアカウントの他のセッションをすべて無効化し、新しいセッションでログインします。
func (h *AccountHandler) PostReset(c *gin.Context) {
	var form dto.ResetForm
	if err := c.ShouldBind(&form); err != nil {
		slog.Warn("reset form binding failed", "error", err, "remote_addr", c.ClientIP())
	}

	back := "/account/forgot"
	if form.Token != "" {
		back = "/reset/" + url.PathEscape(form.Token)
	}

	bind := func(_ context.Context, a *entity.Account) error {
		if err := h.sessions.RevokeAccount(c, a.ID); err != nil {
			return err
		}
		return h.sessions.Bind(c, a.ID)
	}

	account, err := h.resets.CompleteReset(c.Request.Context(), form.Token, form.Password, form.ConfirmPassword, bind)
	if err != nil {
		if msg, ok := validationMessage(err); ok {
			h.metrics.RecordReset("complete", metrics.OutcomeFailure)
			h.flashAndRedirect(c, sessionentity.FlashErrors, msg, back)
			return
		}
		h.metrics.RecordReset("complete", metrics.OutcomeError)
		h.render.Error(c, err)
		return
	}

	h.metrics.RecordReset("complete", metrics.OutcomeSuccess)
	slog.Info("password reset completed", "account_id", account.ID, "remote_addr", c.ClientIP())
	h.flashAndRedirect(c, sessionentity.FlashSuccess, msgPasswordChanged, "/")
}

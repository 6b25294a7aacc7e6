// Package router builds the gin engine and registers every route.
package router

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"

	accounthandler "account_portal/internal/feature/account/transport/handler"
	homehandler "account_portal/internal/feature/home/transport/handler"
	sessionmw "account_portal/internal/feature/session/transport/middleware"
	"account_portal/internal/platform/csrf"
	platformhandler "account_portal/internal/platform/http/handler"
	"account_portal/internal/platform/http/middleware"
	"account_portal/internal/platform/logging"
	"account_portal/internal/platform/metrics"
)

// StaticPrefix は静的ファイルを配信するパスです。
const StaticPrefix = "/public"

// Deps holds what NewRouter wires together.
type Deps struct {
	Logger    *slog.Logger
	Templates render.HTMLRender
	Metrics   *metrics.Metrics

	Sessions    *sessionmw.Sessions
	LoadAccount gin.HandlerFunc
	CSRF        *csrf.Guard

	Home    *homehandler.HomeHandler
	Account *accounthandler.AccountHandler
	Health  *platformhandler.HealthHandler
	Static  gin.HandlerFunc
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.HTMLRender = d.Templates

	r.Use(gin.Recovery(), logging.AccessLog(d.Logger), middleware.SecurityHeaders())
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware())
	}

	// 認証・セッション不要
	// 導通確認用
	r.GET("/healthz", d.Health.Health)
	r.HEAD("/healthz", d.Health.Health)
	r.OPTIONS("/healthz", d.Health.Health)
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}
	if d.Static != nil {
		r.GET(StaticPrefix+"/*filepath", d.Static)
		r.HEAD(StaticPrefix+"/*filepath", d.Static)
	}

	// 画面系のルート
	// セッション読み込み → ログイン中アカウントの解決 → CSRF 検証 の順に適用
	pages := r.Group("/")
	pages.Use(d.Sessions.Middleware(), d.LoadAccount, d.CSRF.Middleware())
	{
		pages.GET("/", d.Home.Home)
		pages.POST("/login", d.Account.Login)
		pages.GET("/logout", d.Account.Logout)
		pages.GET("/reset/:token", d.Account.GetReset)
		pages.POST("/reset", d.Account.PostReset)

		pages.GET("/account/signup", d.Account.GetSignup)
		pages.POST("/account/signup", d.Account.PostSignup)
		pages.GET("/account/forgot", d.Account.GetForgot)
		pages.POST("/account/forgot", d.Account.PostForgot)
	}

	r.NoRoute(func(c *gin.Context) {
		c.String(http.StatusNotFound, "Not Found")
	})

	return r
}

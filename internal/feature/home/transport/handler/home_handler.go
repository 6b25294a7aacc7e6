// Package handler はトップページのHTTPハンドラーを提供します。
package handler

import (
	"github.com/gin-gonic/gin"

	"account_portal/internal/feature/account/transport/middleware"
)

// Renderer はHTMLページを描画します。
type Renderer interface {
	HTML(c *gin.Context, name string, data gin.H)
}

// HomeHandler は GET / を処理します。
type HomeHandler struct {
	render Renderer
}

// NewHomeHandler はHomeHandlerの新しいインスタンスを生成します。
func NewHomeHandler(render Renderer) *HomeHandler {
	return &HomeHandler{render: render}
}

// Home はログイン済みなら index、未ログインなら home を描画します。
func (h *HomeHandler) Home(c *gin.Context) {
	if account := middleware.AccountFromContext(c); account != nil {
		h.render.HTML(c, "index", gin.H{"user": account})
		return
	}
	h.render.HTML(c, "home", gin.H{"title": "Home"})
}

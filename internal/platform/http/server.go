// Package http はHTTPサーバー構築の共通設定を提供します。
package http

import (
	"net/http"
	"time"
)

// NewServer は addr で handler を提供する http.Server を作成します。
//
// 設定:
//   - ReadHeaderTimeout: ヘッダー読み込みの最大時間（Slowloris 対策）
//   - ReadTimeout / WriteTimeout: フォーム送信とテンプレート描画に十分な値
//   - IdleTimeout: Keep-Alive 接続の維持期間
//
// 注意:
//   - http.ListenAndServe はタイムアウトを設定しないため使用しないこと
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}
}

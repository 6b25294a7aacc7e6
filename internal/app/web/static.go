package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var staticFS embed.FS

// Static は /public で配信する静的ファイルを返します。
func Static() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// static は埋め込み済みなので到達しない
		panic(err)
	}
	return http.FS(sub)
}

package handler

import (
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
)

// StaticMaxAge は静的ファイルの Cache-Control に使う期間です。
const StaticMaxAge = 365 * 24 * time.Hour

// staticMinGzipSize 未満のレスポンスは圧縮しません。
const staticMinGzipSize = 512

// NewStaticHandler は prefix 配下で root のファイルを配信するハンドラーを作成します。
// レスポンスは長期キャッシュ可能で、クライアントが対応していれば gzip 圧縮されます。
// HTML ページは CSRF トークンを含むため圧縮対象にしません。
func NewStaticHandler(prefix string, root http.FileSystem, maxAge time.Duration) (gin.HandlerFunc, error) {
	wrap, err := gzhttp.NewWrapper(gzhttp.MinSize(staticMinGzipSize))
	if err != nil {
		return nil, fmt.Errorf("gzip wrapper: %w", err)
	}

	files := http.StripPrefix(prefix, http.FileServer(root))
	cacheControl := fmt.Sprintf("public, max-age=%d", int64(maxAge/time.Second))

	h := wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// ディレクトリ一覧と存在しないファイルはキャッシュさせずに 404
		if !isFile(root, strings.TrimPrefix(r.URL.Path, prefix)) {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", cacheControl)
		files.ServeHTTP(w, r)
	}))
	return gin.WrapH(h), nil
}

func isFile(root http.FileSystem, name string) bool {
	if name == "" || strings.HasSuffix(name, "/") {
		return false
	}
	f, err := root.Open(path.Clean("/" + name))
	if err != nil {
		return false
	}
	defer f.Close()
	info, err := f.Stat()
	return err == nil && !info.IsDir()
}

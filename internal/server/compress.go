package server

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
)

// compressionMiddleware gzips response bodies when the client advertises
// support. The wrapper negotiates Accept-Encoding and skips already-compressed
// content types on its own.
func compressionMiddleware(next http.Handler) http.Handler {
	return gzhttp.GzipHandler(next)
}

package handlers

import (
	"compress/gzip"
	"compress/zlib"
	"io"
	"net/http"
	"strings"

	"github.com/devkekops/paymentopt/internal/app/logger"
)

// decompressBody unwraps gzip and deflate (zlib) request bodies. Other encodings are
// passed through untouched.
func decompressBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		encoding := strings.ToLower(strings.TrimSpace(r.Header.Get("Content-Encoding")))

		var body io.ReadCloser
		switch encoding {
		case "gzip", "x-gzip":
			gz, err := gzip.NewReader(r.Body)
			if err != nil {
				http.Error(w, "Invalid gzip body", http.StatusBadRequest)
				logger.Logger.Info().Err(err).Msg("gzip body")
				return
			}
			body = gz
		case "deflate":
			zr, err := zlib.NewReader(r.Body)
			if err != nil {
				http.Error(w, "Invalid deflate body", http.StatusBadRequest)
				logger.Logger.Info().Err(err).Msg("deflate body")
				return
			}
			body = zr
		default:
			next.ServeHTTP(w, r)
			return
		}

		defer body.Close()
		r.Body = body
		r.Header.Del("Content-Encoding")
		r.ContentLength = -1
		next.ServeHTTP(w, r)
	})
}

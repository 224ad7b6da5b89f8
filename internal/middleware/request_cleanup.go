package middleware

import (
	"io"
	"net/http"
)

// past this the connection is not worth reusing
const maxDrainBytes = 256 << 10

// DrainAndCloseRequest reads whatever the handler left of the request body
// so the keep-alive connection can serve the next request, then closes it.
func DrainAndCloseRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			if r.Body == nil || r.Body == http.NoBody {
				return
			}
			_, _ = io.Copy(io.Discard, io.LimitReader(r.Body, maxDrainBytes))
			_ = r.Body.Close()
		})
	}
}

package middleware

import (
	"net/http"

	"github.com/cloo-solutions/chapterkit/internal/api"
	"github.com/cloo-solutions/chapterkit/internal/domain"
)

// MaxBodyBytes rejects bodies declared larger than limit with
// ErrRequestTooLarge and caps the rest, so a handler reading past limit gets
// an *http.MaxBytesError.
func MaxBodyBytes(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body == nil || r.Body == http.NoBody {
				next.ServeHTTP(w, r)
				return
			}
			if r.ContentLength > limit {
				api.HandleError(w, domain.ErrRequestTooLarge)
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}

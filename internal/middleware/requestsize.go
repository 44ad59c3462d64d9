package middleware

import (
	"net/http"

	"github.com/benvon/calendar-todo/internal/validation"
)

const (
	// maxEscapedRuneBytes is the widest JSON encoding of one character:
	// a surrogate pair written as \uXXXX\uXXXX
	maxEscapedRuneBytes = 12

	// DefaultMaxRequestSize fits a task with a full-length title and
	// description even when every character is escaped, plus room for
	// the deadline and the JSON framing.
	DefaultMaxRequestSize int64 = (validation.MaxTitleLength+validation.MaxDescriptionLength)*maxEscapedRuneBytes + 4<<10
)

// MaxRequestSize limits the size of request bodies
func MaxRequestSize(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRequestSize
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				http.Error(w, "Request Entity Too Large", http.StatusRequestEntityTooLarge)
				return
			}

			// Chunked bodies are caught while the handler decodes them
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

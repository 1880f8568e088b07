package server

import (
	"bufio"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"
)

const revalidateSecretHeader = "X-Revalidate-Secret"

type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.size += n
	return n, err
}

// Hijack нужен для websocket
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func logRequests(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}

		next.ServeHTTP(rec, r)

		logger.Info("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status_code", rec.status,
			"response_size", rec.size,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// requireSecret guards webhook endpoints with a shared secret header.
func requireSecret(secret string, next http.HandlerFunc) http.HandlerFunc {
	secretBytes := []byte(secret)
	return func(w http.ResponseWriter, r *http.Request) {
		if len(secretBytes) == 0 {
			http.NotFound(w, r)
			return
		}
		provided := []byte(r.Header.Get(revalidateSecretHeader))
		if len(provided) == 0 {
			writeError(w, http.StatusUnauthorized, "missing revalidate secret")
			return
		}
		if subtle.ConstantTimeCompare(provided, secretBytes) != 1 {
			writeError(w, http.StatusForbidden, "invalid revalidate secret")
			return
		}
		next(w, r)
	}
}

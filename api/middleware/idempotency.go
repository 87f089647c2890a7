package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/feirinha/feirinha-backend/api/responses"
	pkgerrors "github.com/feirinha/feirinha-backend/pkg/errors"
	"github.com/feirinha/feirinha-backend/pkg/logger"
	pkgredis "github.com/feirinha/feirinha-backend/pkg/redis"
)

// IdempotencyHeader carries the client-chosen replay key.
const IdempotencyHeader = "Idempotency-Key"

// replayRoutes lists the creating POSTs whose responses are stored, keyed by
// "METHOD pattern". Deletes, mark-read and PUT are idempotent on their own.
var replayRoutes = map[string]time.Duration{
	http.MethodPost + " /api/v1/items":                 24 * time.Hour,
	http.MethodPost + " /api/v1/items/{itemId}/images": 24 * time.Hour,
	http.MethodPost + " /api/v1/favorites":             time.Hour,
}

type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        string `json:"body"`
	BodyHash    string `json:"body_hash"`
}

// Idempotency replays the stored response when a client repeats an
// Idempotency-Key on one of replayRoutes. Only 2xx responses are stored so a
// request that failed (lock conflict, store outage) can be retried with the
// same key.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ttl, ok := replayTTL(r)
			clientKey := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
			if !ok || store == nil || clientKey == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			bodyHash := hashBody(body)
			key := store.IdempotencyKey(UserIDFromContext(ctx)+"|"+r.Method+"|"+r.URL.Path, clientKey)

			raw, err := store.Get(ctx, key)
			switch {
			case err != nil && !errors.Is(err, redis.Nil):
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
				return
			case raw != "":
				var prior storedResponse
				if err := json.Unmarshal([]byte(raw), &prior); err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
					return
				}
				if prior.BodyHash != bodyHash {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
					return
				}
				prior.replay(w)
				return
			}

			capture := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(capture, r)
			if capture.status < 200 || capture.status >= 300 {
				return
			}

			payload, err := json.Marshal(storedResponse{
				Status:      capture.status,
				ContentType: capture.Header().Get("Content-Type"),
				Body:        base64.StdEncoding.EncodeToString(capture.body.Bytes()),
				BodyHash:    bodyHash,
			})
			if err == nil {
				_, err = store.SetNX(ctx, key, string(payload), ttl)
			}
			if err != nil && logg != nil {
				logg.Error(ctx, "failed to persist idempotency record", err)
			}
		})
	}
}

func replayTTL(r *http.Request) (time.Duration, bool) {
	pattern := r.URL.Path
	if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
		pattern = rc.RoutePattern()
	}
	ttl, ok := replayRoutes[r.Method+" "+pattern]
	return ttl, ok
}

func (s storedResponse) replay(w http.ResponseWriter) {
	if s.ContentType != "" {
		w.Header().Set("Content-Type", s.ContentType)
	}
	w.Header().Set("Idempotent-Replayed", "true")
	w.WriteHeader(s.Status)
	if body, err := base64.StdEncoding.DecodeString(s.Body); err == nil {
		_, _ = w.Write(body)
	}
}

func hashBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return base64.StdEncoding.EncodeToString(sum[:])
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (r *responseCapture) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseCapture) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

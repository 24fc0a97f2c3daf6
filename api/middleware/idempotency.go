package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/storefront-backend/api/responses"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/storefront-backend/pkg/redis"
)

const (
	IdempotencyKeyHeader      = "Idempotency-Key"
	IdempotentReplayedHeader  = "Idempotent-Replayed"
	maxIdempotencyKeyLength   = 255
	defaultIdempotencyTTL     = 24 * time.Hour
	checkoutIdempotencyTTL    = 7 * 24 * time.Hour
	idempotencyScopeSeparator = "|"

	// inFlightTTL bounds how long a crashed request can hold its key.
	inFlightTTL = 2 * time.Minute
)

// IdempotencyOptions configures replay for a single route.
type IdempotencyOptions struct {
	TTL time.Duration
	// Required rejects requests without a key. Optional routes pass keyless
	// requests straight through.
	Required bool
}

// CheckoutIdempotency guards order placement. Replays are kept for a week.
func CheckoutIdempotency() IdempotencyOptions {
	return IdempotencyOptions{TTL: checkoutIdempotencyTTL, Required: true}
}

// AdminIdempotency lets admin tooling retry writes safely when it sends a key.
func AdminIdempotency() IdempotencyOptions {
	return IdempotencyOptions{TTL: defaultIdempotencyTTL}
}

// storedResponse is either a finished response or, with InFlight set, the
// reservation held while the first request runs.
type storedResponse struct {
	InFlight    bool   `json:"in_flight,omitempty"`
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body"`
	BodyHash    string `json:"body_hash"`
}

// Idempotency replays the first non-5xx response recorded for a caller's key.
// The same key with a different body is rejected, and so is a retry that
// arrives while the first request is still running.
func Idempotency(store pkgredis.IdempotencyStore, opts IdempotencyOptions, logg *logger.Logger) func(http.Handler) http.Handler {
	if opts.TTL <= 0 {
		opts.TTL = defaultIdempotencyTTL
	}
	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
			if key == "" {
				if opts.Required {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, IdempotencyKeyHeader+" header required"))
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			if len(key) > maxIdempotencyKeyLength {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, IdempotencyKeyHeader+" is too long"))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			bodyHash := digest(body)

			storeKey := store.IdempotencyKey(idempotencyScope(r), key)
			previous, found, err := loadResponse(r, store, storeKey)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load idempotency record"))
				return
			}
			if !found {
				reserved, err := reserve(r, store, storeKey, bodyHash)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve idempotency key"))
					return
				}
				if !reserved {
					// Lost the race to a concurrent request with the same key.
					previous = storedResponse{InFlight: true, BodyHash: bodyHash}
					found = true
				}
			}
			if found {
				switch {
				case previous.BodyHash != bodyHash:
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with a different request body"))
				case previous.InFlight:
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "a request with this idempotency key is still in progress"))
				default:
					replay(w, previous)
				}
				return
			}

			settled := false
			defer func() {
				// Free the key if the handler panicked.
				if !settled {
					release(r, store, storeKey, logg)
				}
			}()

			capture := &responseCapture{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(capture, r)
			settled = true

			if capture.status >= http.StatusInternalServerError {
				release(r, store, storeKey, logg)
				return
			}
			record := storedResponse{
				Status:      capture.status,
				ContentType: capture.Header().Get("Content-Type"),
				Body:        capture.body.Bytes(),
				BodyHash:    bodyHash,
			}
			payload, err := json.Marshal(record)
			if err != nil {
				logFailure(r, logg, "encode idempotency record", err)
				release(r, store, storeKey, logg)
				return
			}
			if err := store.Set(context.WithoutCancel(ctx), storeKey, string(payload), opts.TTL); err != nil {
				logFailure(r, logg, "store idempotency record", err)
			}
		})
	}
}

func reserve(r *http.Request, store pkgredis.IdempotencyStore, key, bodyHash string) (bool, error) {
	payload, err := json.Marshal(storedResponse{InFlight: true, BodyHash: bodyHash})
	if err != nil {
		return false, err
	}
	return store.SetNX(r.Context(), key, string(payload), inFlightTTL)
}

func release(r *http.Request, store pkgredis.IdempotencyStore, key string, logg *logger.Logger) {
	if err := store.Del(context.WithoutCancel(r.Context()), key); err != nil {
		logFailure(r, logg, "release idempotency key", err)
	}
}

func loadResponse(r *http.Request, store pkgredis.IdempotencyStore, key string) (storedResponse, bool, error) {
	var record storedResponse
	raw, err := store.Get(r.Context(), key)
	if errors.Is(err, redis.Nil) || (err == nil && raw == "") {
		return record, false, nil
	}
	if err != nil {
		return record, false, err
	}
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return record, false, err
	}
	return record, true, nil
}

func logFailure(r *http.Request, logg *logger.Logger, msg string, err error) {
	if logg != nil {
		logg.Error(r.Context(), msg, err)
	}
}

func replay(w http.ResponseWriter, record storedResponse) {
	if record.ContentType != "" {
		w.Header().Set("Content-Type", record.ContentType)
	}
	w.Header().Set(IdempotentReplayedHeader, "true")
	w.WriteHeader(record.Status)
	_, _ = w.Write(record.Body)
}

// idempotencyScope keeps keys from colliding across users and endpoints.
func idempotencyScope(r *http.Request) string {
	return strings.Join([]string{UserIDFromContext(r.Context()), r.Method, r.URL.Path}, idempotencyScopeSeparator)
}

func digest(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

type responseCapture struct {
	http.ResponseWriter
	body        bytes.Buffer
	status      int
	wroteHeader bool
}

func (c *responseCapture) WriteHeader(code int) {
	if !c.wroteHeader {
		c.status = code
		c.wroteHeader = true
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(b []byte) (int, error) {
	c.wroteHeader = true
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

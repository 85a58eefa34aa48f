package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/saborhub/saborhub-backend/api/responses"
	pkgerrors "github.com/saborhub/saborhub-backend/pkg/errors"
	"github.com/saborhub/saborhub-backend/pkg/logger"
	pkgredis "github.com/saborhub/saborhub-backend/pkg/redis"
)

const (
	idempotencyHeader     = "Idempotency-Key"
	replayedHeader        = "Idempotent-Replayed"
	maxIdempotencyKeySize = 255
	staffIdempotencyTTL   = 24 * time.Hour
	inFlightSuffix        = ":inflight"
)

// idempotencyRule describes one route family that honours Idempotency-Key.
// A zero ttl means the checkout TTL handed to Idempotency.
type idempotencyRule struct {
	method   string
	prefix   string
	suffix   string
	required bool
	ttl      time.Duration
}

var idempotencyRules = []idempotencyRule{
	{method: http.MethodPost, prefix: "/api/public/companies/", suffix: "/checkout", required: true},
	{method: http.MethodPost, prefix: "/api/v1/orders/", suffix: "/payment", ttl: staffIdempotencyTTL},
	{method: http.MethodPost, prefix: "/api/v1/orders/", suffix: "/status", ttl: staffIdempotencyTTL},
	{method: http.MethodPost, prefix: "/api/v1/driver/orders/", suffix: "/status", ttl: staffIdempotencyTTL},
}

func (rule idempotencyRule) matches(method, pattern string) bool {
	return rule.method == method &&
		strings.HasPrefix(pattern, rule.prefix) &&
		strings.HasSuffix(pattern, rule.suffix)
}

func matchRule(method, pattern string) (idempotencyRule, bool) {
	if pattern == "" {
		return idempotencyRule{}, false
	}
	for _, rule := range idempotencyRules {
		if rule.matches(method, pattern) {
			return rule, true
		}
	}
	return idempotencyRule{}, false
}

// storedResponse is the JSON document kept in redis per scoped key.
type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body"`
	Fingerprint string `json:"fingerprint"`
}

func (s storedResponse) replay(w http.ResponseWriter) {
	if s.ContentType != "" {
		w.Header().Set("Content-Type", s.ContentType)
	}
	w.Header().Set(replayedHeader, "true")
	w.WriteHeader(s.Status)
	_, _ = w.Write(s.Body)
}

type idempotencyGuard struct {
	store       pkgredis.IdempotencyStore
	checkoutTTL time.Duration
	logg        *logger.Logger
}

// Idempotency replays the stored response when a client retries a matched route
// with the same Idempotency-Key. A concurrent retry of an unfinished request is
// rejected. Server failures are not stored so a retry can succeed later.
func Idempotency(store pkgredis.IdempotencyStore, checkoutTTL time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	guard := &idempotencyGuard{store: store, checkoutTTL: checkoutTTL, logg: logg}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rule, ok := matchRule(r.Method, routePattern(r))
			if !ok || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			guard.serve(rule, next, w, r)
		})
	}
}

func (g *idempotencyGuard) serve(rule idempotencyRule, next http.Handler, w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clientKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
	switch {
	case clientKey == "" && rule.required:
		g.fail(w, r, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
		return
	case clientKey == "":
		next.ServeHTTP(w, r)
		return
	case len(clientKey) > maxIdempotencyKeySize:
		g.fail(w, r, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header too long"))
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		g.fail(w, r, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	fingerprint := fingerprintBody(body)

	ttl := rule.ttl
	if ttl <= 0 {
		ttl = g.checkoutTTL
	}
	key := g.store.IdempotencyKey(requestScope(r), clientKey)

	previous, found, err := g.lookup(r, key)
	if err != nil {
		g.fail(w, r, err)
		return
	}
	if found {
		if previous.Fingerprint != fingerprint {
			g.fail(w, r, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
			return
		}
		previous.replay(w)
		return
	}

	lockKey := key + inFlightSuffix
	acquired, err := g.store.SetNX(ctx, lockKey, fingerprint, ttl)
	if err != nil {
		g.fail(w, r, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock idempotency key"))
		return
	}
	if !acquired {
		g.fail(w, r, pkgerrors.New(pkgerrors.CodeIdempotency, "a request with this idempotency key is still in progress"))
		return
	}
	defer func() {
		if delErr := g.store.Del(ctx, lockKey); delErr != nil {
			g.logError(r, "release idempotency lock", delErr)
		}
	}()

	capture := &responseCapture{ResponseWriter: w}
	next.ServeHTTP(capture, r)

	status := capture.statusOrOK()
	if status >= http.StatusInternalServerError {
		return
	}
	payload, err := json.Marshal(storedResponse{
		Status:      status,
		ContentType: capture.Header().Get("Content-Type"),
		Body:        capture.body.Bytes(),
		Fingerprint: fingerprint,
	})
	if err != nil {
		g.logError(r, "marshal idempotency record", err)
		return
	}
	if err := g.store.Set(ctx, key, string(payload), ttl); err != nil {
		g.logError(r, "persist idempotency record", err)
	}
}

func (g *idempotencyGuard) lookup(r *http.Request, key string) (storedResponse, bool, error) {
	raw, err := g.store.Get(r.Context(), key)
	if pkgredis.IsNil(err) || (err == nil && raw == "") {
		return storedResponse{}, false, nil
	}
	if err != nil {
		return storedResponse{}, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency")
	}
	var stored storedResponse
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return storedResponse{}, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record")
	}
	return stored, true, nil
}

func (g *idempotencyGuard) fail(w http.ResponseWriter, r *http.Request, err error) {
	responses.WriteError(r.Context(), g.logg, w, err)
}

func (g *idempotencyGuard) logError(r *http.Request, msg string, err error) {
	if g.logg == nil {
		return
	}
	g.logg.Error(r.Context(), msg, err)
}

// requestScope keys records by caller so two carts or two staff members never share a key.
func requestScope(r *http.Request) string {
	return strings.Join([]string{
		UserIDFromContext(r.Context()),
		CartSessionFromContext(r.Context()),
		r.Method,
		r.URL.Path,
	}, "|")
}

func fingerprintBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *responseCapture) WriteHeader(code int) {
	if c.status == 0 {
		c.status = code
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

func (c *responseCapture) statusOrOK() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}

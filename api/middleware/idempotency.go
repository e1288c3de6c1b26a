package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/redeciclos/ciclos-backend/api/responses"
	pkgerrors "github.com/redeciclos/ciclos-backend/pkg/errors"
	"github.com/redeciclos/ciclos-backend/pkg/logger"
	pkgredis "github.com/redeciclos/ciclos-backend/pkg/redis"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	ReplayHeader      = "Idempotent-Replay"

	// CreateTTL covers plain creates; SettlementTTL covers payment generation
	// and payment state changes.
	CreateTTL     = 24 * time.Hour
	SettlementTTL = 7 * 24 * time.Hour

	maxIdempotencyKeyLength = 128
)

// idempotencyRecord is stored as JSON; Body is base64 through encoding/json.
type idempotencyRecord struct {
	Pending     bool   `json:"pending,omitempty"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
	RequestHash string `json:"request_hash"`
}

type idempotencyGuard struct {
	store pkgredis.IdempotencyStore
	logg  *logger.Logger
	ttl   time.Duration
}

// Idempotency requires an Idempotency-Key header on the wrapped endpoint and
// replays the first completed response for repeats of the same key, method and
// path. The key is claimed before the handler runs so a concurrent retry gets
// a conflict. 5xx responses and handler panics release the claim. A nil store
// disables the guard.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger, ttl time.Duration) func(http.Handler) http.Handler {
	if ttl <= 0 {
		ttl = CreateTTL
	}
	g := &idempotencyGuard{store: store, logg: logg, ttl: ttl}
	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			g.serve(w, r, next)
		})
	}
}

func (g *idempotencyGuard) serve(w http.ResponseWriter, r *http.Request, next http.Handler) {
	ctx := r.Context()
	id := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
	switch {
	case id == "":
		g.fail(ctx, w, pkgerrors.Required(IdempotencyHeader))
		return
	case len(id) > maxIdempotencyKeyLength:
		g.fail(ctx, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key is too long").
			WithDetails(map[string]any{"maxLength": maxIdempotencyKeyLength}))
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		g.fail(ctx, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	hash := requestHash(body)
	key := g.store.IdempotencyKey(r.Method+"|"+r.URL.Path, id)

	existing, err := g.lookup(ctx, key)
	if err != nil {
		g.fail(ctx, w, err)
		return
	}
	if existing != nil {
		switch {
		case existing.RequestHash != hash:
			g.fail(ctx, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
		case existing.Pending:
			g.fail(ctx, w, errInFlight())
		default:
			replay(w, existing)
		}
		return
	}

	if err := g.claim(ctx, key, hash); err != nil {
		g.fail(ctx, w, err)
		return
	}

	capture := &responseCapture{ResponseWriter: w}
	defer func() {
		if p := recover(); p != nil {
			g.release(context.WithoutCancel(ctx), key)
			panic(p)
		}
	}()
	next.ServeHTTP(capture, r)
	g.finish(context.WithoutCancel(ctx), key, hash, capture)
}

// release drops the claim so the client can retry with the same key.
func (g *idempotencyGuard) release(ctx context.Context, key string) {
	if err := g.store.Del(ctx, key); err != nil {
		g.logError(ctx, "idempotency.release_failed", err)
	}
}

func (g *idempotencyGuard) lookup(ctx context.Context, key string) (*idempotencyRecord, error) {
	raw, err := g.store.Get(ctx, key)
	if pkgredis.IsMiss(err) || (err == nil && raw == "") {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read idempotency record")
	}
	var rec idempotencyRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record")
	}
	return &rec, nil
}

func (g *idempotencyGuard) claim(ctx context.Context, key, hash string) error {
	pending, _ := json.Marshal(idempotencyRecord{Pending: true, RequestHash: hash})
	won, err := g.store.SetNX(ctx, key, string(pending), g.ttl)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim idempotency key")
	}
	if !won {
		return errInFlight()
	}
	return nil
}

func (g *idempotencyGuard) finish(ctx context.Context, key, hash string, capture *responseCapture) {
	status := capture.status
	if status == 0 {
		status = http.StatusOK
	}
	if status >= http.StatusInternalServerError {
		g.release(ctx, key)
		return
	}

	payload, err := json.Marshal(idempotencyRecord{
		Status:      status,
		ContentType: capture.Header().Get("Content-Type"),
		Body:        capture.body.Bytes(),
		RequestHash: hash,
	})
	if err == nil {
		err = g.store.Set(ctx, key, string(payload), g.ttl)
	}
	if err != nil {
		g.logError(ctx, "idempotency.persist_failed", err)
	}
}

func (g *idempotencyGuard) fail(ctx context.Context, w http.ResponseWriter, err error) {
	responses.WriteError(ctx, g.logg, w, err)
}

func (g *idempotencyGuard) logError(ctx context.Context, msg string, err error) {
	if g.logg != nil {
		g.logg.Error(ctx, msg, err)
	}
}

func errInFlight() error {
	return pkgerrors.New(pkgerrors.CodeConflict, "a request with this idempotency key is still in progress")
}

func replay(w http.ResponseWriter, rec *idempotencyRecord) {
	if rec.ContentType != "" {
		w.Header().Set("Content-Type", rec.ContentType)
	}
	w.Header().Set(ReplayHeader, "true")
	w.WriteHeader(rec.Status)
	_, _ = w.Write(rec.Body)
}

func requestHash(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// responseCapture tees the handler's response so it can be stored.
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

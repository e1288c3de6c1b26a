package middleware

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/redeciclos/ciclos-backend/api/responses"
	pkgerrors "github.com/redeciclos/ciclos-backend/pkg/errors"
	"github.com/redeciclos/ciclos-backend/pkg/logger"
)

// Recoverer turns a handler panic into a 500 envelope. http.ErrAbortHandler is
// re-raised so net/http can drop the connection. When the handler already
// started the response only the log entry is written.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w}
			defer func() {
				p := recover()
				if p == nil {
					return
				}
				if p == http.ErrAbortHandler {
					panic(p)
				}

				err := pkgerrors.Wrap(pkgerrors.CodeInternal, fmt.Errorf("panic: %v", p), "handler panicked")
				ctx := r.Context()
				if logg != nil {
					ctx = logg.WithFields(ctx, map[string]any{
						"method": r.Method,
						"route":  routePattern(r),
					})
				}
				if rec.status != 0 {
					if logg != nil {
						logg.Error(ctx, "panic.recovered.after_write", err)
					}
					return
				}
				if logg != nil {
					logg.Error(ctx, "panic.recovered", err)
				}
				// WriteError logs through logg as well; nil keeps a single entry.
				responses.WriteError(ctx, nil, w, err)
			}()
			next.ServeHTTP(rec, r)
		})
	}
}

// routePattern is the matched chi pattern, or the raw path outside chi.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

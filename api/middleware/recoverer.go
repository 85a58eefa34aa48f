package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/saborhub/saborhub-backend/api/responses"
	pkgerrors "github.com/saborhub/saborhub-backend/pkg/errors"
	"github.com/saborhub/saborhub-backend/pkg/logger"
)

// Recoverer turns a handler panic into an INTERNAL_ERROR envelope. It must sit inside
// RequestID so the envelope carries the request id.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer recoverPanic(logg, w, r)
			next.ServeHTTP(w, r)
		})
	}
}

func recoverPanic(logg *logger.Logger, w http.ResponseWriter, r *http.Request) {
	rec := recover()
	if rec == nil {
		return
	}
	// net/http uses this sentinel to abort a response on purpose.
	if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
		panic(rec)
	}

	ctx := r.Context()
	if logg != nil {
		ctx = logg.WithFields(ctx, map[string]any{
			"panic":  fmt.Sprint(rec),
			"method": r.Method,
			"path":   r.URL.Path,
		})
	}
	cause := fmt.Errorf("recovered panic: %v", rec)
	responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, cause, "unexpected failure"))
}

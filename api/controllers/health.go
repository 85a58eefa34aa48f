package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/saborhub/saborhub-backend/api/responses"
	"github.com/saborhub/saborhub-backend/pkg/config"
	pkgerrors "github.com/saborhub/saborhub-backend/pkg/errors"
	"github.com/saborhub/saborhub-backend/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// Pinger is anything the readiness probe should reach before reporting ready.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Saborhub-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every named dependency and fails with DEPENDENCY_ERROR listing the
// ones that did not answer.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Saborhub-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{}
		var failed []string
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				checks[name] = "down"
				failed = append(failed, name)
				if logg != nil {
					logg.Warn(logg.WithFields(r.Context(), map[string]any{"dependency": name, "error": err.Error()}), "health.ready.failed")
				}
				continue
			}
			checks[name] = "up"
		}

		if len(failed) > 0 {
			responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeDependency, "dependencies unavailable").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}

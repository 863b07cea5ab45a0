package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/istmo-energy/portal-backend/api/responses"
	"github.com/istmo-energy/portal-backend/pkg/config"
	pkgerrors "github.com/istmo-energy/portal-backend/pkg/errors"
	"github.com/istmo-energy/portal-backend/pkg/logger"
)

const readyCheckTimeout = 2 * time.Second

// HealthPinger is the probe surface backing dependencies expose.
type HealthPinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Istmo-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings each backing dependency before reporting ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]HealthPinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Istmo-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
		defer cancel()

		checks := make(map[string]string, len(deps))
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				checks[name] = "down"
				err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable").
					WithDetails(map[string]any{"checks": checks})
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			checks[name] = "up"
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}

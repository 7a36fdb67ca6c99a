package controllers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/multierr"

	"github.com/brightwash/orderdesk-backend/api/responses"
	"github.com/brightwash/orderdesk-backend/pkg/config"
	pkgerrors "github.com/brightwash/orderdesk-backend/pkg/errors"
	"github.com/brightwash/orderdesk-backend/pkg/logger"
)

const readinessTimeout = 3 * time.Second

// ReadinessCheck is a named dependency probe run by the readiness endpoint.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Orderdesk-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady runs every dependency probe and reports per-check status. Any
// failing check turns the endpoint into a 503.
func HealthReady(cfg *config.Config, logg *logger.Logger, checks ...ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Orderdesk-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		statuses := make(map[string]string, len(checks))
		var failed error
		for _, check := range checks {
			if err := check.Check(ctx); err != nil {
				failed = multierr.Append(failed, err)
				statuses[check.Name] = err.Error()
				continue
			}
			statuses[check.Name] = "ok"
		}

		if failed != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeDependency, failed, "service not ready").WithDetails(statuses))
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"status": "ready",
			"checks": statuses,
		})
	}
}

package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/istmo-energy/portal-backend/api/responses"
	"github.com/istmo-energy/portal-backend/api/validators"
	"github.com/istmo-energy/portal-backend/internal/reschedule"
	pkgerrors "github.com/istmo-energy/portal-backend/pkg/errors"
	"github.com/istmo-energy/portal-backend/pkg/logger"
)

// PublicRescheduleVerify validates a reschedule token without consuming it.
func PublicRescheduleVerify(svc reschedule.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reschedule service unavailable"))
			return
		}

		token := strings.TrimSpace(chi.URLParam(r, "token"))
		if token == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "token is required"))
			return
		}

		result, err := svc.Verify(r.Context(), token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

type rescheduleConfirmRequest struct {
	Token        string  `json:"token" validate:"required"`
	NewDateTime  string  `json:"newDateTime" validate:"required"`
	TechnicianID *string `json:"technicianId,omitempty"`
}

// PublicRescheduleConfirm consumes a token and rebooks the appointment.
func PublicRescheduleConfirm(svc reschedule.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reschedule service unavailable"))
			return
		}

		var body rescheduleConfirmRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := reschedule.ConfirmInput{
			Token:       body.Token,
			NewDateTime: body.NewDateTime,
		}
		if body.TechnicianID != nil && strings.TrimSpace(*body.TechnicianID) != "" {
			technicianID, err := uuid.Parse(strings.TrimSpace(*body.TechnicianID))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid technician id"))
				return
			}
			input.TechnicianID = &technicianID
		}

		result, err := svc.Confirm(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/istmo-energy/portal-backend/api/responses"
	"github.com/istmo-energy/portal-backend/api/validators"
	"github.com/istmo-energy/portal-backend/internal/scheduling"
	pkgerrors "github.com/istmo-energy/portal-backend/pkg/errors"
	"github.com/istmo-energy/portal-backend/pkg/logger"
)

type assignRequest struct {
	ProjectID     string  `json:"projectId" validate:"required,uuid"`
	Date          string  `json:"date" validate:"required"`
	Time          string  `json:"time" validate:"required"`
	ClientName    *string `json:"clientName,omitempty"`
	ClientAddress *string `json:"clientAddress,omitempty"`
	ClientPhone   *string `json:"clientPhone,omitempty"`
}

type assignResponse struct {
	Assigned      bool       `json:"assigned"`
	TechnicianID  *uuid.UUID `json:"technicianId,omitempty"`
	AppointmentID *uuid.UUID `json:"appointmentId,omitempty"`
	Reason        string     `json:"reason,omitempty"`
}

// SchedulingAssign books a technician for a requested slot. Exhausted
// capacity is a business outcome, not an error, so it responds 200 with
// assigned=false.
func SchedulingAssign(svc scheduling.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "scheduling service unavailable"))
			return
		}

		var body assignRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		projectID, err := uuid.Parse(strings.TrimSpace(body.ProjectID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid project id"))
			return
		}

		result, err := svc.Assign(r.Context(), scheduling.AssignInput{
			ProjectID:     projectID,
			Date:          body.Date,
			Time:          body.Time,
			ClientName:    body.ClientName,
			ClientAddress: body.ClientAddress,
			ClientPhone:   body.ClientPhone,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, assignResponse{
			Assigned:      result.Assigned(),
			TechnicianID:  result.TechnicianID,
			AppointmentID: result.AppointmentID,
			Reason:        result.Reason(),
		})
	}
}

// SchedulingAvailability lists the catalog slots still open on a date.
func SchedulingAvailability(svc scheduling.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "scheduling service unavailable"))
			return
		}

		date := strings.TrimSpace(r.URL.Query().Get("date"))
		if date == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "date is required"))
			return
		}

		slots, err := svc.Availability(r.Context(), date)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if slots == nil {
			slots = []string{}
		}

		responses.WriteSuccess(w, map[string]any{"slots": slots})
	}
}

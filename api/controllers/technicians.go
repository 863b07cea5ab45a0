package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/istmo-energy/portal-backend/api/responses"
	"github.com/istmo-energy/portal-backend/api/validators"
	"github.com/istmo-energy/portal-backend/internal/technicians"
	pkgerrors "github.com/istmo-energy/portal-backend/pkg/errors"
	"github.com/istmo-energy/portal-backend/pkg/logger"
)

type technicianCreateRequest struct {
	Name        string   `json:"name" validate:"required,min=2,max=200"`
	Email       *string  `json:"email,omitempty" validate:"omitempty,email"`
	Phone       *string  `json:"phone,omitempty"`
	Specialties []string `json:"specialties,omitempty"`
	WorkStart   string   `json:"workStart,omitempty"`
	WorkEnd     string   `json:"workEnd,omitempty"`
	WorkDays    []int32  `json:"workDays,omitempty"`
}

// TechnicianCreate onboards a technician into the dispatch pool.
func TechnicianCreate(svc technicians.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "technicians service unavailable"))
			return
		}

		var body technicianCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		technician, err := svc.Create(r.Context(), technicians.CreateInput{
			Name:        body.Name,
			Email:       body.Email,
			Phone:       body.Phone,
			Specialties: body.Specialties,
			WorkStart:   body.WorkStart,
			WorkEnd:     body.WorkEnd,
			WorkDays:    body.WorkDays,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, technician)
	}
}

type technicianUpdateRequest struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,min=2,max=200"`
	Email       *string  `json:"email,omitempty" validate:"omitempty,email"`
	Phone       *string  `json:"phone,omitempty"`
	Specialties []string `json:"specialties,omitempty"`
	WorkStart   *string  `json:"workStart,omitempty"`
	WorkEnd     *string  `json:"workEnd,omitempty"`
	WorkDays    []int32  `json:"workDays,omitempty"`
}

// TechnicianUpdate edits a technician profile; omitted fields are untouched.
func TechnicianUpdate(svc technicians.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "technicians service unavailable"))
			return
		}

		id, err := parseIDParam(r, "technicianId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body technicianUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		technician, err := svc.Update(r.Context(), id, technicians.UpdateInput{
			Name:        body.Name,
			Email:       body.Email,
			Phone:       body.Phone,
			Specialties: body.Specialties,
			WorkStart:   body.WorkStart,
			WorkEnd:     body.WorkEnd,
			WorkDays:    body.WorkDays,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, technician)
	}
}

// TechnicianGet returns one technician by id.
func TechnicianGet(svc technicians.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "technicians service unavailable"))
			return
		}

		id, err := parseIDParam(r, "technicianId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		technician, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, technician)
	}
}

// TechnicianList returns the roster, optionally including deactivated entries.
func TechnicianList(svc technicians.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "technicians service unavailable"))
			return
		}

		includeInactive := false
		if raw := strings.TrimSpace(r.URL.Query().Get("includeInactive")); raw != "" {
			value, err := strconv.ParseBool(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid includeInactive value"))
				return
			}
			includeInactive = value
		}

		items, err := svc.List(r.Context(), includeInactive)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}

type technicianActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// TechnicianSetActive toggles a technician in or out of the dispatch pool.
func TechnicianSetActive(svc technicians.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "technicians service unavailable"))
			return
		}

		id, err := parseIDParam(r, "technicianId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body technicianActiveRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetActive(r.Context(), id, *body.Active); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}

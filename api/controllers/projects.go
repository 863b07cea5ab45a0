package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/istmo-energy/portal-backend/api/responses"
	"github.com/istmo-energy/portal-backend/api/validators"
	"github.com/istmo-energy/portal-backend/internal/projects"
	"github.com/istmo-energy/portal-backend/pkg/enums"
	pkgerrors "github.com/istmo-energy/portal-backend/pkg/errors"
	"github.com/istmo-energy/portal-backend/pkg/logger"
)

type projectCreateRequest struct {
	InquiryID     *string `json:"inquiryId,omitempty"`
	ClientName    string  `json:"clientName" validate:"required,min=2,max=200"`
	ClientEmail   string  `json:"clientEmail" validate:"required,email"`
	ClientPhone   *string `json:"clientPhone,omitempty"`
	ClientAddress *string `json:"clientAddress,omitempty"`
	ServiceType   string  `json:"serviceType" validate:"required"`
	Notes         *string `json:"notes,omitempty"`
}

func (req projectCreateRequest) toInput() (projects.CreateInput, error) {
	serviceType, err := enums.ParseServiceType(strings.TrimSpace(req.ServiceType))
	if err != nil {
		return projects.CreateInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid serviceType")
	}
	input := projects.CreateInput{
		ClientName:    req.ClientName,
		ClientEmail:   req.ClientEmail,
		ClientPhone:   req.ClientPhone,
		ClientAddress: req.ClientAddress,
		ServiceType:   serviceType,
		Notes:         req.Notes,
	}
	if req.InquiryID != nil && strings.TrimSpace(*req.InquiryID) != "" {
		inquiryID, err := uuid.Parse(strings.TrimSpace(*req.InquiryID))
		if err != nil {
			return projects.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid inquiry id")
		}
		input.InquiryID = &inquiryID
	}
	return input, nil
}

// ProjectCreate opens a project directly, outside the inquiry funnel.
func ProjectCreate(svc projects.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "projects service unavailable"))
			return
		}

		var body projectCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := body.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		project, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, project)
	}
}

// ProjectGet returns one project by id.
func ProjectGet(svc projects.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "projects service unavailable"))
			return
		}

		id, err := parseIDParam(r, "projectId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		project, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, project)
	}
}

// ProjectList returns paginated projects with an optional status filter.
func ProjectList(svc projects.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "projects service unavailable"))
			return
		}

		params := projects.ListParams{
			Status: strings.TrimSpace(r.URL.Query().Get("status")),
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		if limitStr := strings.TrimSpace(r.URL.Query().Get("limit")); limitStr != "" {
			value, err := strconv.Atoi(limitStr)
			if err != nil || value <= 0 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "limit must be a positive integer"))
				return
			}
			params.Limit = value
		}

		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type projectStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// ProjectUpdateStatus moves a project through its lifecycle.
func ProjectUpdateStatus(svc projects.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "projects service unavailable"))
			return
		}

		id, err := parseIDParam(r, "projectId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body projectStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseProjectStatus(strings.TrimSpace(body.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid status"))
			return
		}

		if err := svc.UpdateStatus(r.Context(), id, status); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}

type projectNotesRequest struct {
	Notes string `json:"notes" validate:"max=10000"`
}

// ProjectUpdateNotes replaces the free-form notes on a project.
func ProjectUpdateNotes(svc projects.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "projects service unavailable"))
			return
		}

		id, err := parseIDParam(r, "projectId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body projectNotesRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.UpdateNotes(r.Context(), id, body.Notes); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}

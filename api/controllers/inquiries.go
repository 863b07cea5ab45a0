package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/istmo-energy/portal-backend/api/middleware"
	"github.com/istmo-energy/portal-backend/api/responses"
	"github.com/istmo-energy/portal-backend/api/validators"
	"github.com/istmo-energy/portal-backend/internal/inquiries"
	pkgerrors "github.com/istmo-energy/portal-backend/pkg/errors"
	"github.com/istmo-energy/portal-backend/pkg/logger"
)

type inquirySubmitRequest struct {
	Name        string  `json:"name" validate:"required,min=2,max=200"`
	Email       string  `json:"email" validate:"required,email"`
	Phone       *string `json:"phone,omitempty"`
	Address     *string `json:"address,omitempty"`
	ServiceType string  `json:"serviceType" validate:"required"`
	Message     *string `json:"message,omitempty"`
}

// PublicInquirySubmit accepts the login-free intake form.
func PublicInquirySubmit(svc inquiries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inquiries service unavailable"))
			return
		}

		var body inquirySubmitRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		inquiry, err := svc.Submit(r.Context(), inquiries.SubmitInput{
			Name:        body.Name,
			Email:       body.Email,
			Phone:       body.Phone,
			Address:     body.Address,
			ServiceType: body.ServiceType,
			Message:     body.Message,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"id":     inquiry.ID,
			"status": inquiry.Status,
		})
	}
}

// InquiryList returns paginated inquiries with an optional status filter.
func InquiryList(svc inquiries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inquiries service unavailable"))
			return
		}

		params := inquiries.ListParams{
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

// InquiryGet returns one inquiry by id.
func InquiryGet(svc inquiries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inquiries service unavailable"))
			return
		}

		id, err := parseIDParam(r, "inquiryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		inquiry, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, inquiry)
	}
}

// InquiryReview marks an inquiry as reviewed by the calling staff member.
func InquiryReview(svc inquiries.Service, logg *logger.Logger) http.HandlerFunc {
	return inquiryAction(svc, logg, func(r *http.Request, id, reviewerID uuid.UUID) error {
		return svc.Review(r.Context(), id, reviewerID)
	})
}

// InquiryDiscard closes an inquiry without opening a project.
func InquiryDiscard(svc inquiries.Service, logg *logger.Logger) http.HandlerFunc {
	return inquiryAction(svc, logg, func(r *http.Request, id, reviewerID uuid.UUID) error {
		return svc.Discard(r.Context(), id, reviewerID)
	})
}

// InquiryConvert opens a project from an inquiry and returns it.
func InquiryConvert(svc inquiries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inquiries service unavailable"))
			return
		}

		id, err := parseIDParam(r, "inquiryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reviewerID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		project, err := svc.Convert(r.Context(), id, reviewerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, project)
	}
}

func inquiryAction(svc inquiries.Service, logg *logger.Logger, action func(r *http.Request, id, reviewerID uuid.UUID) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inquiries service unavailable"))
			return
		}

		id, err := parseIDParam(r, "inquiryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reviewerID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := action(r, id, reviewerID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}

func parseIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return id, nil
}

func callerID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}
	return id, nil
}

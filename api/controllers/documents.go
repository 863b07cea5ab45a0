package controllers

import (
	"net/http"
	"strings"

	"github.com/istmo-energy/portal-backend/api/responses"
	"github.com/istmo-energy/portal-backend/api/validators"
	"github.com/istmo-energy/portal-backend/internal/documents"
	"github.com/istmo-energy/portal-backend/pkg/enums"
	pkgerrors "github.com/istmo-energy/portal-backend/pkg/errors"
	"github.com/istmo-energy/portal-backend/pkg/logger"
)

type documentPresignRequest struct {
	ProjectID   string `json:"project_id" validate:"required,uuid"`
	Kind        string `json:"kind" validate:"required"`
	FileName    string `json:"file_name" validate:"required"`
	ContentType string `json:"content_type" validate:"required"`
	SizeBytes   int64  `json:"size_bytes" validate:"required,min=1"`
}

func (req documentPresignRequest) toInput() (documents.PresignInput, error) {
	kind, err := enums.ParseDocumentKind(strings.TrimSpace(req.Kind))
	if err != nil {
		return documents.PresignInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid kind")
	}
	projectID, err := parseUUID(req.ProjectID, "project id")
	if err != nil {
		return documents.PresignInput{}, err
	}
	return documents.PresignInput{
		ProjectID:   projectID,
		Kind:        kind,
		FileName:    req.FileName,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
	}, nil
}

// DocumentPresign reserves a document slot and returns a signed PUT URL.
func DocumentPresign(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "documents service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body documentPresignRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := body.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.PresignUpload(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// DocumentConfirm flips a reserved document to uploaded after the client PUT.
func DocumentConfirm(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "documents service unavailable"))
			return
		}

		id, err := parseIDParam(r, "documentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.ConfirmUpload(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "uploaded"})
	}
}

// DocumentList returns a project's documents with short-lived download URLs.
func DocumentList(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "documents service unavailable"))
			return
		}

		projectID, err := parseIDParam(r, "projectId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.List(r.Context(), projectID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}

// DocumentDelete soft-deletes a document record.
func DocumentDelete(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "documents service unavailable"))
			return
		}

		id, err := parseIDParam(r, "documentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

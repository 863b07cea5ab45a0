package enums

import "fmt"

// DocumentKind maps to the document_kind enum in Postgres.
type DocumentKind string

const (
	DocumentKindContract  DocumentKind = "contract"
	DocumentKindPermit    DocumentKind = "permit"
	DocumentKindSitePhoto DocumentKind = "site_photo"
	DocumentKindInvoice   DocumentKind = "invoice"
	DocumentKindReport    DocumentKind = "report"
)

var validDocumentKinds = []DocumentKind{
	DocumentKindContract,
	DocumentKindPermit,
	DocumentKindSitePhoto,
	DocumentKindInvoice,
	DocumentKindReport,
}

// IsValid reports whether the value matches the canonical document_kind enum.
func (d DocumentKind) IsValid() bool {
	for _, candidate := range validDocumentKinds {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDocumentKind converts raw input into a DocumentKind.
func ParseDocumentKind(value string) (DocumentKind, error) {
	for _, candidate := range validDocumentKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid document kind %q", value)
}

// DocumentStatus tracks the upload lifecycle of a document.
type DocumentStatus string

const (
	DocumentStatusPendingUpload DocumentStatus = "pending_upload"
	DocumentStatusUploaded      DocumentStatus = "uploaded"
	DocumentStatusDeleted       DocumentStatus = "deleted"
)

var validDocumentStatuses = []DocumentStatus{
	DocumentStatusPendingUpload,
	DocumentStatusUploaded,
	DocumentStatusDeleted,
}

// IsValid reports whether the value matches the canonical document_status enum.
func (d DocumentStatus) IsValid() bool {
	for _, candidate := range validDocumentStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

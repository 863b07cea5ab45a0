package enums

import "fmt"

// InquiryStatus maps to the inquiry_status enum in Postgres.
type InquiryStatus string

const (
	InquiryStatusNew       InquiryStatus = "new"
	InquiryStatusReviewed  InquiryStatus = "reviewed"
	InquiryStatusConverted InquiryStatus = "converted"
	InquiryStatusDiscarded InquiryStatus = "discarded"
)

var validInquiryStatuses = []InquiryStatus{
	InquiryStatusNew,
	InquiryStatusReviewed,
	InquiryStatusConverted,
	InquiryStatusDiscarded,
}

// String implements fmt.Stringer.
func (i InquiryStatus) String() string {
	return string(i)
}

// IsValid reports whether the value matches the canonical inquiry_status enum.
func (i InquiryStatus) IsValid() bool {
	for _, candidate := range validInquiryStatuses {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseInquiryStatus converts raw input into an InquiryStatus.
func ParseInquiryStatus(value string) (InquiryStatus, error) {
	for _, candidate := range validInquiryStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid inquiry status %q", value)
}

package enums

import "fmt"

// ProjectStatus maps to the project_status enum in Postgres.
//
// Scheduling only ever toggles between ProjectStatusPendingInstallation and
// ProjectStatusUrgentReschedule; the remaining states are driven by the quote
// and project lifecycle endpoints.
type ProjectStatus string

const (
	ProjectStatusNew                 ProjectStatus = "new"
	ProjectStatusQuoted              ProjectStatus = "quoted"
	ProjectStatusApproved            ProjectStatus = "approved"
	ProjectStatusPendingInstallation ProjectStatus = "pending_installation"
	ProjectStatusUrgentReschedule    ProjectStatus = "urgent_reschedule"
	ProjectStatusInProgress          ProjectStatus = "in_progress"
	ProjectStatusCompleted           ProjectStatus = "completed"
	ProjectStatusCancelled           ProjectStatus = "cancelled"
)

var validProjectStatuses = []ProjectStatus{
	ProjectStatusNew,
	ProjectStatusQuoted,
	ProjectStatusApproved,
	ProjectStatusPendingInstallation,
	ProjectStatusUrgentReschedule,
	ProjectStatusInProgress,
	ProjectStatusCompleted,
	ProjectStatusCancelled,
}

// String implements fmt.Stringer.
func (p ProjectStatus) String() string {
	return string(p)
}

// IsValid reports whether the value matches the canonical project_status enum.
func (p ProjectStatus) IsValid() bool {
	for _, candidate := range validProjectStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProjectStatus converts raw input into a ProjectStatus.
func ParseProjectStatus(value string) (ProjectStatus, error) {
	for _, candidate := range validProjectStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid project status %q", value)
}

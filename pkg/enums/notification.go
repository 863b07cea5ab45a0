package enums

import "fmt"

// NotificationType maps to the notification_type enum in Postgres.
type NotificationType string

const (
	NotificationTypeInquiryReceived    NotificationType = "inquiry_received"
	NotificationTypeQuoteAccepted      NotificationType = "quote_accepted"
	NotificationTypeQuoteRejected      NotificationType = "quote_rejected"
	NotificationTypeProjectScheduled   NotificationType = "project_scheduled"
	NotificationTypeRescheduleRequired NotificationType = "reschedule_required"
	NotificationTypeSystemAnnouncement NotificationType = "system_announcement"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeInquiryReceived,
	NotificationTypeQuoteAccepted,
	NotificationTypeQuoteRejected,
	NotificationTypeProjectScheduled,
	NotificationTypeRescheduleRequired,
	NotificationTypeSystemAnnouncement,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}

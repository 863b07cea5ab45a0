package enums

import "fmt"

// ServiceType categorizes the work a customer is asking about.
type ServiceType string

const (
	ServiceTypeSolarInstallation ServiceType = "solar_installation"
	ServiceTypeBatteryStorage    ServiceType = "battery_storage"
	ServiceTypeMaintenance       ServiceType = "maintenance"
	ServiceTypeInspection        ServiceType = "inspection"
	ServiceTypeConsultation      ServiceType = "consultation"
)

var validServiceTypes = []ServiceType{
	ServiceTypeSolarInstallation,
	ServiceTypeBatteryStorage,
	ServiceTypeMaintenance,
	ServiceTypeInspection,
	ServiceTypeConsultation,
}

// String implements fmt.Stringer.
func (s ServiceType) String() string {
	return string(s)
}

// IsValid reports whether the value matches the canonical service_type enum.
func (s ServiceType) IsValid() bool {
	for _, candidate := range validServiceTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseServiceType converts raw input into a ServiceType.
func ParseServiceType(value string) (ServiceType, error) {
	for _, candidate := range validServiceTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid service type %q", value)
}

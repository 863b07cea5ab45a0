package scheduling

import (
	"context"

	pkgerrors "github.com/istmo-energy/portal-backend/pkg/errors"
)

// Availability returns the ordered subset of the slot catalog still open on
// the given date. A slot is open while its booked count stays below the
// active technician headcount. Specialties and working hours are not
// consulted here; availability is a pure headcount comparison.
func (s *service) Availability(ctx context.Context, date string) ([]string, error) {
	day, err := ParseDate(date, s.loc)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date must be YYYY-MM-DD")
	}

	active, err := s.technicians.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active technicians")
	}
	open := []string{}
	if len(active) == 0 {
		return open, nil
	}

	start, end := DayWindow(day, s.loc)
	appointments, err := s.repo.ListAppointmentsBetween(ctx, start, end)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list appointments")
	}

	counts := s.slotCounts(appointments)
	for _, slot := range SlotCatalog {
		if counts[slot] < len(active) {
			open = append(open, slot)
		}
	}
	return open, nil
}

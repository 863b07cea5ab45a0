package notifications

import (
	"context"

	"go.uber.org/multierr"

	"github.com/istmo-energy/portal-backend/pkg/db/models"
	"github.com/istmo-energy/portal-backend/pkg/enums"
	pkgerrors "github.com/istmo-energy/portal-backend/pkg/errors"
)

// staffLister narrows the users repository to what fan-out needs.
type staffLister interface {
	List(ctx context.Context) ([]models.User, error)
}

// BroadcastInput describes one notification delivered to every active staff user.
type BroadcastInput struct {
	Type    enums.NotificationType
	Title   string
	Message string
	Link    *string
}

// Broadcaster fans domain events out as in-app notifications for staff.
type Broadcaster struct {
	svc   Service
	staff staffLister
}

// NewBroadcaster wires broadcast dependencies.
func NewBroadcaster(svc Service, staff staffLister) (*Broadcaster, error) {
	if svc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications service required")
	}
	if staff == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "staff lister required")
	}
	return &Broadcaster{svc: svc, staff: staff}, nil
}

// BroadcastToStaff publishes the notification once per active staff user.
// A failed publish does not stop the remaining fan-out.
func (b *Broadcaster) BroadcastToStaff(ctx context.Context, input BroadcastInput) error {
	users, err := b.staff.List(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list staff users")
	}

	var errs error
	for _, user := range users {
		if !user.IsActive {
			continue
		}
		errs = multierr.Append(errs, b.svc.Publish(ctx, nil, PublishInput{
			UserID:  user.ID,
			Type:    input.Type,
			Title:   input.Title,
			Message: input.Message,
			Link:    input.Link,
		}))
	}
	return errs
}

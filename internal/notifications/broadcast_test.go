package notifications

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/istmo-energy/portal-backend/pkg/db/models"
	"github.com/istmo-energy/portal-backend/pkg/enums"
	pkgerrors "github.com/istmo-energy/portal-backend/pkg/errors"
)

type fakeStaffLister struct {
	users []models.User
	err   error
}

func (f fakeStaffLister) List(ctx context.Context) ([]models.User, error) {
	return f.users, f.err
}

func TestBroadcastSkipsInactiveStaff(t *testing.T) {
	repo := &fakeRepository{}
	svc := newServiceWithRepo(repo)

	active := models.User{ID: uuid.New(), IsActive: true}
	inactive := models.User{ID: uuid.New(), IsActive: false}
	dispatcher := models.User{ID: uuid.New(), IsActive: true}

	broadcaster, err := NewBroadcaster(svc, fakeStaffLister{users: []models.User{active, inactive, dispatcher}})
	if err != nil {
		t.Fatalf("new broadcaster: %v", err)
	}

	err = broadcaster.BroadcastToStaff(context.Background(), BroadcastInput{
		Type:    enums.NotificationTypeInquiryReceived,
		Title:   "Nueva consulta recibida",
		Message: "Ana solicitó solar_installation",
	})
	if err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	if len(repo.created) != 2 {
		t.Fatalf("expected notifications for the two active users, got %d", len(repo.created))
	}
	for _, row := range repo.created {
		if row.UserID == inactive.ID {
			t.Fatalf("inactive user %s must not be notified", inactive.ID)
		}
		if row.Type != enums.NotificationTypeInquiryReceived {
			t.Fatalf("unexpected type %s", row.Type)
		}
	}
}

func TestBroadcastListFailure(t *testing.T) {
	svc := newServiceWithRepo(&fakeRepository{})
	broadcaster, err := NewBroadcaster(svc, fakeStaffLister{err: errors.New("connection refused")})
	if err != nil {
		t.Fatalf("new broadcaster: %v", err)
	}

	err = broadcaster.BroadcastToStaff(context.Background(), BroadcastInput{
		Type:  enums.NotificationTypeSystemAnnouncement,
		Title: "Mantenimiento programado",
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestBroadcastAggregatesPublishFailures(t *testing.T) {
	repo := &fakeRepository{createErr: errors.New("insert failed")}
	svc := newServiceWithRepo(repo)
	staff := fakeStaffLister{users: []models.User{
		{ID: uuid.New(), IsActive: true},
		{ID: uuid.New(), IsActive: true},
	}}
	broadcaster, err := NewBroadcaster(svc, staff)
	if err != nil {
		t.Fatalf("new broadcaster: %v", err)
	}

	err = broadcaster.BroadcastToStaff(context.Background(), BroadcastInput{
		Type:  enums.NotificationTypeQuoteAccepted,
		Title: "Cotización aceptada",
	})
	if err == nil {
		t.Fatal("expected aggregated error")
	}
	if got := len(multierr.Errors(err)); got != 2 {
		t.Fatalf("expected one error per active user, got %d", got)
	}
}

package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"wacrm_backend/internal/events"
	"wacrm_backend/platform/logger"
)

const maxContentRunes = 500

// Store is the persistence surface the service needs.
type Store interface {
	Create(ctx context.Context, p CreateParams) (Notification, error)
}

// Service creates notifications for domain events. It satisfies the handoff
// notifier contract and listens for appointment bookings on the event bus.
type Service struct {
	store Store
	log   *logger.Logger
}

// NewService creates a notification service.
func NewService(store Store, log *logger.Logger) *Service {
	return &Service{store: store, log: log}
}

// NotifyHandoff records an in-app notification when a lead is routed to a
// human consultant.
func (s *Service) NotifyHandoff(ctx context.Context, workspaceID, contactID uuid.UUID, contactName, summary string) error {
	name := contactName
	if name == "" {
		name = "A lead"
	}

	_, err := s.store.Create(ctx, CreateParams{
		WorkspaceID: workspaceID,
		ContactID:   &contactID,
		Category:    CategoryHandoff,
		Title:       fmt.Sprintf("%s is waiting for a consultant", name),
		Content:     truncate(summary, maxContentRunes),
	})
	return err
}

// Subscribe registers the service's event handlers on the bus.
func (s *Service) Subscribe(bus events.Bus) {
	bus.Subscribe(events.AppointmentBooked{}.EventName(), events.HandlerFunc(s.onAppointmentBooked))
}

func (s *Service) onAppointmentBooked(ctx context.Context, event events.Event) error {
	booked, ok := event.(events.AppointmentBooked)
	if !ok {
		return nil
	}

	consultant := booked.ConsultantName
	if consultant == "" {
		consultant = "a consultant"
	}

	_, err := s.store.Create(ctx, CreateParams{
		WorkspaceID: booked.WorkspaceID,
		ContactID:   &booked.ContactID,
		Category:    CategoryAppointment,
		Title:       "New consultation booked",
		Content: fmt.Sprintf("Consultation with %s on %s",
			consultant, booked.StartTime.Format("Mon, 02 Jan 2006 15:04")),
	})
	if err != nil {
		s.log.Error("appointment notification failed",
			"appointment_id", booked.AppointmentID.String(), "error", err)
	}
	return err
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

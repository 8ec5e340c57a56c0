package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	apptrepo "wacrm_backend/internal/appointments/repository"
	apptsvc "wacrm_backend/internal/appointments/service"
	contactrepo "wacrm_backend/internal/contacts/repository"
	"wacrm_backend/internal/events"
	"wacrm_backend/internal/whatsapp"
	"wacrm_backend/platform/config"
	"wacrm_backend/platform/logger"
)

const defaultConcurrency = 10

// AppointmentReader loads the appointment a reminder refers to.
type AppointmentReader interface {
	GetAppointment(ctx context.Context, workspaceID, id uuid.UUID) (apptrepo.Appointment, error)
}

// ContactReader resolves the lead behind an appointment.
type ContactReader interface {
	GetByID(ctx context.Context, workspaceID, id uuid.UUID) (contactrepo.Contact, error)
}

// CredentialSource provides per-workspace messaging credentials.
type CredentialSource interface {
	SendCredentials(ctx context.Context, workspaceID uuid.UUID) (whatsapp.Credentials, error)
}

// Sender delivers the reminder message over WhatsApp.
type Sender interface {
	Send(ctx context.Context, creds whatsapp.Credentials, phoneNumber, message string) error
}

// Worker consumes scheduled tasks and delivers appointment reminders.
type Worker struct {
	server       *asynq.Server
	mux          *asynq.ServeMux
	appointments AppointmentReader
	contacts     ContactReader
	credentials  CredentialSource
	sender       Sender
	bus          events.Bus
	log          *logger.Logger
}

// NewWorker creates the asynq consumer.
func NewWorker(cfg config.SchedulerConfig, appointments AppointmentReader, contacts ContactReader, credentials CredentialSource, sender Sender, bus events.Bus, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: defaultConcurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:       server,
		mux:          mux,
		appointments: appointments,
		contacts:     contacts,
		credentials:  credentials,
		sender:       sender,
		bus:          bus,
		log:          log,
	}

	mux.HandleFunc(TaskAppointmentReminder, w.handleAppointmentReminder)

	return w, nil
}

// Run blocks processing tasks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleAppointmentReminder(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseAppointmentReminderPayload(task)
	if err != nil {
		return err
	}

	apptID, err := uuid.Parse(payload.AppointmentID)
	if err != nil {
		return err
	}
	workspaceID, err := uuid.Parse(payload.WorkspaceID)
	if err != nil {
		return err
	}

	appt, err := w.appointments.GetAppointment(ctx, workspaceID, apptID)
	if err != nil {
		return err
	}

	// Cancelled or completed appointments need no reminder, and a stale
	// redelivery after the consultation started is dropped.
	if appt.Status != "scheduled" || appt.ScheduledAt.Before(time.Now()) {
		return nil
	}

	contact, err := w.contacts.GetByID(ctx, workspaceID, appt.ContactID)
	if err != nil {
		return err
	}
	if contact.Phone == "" {
		return nil
	}

	creds, err := w.credentials.SendCredentials(ctx, workspaceID)
	if err != nil {
		return err
	}

	if creds.Valid() {
		msg := ReminderMessage(contact.Name, appt.ConsultantName, appt.ScheduledAt)
		if err := w.sender.Send(ctx, creds, contact.Phone, msg); err != nil {
			return fmt.Errorf("send reminder: %w", err)
		}
	}

	if w.bus != nil {
		w.bus.Publish(ctx, events.AppointmentReminderDue{
			BaseEvent:     events.NewBaseEvent(),
			WorkspaceID:   workspaceID,
			AppointmentID: appt.ID,
			ContactID:     appt.ContactID,
			ContactPhone:  contact.Phone,
			StartTime:     appt.ScheduledAt,
		})
	}

	w.log.Info("appointment reminder delivered",
		"workspace_id", workspaceID.String(),
		"appointment_id", appt.ID.String())

	return nil
}

// ReminderMessage renders the WhatsApp reminder text for a consultation.
func ReminderMessage(contactName, consultantName string, scheduledAt time.Time) string {
	name := contactName
	if name == "" {
		name = "kak"
	}

	local := scheduledAt.In(apptsvc.WIB)
	msg := fmt.Sprintf("Halo %s! Mengingatkan ya, konsultasi kamu dijadwalkan jam %s WIB", name, local.Format("15:04"))
	if consultantName != "" {
		msg += " bersama " + consultantName
	}
	return msg + ". Sampai ketemu!"
}

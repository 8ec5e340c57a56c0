// Package service turns weekly consultant availability into bookable
// slots and handles the booking flow, including the Indonesian dialog
// text the assistant sends while scheduling.
package service

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"wacrm_backend/internal/appointments/repository"
	"wacrm_backend/internal/email"
	"wacrm_backend/internal/events"
	"wacrm_backend/platform/logger"
)

// WIB is the reference timezone for all scheduling text.
var WIB = time.FixedZone("WIB", 7*3600)

// DefaultBookingWindowDays is how far ahead leads can book.
const DefaultBookingWindowDays = 14

var indonesianDays = [7]string{"Minggu", "Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu"}

var indonesianMonths = [13]string{"", "Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember"}

var indonesianMonthsShort = [13]string{"", "Jan", "Feb", "Mar", "Apr", "Mei", "Jun",
	"Jul", "Agu", "Sep", "Okt", "Nov", "Des"}

// DayName returns the Indonesian weekday name for 0 (Sunday) through 6.
func DayName(dayOfWeek int) string {
	if dayOfWeek < 0 || dayOfWeek > 6 {
		return "Unknown"
	}
	return indonesianDays[dayOfWeek]
}

// ParseDayName maps an Indonesian weekday name to its number, or -1.
// Leads rarely reply with a bare day name, so a name embedded in a
// sentence ("hari senin bisa?") also matches.
func ParseDayName(text string) int {
	normalized := strings.ToLower(strings.TrimSpace(text))
	for i, name := range indonesianDays {
		if strings.ToLower(name) == normalized {
			return i
		}
	}
	for i, name := range indonesianDays {
		if strings.Contains(normalized, strings.ToLower(name)) {
			return i
		}
	}
	return -1
}

// AvailableSlot is one concrete bookable time derived from a weekly
// pattern.
type AvailableSlot struct {
	SlotID          uuid.UUID  `json:"slot_id"`
	Date            string     `json:"date"` // YYYY-MM-DD in WIB
	DayOfWeek       int        `json:"day_of_week"`
	StartTime       string     `json:"start_time"` // HH:MM
	EndTime         string     `json:"end_time"`
	DurationMinutes int        `json:"duration_minutes"`
	ConsultantID    *uuid.UUID `json:"consultant_id,omitempty"`
	ConsultantName  string     `json:"consultant_name,omitempty"`
	StartsAt        time.Time  `json:"starts_at"`
}

// ReminderScheduler enqueues the pre-consultation reminder job.
type ReminderScheduler interface {
	ScheduleReminder(ctx context.Context, workspaceID, appointmentID uuid.UUID, remindAt time.Time) error
}

// Store is the persistence surface the service needs. Satisfied by
// *repository.Repository.
type Store interface {
	CreateSlot(ctx context.Context, slot repository.Slot) (repository.Slot, error)
	ListSlots(ctx context.Context, workspaceID uuid.UUID) ([]repository.Slot, error)
	ListActiveSlots(ctx context.Context, workspaceID uuid.UUID) ([]repository.Slot, error)
	UpdateSlot(ctx context.Context, slot repository.Slot) (repository.Slot, error)
	DeleteSlot(ctx context.Context, workspaceID, id uuid.UUID) error
	CreateAppointment(ctx context.Context, a repository.Appointment) (repository.Appointment, error)
	GetAppointment(ctx context.Context, workspaceID, id uuid.UUID) (repository.Appointment, error)
	ListBetween(ctx context.Context, workspaceID uuid.UUID, from, to time.Time) ([]repository.Appointment, error)
	ListForContact(ctx context.Context, workspaceID, contactID uuid.UUID) ([]repository.Appointment, error)
	SetStatus(ctx context.Context, workspaceID, id uuid.UUID, status string) error
}

// Service exposes availability, booking, and the scheduling dialog text.
type Service struct {
	repo      Store
	reminders ReminderScheduler
	mailer    email.Sender
	bus       events.Bus
	log       *logger.Logger
	now       func() time.Time
}

// New wires the scheduling service. reminders may be nil when the job
// queue is not running (tests, one-off tools).
func New(repo Store, reminders ReminderScheduler, mailer email.Sender, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		reminders: reminders,
		mailer:    mailer,
		bus:       bus,
		log:       log,
		now:       time.Now,
	}
}

// AvailableSlots expands the workspace's active weekly patterns into
// concrete future slots within the booking window, excluding times that
// are already booked. Results are sorted by date then time.
func (s *Service) AvailableSlots(ctx context.Context, workspaceID uuid.UUID, daysAhead int) ([]AvailableSlot, error) {
	if daysAhead <= 0 {
		daysAhead = DefaultBookingWindowDays
	}

	patterns, err := s.repo.ListActiveSlots(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if len(patterns) == 0 {
		return nil, nil
	}

	now := s.now().In(WIB)
	windowEnd := now.AddDate(0, 0, daysAhead+1)

	booked, err := s.repo.ListBetween(ctx, workspaceID, now, windowEnd)
	if err != nil {
		return nil, err
	}
	// Keyed per consultant so one consultant's booking does not hide
	// another's slot at the same time. A nil consultant collapses to the
	// zero UUID, matching the booking uniqueness index.
	bookedTimes := make(map[string]bool, len(booked))
	for _, a := range booked {
		bookedTimes[bookedKey(a.ConsultantID, a.ScheduledAt)] = true
	}

	var available []AvailableSlot
	for d := 1; d <= daysAhead; d++ {
		day := now.AddDate(0, 0, d)
		dayOfWeek := int(day.Weekday())

		for _, pattern := range patterns {
			if pattern.DayOfWeek != dayOfWeek {
				continue
			}
			startsAt, err := slotTime(day, pattern.StartTime)
			if err != nil {
				s.log.Error("invalid slot start time",
					"slot_id", pattern.ID.String(), "start_time", pattern.StartTime)
				continue
			}
			if !startsAt.After(now) || bookedTimes[bookedKey(pattern.ConsultantID, startsAt)] {
				continue
			}
			available = append(available, AvailableSlot{
				SlotID:          pattern.ID,
				Date:            startsAt.Format("2006-01-02"),
				DayOfWeek:       dayOfWeek,
				StartTime:       pattern.StartTime,
				EndTime:         pattern.EndTime,
				DurationMinutes: pattern.DurationMinutes,
				ConsultantID:    pattern.ConsultantID,
				ConsultantName:  pattern.ConsultantName,
				StartsAt:        startsAt,
			})
		}
	}

	sort.Slice(available, func(i, j int) bool {
		return available[i].StartsAt.Before(available[j].StartsAt)
	})
	return available, nil
}

// SlotsForDay filters the availability to one weekday.
func (s *Service) SlotsForDay(ctx context.Context, workspaceID uuid.UUID, dayOfWeek, daysAhead int) ([]AvailableSlot, error) {
	all, err := s.AvailableSlots(ctx, workspaceID, daysAhead)
	if err != nil {
		return nil, err
	}
	var out []AvailableSlot
	for _, slot := range all {
		if slot.DayOfWeek == dayOfWeek {
			out = append(out, slot)
		}
	}
	return out, nil
}

func bookedKey(consultantID *uuid.UUID, at time.Time) string {
	id := uuid.Nil
	if consultantID != nil {
		id = *consultantID
	}
	return id.String() + "@" + strconv.FormatInt(at.Unix(), 10)
}

func slotTime(day time.Time, hhmm string) (time.Time, error) {
	parts := strings.SplitN(hhmm, ":", 3)
	if len(parts) < 2 {
		return time.Time{}, fmt.Errorf("bad time %q", hhmm)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, err
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, WIB), nil
}

// FormatSlotsForDay renders up to five slots of one weekday as the
// numbered list the assistant sends.
func FormatSlotsForDay(slots []AvailableSlot) string {
	if len(slots) == 0 {
		return "Maaf, tidak ada slot tersedia untuk hari itu. Coba hari lain ya."
	}

	lines := []string{fmt.Sprintf("Untuk hari %s ada slot:", DayName(slots[0].DayOfWeek))}

	show := slots
	if len(show) > 5 {
		show = show[:5]
	}
	for i, slot := range show {
		t := slot.StartsAt.In(WIB)
		lines = append(lines, fmt.Sprintf("%d. %d %s - %s (%d menit)",
			i+1, t.Day(), indonesianMonthsShort[t.Month()], slot.StartTime[:5], slot.DurationMinutes))
	}
	if len(slots) > 5 {
		lines = append(lines, fmt.Sprintf("...dan %d slot lainnya.", len(slots)-5))
	}

	lines = append(lines, "", "Pilih nomor atau ketik tanggal dan jam yang cocok.")
	return strings.Join(lines, "\n")
}

// FormatAvailableDays summarizes which weekdays have open slots.
func FormatAvailableDays(slots []AvailableSlot) string {
	counts := make(map[int]int)
	for _, slot := range slots {
		counts[slot.DayOfWeek]++
	}
	if len(counts) == 0 {
		return "Maaf, tidak ada jadwal konsultasi yang tersedia saat ini."
	}

	lines := []string{"Jadwal konsultasi yang tersedia:"}
	for day := 0; day < 7; day++ {
		if counts[day] > 0 {
			lines = append(lines, fmt.Sprintf("- %s (%d slot)", DayName(day), counts[day]))
		}
	}
	lines = append(lines, "", "Hari apa yang cocok untuk kamu?")
	return strings.Join(lines, "\n")
}

var selectionNumberPattern = regexp.MustCompile(`^(\d+)$|nomor\s*(\d+)|pilih\s*(\d+)`)

// ParseSlotSelection interprets a lead's reply as a slot choice: a
// number ("2", "nomor 2") or a time-of-day keyword (pagi/siang/sore).
// Returns the 0-based index, or -1 when the reply is not a selection.
func ParseSlotSelection(message string, slots []AvailableSlot) int {
	normalized := strings.ToLower(strings.TrimSpace(message))

	if match := selectionNumberPattern.FindStringSubmatch(normalized); match != nil {
		raw := match[1]
		if raw == "" {
			raw = match[2]
		}
		if raw == "" {
			raw = match[3]
		}
		if num, err := strconv.Atoi(raw); err == nil && num >= 1 && num <= len(slots) {
			return num - 1
		}
	}

	hourOf := func(slot AvailableSlot) int {
		return slot.StartsAt.In(WIB).Hour()
	}
	findByHour := func(minHour, maxHour int) int {
		for i, slot := range slots {
			if h := hourOf(slot); h >= minHour && h < maxHour {
				return i
			}
		}
		return -1
	}

	switch {
	case strings.Contains(normalized, "pagi") || strings.Contains(normalized, "morning"):
		return findByHour(6, 12)
	case strings.Contains(normalized, "siang") || strings.Contains(normalized, "afternoon"):
		return findByHour(12, 17)
	case strings.Contains(normalized, "sore") || strings.Contains(normalized, "evening"):
		return findByHour(17, 24)
	}
	return -1
}

// BookParams describes a booking request.
type BookParams struct {
	WorkspaceID     uuid.UUID
	ContactID       uuid.UUID
	ConversationID  *uuid.UUID
	Slot            AvailableSlot
	Notes           string
	ContactName     string
	ContactPhone    string
	ConsultantEmail string
}

// ReminderLeadTime is how long before the consultation the reminder goes out.
const ReminderLeadTime = time.Hour

// Book creates the appointment, schedules the reminder, notifies the
// consultant, and publishes the booked event.
func (s *Service) Book(ctx context.Context, p BookParams) (repository.Appointment, error) {
	appointment, err := s.repo.CreateAppointment(ctx, repository.Appointment{
		WorkspaceID:     p.WorkspaceID,
		ContactID:       p.ContactID,
		ConversationID:  p.ConversationID,
		SlotID:          &p.Slot.SlotID,
		ConsultantID:    p.Slot.ConsultantID,
		ConsultantName:  p.Slot.ConsultantName,
		ScheduledAt:     p.Slot.StartsAt,
		DurationMinutes: p.Slot.DurationMinutes,
		Notes:           p.Notes,
	})
	if err != nil {
		return repository.Appointment{}, err
	}

	log := s.log.WithWorkspace(p.WorkspaceID.String())

	if s.reminders != nil {
		remindAt := appointment.ScheduledAt.Add(-ReminderLeadTime)
		if remindAt.After(s.now()) {
			if err := s.reminders.ScheduleReminder(ctx, p.WorkspaceID, appointment.ID, remindAt); err != nil {
				log.Error("failed to schedule reminder",
					"appointment_id", appointment.ID.String(), "error", err)
			}
		}
	}

	if p.ConsultantEmail != "" {
		when := FormatDateLong(appointment.ScheduledAt) + ", " + appointment.ScheduledAt.In(WIB).Format("15:04") + " WIB"
		if err := s.mailer.SendAppointmentConfirmation(ctx, p.ConsultantEmail, p.ContactName, p.ContactPhone, when); err != nil {
			log.Error("failed to email consultant",
				"appointment_id", appointment.ID.String(), "error", err)
		}
	}

	var conversationID uuid.UUID
	if p.ConversationID != nil {
		conversationID = *p.ConversationID
	}
	s.bus.Publish(ctx, events.AppointmentBooked{
		BaseEvent:      events.NewBaseEvent(),
		WorkspaceID:    p.WorkspaceID,
		AppointmentID:  appointment.ID,
		ContactID:      p.ContactID,
		ConversationID: conversationID,
		SlotID:         p.Slot.SlotID,
		ConsultantName: appointment.ConsultantName,
		StartTime:      appointment.ScheduledAt,
		EndTime:        appointment.ScheduledAt.Add(time.Duration(appointment.DurationMinutes) * time.Minute),
	})

	return appointment, nil
}

// FormatDateLong renders a full Indonesian date, e.g.
// "Senin, 20 Januari 2026".
func FormatDateLong(t time.Time) string {
	t = t.In(WIB)
	return fmt.Sprintf("%s, %d %s %d", indonesianDays[t.Weekday()], t.Day(), indonesianMonths[t.Month()], t.Year())
}

// BookingConfirmation is the message sent to the lead after a booking.
func BookingConfirmation(slot AvailableSlot) string {
	var b strings.Builder
	b.WriteString("Oke, saya booking konsultasi untuk kamu:\n\n")
	b.WriteString("Tanggal: " + FormatDateLong(slot.StartsAt) + "\n")
	b.WriteString("Jam: " + slot.StartsAt.In(WIB).Format("15:04") + " WIB\n")
	b.WriteString(fmt.Sprintf("Durasi: %d menit\n", slot.DurationMinutes))
	if slot.ConsultantName != "" {
		b.WriteString("Konsultan: " + slot.ConsultantName + "\n")
	}
	b.WriteString("\nLink meeting akan dikirim 1 jam sebelum jadwal. Sampai ketemu!")
	return b.String()
}

// Slots CRUD passthroughs for the admin surface.

func (s *Service) CreateSlot(ctx context.Context, slot repository.Slot) (repository.Slot, error) {
	return s.repo.CreateSlot(ctx, slot)
}

func (s *Service) ListSlots(ctx context.Context, workspaceID uuid.UUID) ([]repository.Slot, error) {
	return s.repo.ListSlots(ctx, workspaceID)
}

func (s *Service) UpdateSlot(ctx context.Context, slot repository.Slot) (repository.Slot, error) {
	return s.repo.UpdateSlot(ctx, slot)
}

func (s *Service) DeleteSlot(ctx context.Context, workspaceID, id uuid.UUID) error {
	return s.repo.DeleteSlot(ctx, workspaceID, id)
}

func (s *Service) GetAppointment(ctx context.Context, workspaceID, id uuid.UUID) (repository.Appointment, error) {
	return s.repo.GetAppointment(ctx, workspaceID, id)
}

func (s *Service) ListForContact(ctx context.Context, workspaceID, contactID uuid.UUID) ([]repository.Appointment, error) {
	return s.repo.ListForContact(ctx, workspaceID, contactID)
}

func (s *Service) ListBetween(ctx context.Context, workspaceID uuid.UUID, from, to time.Time) ([]repository.Appointment, error) {
	return s.repo.ListBetween(ctx, workspaceID, from, to)
}

func (s *Service) Cancel(ctx context.Context, workspaceID, id uuid.UUID) error {
	return s.repo.SetStatus(ctx, workspaceID, id, repository.StatusCancelled)
}

func (s *Service) Complete(ctx context.Context, workspaceID, id uuid.UUID) error {
	return s.repo.SetStatus(ctx, workspaceID, id, repository.StatusCompleted)
}

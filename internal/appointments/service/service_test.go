package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"wacrm_backend/internal/appointments/repository"
	"wacrm_backend/internal/events"
	"wacrm_backend/platform/logger"
)

type fakeStore struct {
	slots        []repository.Slot
	appointments []repository.Appointment
}

func (f *fakeStore) CreateSlot(_ context.Context, slot repository.Slot) (repository.Slot, error) {
	slot.ID = uuid.New()
	f.slots = append(f.slots, slot)
	return slot, nil
}

func (f *fakeStore) ListSlots(context.Context, uuid.UUID) ([]repository.Slot, error) {
	return f.slots, nil
}

func (f *fakeStore) ListActiveSlots(context.Context, uuid.UUID) ([]repository.Slot, error) {
	var active []repository.Slot
	for _, s := range f.slots {
		if s.IsActive {
			active = append(active, s)
		}
	}
	return active, nil
}

func (f *fakeStore) UpdateSlot(_ context.Context, slot repository.Slot) (repository.Slot, error) {
	return slot, nil
}

func (f *fakeStore) DeleteSlot(context.Context, uuid.UUID, uuid.UUID) error { return nil }

func (f *fakeStore) CreateAppointment(_ context.Context, a repository.Appointment) (repository.Appointment, error) {
	a.ID = uuid.New()
	a.Status = repository.StatusScheduled
	f.appointments = append(f.appointments, a)
	return a, nil
}

func (f *fakeStore) GetAppointment(context.Context, uuid.UUID, uuid.UUID) (repository.Appointment, error) {
	return repository.Appointment{}, nil
}

func (f *fakeStore) ListBetween(context.Context, uuid.UUID, time.Time, time.Time) ([]repository.Appointment, error) {
	return f.appointments, nil
}

func (f *fakeStore) ListForContact(context.Context, uuid.UUID, uuid.UUID) ([]repository.Appointment, error) {
	return f.appointments, nil
}

func (f *fakeStore) SetStatus(context.Context, uuid.UUID, uuid.UUID, string) error { return nil }

type fakeReminders struct {
	scheduled []time.Time
}

func (f *fakeReminders) ScheduleReminder(_ context.Context, _, _ uuid.UUID, remindAt time.Time) error {
	f.scheduled = append(f.scheduled, remindAt)
	return nil
}

type noopMailer struct{}

func (noopMailer) SendHandoffNotification(context.Context, string, string, string, int, string) error {
	return nil
}

func (noopMailer) SendAppointmentConfirmation(context.Context, string, string, string, string) error {
	return nil
}

// Monday 2026-03-02 09:00 WIB.
var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, WIB)

func newTestService(store *fakeStore, reminders ReminderScheduler) *Service {
	log := logger.New("development")
	svc := New(store, reminders, noopMailer{}, events.NewInMemoryBus(log), log)
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestAvailableSlotsExpandsPatterns(t *testing.T) {
	store := &fakeStore{slots: []repository.Slot{
		{ID: uuid.New(), DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00", DurationMinutes: 60, IsActive: true},
		{ID: uuid.New(), DayOfWeek: 1, StartTime: "10:00", EndTime: "11:00", DurationMinutes: 60, IsActive: true},
		{ID: uuid.New(), DayOfWeek: 3, StartTime: "14:00", EndTime: "15:00", DurationMinutes: 60, IsActive: false},
	}}
	svc := newTestService(store, nil)

	slots, err := svc.AvailableSlots(context.Background(), uuid.New(), 14)
	if err != nil {
		t.Fatalf("AvailableSlots() error: %v", err)
	}

	// Two Monday patterns over two future Mondays within 14 days.
	if len(slots) != 4 {
		t.Fatalf("len(slots) = %d, want 4", len(slots))
	}
	for _, slot := range slots {
		if slot.DayOfWeek != 1 {
			t.Errorf("inactive Wednesday pattern leaked into availability: %+v", slot)
		}
		if !slot.StartsAt.After(testNow) {
			t.Errorf("slot in the past: %v", slot.StartsAt)
		}
	}
	for i := 1; i < len(slots); i++ {
		if slots[i].StartsAt.Before(slots[i-1].StartsAt) {
			t.Error("slots not sorted by time")
		}
	}
}

func TestAvailableSlotsExcludesBooked(t *testing.T) {
	slotID := uuid.New()
	store := &fakeStore{slots: []repository.Slot{
		{ID: slotID, DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00", DurationMinutes: 60, IsActive: true},
	}}
	// Book next Monday 09:00 WIB.
	booked := time.Date(2026, 3, 9, 9, 0, 0, 0, WIB)
	store.appointments = []repository.Appointment{{ScheduledAt: booked, Status: repository.StatusScheduled}}
	svc := newTestService(store, nil)

	slots, err := svc.AvailableSlots(context.Background(), uuid.New(), 14)
	if err != nil {
		t.Fatalf("AvailableSlots() error: %v", err)
	}
	if len(slots) != 1 {
		t.Fatalf("len(slots) = %d, want 1 (only the unbooked Monday)", len(slots))
	}
	if slots[0].StartsAt.Equal(booked) {
		t.Errorf("booked time still offered: %v", slots[0].StartsAt)
	}
}

func TestAvailableSlotsBookedPerConsultant(t *testing.T) {
	rina := uuid.New()
	budi := uuid.New()
	store := &fakeStore{slots: []repository.Slot{
		{ID: uuid.New(), ConsultantID: &rina, DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00", DurationMinutes: 60, IsActive: true},
		{ID: uuid.New(), ConsultantID: &budi, DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00", DurationMinutes: 60, IsActive: true},
	}}
	// Rina is booked next Monday 09:00 WIB; Budi is free at the same time.
	booked := time.Date(2026, 3, 9, 9, 0, 0, 0, WIB)
	store.appointments = []repository.Appointment{{ConsultantID: &rina, ScheduledAt: booked, Status: repository.StatusScheduled}}
	svc := newTestService(store, nil)

	slots, err := svc.AvailableSlots(context.Background(), uuid.New(), 7)
	if err != nil {
		t.Fatalf("AvailableSlots() error: %v", err)
	}
	if len(slots) != 1 {
		t.Fatalf("len(slots) = %d, want 1 (Budi's Monday slot)", len(slots))
	}
	if slots[0].ConsultantID == nil || *slots[0].ConsultantID != budi {
		t.Errorf("remaining slot belongs to the wrong consultant")
	}
	if !slots[0].StartsAt.Equal(booked) {
		t.Errorf("remaining slot time = %v, want %v", slots[0].StartsAt, booked)
	}
}

func TestFormatSlotsForDay(t *testing.T) {
	if got := FormatSlotsForDay(nil); !strings.Contains(got, "tidak ada slot") {
		t.Errorf("empty message = %q", got)
	}

	var slots []AvailableSlot
	for i := 0; i < 7; i++ {
		start := time.Date(2026, 3, 9+7*i, 9, 0, 0, 0, WIB)
		slots = append(slots, AvailableSlot{
			DayOfWeek: 1, StartTime: "09:00", DurationMinutes: 60,
			Date: start.Format("2006-01-02"), StartsAt: start,
		})
	}

	got := FormatSlotsForDay(slots)
	if !strings.HasPrefix(got, "Untuk hari Senin ada slot:") {
		t.Errorf("header = %q", got)
	}
	if !strings.Contains(got, "1. 9 Mar - 09:00 (60 menit)") {
		t.Errorf("missing first entry:\n%s", got)
	}
	if !strings.Contains(got, "...dan 2 slot lainnya.") {
		t.Errorf("missing overflow line:\n%s", got)
	}
	if !strings.Contains(got, "Pilih nomor atau ketik tanggal dan jam yang cocok.") {
		t.Errorf("missing selection hint:\n%s", got)
	}
}

func TestFormatAvailableDays(t *testing.T) {
	slots := []AvailableSlot{
		{DayOfWeek: 1}, {DayOfWeek: 1}, {DayOfWeek: 4},
	}
	got := FormatAvailableDays(slots)
	if !strings.Contains(got, "- Senin (2 slot)") || !strings.Contains(got, "- Kamis (1 slot)") {
		t.Errorf("day summary wrong:\n%s", got)
	}
}

func TestParseSlotSelection(t *testing.T) {
	slots := []AvailableSlot{
		{StartsAt: time.Date(2026, 3, 9, 9, 0, 0, 0, WIB)},
		{StartsAt: time.Date(2026, 3, 9, 13, 0, 0, 0, WIB)},
		{StartsAt: time.Date(2026, 3, 9, 18, 0, 0, 0, WIB)},
	}

	tests := []struct {
		message string
		want    int
	}{
		{"1", 0},
		{"2", 1},
		{"nomor 3", 2},
		{"pilih 2", 1},
		{"9", -1},
		{"besok pagi bisa?", 0},
		{"siang aja kak", 1},
		{"sore", 2},
		{"gimana ya", -1},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			if got := ParseSlotSelection(tt.message, slots); got != tt.want {
				t.Errorf("ParseSlotSelection(%q) = %d, want %d", tt.message, got, tt.want)
			}
		})
	}
}

func TestBookSchedulesReminder(t *testing.T) {
	store := &fakeStore{}
	reminders := &fakeReminders{}
	svc := newTestService(store, reminders)

	startsAt := time.Date(2026, 3, 9, 9, 0, 0, 0, WIB)
	appointment, err := svc.Book(context.Background(), BookParams{
		WorkspaceID: uuid.New(),
		ContactID:   uuid.New(),
		Slot: AvailableSlot{
			SlotID: uuid.New(), StartsAt: startsAt, DurationMinutes: 60,
			ConsultantName: "Sinta",
		},
		ContactName: "Budi",
	})
	if err != nil {
		t.Fatalf("Book() error: %v", err)
	}
	if appointment.Status != repository.StatusScheduled {
		t.Errorf("status = %q", appointment.Status)
	}
	if len(reminders.scheduled) != 1 {
		t.Fatalf("reminders scheduled = %d, want 1", len(reminders.scheduled))
	}
	if want := startsAt.Add(-time.Hour); !reminders.scheduled[0].Equal(want) {
		t.Errorf("remindAt = %v, want %v", reminders.scheduled[0], want)
	}
}

func TestBookingConfirmation(t *testing.T) {
	slot := AvailableSlot{
		StartsAt:        time.Date(2026, 3, 9, 9, 0, 0, 0, WIB),
		DurationMinutes: 60,
		ConsultantName:  "Sinta",
	}

	got := BookingConfirmation(slot)
	for _, want := range []string{
		"Tanggal: Senin, 9 Maret 2026",
		"Jam: 09:00 WIB",
		"Durasi: 60 menit",
		"Konsultan: Sinta",
		"Link meeting akan dikirim 1 jam sebelum jadwal.",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("confirmation missing %q:\n%s", want, got)
		}
	}
}

func TestParseDayName(t *testing.T) {
	if got := ParseDayName("senin"); got != 1 {
		t.Errorf("ParseDayName(senin) = %d", got)
	}
	if got := ParseDayName(" SABTU "); got != 6 {
		t.Errorf("ParseDayName(SABTU) = %d", got)
	}
	if got := ParseDayName("hari senin bisa?"); got != 1 {
		t.Errorf("ParseDayName(hari senin bisa?) = %d", got)
	}
	if got := ParseDayName("monday"); got != -1 {
		t.Errorf("ParseDayName(monday) = %d", got)
	}
}

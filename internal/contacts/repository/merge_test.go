package repository

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"wacrm_backend/internal/ari/domain"
)

func boolPtr(b bool) *bool { return &b }

func TestFoldContactsKeptFieldsWin(t *testing.T) {
	kept := Contact{
		ID:              uuid.New(),
		Phone:           "+6281111111111",
		NormalizedPhone: "+6281111111111",
		Name:            "Dina",
		FormData:        domain.FormData{"country": "Australia", "email": ""},
		LeadScore:       55,
		LeadTemperature: "warm",
		LeadStatus:      "prospect",
		Tags:            []string{"1on1"},
	}
	merged := Contact{
		ID:              uuid.New(),
		Phone:           "+6282222222222",
		NormalizedPhone: "+6282222222222",
		Name:            "Dina Lestari",
		FormData:        domain.FormData{"country": "UK", "email": "dina@mail.com"},
		LeadScore:       30,
		LeadTemperature: "cold",
		LeadStatus:      "cold_lead",
		Tags:            []string{"Community", "1on1"},
	}

	out := foldContacts(kept, merged, kept.Phone)

	if out.Phone != kept.Phone || out.NormalizedPhone != kept.NormalizedPhone {
		t.Errorf("expected kept phone %s, got %s", kept.Phone, out.Phone)
	}
	if out.Name != "Dina" {
		t.Errorf("kept name should win, got %q", out.Name)
	}
	if out.FormData["country"] != "Australia" {
		t.Errorf("kept non-empty form value should win, got %q", out.FormData["country"])
	}
	if out.FormData["email"] != "dina@mail.com" {
		t.Errorf("merged value should fill empty kept field, got %q", out.FormData["email"])
	}
	if out.LeadScore != 55 || out.LeadTemperature != "warm" || out.LeadStatus != "prospect" {
		t.Errorf("higher kept score should win, got %d/%s/%s", out.LeadScore, out.LeadTemperature, out.LeadStatus)
	}
	if want := []string{"1on1", "Community"}; !reflect.DeepEqual(out.Tags, want) {
		t.Errorf("tags = %v, want union %v", out.Tags, want)
	}
}

func TestFoldContactsTakesMergedScoreWhenHigher(t *testing.T) {
	kept := Contact{LeadScore: 20, LeadTemperature: "cold", LeadStatus: "cold_lead"}
	merged := Contact{LeadScore: 80, LeadTemperature: "hot", LeadStatus: "hot_lead"}

	out := foldContacts(kept, merged, kept.Phone)

	if out.LeadScore != 80 || out.LeadTemperature != "hot" || out.LeadStatus != "hot_lead" {
		t.Errorf("merged score should win, got %d/%s/%s", out.LeadScore, out.LeadTemperature, out.LeadStatus)
	}
}

func TestFoldContactsActivePhoneFromMerged(t *testing.T) {
	kept := Contact{Phone: "+6281111111111", NormalizedPhone: "+6281111111111"}
	merged := Contact{Phone: "+6282222222222", NormalizedPhone: "+6282222222222"}

	out := foldContacts(kept, merged, merged.Phone)

	if out.Phone != merged.Phone || out.NormalizedPhone != merged.NormalizedPhone {
		t.Errorf("expected merged phone %s, got %s", merged.Phone, out.Phone)
	}
}

func TestFoldDocumentsFillsUnansweredFlags(t *testing.T) {
	kept := domain.DocumentStatus{Passport: boolPtr(true)}
	merged := domain.DocumentStatus{Passport: boolPtr(false), CV: boolPtr(true)}

	out := foldDocuments(kept, merged)

	if out.Passport == nil || !*out.Passport {
		t.Error("kept passport answer should win")
	}
	if out.CV == nil || !*out.CV {
		t.Error("merged CV answer should fill the gap")
	}
	if out.EnglishTest != nil || out.Transcript != nil {
		t.Error("unanswered flags should stay nil")
	}
}

func TestFoldThreadsSumsCountersAndKeepsNewerPreview(t *testing.T) {
	older := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 8, 2, 9, 0, 0, 0, time.UTC)

	kept := threadSnapshot{
		ID:                 uuid.New(),
		UnreadCount:        2,
		WarmMessageCount:   3,
		LastMessagePreview: "older message",
		LastMessageAt:      &older,
	}
	losing := threadSnapshot{
		ID:                 uuid.New(),
		UnreadCount:        1,
		WarmMessageCount:   2,
		LastMessagePreview: "newer message",
		LastMessageAt:      &newer,
	}

	out := foldThreads(kept, losing)

	if out.ID != kept.ID {
		t.Errorf("folded thread must keep the kept conversation id")
	}
	if out.UnreadCount != 3 || out.WarmMessageCount != 5 {
		t.Errorf("counters = %d/%d, want 3/5", out.UnreadCount, out.WarmMessageCount)
	}
	if out.LastMessagePreview != "newer message" || out.LastMessageAt == nil || !out.LastMessageAt.Equal(newer) {
		t.Errorf("newer thread's preview should win, got %q", out.LastMessagePreview)
	}
}

func TestFoldThreadsKeepsKeptPreviewWhenNewer(t *testing.T) {
	older := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 8, 2, 9, 0, 0, 0, time.UTC)

	kept := threadSnapshot{LastMessagePreview: "kept wins", LastMessageAt: &newer}
	losing := threadSnapshot{LastMessagePreview: "losing", LastMessageAt: &older}

	out := foldThreads(kept, losing)
	if out.LastMessagePreview != "kept wins" || !out.LastMessageAt.Equal(newer) {
		t.Errorf("kept preview should win, got %q", out.LastMessagePreview)
	}
}

func TestFoldThreadsHandlesMissingTimestamps(t *testing.T) {
	at := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)

	out := foldThreads(threadSnapshot{}, threadSnapshot{LastMessagePreview: "only activity", LastMessageAt: &at})
	if out.LastMessagePreview != "only activity" || out.LastMessageAt == nil {
		t.Errorf("losing thread's activity should fill an idle kept thread, got %q", out.LastMessagePreview)
	}

	out = foldThreads(threadSnapshot{LastMessagePreview: "idle kept"}, threadSnapshot{})
	if out.LastMessagePreview != "idle kept" || out.LastMessageAt != nil {
		t.Errorf("two idle threads should keep the kept preview, got %q", out.LastMessagePreview)
	}
}

func TestUnionTagsDedupesAndDropsEmpty(t *testing.T) {
	got := unionTags([]string{"hot", "", "1on1"}, []string{"1on1", "Community"})
	want := []string{"hot", "1on1", "Community"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("unionTags = %v, want %v", got, want)
	}
}

package service

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"wacrm_backend/internal/ari/domain"
	"wacrm_backend/internal/contacts/repository"
	"wacrm_backend/internal/events"
	"wacrm_backend/platform/logger"
)

type fakeRepo struct {
	updates []repository.UpdateParams
}

func (f *fakeRepo) GetByID(context.Context, uuid.UUID, uuid.UUID) (repository.Contact, error) {
	return repository.Contact{}, nil
}

func (f *fakeRepo) GetByNormalizedPhone(context.Context, uuid.UUID, string) (repository.Contact, error) {
	return repository.Contact{}, nil
}

func (f *fakeRepo) List(context.Context, repository.ListParams) ([]repository.Contact, int, error) {
	return nil, 0, nil
}

func (f *fakeRepo) FindOrCreate(_ context.Context, _ uuid.UUID, phone, normalized, name string) (repository.Contact, error) {
	return repository.Contact{Phone: phone, NormalizedPhone: normalized, Name: name}, nil
}

func (f *fakeRepo) Update(_ context.Context, params repository.UpdateParams) (repository.Contact, error) {
	f.updates = append(f.updates, params)
	return repository.Contact{ID: params.ID, WorkspaceID: params.WorkspaceID, FormData: params.FormData}, nil
}

func (f *fakeRepo) UpdateScore(context.Context, repository.ScoreParams) error { return nil }

func (f *fakeRepo) Merge(context.Context, repository.MergeParams) (repository.Contact, error) {
	return repository.Contact{}, nil
}

func TestSaveFormDataSanitizesAnswers(t *testing.T) {
	repo := &fakeRepo{}
	log := logger.New("development")
	svc := New(repo, events.NewInMemoryBus(log), log)

	_, err := svc.SaveFormData(context.Background(), uuid.New(), uuid.New(), domain.FormData{
		"name":    "<b>Dina</b>",
		"notes":   "mau ke <script>UK</script>",
		"country": "Australia",
	}, nil)
	if err != nil {
		t.Fatalf("SaveFormData() error: %v", err)
	}

	if len(repo.updates) != 1 {
		t.Fatalf("updates = %d, want 1", len(repo.updates))
	}
	got := repo.updates[0].FormData
	if got["name"] != "Dina" || got["notes"] != "mau ke UK" {
		t.Errorf("markup not stripped from answers: %v", got)
	}
	if got["country"] != "Australia" {
		t.Errorf("clean answer changed: %q", got["country"])
	}
}

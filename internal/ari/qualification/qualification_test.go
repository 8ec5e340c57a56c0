package qualification

import (
	"testing"

	"wacrm_backend/internal/ari/domain"
)

func TestMissingRequiredFields(t *testing.T) {
	tests := []struct {
		name string
		form domain.FormData
		want []string
	}{
		{
			name: "empty form misses everything",
			form: domain.FormData{},
			want: []string{"name", "email", "english_level", "budget", "timeline", "country"},
		},
		{
			name: "whitespace values count as missing",
			form: domain.FormData{"name": "   ", "email": "a@b.co"},
			want: []string{"name", "english_level", "budget", "timeline", "country"},
		},
		{
			name: "complete form misses nothing",
			form: domain.FormData{
				"name": "Budi", "email": "budi@mail.com", "english_level": "menengah",
				"budget": "300 juta", "timeline": "2026", "country": "Australia",
			},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MissingRequiredFields(tt.form)
			if len(got) != len(tt.want) {
				t.Fatalf("MissingRequiredFields() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("missing[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestNextFieldQuestion(t *testing.T) {
	form := domain.FormData{"name": "Budi"}
	field, question := NextFieldQuestion(form)
	if field != "email" {
		t.Fatalf("field = %q, want email", field)
	}
	if question != "Email yang aktif apa kak? Buat kirim info lebih lanjut." {
		t.Errorf("unexpected question %q", question)
	}

	full := domain.FormData{
		"name": "Budi", "email": "budi@mail.com", "english_level": "menengah",
		"budget": "300 juta", "timeline": "2026", "country": "Australia",
	}
	if field, _ := NextFieldQuestion(full); field != "" {
		t.Errorf("complete form should have no next field, got %q", field)
	}
}

func TestFieldLabelFallback(t *testing.T) {
	if got := FieldLabel("country"); got != "negara tujuan" {
		t.Errorf("FieldLabel(country) = %q", got)
	}
	if got := FieldLabel("preferred_intake"); got != "preferred intake" {
		t.Errorf("fallback label = %q, want underscores replaced", got)
	}
	if got := FollowUpQuestion("preferred_intake"); got != "Boleh tau preferred intake-nya kak?" {
		t.Errorf("fallback question = %q", got)
	}
}

func TestNextDocumentQuestion(t *testing.T) {
	docs := domain.DocumentStatus{}
	key, question := NextDocumentQuestion(docs)
	if key != "passport" {
		t.Fatalf("first document = %q, want passport", key)
	}
	if question != "Paspor udah punya belum kak?" {
		t.Errorf("unexpected question %q", question)
	}

	yes, no := true, false
	docs = domain.DocumentStatus{Passport: &yes, CV: &no}
	if key, _ = NextDocumentQuestion(docs); key != "english_test" {
		t.Errorf("next after cv = %q, want english_test", key)
	}

	docs = domain.DocumentStatus{Passport: &yes, CV: &no, EnglishTest: &yes, Transcript: &no}
	if key, _ = NextDocumentQuestion(docs); key != "" {
		t.Errorf("exhausted checklist should return empty key, got %q", key)
	}
	if !docs.AllAsked() {
		t.Error("AllAsked() = false for fully answered checklist")
	}
}

func TestParseDocumentResponse(t *testing.T) {
	tests := []struct {
		text string
		want string // "yes", "no", or "unclear"
	}{
		{"Sudah kak", "yes"},
		{"udah punya", "yes"},
		{"  SIAP  ", "yes"},
		{"ready dong", "yes"},
		{"tidak", "no"},
		{"nggak ada sih", "yes"}, // "ada" matches before negatives
		{"blm", "no"},
		{"tdk punya", "yes"}, // "punya" wins, positives checked first
		{"engga", "no"},
		{"hmm gimana ya", "unclear"},
		{"", "unclear"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := ParseDocumentResponse(tt.text)
			switch tt.want {
			case "yes":
				if got == nil || !*got {
					t.Errorf("ParseDocumentResponse(%q) = %v, want true", tt.text, got)
				}
			case "no":
				if got == nil || *got {
					t.Errorf("ParseDocumentResponse(%q) = %v, want false", tt.text, got)
				}
			default:
				if got != nil {
					t.Errorf("ParseDocumentResponse(%q) = %v, want nil", tt.text, *got)
				}
			}
		})
	}
}

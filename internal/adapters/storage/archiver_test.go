package storage

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestObjectKey(t *testing.T) {
	wsID := uuid.MustParse("11111111-2222-3333-4444-555555555555")

	tests := []struct {
		name        string
		messageID   string
		contentType string
		wantSuffix  string
	}{
		{"jpeg image", "wamid.abc", "image/jpeg", "/wamid.abc.jpg"},
		{"pdf document", "wamid.doc", "application/pdf", "/wamid.doc.pdf"},
		{"voice note", "wamid.vn", "audio/ogg", "/wamid.vn.ogg"},
		{"content type with params", "wamid.p", "image/png; charset=binary", "/wamid.p.png"},
		{"unknown type keeps bare key", "wamid.x", "application/x-mystery", "/wamid.x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := ObjectKey(wsID, tt.messageID, tt.contentType)
			if !strings.HasPrefix(key, wsID.String()+"/") {
				t.Errorf("key %q not scoped to workspace", key)
			}
			if !strings.HasSuffix(key, tt.wantSuffix) {
				t.Errorf("ObjectKey() = %q, want suffix %q", key, tt.wantSuffix)
			}
		})
	}
}

func TestObjectKeyIsDeterministic(t *testing.T) {
	wsID := uuid.New()
	first := ObjectKey(wsID, "wamid.same", "image/jpeg")
	second := ObjectKey(wsID, "wamid.same", "image/jpeg")
	if first != second {
		t.Fatalf("expected stable keys, got %q and %q", first, second)
	}
}

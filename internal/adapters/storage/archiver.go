package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// maxMediaBytes caps how much we download per attachment. WhatsApp media
	// tops out at 64 MiB for documents.
	maxMediaBytes = 64 << 20

	downloadTimeout = 30 * time.Second
)

// wellKnownExtensions covers the media types WhatsApp actually delivers, so
// stored keys get a useful suffix without consulting the system mime tables.
var wellKnownExtensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"audio/ogg":       ".ogg",
	"audio/mpeg":      ".mp3",
	"video/mp4":       ".mp4",
	"application/pdf": ".pdf",
}

// Archiver downloads provider-hosted media and copies it into the media
// bucket before the provider URL expires.
type Archiver struct {
	store      *MediaStore
	httpClient *http.Client
}

// NewArchiver creates an archiver backed by the given media store.
func NewArchiver(store *MediaStore) *Archiver {
	return &Archiver{
		store:      store,
		httpClient: &http.Client{Timeout: downloadTimeout},
	}
}

// Archive fetches the media at mediaURL and stores it under a key derived
// from the workspace and provider message IDs. It returns the object key.
func (a *Archiver) Archive(ctx context.Context, workspaceID uuid.UUID, providerMessageID, mediaURL, mimeType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build media request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("media download returned status %d", resp.StatusCode)
	}

	contentType := mimeType
	if contentType == "" {
		contentType = resp.Header.Get("Content-Type")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := ObjectKey(workspaceID, providerMessageID, contentType)

	// Unknown length uploads stream in parts; pass -1 when the provider
	// doesn't send Content-Length.
	size := resp.ContentLength
	if size > maxMediaBytes {
		return "", fmt.Errorf("media of %d bytes exceeds archive limit", size)
	}

	body := io.LimitReader(resp.Body, maxMediaBytes)
	if err := a.store.Put(ctx, key, contentType, body, size); err != nil {
		return "", err
	}

	return key, nil
}

// DownloadURL returns a presigned URL for a previously archived object.
func (a *Archiver) DownloadURL(ctx context.Context, key string) (string, error) {
	return a.store.PresignedDownloadURL(ctx, key)
}

// ObjectKey builds the bucket key for an archived attachment. Keys are
// deterministic per message so retried webhook deliveries overwrite instead
// of duplicating.
func ObjectKey(workspaceID uuid.UUID, providerMessageID, contentType string) string {
	return workspaceID.String() + "/" + providerMessageID + extensionFor(contentType)
}

func extensionFor(contentType string) string {
	base := contentType
	if idx := strings.Index(base, ";"); idx >= 0 {
		base = strings.TrimSpace(base[:idx])
	}

	if ext, ok := wellKnownExtensions[base]; ok {
		return ext
	}

	exts, err := mime.ExtensionsByType(base)
	if err != nil || len(exts) == 0 {
		return ""
	}
	return exts[0]
}

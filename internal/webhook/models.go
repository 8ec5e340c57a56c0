// Package webhook ingests provider message batches: signature-checked
// payload parsing, workspace routing, dedup, persistence, and the
// rules-first / AI-second processing fan-out.
package webhook

import (
	"fmt"
	"strings"
	"time"
)

// MessageKind discriminates the payload union of an inbound message.
type MessageKind string

const (
	KindText     MessageKind = "text"
	KindImage    MessageKind = "image"
	KindAudio    MessageKind = "audio"
	KindVideo    MessageKind = "video"
	KindDocument MessageKind = "document"
)

// TextPayload carries the body of a text message.
type TextPayload struct {
	Body string `json:"body"`
}

// MediaPayload carries a provider-hosted media reference.
type MediaPayload struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type,omitempty"`
	Caption  string `json:"caption,omitempty"`
}

// DocumentPayload is MediaPayload plus the original filename.
type DocumentPayload struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type,omitempty"`
	Filename string `json:"filename,omitempty"`
}

// InboundMessage is one provider message. Exactly one payload field must
// be set, matching Type.
type InboundMessage struct {
	ProviderMessageID string      `json:"id"`
	PhoneNumberID     string      `json:"phone_number_id"`
	From              string      `json:"from"`
	ContactName       string      `json:"contact_name,omitempty"`
	Timestamp         time.Time   `json:"timestamp"`
	Type              MessageKind `json:"type"`

	Text     *TextPayload     `json:"text,omitempty"`
	Image    *MediaPayload    `json:"image,omitempty"`
	Audio    *MediaPayload    `json:"audio,omitempty"`
	Video    *MediaPayload    `json:"video,omitempty"`
	Document *DocumentPayload `json:"document,omitempty"`
}

// Batch is the webhook POST body: one or more messages, possibly spanning
// multiple provider phone numbers (Meta delivers per-entry batches on
// retry storms).
type Batch struct {
	Event    string           `json:"event,omitempty"`
	Messages []InboundMessage `json:"messages"`
}

// Validate checks the tagged union: required identifiers present and the
// payload matching the declared kind set, with no stray payloads.
func (m InboundMessage) Validate() error {
	if m.ProviderMessageID == "" {
		return fmt.Errorf("message missing id")
	}
	if m.PhoneNumberID == "" {
		return fmt.Errorf("message %s missing phone_number_id", m.ProviderMessageID)
	}
	if m.From == "" {
		return fmt.Errorf("message %s missing sender phone", m.ProviderMessageID)
	}

	set := 0
	for _, present := range []bool{m.Text != nil, m.Image != nil, m.Audio != nil, m.Video != nil, m.Document != nil} {
		if present {
			set++
		}
	}
	if set > 1 {
		return fmt.Errorf("message %s carries %d payloads, want one", m.ProviderMessageID, set)
	}

	switch m.Type {
	case KindText:
		if m.Text == nil {
			return fmt.Errorf("message %s declared text without body", m.ProviderMessageID)
		}
	case KindImage:
		if m.Image == nil {
			return fmt.Errorf("message %s declared image without payload", m.ProviderMessageID)
		}
	case KindAudio:
		if m.Audio == nil {
			return fmt.Errorf("message %s declared audio without payload", m.ProviderMessageID)
		}
	case KindVideo:
		if m.Video == nil {
			return fmt.Errorf("message %s declared video without payload", m.ProviderMessageID)
		}
	case KindDocument:
		if m.Document == nil {
			return fmt.Errorf("message %s declared document without payload", m.ProviderMessageID)
		}
	default:
		return fmt.Errorf("message %s has unsupported type %q", m.ProviderMessageID, m.Type)
	}
	return nil
}

// Content returns the text to store for the message: the body for text,
// the caption or placeholder for media.
func (m InboundMessage) Content() string {
	switch m.Type {
	case KindText:
		return m.Text.Body
	case KindImage:
		if m.Image.Caption != "" {
			return m.Image.Caption
		}
	case KindVideo:
		if m.Video.Caption != "" {
			return m.Video.Caption
		}
	}
	return m.Preview()
}

// Preview returns the conversation list preview for the message. Media
// collapses to a placeholder label.
func (m InboundMessage) Preview() string {
	switch m.Type {
	case KindText:
		body := strings.TrimSpace(m.Text.Body)
		runes := []rune(body)
		if len(runes) > 100 {
			return string(runes[:100])
		}
		return body
	case KindImage:
		return "[Image]"
	case KindAudio:
		return "[Audio message]"
	case KindVideo:
		return "[Video]"
	case KindDocument:
		if m.Document.Filename != "" {
			return "[Document: " + m.Document.Filename + "]"
		}
		return "[Document]"
	}
	return ""
}

// MediaURL returns the provider media reference, empty for text.
func (m InboundMessage) MediaURL() string {
	switch m.Type {
	case KindImage:
		return m.Image.URL
	case KindAudio:
		return m.Audio.URL
	case KindVideo:
		return m.Video.URL
	case KindDocument:
		return m.Document.URL
	}
	return ""
}

// IsText reports whether the message enters the rules/AI pipeline.
func (m InboundMessage) IsText() bool {
	return m.Type == KindText
}

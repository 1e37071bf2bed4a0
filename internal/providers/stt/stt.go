package stt

import (
	"context"
	"strings"
)

type Provider interface {
	Transcribe(ctx context.Context, audio []byte, language string) (text string, confidence float64, err error)
	// TranscribeAs picks the decoder from the recording's content type.
	TranscribeAs(ctx context.Context, audio []byte, contentType, language string) (text string, confidence float64, err error)
	Close() error
}

// NormalizeLanguage maps short codes to BCP-47 tags; empty means en-US.
func NormalizeLanguage(v string) string {
	v = strings.TrimSpace(v)
	switch v {
	case "", "en", "en-US":
		return "en-US"
	case "id", "id-ID":
		return "id-ID"
	default:
		return v
	}
}

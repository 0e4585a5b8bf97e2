package stt

import (
	"context"

	"github.com/yoockh/floorscreen/internal/interview"
)

type Provider interface {
	Transcribe(ctx context.Context, audio []byte, lang interview.Language) (text string, confidence float64, err error)
	Close() error
}

// LanguageCode maps an interview language to a BCP-47 recognition locale.
func LanguageCode(lang interview.Language) string {
	switch lang {
	case interview.Spanish:
		return "es-US"
	default:
		return "en-US"
	}
}

package tts

import (
	"context"

	"github.com/yoockh/floorscreen/internal/interview"
)

// Provider turns interviewer text into playable audio (MP3).
type Provider interface {
	Synthesize(ctx context.Context, text string, lang interview.Language) ([]byte, error)
	Close() error
}

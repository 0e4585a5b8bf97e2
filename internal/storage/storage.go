package storage

import (
	"context"
	"fmt"
	"io"
)

// Archiver stores an uploaded answer recording and returns where it lives.
type Archiver interface {
	Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (storedPath string, err error)
}

// ClipObjectName is the object path of one answer recording.
func ClipObjectName(sessionID string, questionIndex int, clipID, ext string) string {
	if ext == "" {
		ext = "webm"
	}
	return fmt.Sprintf("interviews/%s/q%02d-%s.%s", sessionID, questionIndex, clipID, ext)
}

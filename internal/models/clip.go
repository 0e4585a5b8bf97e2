package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ClipPending = "pending"
	ClipDone    = "done"
	ClipFailed  = "failed"
)

// AnswerClip records one uploaded answer recording and its transcription.
// Documents expire through the TTL index on expires_at.
type AnswerClip struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClipID        string             `bson:"clip_id" json:"clip_id"`
	SessionID     string             `bson:"session_id" json:"session_id"`
	QuestionIndex int                `bson:"question_index" json:"question_index"`

	MimeType    string  `bson:"mime_type" json:"mime_type"`
	SizeBytes   int64   `bson:"size_bytes" json:"size_bytes"`
	ArchivePath *string `bson:"archive_path,omitempty" json:"archive_path,omitempty"`

	Text          string  `bson:"text,omitempty" json:"text,omitempty"`
	STTStatus     string  `bson:"stt_status" json:"stt_status"`
	STTConfidence float64 `bson:"stt_confidence,omitempty" json:"stt_confidence,omitempty"`
	STTError      string  `bson:"stt_error,omitempty" json:"stt_error,omitempty"`
	ProcessingMS  int64   `bson:"processing_ms,omitempty" json:"processing_ms,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
}

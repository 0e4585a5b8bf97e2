package services

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/floorscreen/internal/interview"
	"github.com/yoockh/floorscreen/internal/metrics"
	"github.com/yoockh/floorscreen/internal/models"
	"github.com/yoockh/floorscreen/internal/providers/stt"
	mongorepo "github.com/yoockh/floorscreen/internal/repositories/mongo"
	"github.com/yoockh/floorscreen/internal/storage"
	"github.com/yoockh/floorscreen/internal/utils"
)

type TranscriptionService interface {
	Transcribe(ctx context.Context, in TranscribeInput) (*TranscribeResult, error)
}

type TranscribeInput struct {
	SessionID     string // optional; enables the clip record
	QuestionIndex int
	Language      string
	Audio         []byte
	MimeType      string
}

type TranscribeResult struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	ClipID     string  `json:"clip_id,omitempty"`
}

type transcriptionService struct {
	stt      stt.Provider
	clips    mongorepo.ClipRepository
	archiver storage.Archiver
	log      *logrus.Logger
}

// NewTranscriptionService wires speech recognition. clips and archiver may be
// nil.
func NewTranscriptionService(p stt.Provider, clips mongorepo.ClipRepository, archiver storage.Archiver, log *logrus.Logger) TranscriptionService {
	if log == nil {
		log = logrus.New()
	}
	return &transcriptionService{stt: p, clips: clips, archiver: archiver, log: log}
}

func (s *transcriptionService) Transcribe(ctx context.Context, in TranscribeInput) (*TranscribeResult, error) {
	const op = "TranscriptionService.Transcribe"

	if len(in.Audio) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "audio is required", nil)
	}
	lang := interview.English
	if in.Language != "" {
		l, ok := interview.ParseLanguage(in.Language)
		if !ok {
			return nil, utils.E(utils.CodeInvalidArgument, op, "language must be en or es", nil)
		}
		lang = l
	}
	mime := in.MimeType
	if mime == "" {
		mime = "audio/webm"
	}

	log := s.log.WithFields(logrus.Fields{"session_id": in.SessionID, "question_index": in.QuestionIndex})

	var clipID string
	if s.clips != nil && in.SessionID != "" {
		clipID = uuid.NewString()
		clip := &models.AnswerClip{
			ClipID:        clipID,
			SessionID:     in.SessionID,
			QuestionIndex: in.QuestionIndex,
			MimeType:      mime,
			SizeBytes:     int64(len(in.Audio)),
			STTStatus:     models.ClipPending,
		}
		if err := s.clips.Insert(ctx, clip); err != nil {
			log.WithError(err).Warn("failed to record answer clip")
			clipID = ""
		} else {
			s.archive(ctx, log, in, clipID, mime)
		}
	}

	start := time.Now()
	text, conf, err := s.stt.Transcribe(ctx, in.Audio, lang)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		metrics.CollaboratorFailure(metrics.STT)
		log.WithError(err).Error("transcription failed")
		s.mark(ctx, log, clipID, "", 0, models.ClipFailed, err.Error(), elapsed)
		return nil, utils.E(utils.CodeUnavailable, op, "transcription is unavailable, please type your answer", err)
	}

	text = strings.TrimSpace(text)
	s.mark(ctx, log, clipID, text, conf, models.ClipDone, "", elapsed)
	return &TranscribeResult{Text: text, Confidence: conf, ClipID: clipID}, nil
}

func (s *transcriptionService) archive(ctx context.Context, log *logrus.Entry, in TranscribeInput, clipID, mime string) {
	if s.archiver == nil {
		return
	}
	name := storage.ClipObjectName(in.SessionID, in.QuestionIndex, clipID, extensionFor(mime))
	path, err := s.archiver.Upload(ctx, name, mime, bytes.NewReader(in.Audio))
	if err != nil {
		log.WithError(err).Warn("failed to archive answer clip")
		return
	}
	if err := s.clips.SetArchivePath(ctx, clipID, path); err != nil {
		log.WithError(err).Warn("failed to store archive path")
	}
}

func (s *transcriptionService) mark(ctx context.Context, log *logrus.Entry, clipID, text string, conf float64, status, errMsg string, ms int64) {
	if clipID == "" {
		return
	}
	if err := s.clips.MarkSTT(ctx, clipID, text, conf, status, errMsg, ms); err != nil {
		log.WithError(err).Warn("failed to update clip status")
	}
}

func extensionFor(mime string) string {
	mime = strings.ToLower(mime)
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	switch mime {
	case "audio/ogg":
		return "ogg"
	case "audio/wav", "audio/x-wav", "audio/wave":
		return "wav"
	case "audio/mpeg":
		return "mp3"
	case "audio/mp4":
		return "m4a"
	default:
		return "webm"
	}
}

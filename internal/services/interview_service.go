package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/yoockh/floorscreen/internal/cache"
	"github.com/yoockh/floorscreen/internal/events"
	"github.com/yoockh/floorscreen/internal/interview"
	"github.com/yoockh/floorscreen/internal/metrics"
	"github.com/yoockh/floorscreen/internal/models"
	"github.com/yoockh/floorscreen/internal/providers/tts"
	"github.com/yoockh/floorscreen/internal/qualification"
	mongorepo "github.com/yoockh/floorscreen/internal/repositories/mongo"
	pgrepo "github.com/yoockh/floorscreen/internal/repositories/postgres"
	"github.com/yoockh/floorscreen/internal/utils"
)

type InterviewService interface {
	Start(ctx context.Context, in StartInput) (*StartResult, error)
	Resume(ctx context.Context, sessionID string) (*ResumeState, error)
	Respond(ctx context.Context, in RespondInput) (*RespondResult, error)
	Complete(ctx context.Context, sessionID string) (*CompletionResult, error)
}

// CompletionQueue hands finished sessions to the background scorer.
type CompletionQueue interface {
	Enqueue(ctx context.Context, sessionID string) error
}

type StartInput struct {
	Email     string
	FirstName string
	LastName  string
	Phone     string
	Language  string
}

type StartResult struct {
	SessionID      string
	CandidateID    string
	Language       interview.Language
	Question       interview.Question
	QuestionIndex  int
	AudioBase64    string
	TotalQuestions int
}

// RespondInput uses pointers so a missing field can be told apart from a
// zero index or an empty answer.
type RespondInput struct {
	SessionID            string
	CurrentQuestionIndex *int
	AnswerText           *string
	Language             string
}

type RespondResult struct {
	InterviewerText   string
	AudioBase64       string
	NextQuestionIndex int
	IsComplete        bool
	Advanced          bool
	NextQuestion      *interview.Question
	ExtractedInfo     map[string]any
}

// ResumeState is everything a client needs to rebuild an interview screen.
type ResumeState struct {
	SessionID            string                `json:"session_id"`
	CandidateID          string                `json:"candidate_id"`
	Language             interview.Language    `json:"language"`
	CurrentQuestionIndex int                   `json:"current_question_index"`
	Status               models.SessionStatus  `json:"status"`
	Transcript           []interview.Turn      `json:"transcript"`
	CurrentQuestion      *interview.Question   `json:"current_question,omitempty"`
	TotalQuestions       int                   `json:"total_questions"`
	Outcome              *qualification.Result `json:"outcome,omitempty"`
}

type CompletionResult struct {
	SessionID     string
	Result        qualification.Result
	ExtractedData qualification.Record
}

type InterviewDeps struct {
	Catalog    *interview.Catalog
	Responder  interview.Responder
	Extractor  TranscriptExtractor
	Sessions   mongorepo.SessionRepository
	Candidates pgrepo.CandidateRepository
	Responses  pgrepo.ResponseRepository

	// Optional collaborators; nil disables the feature.
	Speech tts.Provider
	Cache  cache.Cache
	Events events.Publisher
	Queue  CompletionQueue

	ResumeTTL time.Duration
	Logger    *logrus.Logger
}

type interviewService struct {
	catalog    *interview.Catalog
	machine    *interview.Machine
	extractor  TranscriptExtractor
	sessions   mongorepo.SessionRepository
	candidates pgrepo.CandidateRepository
	responses  pgrepo.ResponseRepository
	speech     tts.Provider
	cache      cache.Cache
	events     events.Publisher
	queue      CompletionQueue
	resumeTTL  time.Duration
	log        *logrus.Logger
	now        func() time.Time
}

func NewInterviewService(d InterviewDeps) InterviewService {
	if d.ResumeTTL <= 0 {
		d.ResumeTTL = 6 * time.Hour
	}
	if d.Logger == nil {
		d.Logger = logrus.New()
	}
	return &interviewService{
		catalog:    d.Catalog,
		machine:    interview.NewMachine(d.Catalog, d.Responder),
		extractor:  d.Extractor,
		sessions:   d.Sessions,
		candidates: d.Candidates,
		responses:  d.Responses,
		speech:     d.Speech,
		cache:      d.Cache,
		events:     d.Events,
		queue:      d.Queue,
		resumeTTL:  d.ResumeTTL,
		log:        d.Logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *interviewService) Start(ctx context.Context, in StartInput) (*StartResult, error) {
	const op = "InterviewService.Start"

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, utils.E(utils.CodeInvalidArgument, op, "a valid email is required", nil)
	}
	lang, ok := interview.ParseLanguage(in.Language)
	if !ok {
		return nil, utils.E(utils.CodeInvalidArgument, op, "language must be en or es", nil)
	}

	cand, err := s.findOrCreateCandidate(ctx, email, in)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load candidate", err)
	}

	now := s.now()
	st := interview.NewState(s.catalog, lang, now)
	sess := &models.InterviewSession{
		SessionID:            uuid.NewString(),
		CandidateID:          cand.ID,
		Language:             lang,
		CatalogVersion:       s.catalog.Version(),
		CurrentQuestionIndex: st.Index,
		Transcript:           st.History,
		ExtractedData:        seedRecord(email, in),
		Status:               models.SessionInProgress,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create session", err)
	}

	first, _ := s.catalog.Question(lang, 0)
	s.refreshResume(ctx, sess)

	s.log.WithFields(logrus.Fields{
		"session_id":   sess.SessionID,
		"candidate_id": cand.ID,
		"language":     lang,
	}).Info("interview started")

	return &StartResult{
		SessionID:      sess.SessionID,
		CandidateID:    cand.ID,
		Language:       lang,
		Question:       first,
		QuestionIndex:  0,
		AudioBase64:    s.synthesize(ctx, sess.SessionID, first.Text, lang),
		TotalQuestions: s.catalog.Count(),
	}, nil
}

func (s *interviewService) findOrCreateCandidate(ctx context.Context, email string, in StartInput) (*models.Candidate, error) {
	cand, err := s.candidates.GetByEmail(ctx, email)
	if err == nil {
		return cand, nil
	}
	if !errors.Is(err, utils.ErrNotFound) {
		return nil, err
	}

	now := s.now()
	cand = &models.Candidate{
		ID:        uuid.NewString(),
		Email:     email,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Status:    models.CandidatePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if p := strings.TrimSpace(in.Phone); p != "" {
		cand.Phone = &p
	}
	err = s.candidates.Create(ctx, cand)
	if errors.Is(err, utils.ErrConflict) {
		// created concurrently by another start
		return s.candidates.GetByEmail(ctx, email)
	}
	if err != nil {
		return nil, err
	}
	return cand, nil
}

func seedRecord(email string, in StartInput) qualification.Record {
	var r qualification.Record
	r.Email = &email
	if v := strings.TrimSpace(in.FirstName); v != "" {
		r.FirstName = &v
	}
	if v := strings.TrimSpace(in.LastName); v != "" {
		r.LastName = &v
	}
	if v := strings.TrimSpace(in.Phone); v != "" {
		r.Phone = &v
	}
	return r
}

func (s *interviewService) Resume(ctx context.Context, sessionID string) (*ResumeState, error) {
	const op = "InterviewService.Resume"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}

	if s.cache != nil {
		var cached ResumeState
		hit, err := s.cache.GetJSON(ctx, cache.ResumeKey(sessionID), &cached)
		if err != nil {
			s.log.WithError(err).WithField("session_id", sessionID).Warn("resume cache read failed")
		}
		if hit {
			return &cached, nil
		}
	}

	sess, err := s.loadSession(ctx, op, sessionID)
	if err != nil {
		return nil, err
	}
	return s.refreshResume(ctx, sess), nil
}

func (s *interviewService) Respond(ctx context.Context, in RespondInput) (*RespondResult, error) {
	const op = "InterviewService.Respond"

	if in.SessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}
	if in.CurrentQuestionIndex == nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, "current_question_index is required", nil)
	}
	if in.AnswerText == nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, "answer_text is required", nil)
	}
	var reqLang interview.Language
	if in.Language != "" {
		l, ok := interview.ParseLanguage(in.Language)
		if !ok {
			return nil, utils.E(utils.CodeInvalidArgument, op, "language must be en or es", nil)
		}
		reqLang = l
	}

	sess, err := s.loadSession(ctx, op, in.SessionID)
	if err != nil {
		return nil, err
	}
	log := s.log.WithFields(logrus.Fields{
		"session_id":     sess.SessionID,
		"question_index": sess.CurrentQuestionIndex,
	})

	if sess.IsCompleted() {
		metrics.ObserveTurn(metrics.TurnRejected)
		return nil, utils.E(utils.CodeConflict, op, "interview already completed", nil)
	}
	if *in.CurrentQuestionIndex != sess.CurrentQuestionIndex {
		metrics.ObserveTurn(metrics.TurnRejected)
		return nil, utils.E(utils.CodeConflict, op, "question index does not match the session", nil)
	}
	if reqLang != "" && reqLang != sess.Language {
		return nil, utils.E(utils.CodeInvalidArgument, op, "language does not match the session", nil)
	}

	tr, err := s.machine.Step(ctx, sess.Language, sess.State(), *in.AnswerText)
	if err != nil {
		if errors.Is(err, interview.ErrSessionComplete) {
			return nil, utils.E(utils.CodeConflict, op, "interview already completed", err)
		}
		metrics.ObserveTurn(metrics.TurnFailed)
		metrics.CollaboratorFailure(metrics.Interviewer)
		log.WithError(err).Error("interviewer failed; turn not recorded")
		return nil, utils.E(utils.CodeUnavailable, op, "interviewer is unavailable, please try again", err)
	}

	extracted, ignored := qualification.Decode(tr.ExtractedInfo)
	if len(ignored) > 0 {
		log.WithField("fields", ignored).Debug("ignored unknown extracted fields")
	}
	extracted = extracted.Merge(multiSelectRecord(tr.Question, *in.AnswerText))

	err = s.sessions.ApplyTurn(ctx, mongorepo.TurnUpdate{
		SessionID:     sess.SessionID,
		ExpectedIndex: tr.From,
		NextIndex:     tr.Next,
		Turns:         []interview.Turn{tr.Answer, tr.Reply},
		Extracted:     extracted,
		Complete:      tr.Complete,
		At:            tr.Answer.At,
	})
	if errors.Is(err, utils.ErrConflict) {
		metrics.ObserveTurn(metrics.TurnRejected)
		return nil, utils.E(utils.CodeConflict, op, "question index does not match the session", err)
	}
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to save turn", err)
	}

	next := sess.State().Apply(tr)
	sess.CurrentQuestionIndex = next.Index
	sess.Transcript = next.History
	sess.ExtractedData = sess.ExtractedData.Merge(extracted)
	sess.UpdatedAt = tr.Answer.At
	if tr.Complete {
		at := tr.Answer.At
		sess.Status = models.SessionCompleted
		sess.CompletedAt = &at
	}

	s.afterTurn(ctx, log, sess, tr)

	out := &RespondResult{
		InterviewerText:   tr.Reply.Text,
		NextQuestionIndex: tr.Next,
		IsComplete:        tr.Complete,
		Advanced:          tr.Advanced,
		ExtractedInfo:     tr.ExtractedInfo,
	}
	if q, ok := s.catalog.Question(sess.Language, tr.Next); ok {
		out.NextQuestion = &q
	}
	out.AudioBase64 = s.synthesize(ctx, sess.SessionID, tr.Reply.Text, sess.Language)
	return out, nil
}

// multiSelectRecord captures a multi-select answer directly so the choice
// is stored even if the interviewer did not extract it.
func multiSelectRecord(q interview.Question, answer string) qualification.Record {
	if !q.IsMultiSelect() {
		return qualification.Record{}
	}
	list := qualification.NormalizeList(answer)
	if len(list) == 0 {
		return qualification.Record{}
	}
	values := make([]any, len(list))
	for i, v := range list {
		values[i] = v
	}
	rec, _ := qualification.Decode(map[string]any{q.TargetField: values})
	if q.TargetField == "travel_locations" {
		t := true
		rec.OpenToTravel = &t
	}
	return rec
}

// afterTurn runs the side effects of an accepted turn. None of them can fail
// the turn.
func (s *interviewService) afterTurn(ctx context.Context, log *logrus.Entry, sess *models.InterviewSession, tr *interview.Transition) {
	switch {
	case tr.Complete:
		metrics.ObserveTurn(metrics.TurnCompleted)
	case tr.Advanced:
		metrics.ObserveTurn(metrics.TurnAdvanced)
	default:
		metrics.ObserveTurn(metrics.TurnClarified)
	}

	if s.responses != nil {
		row := &models.InterviewResponse{
			ID:            uuid.NewString(),
			SessionID:     sess.SessionID,
			CandidateID:   sess.CandidateID,
			QuestionIndex: tr.From,
			QuestionID:    tr.Question.ID,
			QuestionText:  tr.Question.Text,
			AnswerText:    tr.Answer.Text,
			Timestamp:     tr.Answer.At,
		}
		if len(tr.ExtractedInfo) > 0 {
			if b, err := json.Marshal(tr.ExtractedInfo); err == nil {
				row.ExtractedInfo = datatypes.JSON(b)
			}
		}
		if err := s.responses.Insert(ctx, row); err != nil {
			log.WithError(err).Warn("failed to mirror response")
		}
	}

	s.publish(ctx, events.Event{
		Type:          events.TypeTurn,
		SessionID:     sess.SessionID,
		CandidateID:   sess.CandidateID,
		QuestionIndex: tr.From,
		QuestionID:    tr.Question.ID,
		Answer:        tr.Answer.Text,
		Reply:         tr.Reply.Text,
		Complete:      tr.Complete,
		At:            tr.Answer.At,
	})
	s.refreshResume(ctx, sess)

	if !tr.Complete {
		return
	}
	s.publish(ctx, events.Event{
		Type:          events.TypeCompleted,
		SessionID:     sess.SessionID,
		CandidateID:   sess.CandidateID,
		QuestionIndex: tr.Next,
		Complete:      true,
		At:            tr.Answer.At,
	})
	if s.queue != nil {
		if err := s.queue.Enqueue(ctx, sess.SessionID); err != nil {
			log.WithError(err).Warn("failed to enqueue completed session")
		}
	}
}

func (s *interviewService) Complete(ctx context.Context, sessionID string) (*CompletionResult, error) {
	const op = "InterviewService.Complete"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}
	sess, err := s.loadSession(ctx, op, sessionID)
	if err != nil {
		return nil, err
	}
	log := s.log.WithFields(logrus.Fields{"session_id": sess.SessionID, "candidate_id": sess.CandidateID})

	if sess.Outcome != nil {
		s.syncCandidate(ctx, log, sess, false)
		return completionOf(sess), nil
	}
	if !sess.IsCompleted() {
		return nil, utils.E(utils.CodeConflict, op, "interview is not complete", nil)
	}

	rec, err := s.extractor.Extract(ctx, sess.Transcript)
	if err != nil {
		metrics.CollaboratorFailure(metrics.Extractor)
		log.WithError(err).Error("extraction failed")
		return nil, utils.E(utils.CodeUnavailable, op, "data extraction is unavailable, please try again", err)
	}

	final := sess.ExtractedData.Merge(rec).WithImpliedInsurance()
	outcome := models.Outcome{Result: qualification.Score(final), ScoredAt: s.now()}

	err = s.sessions.SaveOutcome(ctx, sess.SessionID, final, outcome)
	if errors.Is(err, utils.ErrConflict) {
		// scored concurrently; the stored outcome wins
		stored, gerr := s.loadSession(ctx, op, sessionID)
		if gerr != nil {
			return nil, gerr
		}
		if stored.Outcome == nil {
			return nil, utils.E(utils.CodeInternal, op, "outcome missing after concurrent save", err)
		}
		return completionOf(stored), nil
	}
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to save outcome", err)
	}

	sess.ExtractedData = final
	sess.Outcome = &outcome
	sess.UpdatedAt = outcome.ScoredAt

	metrics.ObserveCompletion(outcome.Passed)
	log.WithFields(logrus.Fields{
		"score":  outcome.Score,
		"passed": outcome.Passed,
	}).Info("interview scored")

	s.syncCandidate(ctx, log, sess, true)

	score, passed := outcome.Score, outcome.Passed
	s.publish(ctx, events.Event{
		Type:          events.TypeScored,
		SessionID:     sess.SessionID,
		CandidateID:   sess.CandidateID,
		QuestionIndex: sess.CurrentQuestionIndex,
		Complete:      true,
		Score:         &score,
		Passed:        &passed,
		Reason:        outcome.Reason,
		At:            outcome.ScoredAt,
	})
	s.refreshResume(ctx, sess)

	return completionOf(sess), nil
}

// syncCandidate copies the outcome onto the candidate row. Without force
// it only touches rows still pending, which repairs an earlier failed sync.
func (s *interviewService) syncCandidate(ctx context.Context, log *logrus.Entry, sess *models.InterviewSession, force bool) {
	if s.candidates == nil || sess.Outcome == nil {
		return
	}
	cand, err := s.candidates.GetByID(ctx, sess.CandidateID)
	if err != nil {
		log.WithError(err).Warn("candidate not loaded for outcome sync")
		return
	}
	if !force && cand.Status != models.CandidatePending {
		return
	}

	cand.ApplyRecord(sess.ExtractedData)
	cand.ApplyResult(sess.Outcome.Result)
	if b, err := json.Marshal(sess.ExtractedData); err == nil {
		cand.ExtractedData = datatypes.JSON(b)
	}
	if err := s.candidates.Save(ctx, cand); err != nil {
		log.WithError(err).Error("failed to update candidate with outcome")
	}
}

func completionOf(sess *models.InterviewSession) *CompletionResult {
	return &CompletionResult{
		SessionID:     sess.SessionID,
		Result:        sess.Outcome.Result,
		ExtractedData: sess.ExtractedData,
	}
}

func (s *interviewService) loadSession(ctx context.Context, op, sessionID string) (*models.InterviewSession, error) {
	sess, err := s.sessions.GetBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "session not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load session", err)
	}
	return sess, nil
}

func (s *interviewService) resumeStateOf(sess *models.InterviewSession) *ResumeState {
	st := &ResumeState{
		SessionID:            sess.SessionID,
		CandidateID:          sess.CandidateID,
		Language:             sess.Language,
		CurrentQuestionIndex: sess.CurrentQuestionIndex,
		Status:               sess.Status,
		Transcript:           sess.Transcript,
		TotalQuestions:       s.catalog.Count(),
	}
	if st.Transcript == nil {
		st.Transcript = []interview.Turn{}
	}
	if !sess.IsCompleted() {
		if q, ok := s.catalog.Question(sess.Language, sess.CurrentQuestionIndex); ok {
			st.CurrentQuestion = &q
		}
	}
	if sess.Outcome != nil {
		r := sess.Outcome.Result
		st.Outcome = &r
	}
	return st
}

func (s *interviewService) refreshResume(ctx context.Context, sess *models.InterviewSession) *ResumeState {
	st := s.resumeStateOf(sess)
	if s.cache == nil {
		return st
	}
	key := cache.ResumeKey(sess.SessionID)
	if err := s.cache.SetJSON(ctx, key, st, s.resumeTTL); err != nil {
		log := s.log.WithError(err).WithField("session_id", sess.SessionID)
		log.Warn("resume cache write failed")
		// a stale entry would replay an old question index; drop it so the
		// next Resume rebuilds from the store
		if derr := s.cache.Del(ctx, key); derr != nil {
			log.WithField("del_error", derr.Error()).Warn("resume cache invalidation failed")
		}
	}
	return st
}

func (s *interviewService) publish(ctx context.Context, e events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, e); err != nil {
		s.log.WithError(err).WithField("session_id", e.SessionID).Warn("failed to publish event")
	}
}

// synthesize returns base64 audio for text, or "" when speech is disabled
// or fails.
func (s *interviewService) synthesize(ctx context.Context, sessionID, text string, lang interview.Language) string {
	if s.speech == nil || text == "" {
		return ""
	}
	audio, err := s.speech.Synthesize(ctx, text, lang)
	if err != nil {
		metrics.CollaboratorFailure(metrics.TTS)
		s.log.WithError(err).WithField("session_id", sessionID).Warn("speech synthesis failed; returning text only")
		return ""
	}
	return base64.StdEncoding.EncodeToString(audio)
}

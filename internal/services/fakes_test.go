package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/yoockh/floorscreen/internal/events"
	"github.com/yoockh/floorscreen/internal/interview"
	"github.com/yoockh/floorscreen/internal/models"
	"github.com/yoockh/floorscreen/internal/qualification"
	mongorepo "github.com/yoockh/floorscreen/internal/repositories/mongo"
	pgrepo "github.com/yoockh/floorscreen/internal/repositories/postgres"
	"github.com/yoockh/floorscreen/internal/utils"
)

type fakeSessions struct {
	mu   sync.Mutex
	byID map[string]models.InterviewSession
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{byID: map[string]models.InterviewSession{}}
}

func copySession(s models.InterviewSession) models.InterviewSession {
	s.Transcript = append([]interview.Turn(nil), s.Transcript...)
	if s.Outcome != nil {
		o := *s.Outcome
		s.Outcome = &o
	}
	return s
}

func (f *fakeSessions) Create(_ context.Context, s *models.InterviewSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[s.SessionID]; ok {
		return utils.ErrConflict
	}
	f.byID[s.SessionID] = copySession(*s)
	return nil
}

func (f *fakeSessions) GetBySessionID(_ context.Context, id string) (*models.InterviewSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	c := copySession(s)
	return &c, nil
}

func (f *fakeSessions) ApplyTurn(_ context.Context, u mongorepo.TurnUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[u.SessionID]
	if !ok || s.Status != models.SessionInProgress || s.CurrentQuestionIndex != u.ExpectedIndex {
		return utils.ErrConflict
	}
	s.CurrentQuestionIndex = u.NextIndex
	s.Transcript = append(s.Transcript, u.Turns...)
	s.ExtractedData = s.ExtractedData.Merge(u.Extracted)
	s.UpdatedAt = u.At
	if u.Complete {
		at := u.At
		s.Status = models.SessionCompleted
		s.CompletedAt = &at
	}
	f.byID[u.SessionID] = s
	return nil
}

func (f *fakeSessions) SaveOutcome(_ context.Context, id string, extracted qualification.Record, o models.Outcome) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[id]
	if !ok || s.Status != models.SessionCompleted || s.Outcome != nil {
		return utils.ErrConflict
	}
	s.ExtractedData = extracted
	s.Outcome = &o
	f.byID[id] = s
	return nil
}

func (f *fakeSessions) ListByCandidate(_ context.Context, candidateID string, _ int64) ([]models.InterviewSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.InterviewSession
	for _, s := range f.byID {
		if s.CandidateID == candidateID {
			out = append(out, copySession(s))
		}
	}
	return out, nil
}

func (f *fakeSessions) CountStale(_ context.Context, olderThan time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, s := range f.byID {
		if s.Status == models.SessionInProgress && s.UpdatedAt.Before(olderThan) {
			n++
		}
	}
	return n, nil
}

// set overwrites a stored session, for arranging a test.
func (f *fakeSessions) set(s models.InterviewSession) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[s.SessionID] = copySession(s)
}

func (f *fakeSessions) get(id string) models.InterviewSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	return copySession(f.byID[id])
}

type fakeCandidates struct {
	mu      sync.Mutex
	byID    map[string]models.Candidate
	saveErr error
	listed  pgrepo.CandidateFilter
}

func newFakeCandidates() *fakeCandidates {
	return &fakeCandidates{byID: map[string]models.Candidate{}}
}

func (f *fakeCandidates) Create(_ context.Context, c *models.Candidate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if strings.EqualFold(existing.Email, c.Email) {
			return utils.ErrConflict
		}
	}
	f.byID[c.ID] = *c
	return nil
}

func (f *fakeCandidates) GetByID(_ context.Context, id string) (*models.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return &c, nil
}

func (f *fakeCandidates) GetByEmail(_ context.Context, email string) (*models.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.byID {
		if strings.EqualFold(c.Email, email) {
			c := c
			return &c, nil
		}
	}
	return nil, utils.ErrNotFound
}

func (f *fakeCandidates) List(_ context.Context, filter pgrepo.CandidateFilter) ([]models.Candidate, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listed = filter
	if filter.Experience != "" {
		if _, _, ok := pgrepo.ParseExperienceRange(filter.Experience); !ok {
			return nil, 0, pgrepo.ErrInvalidFilter
		}
	}
	var out []models.Candidate
	for _, c := range f.byID {
		out = append(out, c)
	}
	return out, int64(len(out)), nil
}

func (f *fakeCandidates) Save(_ context.Context, c *models.Candidate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.byID[c.ID] = *c
	return nil
}

func (f *fakeCandidates) Updates(_ context.Context, id string, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return utils.ErrNotFound
	}
	if v, ok := fields["notes"].(string); ok {
		c.Notes = &v
	}
	if v, ok := fields["status"].(string); ok {
		c.Status = models.CandidateStatus(v)
	}
	if v, ok := fields["first_name"].(string); ok {
		c.FirstName = v
	}
	f.byID[id] = c
	return nil
}

func (f *fakeCandidates) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return utils.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeCandidates) get(id string) models.Candidate {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[id]
}

type fakeResponses struct {
	mu   sync.Mutex
	rows []models.InterviewResponse
	err  error
}

func (f *fakeResponses) Insert(_ context.Context, r *models.InterviewResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, *r)
	return nil
}

func (f *fakeResponses) ListBySession(_ context.Context, sessionID string) ([]models.InterviewResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.InterviewResponse
	for _, r := range f.rows {
		if r.SessionID == sessionID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeResponses) ListByCandidate(_ context.Context, candidateID string, _ int) ([]models.InterviewResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.InterviewResponse
	for _, r := range f.rows {
		if r.CandidateID == candidateID {
			out = append(out, r)
		}
	}
	return out, nil
}

type responderFunc func(ctx context.Context, req interview.ResponseRequest) (*interview.Reply, error)

func (f responderFunc) Respond(ctx context.Context, req interview.ResponseRequest) (*interview.Reply, error) {
	return f(ctx, req)
}

func alwaysAdvance() responderFunc {
	return func(context.Context, interview.ResponseRequest) (*interview.Reply, error) {
		return &interview.Reply{Text: "Thanks. Next question.", Advance: true}, nil
	}
}

type stubExtractor struct {
	rec   qualification.Record
	err   error
	calls int
}

func (s *stubExtractor) Extract(context.Context, []interview.Turn) (qualification.Record, error) {
	s.calls++
	return s.rec, s.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type recordingQueue struct {
	mu  sync.Mutex
	ids []string
}

func (q *recordingQueue) Enqueue(_ context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ids = append(q.ids, id)
	return nil
}

type failingSpeech struct{}

func (failingSpeech) Synthesize(context.Context, string, interview.Language) ([]byte, error) {
	return nil, errors.New("tts down")
}

type fixedSpeech struct{ audio []byte }

func (s fixedSpeech) Synthesize(context.Context, string, interview.Language) ([]byte, error) {
	return s.audio, nil
}

func (failingSpeech) Close() error { return nil }
func (fixedSpeech) Close() error   { return nil }

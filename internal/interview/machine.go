package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleCandidate   Role = "candidate"
	RoleInterviewer Role = "interviewer"
)

type Turn struct {
	Role          Role      `bson:"role" json:"role"`
	Text          string    `bson:"text" json:"text"`
	QuestionID    string    `bson:"question_id,omitempty" json:"question_id,omitempty"`
	QuestionIndex int       `bson:"question_index" json:"question_index"`
	At            time.Time `bson:"at" json:"at"`
}

// State is the conversation position of one session.
type State struct {
	Index     int
	History   []Turn
	Completed bool
}

var (
	ErrSessionComplete = errors.New("interview: session already complete")
	ErrIndexOutOfRange = errors.New("interview: question index out of range")
)

// ResponseRequest is what the conversational collaborator sees for one turn.
// NextIndexHint is the skip-adjusted index the reply should lead into; Next is
// nil when the hint is past the last question.
type ResponseRequest struct {
	Language      Language
	History       []Turn
	CurrentIndex  int
	Current       Question
	NextIndexHint int
	Next          *Question
}

type Reply struct {
	Text          string
	Advance       bool
	ExtractedInfo map[string]any
}

// Responder produces the interviewer's next line and decides whether the
// candidate's answer was sufficient.
type Responder interface {
	Respond(ctx context.Context, req ResponseRequest) (*Reply, error)
}

// Transition describes the outcome of one candidate answer. It is computed
// without touching State; callers persist it and then call State.Apply.
type Transition struct {
	From          int
	Next          int
	Question      Question
	Answer        Turn
	Reply         Turn
	Advanced      bool
	Complete      bool
	Clarified     bool
	ExtractedInfo map[string]any
}

// NewState seeds the first question as the opening interviewer turn.
func NewState(c *Catalog, lang Language, now time.Time) State {
	st := State{}
	if q, ok := c.Question(lang, 0); ok {
		st.History = append(st.History, Turn{
			Role:          RoleInterviewer,
			Text:          q.Text,
			QuestionID:    q.ID,
			QuestionIndex: 0,
			At:            now,
		})
	}
	return st
}

// Apply returns the state after t has been accepted.
func (s State) Apply(t *Transition) State {
	history := make([]Turn, 0, len(s.History)+2)
	history = append(history, s.History...)
	history = append(history, t.Answer, t.Reply)
	return State{Index: t.Next, History: history, Completed: s.Completed || t.Complete}
}

// SkipAdjustedNext returns the index that follows current, skipping a
// follow-up question made irrelevant by the answer:
//   - "crew" answered negatively skips "crew_size"
//   - "background_check" answered affirmatively skips "background_details"
func SkipAdjustedNext(qs []Question, current int, answer string) int {
	next := current + 1
	if current < 0 || current >= len(qs) || next >= len(qs) {
		return next
	}

	switch {
	case qs[current].ID == "crew" && qs[next].ID == "crew_size" && IsNegative(answer):
		return next + 1
	case qs[current].ID == "background_check" && qs[next].ID == "background_details" && IsAffirmative(answer):
		return next + 1
	}
	return next
}

type Machine struct {
	catalog   *Catalog
	responder Responder
	now       func() time.Time
}

func NewMachine(c *Catalog, r Responder) *Machine {
	return &Machine{catalog: c, responder: r, now: func() time.Time { return time.Now().UTC() }}
}

// Step evaluates one candidate answer against state. A responder failure is
// returned as-is and no transition is produced.
func (m *Machine) Step(ctx context.Context, lang Language, st State, answer string) (*Transition, error) {
	qs := m.catalog.Questions(lang)
	if st.Completed || st.Index >= len(qs) {
		return nil, ErrSessionComplete
	}
	if st.Index < 0 {
		return nil, ErrIndexOutOfRange
	}

	now := m.now()
	current := qs[st.Index]
	t := &Transition{
		From:     st.Index,
		Question: current,
		Answer: Turn{
			Role:          RoleCandidate,
			Text:          answer,
			QuestionID:    current.ID,
			QuestionIndex: st.Index,
			At:            now,
		},
	}

	// Any answer to the closing question ends the interview.
	if current.ID == ClosingID {
		t.Next = len(qs)
		t.Advanced = true
		t.Complete = true
		t.Reply = m.interviewerTurn(m.catalog.ClosingAcknowledgment(lang), current, st.Index, now)
		return t, nil
	}

	// An empty answer is re-asked without consulting the responder.
	if strings.TrimSpace(answer) == "" {
		t.Next = st.Index
		t.Clarified = true
		text := m.catalog.Clarification(lang) + " " + current.Text
		t.Reply = m.interviewerTurn(text, current, st.Index, now)
		return t, nil
	}

	hint := SkipAdjustedNext(qs, st.Index, answer)
	req := ResponseRequest{
		Language:      lang,
		History:       append(append([]Turn(nil), st.History...), t.Answer),
		CurrentIndex:  st.Index,
		Current:       current,
		NextIndexHint: hint,
	}
	if hint < len(qs) {
		next := qs[hint]
		req.Next = &next
	}

	reply, err := m.responder.Respond(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("interview: responder: %w", err)
	}
	if reply == nil || strings.TrimSpace(reply.Text) == "" {
		return nil, errors.New("interview: responder returned an empty reply")
	}

	t.ExtractedInfo = reply.ExtractedInfo
	t.Next = st.Index
	if reply.Advance {
		t.Next = hint
		t.Advanced = true
	} else {
		t.Clarified = true
	}
	t.Complete = t.Next >= len(qs)

	replyIndex := t.Next
	replyQuestion := current
	if t.Advanced && hint < len(qs) {
		replyQuestion = qs[hint]
	}
	t.Reply = m.interviewerTurn(reply.Text, replyQuestion, replyIndex, now)
	return t, nil
}

func (m *Machine) interviewerTurn(text string, q Question, index int, at time.Time) Turn {
	return Turn{Role: RoleInterviewer, Text: strings.TrimSpace(text), QuestionID: q.ID, QuestionIndex: index, At: at}
}

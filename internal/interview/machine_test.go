package interview

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResponder struct {
	reply *Reply
	err   error
	calls []ResponseRequest
}

func (s *stubResponder) Respond(_ context.Context, req ResponseRequest) (*Reply, error) {
	s.calls = append(s.calls, req)
	if s.err != nil {
		return nil, s.err
	}
	return s.reply, nil
}

func advancing() *stubResponder {
	return &stubResponder{reply: &Reply{Text: "Thanks! Next question.", Advance: true}}
}

var fixedNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func newTestMachine(t *testing.T, r Responder) (*Machine, *Catalog) {
	t.Helper()
	c := mustCatalog(t)
	m := NewMachine(c, r)
	m.now = func() time.Time { return fixedNow }
	return m, c
}

func stateAt(c *Catalog, id string) State {
	return State{Index: c.IndexOf(English, id)}
}

func TestNewStateSeedsFirstQuestion(t *testing.T) {
	c := mustCatalog(t)
	st := NewState(c, Spanish, fixedNow)

	assert.Equal(t, 0, st.Index)
	assert.False(t, st.Completed)
	require.Len(t, st.History, 1)
	first, _ := c.Question(Spanish, 0)
	assert.Equal(t, RoleInterviewer, st.History[0].Role)
	assert.Equal(t, first.Text, st.History[0].Text)
}

func TestSkipCrewSizeOnNegativeAnswer(t *testing.T) {
	r := advancing()
	m, c := newTestMachine(t, r)

	tr, err := m.Step(context.Background(), English, stateAt(c, "crew"), "No, I work by myself")
	require.NoError(t, err)
	assert.Equal(t, c.IndexOf(English, "crew_size")+1, tr.Next)
	assert.NotEqual(t, c.IndexOf(English, "crew_size"), tr.Next)

	require.Len(t, r.calls, 1)
	assert.Equal(t, tr.Next, r.calls[0].NextIndexHint)
	require.NotNil(t, r.calls[0].Next)
	assert.Equal(t, "tools", r.calls[0].Next.ID)
}

func TestCrewSizeAskedOnAffirmativeAnswer(t *testing.T) {
	m, c := newTestMachine(t, advancing())

	tr, err := m.Step(context.Background(), English, stateAt(c, "crew"), "Yes, four guys")
	require.NoError(t, err)
	assert.Equal(t, c.IndexOf(English, "crew_size"), tr.Next)
	assert.Equal(t, "crew_size", tr.Reply.QuestionID)
}

func TestSkipBackgroundDetailsOnAffirmativeAnswer(t *testing.T) {
	m, c := newTestMachine(t, advancing())

	tr, err := m.Step(context.Background(), English, stateAt(c, "background_check"), "yes")
	require.NoError(t, err)
	assert.Equal(t, c.IndexOf(English, "background_details")+1, tr.Next)

	tr, err = m.Step(context.Background(), English, stateAt(c, "background_check"), "there is something from 2010")
	require.NoError(t, err)
	assert.Equal(t, c.IndexOf(English, "background_details"), tr.Next)
}

func TestSkipCrewSizeOnGenerousNegatives(t *testing.T) {
	c := mustCatalog(t)
	qs := c.Questions(English)
	crew := c.IndexOf(English, "crew")
	crewSize := c.IndexOf(English, "crew_size")
	require.Equal(t, crew+1, crewSize)

	for _, a := range []string{"nobody, just me", "Not really", "Nope-just me"} {
		assert.Equal(t, crewSize+1, SkipAdjustedNext(qs, crew, a), a)
	}
	assert.Equal(t, crewSize, SkipAdjustedNext(qs, crew, "Yes, four guys"))
}

func TestSkipAdjustedNextBounds(t *testing.T) {
	qs := []Question{{ID: "intro"}, {ID: "crew"}}
	assert.Equal(t, 2, SkipAdjustedNext(qs, 1, "no"))
	assert.Equal(t, 1, SkipAdjustedNext(qs, 0, "no"))

	// crew_size is only skipped when it directly follows crew
	qs = []Question{{ID: "crew"}, {ID: "tools"}, {ID: "crew_size"}}
	assert.Equal(t, 1, SkipAdjustedNext(qs, 0, "no"))
}

func TestStepWithoutAdvanceKeepsIndex(t *testing.T) {
	r := &stubResponder{reply: &Reply{Text: "Could you give me a number of years?", Advance: false}}
	m, c := newTestMachine(t, r)
	st := stateAt(c, "experience")

	tr, err := m.Step(context.Background(), English, st, "a while")
	require.NoError(t, err)
	assert.Equal(t, st.Index, tr.Next)
	assert.False(t, tr.Advanced)
	assert.True(t, tr.Clarified)
	assert.False(t, tr.Complete)
	assert.Equal(t, "experience", tr.Reply.QuestionID)
}

func TestStepCarriesExtractedInfo(t *testing.T) {
	r := &stubResponder{reply: &Reply{Text: "Great.", Advance: true, ExtractedInfo: map[string]any{"yearsOfExperience": 7}}}
	m, c := newTestMachine(t, r)

	tr, err := m.Step(context.Background(), English, stateAt(c, "experience"), "seven years")
	require.NoError(t, err)
	assert.Equal(t, 7, tr.ExtractedInfo["yearsOfExperience"])
	assert.Equal(t, RoleCandidate, tr.Answer.Role)
	assert.Equal(t, "experience", tr.Answer.QuestionID)
	assert.Equal(t, fixedNow, tr.Answer.At)
}

func TestEmptyAnswerIsClarifiedWithoutResponder(t *testing.T) {
	r := advancing()
	m, c := newTestMachine(t, r)
	st := stateAt(c, "tools")

	tr, err := m.Step(context.Background(), Spanish, st, "   ")
	require.NoError(t, err)
	assert.Empty(t, r.calls)
	assert.Equal(t, st.Index, tr.Next)
	assert.True(t, tr.Clarified)
	assert.Contains(t, tr.Reply.Text, c.Clarification(Spanish))
}

func TestClosingAlwaysCompletes(t *testing.T) {
	for _, answer := range []string{"", "nothing else, thanks"} {
		r := &stubResponder{reply: &Reply{Text: "ignored", Advance: false}}
		m, c := newTestMachine(t, r)

		tr, err := m.Step(context.Background(), English, stateAt(c, ClosingID), answer)
		require.NoError(t, err)
		assert.True(t, tr.Complete, answer)
		assert.Equal(t, c.Count(), tr.Next)
		assert.Equal(t, c.ClosingAcknowledgment(English), tr.Reply.Text)
		assert.Empty(t, r.calls)
	}
}

func TestStepRejectsCompletedState(t *testing.T) {
	m, c := newTestMachine(t, advancing())

	_, err := m.Step(context.Background(), English, State{Index: c.Count()}, "hello")
	assert.ErrorIs(t, err, ErrSessionComplete)

	_, err = m.Step(context.Background(), English, State{Index: 3, Completed: true}, "hello")
	assert.ErrorIs(t, err, ErrSessionComplete)

	_, err = m.Step(context.Background(), English, State{Index: -1}, "hello")
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestResponderFailureProducesNoTransition(t *testing.T) {
	boom := errors.New("upstream down")
	m, c := newTestMachine(t, &stubResponder{err: boom})
	st := NewState(c, English, fixedNow)

	tr, err := m.Step(context.Background(), English, st, "Jane Doe")
	assert.Nil(t, tr)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, st.Index)
	assert.Len(t, st.History, 1)
}

func TestEmptyResponderReplyIsAnError(t *testing.T) {
	m, _ := newTestMachine(t, &stubResponder{reply: &Reply{Text: " ", Advance: true}})
	_, err := m.Step(context.Background(), English, State{}, "Jane Doe")
	assert.Error(t, err)
}

func TestFullInterviewIndexIsMonotonic(t *testing.T) {
	m, c := newTestMachine(t, advancing())
	st := NewState(c, English, fixedNow)

	answers := map[string]string{"crew": "no", "background_check": "yes"}
	prev := st.Index
	steps := 0
	for !st.Completed {
		q, ok := c.Question(English, st.Index)
		require.True(t, ok)
		answer := answers[q.ID]
		if answer == "" {
			answer = "some answer"
		}
		tr, err := m.Step(context.Background(), English, st, answer)
		require.NoError(t, err)
		st = st.Apply(tr)
		assert.GreaterOrEqual(t, st.Index, prev)
		prev = st.Index
		steps++
		require.Less(t, steps, 100)
	}

	// two skipped questions
	assert.Equal(t, c.Count()-2, steps)
	assert.Equal(t, c.Count(), st.Index)
	assert.Len(t, st.History, 1+2*steps)

	_, err := m.Step(context.Background(), English, st, "again")
	assert.ErrorIs(t, err, ErrSessionComplete)
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/yoockh/floorscreen/internal/interview"
	"github.com/yoockh/floorscreen/internal/providers/llm"
)

const interviewerSystem = `You are a friendly, professional interviewer prescreening flooring installers.
Keep replies short and conversational, one or two sentences, suitable for being read aloud.
Acknowledge the candidate's answer, then either move on to the next question or ask a brief
follow-up when the answer does not address the current question.`

// Interviewer is the language-model backed conversational responder.
type Interviewer struct {
	llm llm.Provider
}

func NewInterviewer(p llm.Provider) *Interviewer {
	return &Interviewer{llm: p}
}

type interviewerReply struct {
	Response      string         `json:"response"`
	Advance       *bool          `json:"shouldMoveToNextQuestion"`
	ExtractedInfo map[string]any `json:"extractedInfo"`
}

func (i *Interviewer) Respond(ctx context.Context, req interview.ResponseRequest) (*interview.Reply, error) {
	raw, err := llm.Collect(ctx, i.llm, llm.Request{
		System:      interviewerSystem,
		Prompt:      interviewerPrompt(req),
		JSON:        true,
		Temperature: 0.7,
	})
	if err != nil {
		return nil, err
	}
	return parseInterviewerReply(raw)
}

func interviewerPrompt(req interview.ResponseRequest) string {
	var b strings.Builder

	if req.Language == interview.Spanish {
		b.WriteString("Respond entirely in Spanish.\n\n")
	} else {
		b.WriteString("Respond in English.\n\n")
	}

	b.WriteString("Conversation so far:\n")
	for _, t := range req.History {
		who := "Interviewer"
		if t.Role == interview.RoleCandidate {
			who = "Candidate"
		}
		fmt.Fprintf(&b, "%s: %s\n", who, t.Text)
	}

	fmt.Fprintf(&b, "\nCurrent question (%s, collects %s): %q\n", req.Current.ID, req.Current.TargetField, req.Current.Text)
	if req.Next != nil {
		fmt.Fprintf(&b, "If the answer is sufficient, transition to this next question: %q\n", req.Next.Text)
	} else {
		b.WriteString("There are no more questions after this one. If the answer is sufficient, thank the candidate.\n")
	}

	b.WriteString(`
Return a JSON object with:
- response: what you say to the candidate
- shouldMoveToNextQuestion: true only if the current question was adequately answered
- extractedInfo: object with any data points from the candidate's last answer, using camelCase field names`)
	return b.String()
}

var errEmptyReply = errors.New("interviewer reply has no response text")

// parseInterviewerReply accepts the JSON object with or without a markdown
// code fence around it.
func parseInterviewerReply(raw string) (*interview.Reply, error) {
	var r interviewerReply
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &r); err != nil {
		return nil, fmt.Errorf("decode interviewer reply: %w", err)
	}
	if strings.TrimSpace(r.Response) == "" {
		return nil, errEmptyReply
	}
	return &interview.Reply{
		Text:          strings.TrimSpace(r.Response),
		Advance:       r.Advance != nil && *r.Advance,
		ExtractedInfo: r.ExtractedInfo,
	}, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:] // language tag line
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

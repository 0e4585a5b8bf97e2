package models

import (
	"time"

	"github.com/yoockh/floorscreen/internal/interview"
	"github.com/yoockh/floorscreen/internal/qualification"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
)

type InterviewSession struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	SessionID   string             `bson:"session_id" json:"session_id"`
	CandidateID string             `bson:"candidate_id" json:"candidate_id"`

	Language             interview.Language `bson:"language" json:"language"`
	CatalogVersion       int                `bson:"catalog_version" json:"catalog_version"`
	CurrentQuestionIndex int                `bson:"current_question_index" json:"current_question_index"`
	Transcript           []interview.Turn   `bson:"transcript" json:"transcript"`

	ExtractedData qualification.Record `bson:"extracted_data" json:"extracted_data"`
	Status        SessionStatus        `bson:"status" json:"status"`
	Outcome       *Outcome             `bson:"outcome,omitempty" json:"outcome,omitempty"`

	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
	CompletedAt *time.Time `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
}

// Outcome is the scoring result stored once per completed session.
type Outcome struct {
	qualification.Result `bson:",inline"`
	ScoredAt             time.Time `bson:"scored_at" json:"scored_at"`
}

func (s *InterviewSession) IsCompleted() bool { return s.Status == SessionCompleted }

// State is the conversation position the state machine works from.
func (s *InterviewSession) State() interview.State {
	return interview.State{
		Index:     s.CurrentQuestionIndex,
		History:   s.Transcript,
		Completed: s.IsCompleted(),
	}
}

package models

import (
	"time"

	"gorm.io/datatypes"
)

// InterviewResponse mirrors one accepted candidate answer for the dashboard.
type InterviewResponse struct {
	ID            string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SessionID     string         `gorm:"column:session_id;type:text;index:idx_responses_session" json:"session_id"`
	CandidateID   string         `gorm:"column:candidate_id;type:uuid;index" json:"candidate_id"`
	QuestionIndex int            `gorm:"column:question_index;type:integer;index:idx_responses_session" json:"question_index"`
	QuestionID    string         `gorm:"column:question_id;type:text" json:"question_id"`
	QuestionText  string         `gorm:"column:question_text;type:text" json:"question_text"`
	AnswerText    string         `gorm:"column:answer_text;type:text" json:"answer_text"`
	ExtractedInfo datatypes.JSON `gorm:"column:extracted_info;type:jsonb" json:"extracted_info,omitempty"`
	Timestamp     time.Time      `gorm:"column:timestamp;type:timestamptz" json:"timestamp"`
}

func (InterviewResponse) TableName() string { return "interview_responses" }

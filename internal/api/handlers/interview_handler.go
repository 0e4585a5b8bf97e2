package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/floorscreen/internal/interview"
	"github.com/yoockh/floorscreen/internal/qualification"
	"github.com/yoockh/floorscreen/internal/services"
	"github.com/yoockh/floorscreen/internal/utils"
)

// MaxAudioBytes bounds one uploaded answer recording.
const MaxAudioBytes = 10 << 20

type InterviewHandler struct {
	interviews services.InterviewService
	speech     services.TranscriptionService
}

func NewInterviewHandler(interviews services.InterviewService, speech services.TranscriptionService) *InterviewHandler {
	return &InterviewHandler{interviews: interviews, speech: speech}
}

type StartInterviewRequest struct {
	Email     string `json:"email" binding:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Language  string `json:"language"` // en|es
}

type QuestionView struct {
	Index  int              `json:"index"`
	ID     string           `json:"id"`
	Text   string           `json:"text"`
	UIHint interview.UIHint `json:"ui_hint,omitempty"`
}

type StartInterviewResponse struct {
	SessionID       string             `json:"session_id"`
	CandidateID     string             `json:"candidate_id"`
	Language        interview.Language `json:"language"`
	CurrentQuestion QuestionView       `json:"current_question"`
	AudioBase64     string             `json:"audio_base64,omitempty"`
	TotalQuestions  int                `json:"total_questions"`
}

type RespondRequest struct {
	SessionID            string  `json:"session_id" binding:"required"`
	CurrentQuestionIndex *int    `json:"current_question_index"`
	AnswerText           *string `json:"answer_text"`
	Language             string  `json:"language"`
}

type RespondResponse struct {
	InterviewerText   string         `json:"interviewer_text"`
	AudioBase64       string         `json:"audio_base64,omitempty"`
	NextQuestionIndex int            `json:"next_question_index"`
	IsComplete        bool           `json:"is_complete"`
	NextQuestion      *QuestionView  `json:"next_question,omitempty"`
	ExtractedInfo     map[string]any `json:"extracted_info,omitempty"`
}

type CompleteRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

type CompleteResponse struct {
	SessionID     string               `json:"session_id"`
	Score         int                  `json:"score"`
	Passed        bool                 `json:"passed"`
	Reason        string               `json:"reason"`
	ExtractedData qualification.Record `json:"extracted_data"`
}

func (h *InterviewHandler) Start(c *gin.Context) {
	var req StartInterviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "InterviewHandler.Start", "invalid request body", err)
		return
	}

	res, err := h.interviews.Start(c.Request.Context(), services.StartInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Language:  req.Language,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, StartInterviewResponse{
		SessionID:       res.SessionID,
		CandidateID:     res.CandidateID,
		Language:        res.Language,
		CurrentQuestion: questionView(res.QuestionIndex, res.Question),
		AudioBase64:     res.AudioBase64,
		TotalQuestions:  res.TotalQuestions,
	})
}

func (h *InterviewHandler) Respond(c *gin.Context) {
	var req RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "InterviewHandler.Respond", "invalid request body", err)
		return
	}

	res, err := h.interviews.Respond(c.Request.Context(), services.RespondInput{
		SessionID:            req.SessionID,
		CurrentQuestionIndex: req.CurrentQuestionIndex,
		AnswerText:           req.AnswerText,
		Language:             req.Language,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	out := RespondResponse{
		InterviewerText:   res.InterviewerText,
		AudioBase64:       res.AudioBase64,
		NextQuestionIndex: res.NextQuestionIndex,
		IsComplete:        res.IsComplete,
		ExtractedInfo:     res.ExtractedInfo,
	}
	if res.NextQuestion != nil {
		v := questionView(res.NextQuestionIndex, *res.NextQuestion)
		out.NextQuestion = &v
	}
	c.JSON(http.StatusOK, out)
}

// Transcribe accepts a multipart form with an "audio" file.
func (h *InterviewHandler) Transcribe(c *gin.Context) {
	const op = "InterviewHandler.Transcribe"

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxAudioBytes+1<<20)
	fh, err := c.FormFile("audio")
	if err != nil {
		badRequest(c, op, "audio file is required", err)
		return
	}
	if fh.Size > MaxAudioBytes {
		badRequest(c, op, "audio file is too large", nil)
		return
	}

	f, err := fh.Open()
	if err != nil {
		badRequest(c, op, "unreadable audio file", err)
		return
	}
	defer f.Close()
	audio, err := io.ReadAll(io.LimitReader(f, MaxAudioBytes))
	if err != nil {
		badRequest(c, op, "unreadable audio file", err)
		return
	}

	qIdx := 0
	if v := c.PostForm("question_index"); v != "" {
		qIdx, err = strconv.Atoi(v)
		if err != nil || qIdx < 0 {
			badRequest(c, op, "question_index must be a non-negative integer", err)
			return
		}
	}

	res, err := h.speech.Transcribe(c.Request.Context(), services.TranscribeInput{
		SessionID:     c.PostForm("session_id"),
		QuestionIndex: qIdx,
		Language:      c.PostForm("language"),
		Audio:         audio,
		MimeType:      fh.Header.Get("Content-Type"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *InterviewHandler) Complete(c *gin.Context) {
	var req CompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "InterviewHandler.Complete", "invalid request body", err)
		return
	}

	res, err := h.interviews.Complete(c.Request.Context(), req.SessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, CompleteResponse{
		SessionID:     res.SessionID,
		Score:         res.Result.Score,
		Passed:        res.Result.Passed,
		Reason:        res.Result.Reason,
		ExtractedData: res.ExtractedData,
	})
}

func (h *InterviewHandler) Resume(c *gin.Context) {
	sessionID := c.Param("session_id")
	if sessionID == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, "InterviewHandler.Resume", "missing session_id", nil))
		return
	}

	st, err := h.interviews.Resume(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func questionView(i int, q interview.Question) QuestionView {
	return QuestionView{Index: i, ID: q.ID, Text: q.Text, UIHint: q.UIHint}
}

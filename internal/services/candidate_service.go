package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yoockh/floorscreen/internal/models"
	mongorepo "github.com/yoockh/floorscreen/internal/repositories/mongo"
	pgrepo "github.com/yoockh/floorscreen/internal/repositories/postgres"
	"github.com/yoockh/floorscreen/internal/utils"
)

type CandidateService interface {
	List(ctx context.Context, f pgrepo.CandidateFilter) (*CandidatePage, error)
	Get(ctx context.Context, id string) (*CandidateDetail, error)
	Create(ctx context.Context, in CandidateInput) (*models.Candidate, error)
	Update(ctx context.Context, id string, in CandidatePatch) (*models.Candidate, error)
	Delete(ctx context.Context, id string) error
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

type CandidatePage struct {
	Installers []models.Candidate `json:"installers"`
	Pagination Pagination         `json:"pagination"`
}

type CandidateDetail struct {
	Installer *models.Candidate          `json:"installer"`
	Sessions  []models.InterviewSession  `json:"sessions"`
	Responses []models.InterviewResponse `json:"responses"`
}

type CandidateInput struct {
	Email     string `json:"email" binding:"required,email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// CandidatePatch updates only the non-nil fields.
type CandidatePatch struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
	Notes     *string `json:"notes"`
	Status    *string `json:"status"`
}

type candidateService struct {
	candidates pgrepo.CandidateRepository
	responses  pgrepo.ResponseRepository
	sessions   mongorepo.SessionRepository
}

func NewCandidateService(c pgrepo.CandidateRepository, r pgrepo.ResponseRepository, s mongorepo.SessionRepository) CandidateService {
	return &candidateService{candidates: c, responses: r, sessions: s}
}

func (s *candidateService) List(ctx context.Context, f pgrepo.CandidateFilter) (*CandidatePage, error) {
	const op = "CandidateService.List"

	if f.Status != "" && f.Status != "all" && !models.CandidateStatus(f.Status).Valid() {
		return nil, utils.E(utils.CodeInvalidArgument, op, "invalid status", nil)
	}
	f.Page, f.Limit = pgrepo.NormalizePage(f.Page, f.Limit)

	rows, total, err := s.candidates.List(ctx, f)
	if errors.Is(err, pgrepo.ErrInvalidFilter) {
		return nil, utils.E(utils.CodeInvalidArgument, op, "invalid experience range", err)
	}
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list installers", err)
	}
	if rows == nil {
		rows = []models.Candidate{}
	}

	pages := int((total + int64(f.Limit) - 1) / int64(f.Limit))
	return &CandidatePage{
		Installers: rows,
		Pagination: Pagination{Page: f.Page, Limit: f.Limit, Total: total, TotalPages: pages},
	}, nil
}

func (s *candidateService) Get(ctx context.Context, id string) (*CandidateDetail, error) {
	const op = "CandidateService.Get"

	c, err := s.load(ctx, op, id)
	if err != nil {
		return nil, err
	}
	out := &CandidateDetail{
		Installer: c,
		Sessions:  []models.InterviewSession{},
		Responses: []models.InterviewResponse{},
	}
	if s.sessions != nil {
		sess, err := s.sessions.ListByCandidate(ctx, id, 20)
		if err != nil {
			return nil, utils.E(utils.CodeInternal, op, "failed to load sessions", err)
		}
		if sess != nil {
			out.Sessions = sess
		}
	}
	if s.responses != nil {
		rs, err := s.responses.ListByCandidate(ctx, id, 200)
		if err != nil {
			return nil, utils.E(utils.CodeInternal, op, "failed to load responses", err)
		}
		if rs != nil {
			out.Responses = rs
		}
	}
	return out, nil
}

func (s *candidateService) Create(ctx context.Context, in CandidateInput) (*models.Candidate, error) {
	const op = "CandidateService.Create"

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "email is required", nil)
	}
	now := time.Now().UTC()
	c := &models.Candidate{
		ID:        uuid.NewString(),
		Email:     email,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Status:    models.CandidatePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if p := strings.TrimSpace(in.Phone); p != "" {
		c.Phone = &p
	}
	if err := s.candidates.Create(ctx, c); err != nil {
		if errors.Is(err, utils.ErrConflict) {
			return nil, utils.E(utils.CodeConflict, op, "an installer with this email already exists", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to create installer", err)
	}
	return c, nil
}

func (s *candidateService) Update(ctx context.Context, id string, in CandidatePatch) (*models.Candidate, error) {
	const op = "CandidateService.Update"

	fields := map[string]any{}
	if in.FirstName != nil {
		fields["first_name"] = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		fields["last_name"] = strings.TrimSpace(*in.LastName)
	}
	if in.Phone != nil {
		fields["phone"] = strings.TrimSpace(*in.Phone)
	}
	if in.Notes != nil {
		fields["notes"] = *in.Notes
	}
	if in.Status != nil {
		st := models.CandidateStatus(strings.TrimSpace(*in.Status))
		if !st.Valid() {
			return nil, utils.E(utils.CodeInvalidArgument, op, "status must be pending, passed or failed", nil)
		}
		fields["status"] = string(st)
	}
	if len(fields) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "nothing to update", nil)
	}

	if err := s.candidates.Updates(ctx, id, fields); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "installer not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to update installer", err)
	}
	return s.load(ctx, op, id)
}

func (s *candidateService) Delete(ctx context.Context, id string) error {
	const op = "CandidateService.Delete"

	if err := s.candidates.Delete(ctx, id); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "installer not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to delete installer", err)
	}
	return nil
}

func (s *candidateService) load(ctx context.Context, op, id string) (*models.Candidate, error) {
	c, err := s.candidates.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "installer not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load installer", err)
	}
	return c, nil
}

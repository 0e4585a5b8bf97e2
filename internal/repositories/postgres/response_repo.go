package postgres

import (
	"context"

	"github.com/yoockh/floorscreen/internal/models"
	"gorm.io/gorm"
)

type ResponseRepository interface {
	Insert(ctx context.Context, r *models.InterviewResponse) error
	ListBySession(ctx context.Context, sessionID string) ([]models.InterviewResponse, error)
	ListByCandidate(ctx context.Context, candidateID string, limit int) ([]models.InterviewResponse, error)
}

type responseRepo struct {
	db *gorm.DB
}

func NewResponseRepo(db *gorm.DB) ResponseRepository {
	return &responseRepo{db: db}
}

func (r *responseRepo) Insert(ctx context.Context, row *models.InterviewResponse) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *responseRepo) ListBySession(ctx context.Context, sessionID string) ([]models.InterviewResponse, error) {
	var rows []models.InterviewResponse
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("question_index ASC, timestamp ASC").
		Find(&rows).Error
	return rows, err
}

func (r *responseRepo) ListByCandidate(ctx context.Context, candidateID string, limit int) ([]models.InterviewResponse, error) {
	if limit <= 0 {
		limit = 200
	}
	var rows []models.InterviewResponse
	err := r.db.WithContext(ctx).
		Where("candidate_id = ?", candidateID).
		Order("timestamp ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

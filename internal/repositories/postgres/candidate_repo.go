package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yoockh/floorscreen/internal/models"
	"github.com/yoockh/floorscreen/internal/utils"
	"gorm.io/gorm"
)

var ErrInvalidFilter = errors.New("invalid filter")

// CandidateFilter narrows the dashboard list. Empty fields, and the value
// "all", mean no filter.
type CandidateFilter struct {
	Status     string
	Search     string
	Experience string // "3-5", "10-", "10+"
	Skill      string
	Location   string
	Page       int
	Limit      int
}

type CandidateRepository interface {
	Create(ctx context.Context, c *models.Candidate) error
	GetByID(ctx context.Context, id string) (*models.Candidate, error)
	GetByEmail(ctx context.Context, email string) (*models.Candidate, error)
	List(ctx context.Context, f CandidateFilter) ([]models.Candidate, int64, error)
	Save(ctx context.Context, c *models.Candidate) error
	Updates(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
}

type candidateRepo struct {
	db *gorm.DB
}

func NewCandidateRepo(db *gorm.DB) CandidateRepository {
	return &candidateRepo{db: db}
}

func (r *candidateRepo) Create(ctx context.Context, c *models.Candidate) error {
	err := r.db.WithContext(ctx).Create(c).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return utils.ErrConflict
	}
	return err
}

func (r *candidateRepo) GetByID(ctx context.Context, id string) (*models.Candidate, error) {
	var c models.Candidate
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *candidateRepo) GetByEmail(ctx context.Context, email string) (*models.Candidate, error) {
	var c models.Candidate
	err := r.db.WithContext(ctx).Where("lower(email) = ?", strings.ToLower(email)).Take(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *candidateRepo) List(ctx context.Context, f CandidateFilter) ([]models.Candidate, int64, error) {
	page, limit := NormalizePage(f.Page, f.Limit)

	q := r.db.WithContext(ctx).Model(&models.Candidate{})
	if s := strings.TrimSpace(f.Status); s != "" && s != "all" {
		q = q.Where("status = ?", s)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("lower(first_name) LIKE ? OR lower(last_name) LIKE ? OR lower(email) LIKE ? OR phone LIKE ?",
			like, like, like, "%"+s+"%")
	}
	if e := strings.TrimSpace(f.Experience); e != "" && e != "all" {
		from, to, ok := ParseExperienceRange(e)
		if !ok {
			return nil, 0, fmt.Errorf("%w: experience range %q", ErrInvalidFilter, e)
		}
		q = q.Where("years_of_experience >= ?", from)
		if to != nil {
			q = q.Where("years_of_experience <= ?", *to)
		}
	}
	if s := strings.TrimSpace(f.Skill); s != "" && s != "all" {
		q = q.Where("? ILIKE ANY(flooring_skills)", s)
	}
	if s := strings.TrimSpace(f.Location); s != "" && s != "all" {
		q = q.Where("? ILIKE ANY(travel_locations)", s)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Candidate
	err := q.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&rows).Error
	return rows, total, err
}

func (r *candidateRepo) Save(ctx context.Context, c *models.Candidate) error {
	c.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *candidateRepo) Updates(ctx context.Context, id string, fields map[string]any) error {
	fields["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&models.Candidate{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *candidateRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Candidate{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

// ParseExperienceRange parses "3-5", "10-" or "10+". The upper bound is nil when
// the range is open ended.
func ParseExperienceRange(s string) (int, *int, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "+")
	lo, hi, hasDash := strings.Cut(s, "-")

	from, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil || from < 0 {
		return 0, nil, false
	}
	hi = strings.TrimSpace(hi)
	if !hasDash || hi == "" {
		return from, nil, true
	}
	to, err := strconv.Atoi(hi)
	if err != nil || to < from {
		return 0, nil, false
	}
	return from, &to, true
}

// NormalizePage clamps page to >=1 and limit to 1..100, defaulting to 20.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case limit <= 0:
		limit = 20
	case limit > 100:
		limit = 100
	}
	return page, limit
}

package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hireflow/interviewer/internal/models"
	"github.com/hireflow/interviewer/internal/utils"
)

type ResultRepository interface {
	// Save inserts the result or overwrites the one stored for the same interview.
	Save(ctx context.Context, r *models.InterviewResult) error
	GetByInterview(ctx context.Context, interviewID string) (*models.InterviewResult, error)
	ListRecent(ctx context.Context, limit int) ([]models.InterviewResult, error)
	Count(ctx context.Context) (int64, error)
}

type resultRepo struct {
	db *gorm.DB
}

func NewResultRepo(db *gorm.DB) ResultRepository {
	return &resultRepo{db: db}
}

func (r *resultRepo) Save(ctx context.Context, res *models.InterviewResult) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "interview_id"}},
		UpdateAll: true,
	}).Create(res).Error
}

func (r *resultRepo) GetByInterview(ctx context.Context, interviewID string) (*models.InterviewResult, error) {
	var res models.InterviewResult
	err := r.db.WithContext(ctx).Where("interview_id = ?", interviewID).First(&res).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *resultRepo) ListRecent(ctx context.Context, limit int) ([]models.InterviewResult, error) {
	if limit <= 0 {
		limit = 10
	}
	var out []models.InterviewResult
	err := r.db.WithContext(ctx).
		Order("completed_at desc").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *resultRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.InterviewResult{}).Count(&n).Error
	return n, err
}

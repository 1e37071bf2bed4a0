package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/hireflow/interviewer/internal/models"
)

type FeedbackRepository interface {
	Create(ctx context.Context, f *models.AdminFeedbackRecord) error
	ListByInterview(ctx context.Context, interviewID string) ([]models.AdminFeedbackRecord, error)
	ListRecent(ctx context.Context, limit int) ([]models.AdminFeedbackRecord, error)
}

type feedbackRepo struct {
	db *gorm.DB
}

func NewFeedbackRepo(db *gorm.DB) FeedbackRepository {
	return &feedbackRepo{db: db}
}

func (r *feedbackRepo) Create(ctx context.Context, f *models.AdminFeedbackRecord) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *feedbackRepo) ListByInterview(ctx context.Context, interviewID string) ([]models.AdminFeedbackRecord, error) {
	var out []models.AdminFeedbackRecord
	err := r.db.WithContext(ctx).
		Where("interview_id = ?", interviewID).
		Order("sent_at desc").
		Find(&out).Error
	return out, err
}

func (r *feedbackRepo) ListRecent(ctx context.Context, limit int) ([]models.AdminFeedbackRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []models.AdminFeedbackRecord
	err := r.db.WithContext(ctx).
		Order("sent_at desc").
		Limit(limit).
		Find(&out).Error
	return out, err
}

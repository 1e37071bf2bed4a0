package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/hireflow/interviewer/internal/models"
)

type QuestionRepository interface {
	// ListByInterview returns the questions assigned to interviewID ordered
	// by position. An empty interviewID lists the default set.
	ListByInterview(ctx context.Context, interviewID string) ([]models.QuestionBankItem, error)
	Replace(ctx context.Context, interviewID string, items []models.QuestionBankItem) error
	// SeedDefaults inserts the built-in default set when none is stored.
	SeedDefaults(ctx context.Context) error
}

type questionRepo struct {
	db *gorm.DB
}

func NewQuestionRepo(db *gorm.DB) QuestionRepository {
	return &questionRepo{db: db}
}

func (r *questionRepo) ListByInterview(ctx context.Context, interviewID string) ([]models.QuestionBankItem, error) {
	var items []models.QuestionBankItem
	err := r.db.WithContext(ctx).
		Where("interview_id = ?", interviewID).
		Order("position asc").
		Find(&items).Error
	return items, err
}

func (r *questionRepo) Replace(ctx context.Context, interviewID string, items []models.QuestionBankItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("interview_id = ?", interviewID).Delete(&models.QuestionBankItem{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		for i := range items {
			items[i].ID = 0
			items[i].InterviewID = interviewID
		}
		return tx.Create(&items).Error
	})
}

func (r *questionRepo) SeedDefaults(ctx context.Context) error {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.QuestionBankItem{}).
		Where("interview_id = ?", "").
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return r.Replace(ctx, "", models.DefaultQuestions())
}

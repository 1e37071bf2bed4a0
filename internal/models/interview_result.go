package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// InterviewResult is the scored outcome of a completed interview.
type InterviewResult struct {
	ID          string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	InterviewID string `gorm:"column:interview_id;type:text;uniqueIndex" json:"interview_id"`
	CandidateID string `gorm:"column:candidate_id;type:text;index" json:"candidate_id"`

	OverallScore    float64        `gorm:"column:overall_score" json:"overall_score"`
	FraudScore      float64        `gorm:"column:fraud_score" json:"fraud_score"`
	FraudPassed     bool           `gorm:"column:fraud_passed" json:"fraud_passed"`
	TechnicalScore  float64        `gorm:"column:technical_score" json:"technical_score"`
	AttentionScore  float64        `gorm:"column:attention_score" json:"attention_score"`
	AvgAnswerScore  float64        `gorm:"column:avg_answer_score" json:"avg_answer_score"`
	RedFlags        StringList     `gorm:"column:red_flags" json:"red_flags"`
	KeywordsFound   StringList     `gorm:"column:keywords_found" json:"keywords_found"`
	Recommendation  string         `gorm:"column:recommendation;type:text" json:"recommendation"`
	RequiresReview  bool           `gorm:"column:requires_review;index" json:"requires_review"`
	TotalAnswers    int            `gorm:"column:total_answers" json:"total_answers"`
	AnsweredCount   int            `gorm:"column:answered_count" json:"answered_count"`
	EyeTrackingData datatypes.JSON `gorm:"column:eye_tracking_data" json:"eye_tracking_data"`
	Summary         datatypes.JSON `gorm:"column:summary" json:"summary"`

	CompletedAt time.Time `gorm:"column:completed_at;type:timestamptz;index" json:"completed_at"`
}

func (InterviewResult) TableName() string { return "interview_results" }

func (r *InterviewResult) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

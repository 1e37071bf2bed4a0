package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PerformanceSummary struct {
	OverallScore         float64 `json:"overall_score"`
	FraudDetectionPassed bool    `json:"fraud_detection_passed"`
	AttentionScore       float64 `json:"attention_score"`
	TechnicalScore       float64 `json:"technical_score"`
}

// AdminNotification is what the admin dashboard receives for a finished
// interview.
type AdminNotification struct {
	InterviewID        ID                 `json:"interview_id"`
	CandidateID        string             `json:"candidate_id"`
	NotificationType   string             `json:"notification_type"`
	PerformanceSummary PerformanceSummary `json:"performance_summary"`
	Recommendations    string             `json:"recommendations"`
	RequiresReview     bool               `json:"requires_review"`
	InterviewAnswers   []AnswerRecord     `json:"interview_answers"`
	SentAt             time.Time          `json:"sent_at"`
}

type AdminFeedbackAck struct {
	Status       string            `json:"status"`
	Notification AdminNotification `json:"notification"`
	Message      string            `json:"message"`
}

// AdminFeedbackRecord persists an AdminNotification.
type AdminFeedbackRecord struct {
	ID              string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	InterviewID     string         `gorm:"column:interview_id;type:text;index" json:"interview_id"`
	CandidateID     string         `gorm:"column:candidate_id;type:text" json:"candidate_id"`
	OverallScore    float64        `gorm:"column:overall_score" json:"overall_score"`
	FraudPassed     bool           `gorm:"column:fraud_passed" json:"fraud_passed"`
	AttentionScore  float64        `gorm:"column:attention_score" json:"attention_score"`
	TechnicalScore  float64        `gorm:"column:technical_score" json:"technical_score"`
	Recommendations string         `gorm:"column:recommendations;type:text" json:"recommendations"`
	RequiresReview  bool           `gorm:"column:requires_review;index" json:"requires_review"`
	Answers         datatypes.JSON `gorm:"column:answers" json:"answers"`
	SentAt          time.Time      `gorm:"column:sent_at;type:timestamptz;index" json:"sent_at"`
}

func (AdminFeedbackRecord) TableName() string { return "admin_feedback" }

func (r *AdminFeedbackRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

type RecentInterviews struct {
	TotalInterviews  int64             `json:"total_interviews"`
	RecentInterviews []InterviewResult `json:"recent_interviews"`
}

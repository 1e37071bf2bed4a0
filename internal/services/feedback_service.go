package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/hireflow/interviewer/internal/models"
	pgrepo "github.com/hireflow/interviewer/internal/repositories/postgres"
	"github.com/hireflow/interviewer/internal/utils"
)

const recentInterviewsLimit = 10

type FeedbackService interface {
	Submit(ctx context.Context, fb models.AdminFeedback) (*models.AdminFeedbackAck, error)
	ListRecent(ctx context.Context, limit int) ([]models.AdminFeedbackRecord, error)
	RecentInterviews(ctx context.Context) (*models.RecentInterviews, error)
}

type feedbackService struct {
	feedback pgrepo.FeedbackRepository
	results  pgrepo.ResultRepository
	now      func() time.Time
}

func NewFeedbackService(feedback pgrepo.FeedbackRepository, results pgrepo.ResultRepository, now func() time.Time) FeedbackService {
	if now == nil {
		now = time.Now
	}
	return &feedbackService{feedback: feedback, results: results, now: now}
}

func (s *feedbackService) Submit(ctx context.Context, fb models.AdminFeedback) (*models.AdminFeedbackAck, error) {
	const op = "FeedbackService.Submit"

	fb.InterviewID = models.ID(strings.TrimSpace(string(fb.InterviewID)))
	if fb.InterviewID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "interview_id is required", nil)
	}

	n := Notify(fb, s.now())
	answers, err := json.Marshal(n.InterviewAnswers)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to encode answers", err)
	}

	rec := &models.AdminFeedbackRecord{
		InterviewID:     string(n.InterviewID),
		CandidateID:     n.CandidateID,
		OverallScore:    n.PerformanceSummary.OverallScore,
		FraudPassed:     n.PerformanceSummary.FraudDetectionPassed,
		AttentionScore:  n.PerformanceSummary.AttentionScore,
		TechnicalScore:  n.PerformanceSummary.TechnicalScore,
		Recommendations: n.Recommendations,
		RequiresReview:  n.RequiresReview,
		Answers:         datatypes.JSON(answers),
		SentAt:          n.SentAt,
	}
	if err := s.feedback.Create(ctx, rec); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to store feedback", err)
	}

	return &models.AdminFeedbackAck{
		Status:       "feedback_sent",
		Notification: n,
		Message:      "Admin has been notified of interview completion",
	}, nil
}

func (s *feedbackService) ListRecent(ctx context.Context, limit int) ([]models.AdminFeedbackRecord, error) {
	const op = "FeedbackService.ListRecent"

	if limit < 0 || limit > 100 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "limit must be between 0 and 100", nil)
	}
	out, err := s.feedback.ListRecent(ctx, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list feedback", err)
	}
	if out == nil {
		out = []models.AdminFeedbackRecord{}
	}
	return out, nil
}

func (s *feedbackService) RecentInterviews(ctx context.Context) (*models.RecentInterviews, error) {
	const op = "FeedbackService.RecentInterviews"

	total, err := s.results.Count(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to count interviews", err)
	}
	recent, err := s.results.ListRecent(ctx, recentInterviewsLimit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list interviews", err)
	}
	if recent == nil {
		recent = []models.InterviewResult{}
	}
	return &models.RecentInterviews{TotalInterviews: total, RecentInterviews: recent}, nil
}

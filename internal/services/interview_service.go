package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/hireflow/interviewer/internal/metrics"
	"github.com/hireflow/interviewer/internal/models"
	mongorepo "github.com/hireflow/interviewer/internal/repositories/mongo"
	pgrepo "github.com/hireflow/interviewer/internal/repositories/postgres"
	"github.com/hireflow/interviewer/internal/utils"
)

type InterviewService interface {
	Start(ctx context.Context, interviewID, candidateID string) (*models.StartAck, error)
	SubmitAnswer(ctx context.Context, interviewID string, req models.AnswerRequest) (*models.AnswerResult, error)
	Complete(ctx context.Context, interviewID string, req models.CompletionRequest) (*models.CompletionSummary, error)
	Data(ctx context.Context, interviewID string) (*models.InterviewData, error)
}

type interviewService struct {
	sessions  mongorepo.InterviewRepository
	answers   mongorepo.AnswerRepository
	results   pgrepo.ResultRepository
	feedback  pgrepo.FeedbackRepository
	questions QuestionService
	now       func() time.Time
}

func NewInterviewService(
	sessions mongorepo.InterviewRepository,
	answers mongorepo.AnswerRepository,
	results pgrepo.ResultRepository,
	feedback pgrepo.FeedbackRepository,
	questions QuestionService,
	now func() time.Time,
) InterviewService {
	if now == nil {
		now = time.Now
	}
	return &interviewService{
		sessions:  sessions,
		answers:   answers,
		results:   results,
		feedback:  feedback,
		questions: questions,
		now:       now,
	}
}

func (s *interviewService) Start(ctx context.Context, interviewID, candidateID string) (*models.StartAck, error) {
	const op = "InterviewService.Start"

	interviewID = strings.TrimSpace(interviewID)
	if interviewID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "interview_id is required", nil)
	}

	set, err := s.questions.List(ctx, interviewID)
	if err != nil {
		return nil, err
	}

	sess, err := s.sessions.Start(ctx, &models.InterviewSession{
		InterviewID:   interviewID,
		CandidateID:   candidateID,
		QuestionCount: set.TotalQuestions,
		StartedAt:     s.now().UTC(),
	})
	if errors.Is(err, utils.ErrConflict) {
		return nil, utils.E(utils.CodePrecondition, op, "interview already completed", err)
	}
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to start interview", err)
	}

	return &models.StartAck{
		InterviewID: models.ID(interviewID),
		Status:      "started",
		StartedAt:   sess.StartedAt.UTC().Format(time.RFC3339),
		FraudDetection: &models.FraudDetectionConfig{
			Enabled:         true,
			VoiceAnalysis:   true,
			EyeTracking:     false,
			BackgroundCheck: true,
		},
		Instructions: append([]string(nil), startInstructions...),
	}, nil
}

// active loads the session and rejects interviews that are not running.
func (s *interviewService) active(ctx context.Context, op, interviewID string) (*models.InterviewSession, error) {
	sess, err := s.sessions.Get(ctx, interviewID)
	if errors.Is(err, utils.ErrNotFound) {
		return nil, utils.E(utils.CodePrecondition, op, "interview has not been started", err)
	}
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load interview", err)
	}
	return sess, nil
}

func (s *interviewService) SubmitAnswer(ctx context.Context, interviewID string, req models.AnswerRequest) (*models.AnswerResult, error) {
	const op = "InterviewService.SubmitAnswer"

	if req.QuestionID <= 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "question_id must be > 0", nil)
	}

	sess, err := s.active(ctx, op, interviewID)
	if err != nil {
		return nil, err
	}
	if sess.Status == models.SessionCompleted {
		return nil, utils.E(utils.CodePrecondition, op, "interview already completed", nil)
	}

	set, err := s.questions.List(ctx, interviewID)
	if err != nil {
		return nil, err
	}
	next, ok := NextQuestionID(set, req.QuestionID)
	if !ok {
		return nil, utils.E(utils.CodeInvalidArgument, op, "unknown question_id", nil)
	}

	fraud, content := EvaluateAnswer(req)
	now := s.now().UTC()
	doc := &models.AnswerDoc{
		InterviewID:     interviewID,
		QuestionID:      req.QuestionID,
		Answer:          req.Answer,
		AudioDuration:   req.AudioDuration,
		VoiceConfidence: req.VoiceConfidence,
		EyeTracking:     req.EyeTracking,
		Fraud:           &fraud,
		Content:         &content,
		SubmittedAt:     &now,
	}
	if err := s.answers.SaveAnswer(ctx, doc); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to store answer", err)
	}

	return &models.AnswerResult{
		InterviewID:     models.ID(interviewID),
		QuestionID:      req.QuestionID,
		AnswerSubmitted: true,
		FraudAnalysis:   &fraud,
		AnswerAnalysis:  &content,
		NextQuestion:    next,
		SubmittedAt:     now.Format(time.RFC3339),
	}, nil
}

// Complete scores the interview and stores the result. Repeating it
// overwrites the stored result.
func (s *interviewService) Complete(ctx context.Context, interviewID string, req models.CompletionRequest) (*models.CompletionSummary, error) {
	const op = "InterviewService.Complete"

	sess, err := s.active(ctx, op, interviewID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	sum, scores := Summarize(interviewID, req, now)

	completedAt := now
	if t, err := time.Parse(time.RFC3339, sum.CompletedAt); err == nil {
		completedAt = t.UTC()
	}

	answered := 0
	for _, a := range req.AllAnswers {
		if strings.TrimSpace(a.Answer) != "" {
			answered++
		}
	}

	eyeJSON, err := json.Marshal(req.EyeTrackingSummary)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to encode eye tracking", err)
	}
	sumJSON, err := json.Marshal(sum)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to encode summary", err)
	}

	res := &models.InterviewResult{
		InterviewID:     interviewID,
		CandidateID:     sess.CandidateID,
		OverallScore:    scores.Overall,
		FraudScore:      scores.Fraud,
		FraudPassed:     sum.FraudDetection.Passed,
		TechnicalScore:  scores.Technical,
		AttentionScore:  scores.Attention,
		AvgAnswerScore:  scores.AvgAnswer,
		RedFlags:        models.StringList(sum.FraudDetection.RedFlags),
		KeywordsFound:   models.StringList(sum.TechnicalAssessment.KeywordsFound),
		Recommendation:  sum.Recommendation,
		RequiresReview:  RequiresReview(scores.Overall),
		TotalAnswers:    req.TotalAnswers,
		AnsweredCount:   answered,
		EyeTrackingData: datatypes.JSON(eyeJSON),
		Summary:         datatypes.JSON(sumJSON),
		CompletedAt:     completedAt,
	}
	if err := s.results.Save(ctx, res); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to store result", err)
	}
	if err := s.sessions.Complete(ctx, interviewID, completedAt, req.EyeTrackingSummary); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to mark interview completed", err)
	}
	metrics.InterviewCompleted(res.RequiresReview)
	return &sum, nil
}

func (s *interviewService) Data(ctx context.Context, interviewID string) (*models.InterviewData, error) {
	const op = "InterviewService.Data"

	sess, err := s.sessions.Get(ctx, interviewID)
	if errors.Is(err, utils.ErrNotFound) {
		return nil, utils.E(utils.CodeNotFound, op, "interview not found", err)
	}
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load interview", err)
	}

	answers, err := s.answers.ListByInterview(ctx, interviewID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load answers", err)
	}
	if answers == nil {
		answers = []models.AnswerDoc{}
	}

	out := &models.InterviewData{Session: sess, Answers: answers}

	res, err := s.results.GetByInterview(ctx, interviewID)
	switch {
	case err == nil:
		out.Result = res
	case !errors.Is(err, utils.ErrNotFound):
		return nil, utils.E(utils.CodeInternal, op, "failed to load result", err)
	}

	if out.Feedback, err = s.feedback.ListByInterview(ctx, interviewID); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load feedback", err)
	}
	if out.Feedback == nil {
		out.Feedback = []models.AdminFeedbackRecord{}
	}
	return out, nil
}

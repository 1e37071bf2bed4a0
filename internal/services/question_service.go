package services

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hireflow/interviewer/internal/cache"
	"github.com/hireflow/interviewer/internal/models"
	pgrepo "github.com/hireflow/interviewer/internal/repositories/postgres"
	"github.com/hireflow/interviewer/internal/utils"
)

type QuestionService interface {
	// List returns the questions of interviewID, falling back to the default set.
	List(ctx context.Context, interviewID string) (*models.QuestionSet, error)
	Assign(ctx context.Context, interviewID string, qs []models.Question) (*models.QuestionSet, error)
}

type questionService struct {
	questions pgrepo.QuestionRepository
	cache     cache.Cache
	ttl       time.Duration
	log       *logrus.Logger
}

// NewQuestionService caches question sets for ttl. c may be nil.
func NewQuestionService(questions pgrepo.QuestionRepository, c cache.Cache, ttl time.Duration, log *logrus.Logger) QuestionService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if log == nil {
		log = logrus.New()
	}
	return &questionService{questions: questions, cache: c, ttl: ttl, log: log}
}

func (s *questionService) List(ctx context.Context, interviewID string) (*models.QuestionSet, error) {
	const op = "QuestionService.List"

	interviewID = strings.TrimSpace(interviewID)
	if interviewID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "interview_id is required", nil)
	}

	key := cache.QuestionSetKey(interviewID)
	if s.cache != nil {
		var set models.QuestionSet
		hit, err := s.cache.GetJSON(ctx, key, &set)
		if err != nil {
			s.log.WithError(err).WithField("interview_id", interviewID).Warn("question cache read failed")
		}
		if hit {
			return &set, nil
		}
	}

	items, err := s.questions.ListByInterview(ctx, interviewID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load questions", err)
	}
	if len(items) == 0 {
		if items, err = s.questions.ListByInterview(ctx, ""); err != nil {
			return nil, utils.E(utils.CodeInternal, op, "failed to load default questions", err)
		}
	}
	if len(items) == 0 {
		items = models.DefaultQuestions()
	}

	set := buildSet(interviewID, items)
	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, set, s.ttl); err != nil {
			s.log.WithError(err).WithField("interview_id", interviewID).Warn("question cache write failed")
		}
	}
	return set, nil
}

func (s *questionService) Assign(ctx context.Context, interviewID string, qs []models.Question) (*models.QuestionSet, error) {
	const op = "QuestionService.Assign"

	interviewID = strings.TrimSpace(interviewID)
	if interviewID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "interview_id is required", nil)
	}
	if len(qs) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "at least one question is required", nil)
	}

	items := make([]models.QuestionBankItem, 0, len(qs))
	for i, q := range qs {
		if strings.TrimSpace(q.Text) == "" || q.TimeLimit <= 0 {
			return nil, utils.E(utils.CodeInvalidArgument, op, "every question needs text and a positive time_limit", nil)
		}
		items = append(items, models.QuestionBankItem{
			Position:  i + 1,
			Text:      strings.TrimSpace(q.Text),
			Skill:     q.Skill,
			Type:      q.Type,
			TimeLimit: q.TimeLimit,
		})
	}

	if err := s.questions.Replace(ctx, interviewID, items); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to store questions", err)
	}
	if s.cache != nil {
		if err := s.cache.Del(ctx, cache.QuestionSetKey(interviewID)); err != nil {
			s.log.WithError(err).WithField("interview_id", interviewID).Warn("question cache invalidation failed")
		}
	}
	return buildSet(interviewID, items), nil
}

func buildSet(interviewID string, items []models.QuestionBankItem) *models.QuestionSet {
	qs := make([]models.Question, 0, len(items))
	for _, it := range items {
		qs = append(qs, it.Question())
	}
	return &models.QuestionSet{
		InterviewID:       models.ID(interviewID),
		Questions:         qs,
		TotalQuestions:    len(qs),
		EstimatedDuration: models.DefaultEstimatedDuration,
	}
}

// NextQuestionID returns the id following questionID, or nil at the end.
// ok is false when questionID is not part of the set.
func NextQuestionID(set *models.QuestionSet, questionID int) (next *int, ok bool) {
	for i, q := range set.Questions {
		if q.ID != questionID {
			continue
		}
		if i+1 < len(set.Questions) {
			id := set.Questions[i+1].ID
			return &id, true
		}
		return nil, true
	}
	return nil, false
}

package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hireflow/interviewer/internal/models"
	"github.com/hireflow/interviewer/internal/utils"
)

type InterviewRepository interface {
	// Start creates the session or, when it exists and is not completed,
	// refreshes its start time. It returns the stored document.
	Start(ctx context.Context, s *models.InterviewSession) (*models.InterviewSession, error)
	Get(ctx context.Context, interviewID string) (*models.InterviewSession, error)
	Complete(ctx context.Context, interviewID string, at time.Time, eye models.EyeTracking) error
}

type interviewRepo struct {
	col *mongo.Collection
}

func NewInterviewRepo(db *mongo.Database) InterviewRepository {
	return &interviewRepo{col: db.Collection("interview_sessions")}
}

func (r *interviewRepo) Start(ctx context.Context, s *models.InterviewSession) (*models.InterviewSession, error) {
	if s.StartedAt.IsZero() {
		s.StartedAt = time.Now().UTC()
	}
	filter := bson.M{"interview_id": s.InterviewID, "status": bson.M{"$ne": models.SessionCompleted}}
	update := bson.M{
		"$set": bson.M{
			"status":         models.SessionInProgress,
			"started_at":     s.StartedAt,
			"question_count": s.QuestionCount,
		},
		"$setOnInsert": bson.M{
			"interview_id": s.InterviewID,
			"candidate_id": s.CandidateID,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var out models.InterviewSession
	err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&out)
	if mongo.IsDuplicateKeyError(err) {
		// the only document for this interview is completed
		return nil, utils.ErrConflict
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *interviewRepo) Get(ctx context.Context, interviewID string) (*models.InterviewSession, error) {
	var s models.InterviewSession
	err := r.col.FindOne(ctx, bson.M{"interview_id": interviewID}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *interviewRepo) Complete(ctx context.Context, interviewID string, at time.Time, eye models.EyeTracking) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"interview_id": interviewID},
		bson.M{"$set": bson.M{
			"status":            models.SessionCompleted,
			"completed_at":      at.UTC(),
			"last_eye_tracking": eye,
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return utils.ErrNotFound
	}
	return nil
}

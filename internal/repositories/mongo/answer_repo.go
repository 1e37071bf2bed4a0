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

type AnswerRepository interface {
	SaveAnswer(ctx context.Context, a *models.AnswerDoc) error
	SaveAnalysis(ctx context.Context, interviewID string, questionID int, rec *models.Recording, a *models.Analysis) error
	MarkTranscript(ctx context.Context, interviewID string, questionID int, text string, confidence float64, status models.AnalysisStatus) error
	MarkCoaching(ctx context.Context, interviewID string, questionID int, coaching string, status models.AnalysisStatus, processingMS int64) error
	Get(ctx context.Context, interviewID string, questionID int) (*models.AnswerDoc, error)
	ListByInterview(ctx context.Context, interviewID string) ([]models.AnswerDoc, error)
}

type answerRepo struct {
	col *mongo.Collection
}

func NewAnswerRepo(db *mongo.Database) AnswerRepository {
	return &answerRepo{col: db.Collection("interview_answers")}
}

func key(interviewID string, questionID int) bson.M {
	return bson.M{"interview_id": interviewID, "question_id": questionID}
}

func (r *answerRepo) upsert(ctx context.Context, interviewID string, questionID int, set bson.M) error {
	set["updated_at"] = time.Now().UTC()
	_, err := r.col.UpdateOne(ctx,
		key(interviewID, questionID),
		bson.M{"$set": set},
		options.Update().SetUpsert(true),
	)
	return err
}

// SaveAnswer stores the text part of an answer; recording and analysis
// fields already on the document are kept.
func (r *answerRepo) SaveAnswer(ctx context.Context, a *models.AnswerDoc) error {
	set := bson.M{
		"answer":          a.Answer,
		"audio_duration":  a.AudioDuration,
		"eye_tracking":    a.EyeTracking,
		"fraud_analysis":  a.Fraud,
		"answer_analysis": a.Content,
		"submitted_at":    a.SubmittedAt,
	}
	if a.VoiceConfidence != nil {
		set["voice_confidence"] = *a.VoiceConfidence
	}
	return r.upsert(ctx, a.InterviewID, a.QuestionID, set)
}

func (r *answerRepo) SaveAnalysis(ctx context.Context, interviewID string, questionID int, rec *models.Recording, a *models.Analysis) error {
	set := bson.M{
		"analysis":        a,
		"analysis_status": models.AnalysisPending,
	}
	if rec != nil {
		set["recording"] = rec
	}
	return r.upsert(ctx, interviewID, questionID, set)
}

func (r *answerRepo) MarkTranscript(ctx context.Context, interviewID string, questionID int, text string, confidence float64, status models.AnalysisStatus) error {
	return r.upsert(ctx, interviewID, questionID, bson.M{
		"transcript":            text,
		"transcript_confidence": confidence,
		"analysis_status":       status,
	})
}

func (r *answerRepo) MarkCoaching(ctx context.Context, interviewID string, questionID int, coaching string, status models.AnalysisStatus, processingMS int64) error {
	return r.upsert(ctx, interviewID, questionID, bson.M{
		"coaching":           coaching,
		"analysis_status":    status,
		"processing_time_ms": processingMS,
	})
}

func (r *answerRepo) Get(ctx context.Context, interviewID string, questionID int) (*models.AnswerDoc, error) {
	var a models.AnswerDoc
	err := r.col.FindOne(ctx, key(interviewID, questionID)).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *answerRepo) ListByInterview(ctx context.Context, interviewID string) ([]models.AnswerDoc, error) {
	cur, err := r.col.Find(ctx,
		bson.M{"interview_id": interviewID},
		options.Find().SetSort(bson.D{{Key: "question_id", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.AnswerDoc
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

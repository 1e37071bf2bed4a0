package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/hireflow/interviewer/internal/models"
	"github.com/hireflow/interviewer/internal/utils"
)

var ctx = context.Background()

func newMock(t *testing.T) *mtest.T {
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func TestInterviewRepo_Start(t *testing.T) {
	mt := newMock(t)

	mt.Run("upserts a session that is not completed", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "interview_id", Value: "42"},
			{Key: "candidate_id", Value: "user-1"},
			{Key: "status", Value: "in_progress"},
			{Key: "question_count", Value: 5},
		}}))

		got, err := NewInterviewRepo(mt.DB).Start(ctx, &models.InterviewSession{
			InterviewID:   "42",
			CandidateID:   "user-1",
			QuestionCount: 5,
		})
		require.NoError(mt, err)
		assert.Equal(mt, models.SessionInProgress, got.Status)
		assert.Equal(mt, "user-1", got.CandidateID)

		cmd := mt.GetStartedEvent().Command
		assert.Equal(mt, "interview_sessions", cmd.Lookup("findAndModify").StringValue())
		assert.Equal(mt, "42", cmd.Lookup("query", "interview_id").StringValue())
		assert.Equal(mt, "completed", cmd.Lookup("query", "status", "$ne").StringValue())
		assert.True(mt, cmd.Lookup("upsert").Boolean())
		assert.True(mt, cmd.Lookup("new").Boolean())
		assert.Equal(mt, "in_progress", cmd.Lookup("update", "$set", "status").StringValue())
		assert.Equal(mt, int64(5), cmd.Lookup("update", "$set", "question_count").AsInt64())
		assert.Equal(mt, "user-1", cmd.Lookup("update", "$setOnInsert", "candidate_id").StringValue())
	})

	mt.Run("duplicate key means the interview is completed", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    11000,
			Message: "E11000 duplicate key error collection: interview_sessions index: interview_id_1",
			Name:    "DuplicateKey",
		}))

		_, err := NewInterviewRepo(mt.DB).Start(ctx, &models.InterviewSession{InterviewID: "42"})
		assert.ErrorIs(mt, err, utils.ErrConflict)
	})
}

func TestInterviewRepo_GetAndComplete(t *testing.T) {
	mt := newMock(t)

	mt.Run("get decodes the session", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "hireflow.interview_sessions", mtest.FirstBatch, bson.D{
			{Key: "interview_id", Value: "42"},
			{Key: "status", Value: "completed"},
		}))

		s, err := NewInterviewRepo(mt.DB).Get(ctx, "42")
		require.NoError(mt, err)
		assert.Equal(mt, models.SessionCompleted, s.Status)
		assert.Equal(mt, "42", mt.GetStartedEvent().Command.Lookup("filter", "interview_id").StringValue())
	})

	mt.Run("get maps no documents to not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "hireflow.interview_sessions", mtest.FirstBatch))

		_, err := NewInterviewRepo(mt.DB).Get(ctx, "404")
		assert.ErrorIs(mt, err, utils.ErrNotFound)
	})

	mt.Run("complete sets status time and gaze", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		at := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
		err := NewInterviewRepo(mt.DB).Complete(ctx, "42", at, models.EyeTracking{AttentionScore: 77})
		require.NoError(mt, err)

		cmd := mt.GetStartedEvent().Command
		assert.Equal(mt, "42", cmd.Lookup("updates", "0", "q", "interview_id").StringValue())
		assert.Equal(mt, "completed", cmd.Lookup("updates", "0", "u", "$set", "status").StringValue())
		assert.Equal(mt, at, cmd.Lookup("updates", "0", "u", "$set", "completed_at").Time().UTC())
		assert.Equal(mt, int64(77), cmd.Lookup("updates", "0", "u", "$set", "last_eye_tracking", "attention_score").AsInt64())
	})

	mt.Run("complete of an unknown interview is not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		err := NewInterviewRepo(mt.DB).Complete(ctx, "404", time.Now(), models.EyeTracking{})
		assert.ErrorIs(mt, err, utils.ErrNotFound)
	})
}

func TestAnswerRepo_Writes(t *testing.T) {
	mt := newMock(t)

	mt.Run("save answer upserts by interview and question", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		err := NewAnswerRepo(mt.DB).SaveAnswer(ctx, &models.AnswerDoc{
			InterviewID:   "42",
			QuestionID:    3,
			Answer:        "I led the migration",
			AudioDuration: 31,
		})
		require.NoError(mt, err)

		upd := mt.GetStartedEvent().Command.Lookup("updates", "0").Document()
		assert.Equal(mt, "42", upd.Lookup("q", "interview_id").StringValue())
		assert.Equal(mt, int64(3), upd.Lookup("q", "question_id").AsInt64())
		assert.True(mt, upd.Lookup("upsert").Boolean())
		assert.Equal(mt, "I led the migration", upd.Lookup("u", "$set", "answer").StringValue())
		_, err = upd.LookupErr("u", "$set", "voice_confidence")
		assert.Error(mt, err, "unset voice confidence must not overwrite a stored one")
		_, err = upd.LookupErr("u", "$set", "updated_at")
		assert.NoError(mt, err)
	})

	mt.Run("analysis without a recording keeps the stored one", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		a := models.Analysis{OverallScore: 82.5}
		require.NoError(mt, NewAnswerRepo(mt.DB).SaveAnalysis(ctx, "42", 3, nil, &a))

		set := mt.GetStartedEvent().Command.Lookup("updates", "0", "u", "$set").Document()
		assert.Equal(mt, string(models.AnalysisPending), set.Lookup("analysis_status").StringValue())
		_, err := set.LookupErr("recording")
		assert.Error(mt, err)
	})

	mt.Run("transcript marks the status", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		require.NoError(mt, NewAnswerRepo(mt.DB).MarkTranscript(ctx, "42", 3, "hello", 0.9, models.AnalysisProcessing))

		set := mt.GetStartedEvent().Command.Lookup("updates", "0", "u", "$set").Document()
		assert.Equal(mt, "hello", set.Lookup("transcript").StringValue())
		assert.Equal(mt, 0.9, set.Lookup("transcript_confidence").Double())
		assert.Equal(mt, string(models.AnalysisProcessing), set.Lookup("analysis_status").StringValue())
	})
}

func TestAnswerRepo_Reads(t *testing.T) {
	mt := newMock(t)

	mt.Run("list is sorted by question and drains the cursor", func(mt *mtest.T) {
		ns := "hireflow.interview_answers"
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{
				{Key: "interview_id", Value: "42"}, {Key: "question_id", Value: 1}, {Key: "answer", Value: "first"},
			}),
			mtest.CreateCursorResponse(0, ns, mtest.NextBatch, bson.D{
				{Key: "interview_id", Value: "42"}, {Key: "question_id", Value: 2}, {Key: "coaching", Value: "slow down"},
			}),
		)

		got, err := NewAnswerRepo(mt.DB).ListByInterview(ctx, "42")
		require.NoError(mt, err)
		require.Len(mt, got, 2)
		assert.Equal(mt, "first", got[0].Answer)
		assert.Equal(mt, "slow down", got[1].Coaching)

		cmd := mt.GetStartedEvent().Command
		assert.Equal(mt, "42", cmd.Lookup("filter", "interview_id").StringValue())
		assert.Equal(mt, int64(1), cmd.Lookup("sort", "question_id").AsInt64())
	})

	mt.Run("get of a missing answer is not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "hireflow.interview_answers", mtest.FirstBatch))

		_, err := NewAnswerRepo(mt.DB).Get(ctx, "42", 9)
		assert.ErrorIs(mt, err, utils.ErrNotFound)
	})
}

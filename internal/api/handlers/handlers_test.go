package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireflow/interviewer/internal/models"
	"github.com/hireflow/interviewer/internal/services"
	"github.com/hireflow/interviewer/internal/utils"
)

var testNow = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

type fakeInterviews struct {
	startedBy string
	answer    models.AnswerRequest
	complete  *models.CompletionRequest
	err       error
}

func (f *fakeInterviews) Start(ctx context.Context, id, candidate string) (*models.StartAck, error) {
	f.startedBy = candidate
	if f.err != nil {
		return nil, f.err
	}
	return &models.StartAck{InterviewID: models.ID(id), Status: "started"}, nil
}

func (f *fakeInterviews) SubmitAnswer(ctx context.Context, id string, req models.AnswerRequest) (*models.AnswerResult, error) {
	f.answer = req
	if f.err != nil {
		return nil, f.err
	}
	fraud, content := services.EvaluateAnswer(req)
	return &models.AnswerResult{InterviewID: models.ID(id), QuestionID: req.QuestionID, AnswerSubmitted: true, FraudAnalysis: &fraud, AnswerAnalysis: &content}, nil
}

func (f *fakeInterviews) Complete(ctx context.Context, id string, req models.CompletionRequest) (*models.CompletionSummary, error) {
	f.complete = &req
	sum, _ := services.Summarize(id, req, testNow)
	return &sum, nil
}

func (f *fakeInterviews) Data(ctx context.Context, id string) (*models.InterviewData, error) {
	return nil, utils.E(utils.CodeNotFound, "InterviewService.Data", "interview not found", nil)
}

type fakeQuestions struct{}

func (fakeQuestions) List(ctx context.Context, id string) (*models.QuestionSet, error) {
	return &models.QuestionSet{InterviewID: models.ID(id), Questions: []models.Question{{ID: 1, Text: "Why Go?", TimeLimit: 60}}, TotalQuestions: 1}, nil
}

func (fakeQuestions) Assign(ctx context.Context, id string, qs []models.Question) (*models.QuestionSet, error) {
	return &models.QuestionSet{InterviewID: models.ID(id), Questions: qs, TotalQuestions: len(qs)}, nil
}

type fakeAnalysis struct{ in services.AnalyzeInput }

func (f *fakeAnalysis) Analyze(ctx context.Context, id string, in services.AnalyzeInput) (*models.Analysis, error) {
	f.in = in
	a := services.PlaceholderAnalysis(in.Duration, in.EyeTracking)
	return &a, nil
}

type fakeFeedback struct{ got models.AdminFeedback }

func (f *fakeFeedback) Submit(ctx context.Context, fb models.AdminFeedback) (*models.AdminFeedbackAck, error) {
	f.got = fb
	return &models.AdminFeedbackAck{Status: "feedback_sent", Notification: services.Notify(fb, testNow)}, nil
}

func (f *fakeFeedback) ListRecent(ctx context.Context, limit int) ([]models.AdminFeedbackRecord, error) {
	if limit > 100 {
		return nil, utils.E(utils.CodeInvalidArgument, "FeedbackService.ListRecent", "limit must be between 0 and 100", nil)
	}
	return []models.AdminFeedbackRecord{{InterviewID: "42"}}, nil
}

func (f *fakeFeedback) RecentInterviews(ctx context.Context) (*models.RecentInterviews, error) {
	return &models.RecentInterviews{TotalInterviews: 1, RecentInterviews: []models.InterviewResult{{InterviewID: "42"}}}, nil
}

type fixture struct {
	r          *gin.Engine
	interviews *fakeInterviews
	analysis   *fakeAnalysis
	feedback   *fakeFeedback
}

func newFixture() *fixture {
	gin.SetMode(gin.TestMode)
	f := &fixture{interviews: &fakeInterviews{}, analysis: &fakeAnalysis{}, feedback: &fakeFeedback{}}
	ih := NewInterviewHandler(f.interviews, fakeQuestions{}, f.analysis, "en-US")
	ah := NewAdminHandler(f.feedback, f.interviews)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if u := c.GetHeader("X-Test-User"); u != "" {
			c.Set("user_id", u)
			c.Set("role", c.GetHeader("X-Test-Role"))
		}
	})
	r.GET("/interview/:id/questions", ih.Questions)
	r.PUT("/interview/:id/questions", ih.AssignQuestions)
	r.POST("/interview/:id/start", ih.Start)
	r.POST("/interview/:id/analyze", ih.Analyze)
	r.POST("/interview/:id/answer", ih.Answer)
	r.POST("/interview/:id/complete", ih.Complete)
	r.POST("/admin/interview-feedback", ah.SendFeedback)
	r.GET("/admin/interview-feedback", ah.ListFeedback)
	r.GET("/admin/recent-interviews", ah.RecentInterviews)
	r.GET("/admin/interview-data/:id", ah.InterviewData)
	f.r = r
	return f
}

func (f *fixture) do(method, path, contentType string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-Test-User", "user-1")
	w := httptest.NewRecorder()
	f.r.ServeHTTP(w, req)
	return w
}

func (f *fixture) json(method, path string, v any) *httptest.ResponseRecorder {
	var b []byte
	if v != nil {
		b, _ = json.Marshal(v)
	}
	return f.do(method, path, "application/json", b)
}

func TestQuestionsAndStart(t *testing.T) {
	f := newFixture()

	w := f.json(http.MethodGet, "/interview/42/questions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var set models.QuestionSet
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &set))
	assert.Equal(t, models.ID("42"), set.InterviewID)
	assert.Contains(t, w.Body.String(), `"interview_id":42`)

	w = f.json(http.MethodPost, "/interview/42/start", struct{}{})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1", f.interviews.startedBy)

	f.interviews.err = utils.E(utils.CodePrecondition, "InterviewService.Start", "interview already completed", nil)
	w = f.json(http.MethodPost, "/interview/42/start", struct{}{})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"code":"FAILED_PRECONDITION","message":"interview already completed"}`, w.Body.String())
}

func TestQuestions_ZeroPaddedIDStaysAString(t *testing.T) {
	f := newFixture()

	w := f.json(http.MethodGet, "/interview/007/questions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"interview_id":"007"`)
	var set models.QuestionSet
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &set))
	assert.Equal(t, models.ID("007"), set.InterviewID)
}

func TestStart_RequiresUser(t *testing.T) {
	f := newFixture()
	req := httptest.NewRequest(http.MethodPost, "/interview/42/start", nil)
	w := httptest.NewRecorder()
	f.r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAnswer(t *testing.T) {
	f := newFixture()

	w := f.json(http.MethodPost, "/interview/42/answer", models.AnswerRequest{QuestionID: 1, Answer: "short", AudioDuration: 2})
	require.Equal(t, http.StatusOK, w.Code)
	var res models.AnswerResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.False(t, res.FraudAnalysis.IsAuthentic)
	assert.Equal(t, 1, f.interviews.answer.QuestionID)

	w = f.do(http.MethodPost, "/interview/42/answer", "application/json", []byte(`{not json`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyze_Multipart(t *testing.T) {
	f := newFixture()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreatePart(map[string][]string{
		"Content-Disposition": {`form-data; name="audio"; filename="recording.webm"`},
		"Content-Type":        {"audio/webm"},
	})
	require.NoError(t, err)
	_, _ = part.Write([]byte("opus-bytes"))
	require.NoError(t, mw.WriteField("duration", "12.6"))
	require.NoError(t, mw.WriteField("question_id", "3"))
	require.NoError(t, mw.WriteField("eye_tracking_data", `{"eyeMovements":2,"gazeDirection":"left","attentionScore":70,"distractionCount":1}`))
	require.NoError(t, mw.Close())

	w := f.do(http.MethodPost, "/interview/42/analyze", mw.FormDataContentType(), body.Bytes())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	in := f.analysis.in
	assert.Equal(t, 12, in.Duration)
	assert.Equal(t, 3, in.QuestionID)
	assert.Equal(t, "audio/webm", in.ContentType)
	assert.Equal(t, []byte("opus-bytes"), in.Audio)
	assert.Equal(t, "en-US", in.Language)
	require.NotNil(t, in.EyeTracking)
	assert.Equal(t, 70, in.EyeTracking.AttentionScore)

	var resp models.AnalyzeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Analysis)
	assert.Equal(t, "left", resp.Analysis.EyeTracking.GazeDirection)
	assert.Contains(t, w.Body.String(), `"processed_at"`)
}

func TestAnalyze_RejectsBadFields(t *testing.T) {
	f := newFixture()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("eye_tracking_data", "{"))
	require.NoError(t, mw.Close())
	w := f.do(http.MethodPost, "/interview/42/analyze", mw.FormDataContentType(), body.Bytes())
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.json(http.MethodPost, "/interview/42/analyze", map[string]any{"duration": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestComplete_EmptyBodyUsesDefaults(t *testing.T) {
	f := newFixture()

	w := f.do(http.MethodPost, "/interview/42/complete", "application/json", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var sum models.CompletionSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sum))
	assert.Equal(t, 82.5, sum.OverallScore)
	assert.Equal(t, "Strong candidate", sum.Recommendation)
}

func TestAdminEndpoints(t *testing.T) {
	f := newFixture()

	w := f.json(http.MethodPost, "/admin/interview-feedback", models.AdminFeedback{InterviewID: "42", Recommendations: "Hire"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Hire", f.feedback.got.Recommendations)
	assert.Contains(t, w.Body.String(), `"candidate_id":"candidate_42"`)

	w = f.json(http.MethodGet, "/admin/interview-feedback?limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = f.json(http.MethodGet, "/admin/interview-feedback?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = f.json(http.MethodGet, "/admin/interview-feedback?limit=500", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.json(http.MethodGet, "/admin/recent-interviews", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_interviews":1`)

	w = f.json(http.MethodGet, "/admin/interview-data/404", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAssignQuestions(t *testing.T) {
	f := newFixture()
	w := f.json(http.MethodPut, "/interview/42/questions", map[string]any{
		"questions": []models.Question{{Text: "Why Go?", TimeLimit: 60}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_questions":1`)

	w = f.json(http.MethodPut, "/interview/42/questions", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

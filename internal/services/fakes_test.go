package services

import (
	"context"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hireflow/interviewer/config"
	"github.com/hireflow/interviewer/internal/models"
	"github.com/hireflow/interviewer/internal/utils"
)

var testNow = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

func clock() time.Time { return testNow }

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, config.Migrate(db))
	return db
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

type fakeSessions struct {
	mu   sync.Mutex
	byID map[string]models.InterviewSession
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{byID: map[string]models.InterviewSession{}}
}

func (f *fakeSessions) Start(ctx context.Context, s *models.InterviewSession) (*models.InterviewSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.byID[s.InterviewID]
	if ok && cur.Status == models.SessionCompleted {
		return nil, utils.ErrConflict
	}
	if !ok {
		cur = models.InterviewSession{InterviewID: s.InterviewID, CandidateID: s.CandidateID}
	}
	cur.Status = models.SessionInProgress
	cur.StartedAt = s.StartedAt
	cur.QuestionCount = s.QuestionCount
	f.byID[s.InterviewID] = cur
	return &cur, nil
}

func (f *fakeSessions) Get(ctx context.Context, id string) (*models.InterviewSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return &s, nil
}

func (f *fakeSessions) Complete(ctx context.Context, id string, at time.Time, eye models.EyeTracking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[id]
	if !ok {
		return utils.ErrNotFound
	}
	s.Status = models.SessionCompleted
	s.CompletedAt = &at
	s.LastEyeTracking = &eye
	f.byID[id] = s
	return nil
}

type answerKey struct {
	interview string
	question  int
}

type fakeAnswers struct {
	mu   sync.Mutex
	docs map[answerKey]models.AnswerDoc
}

func newFakeAnswers() *fakeAnswers {
	return &fakeAnswers{docs: map[answerKey]models.AnswerDoc{}}
}

func (f *fakeAnswers) update(id string, q int, fn func(*models.AnswerDoc)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := answerKey{id, q}
	d := f.docs[k]
	d.InterviewID, d.QuestionID = id, q
	fn(&d)
	f.docs[k] = d
}

func (f *fakeAnswers) SaveAnswer(ctx context.Context, a *models.AnswerDoc) error {
	f.update(a.InterviewID, a.QuestionID, func(d *models.AnswerDoc) {
		d.Answer, d.AudioDuration, d.VoiceConfidence = a.Answer, a.AudioDuration, a.VoiceConfidence
		d.EyeTracking, d.Fraud, d.Content, d.SubmittedAt = a.EyeTracking, a.Fraud, a.Content, a.SubmittedAt
	})
	return nil
}

func (f *fakeAnswers) SaveAnalysis(ctx context.Context, id string, q int, rec *models.Recording, a *models.Analysis) error {
	f.update(id, q, func(d *models.AnswerDoc) {
		d.Analysis = a
		d.AnalysisStatus = models.AnalysisPending
		if rec != nil {
			d.Recording = rec
		}
	})
	return nil
}

func (f *fakeAnswers) MarkTranscript(ctx context.Context, id string, q int, text string, conf float64, st models.AnalysisStatus) error {
	f.update(id, q, func(d *models.AnswerDoc) { d.Transcript, d.TranscriptConfidence, d.AnalysisStatus = text, conf, st })
	return nil
}

func (f *fakeAnswers) MarkCoaching(ctx context.Context, id string, q int, coaching string, st models.AnalysisStatus, ms int64) error {
	f.update(id, q, func(d *models.AnswerDoc) { d.Coaching, d.AnalysisStatus, d.ProcessingTimeMS = coaching, st, ms })
	return nil
}

func (f *fakeAnswers) Get(ctx context.Context, id string, q int) (*models.AnswerDoc, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[answerKey{id, q}]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return &d, nil
}

func (f *fakeAnswers) ListByInterview(ctx context.Context, id string) ([]models.AnswerDoc, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.AnswerDoc
	for k, d := range f.docs {
		if k.interview == id {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out, nil
}

type fakeUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func (u *fakeUploader) Upload(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.objects == nil {
		u.objects = map[string][]byte{}
	}
	u.objects[name] = b
	return "gs://test-bucket/" + name, nil
}

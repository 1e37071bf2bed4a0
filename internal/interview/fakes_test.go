package interview

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hireflow/interviewer/internal/models"
)

// virtualScheduler fires registered tasks only when the test advances it.
type virtualScheduler struct {
	mu    sync.Mutex
	tasks []*virtualTask
}

type virtualTask struct {
	fn      func()
	stopped atomic.Bool
}

func (t *virtualTask) Stop() { t.stopped.Store(true) }

func (v *virtualScheduler) Every(_ time.Duration, fn func()) Handle {
	t := &virtualTask{fn: fn}
	v.mu.Lock()
	v.tasks = append(v.tasks, t)
	v.mu.Unlock()
	return t
}

// Advance simulates n elapsed seconds.
func (v *virtualScheduler) Advance(n int) {
	for i := 0; i < n; i++ {
		v.mu.Lock()
		tasks := append([]*virtualTask(nil), v.tasks...)
		v.mu.Unlock()
		for _, t := range tasks {
			if !t.stopped.Load() {
				t.fn()
			}
		}
	}
}

func (v *virtualScheduler) Active() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	n := 0
	for _, t := range v.tasks {
		if !t.stopped.Load() {
			n++
		}
	}
	return n
}

type fakeAPI struct {
	mu sync.Mutex

	questions   *models.QuestionSet
	questionErr error
	startErr    error
	analysis    *models.Analysis
	analyzeErr  error
	analyzeGate chan struct{}
	// answerErrs is consumed one per call; nil entries mean success
	answerErrs  []error
	verdict     models.FraudAnalysis
	answerGate  chan struct{}
	completeErr []error
	summary     *models.CompletionSummary
	feedbackErr error

	startCalls    int
	analyzeCalls  []AnalyzeRequest
	answerCalls   []models.AnswerRequest
	completeCalls []models.CompletionRequest
	feedbackCalls []models.AdminFeedback
}

func newFakeAPI(limits ...int) *fakeAPI {
	set := &models.QuestionSet{InterviewID: "42", EstimatedDuration: "15-20 minutes"}
	for i, l := range limits {
		set.Questions = append(set.Questions, models.Question{
			ID:        i + 1,
			Text:      "question " + string(rune('A'+i)),
			Skill:     "Go",
			Type:      "technical",
			TimeLimit: l,
		})
	}
	set.TotalQuestions = len(set.Questions)
	return &fakeAPI{
		questions: set,
		verdict:   models.FraudAnalysis{IsAuthentic: true, ConfidenceScore: 0.85, RedFlags: []string{}},
		analysis:  &models.Analysis{FraudAnalysis: models.FraudAnalysis{IsAuthentic: true, ConfidenceScore: 0.85}, OverallScore: 80},
		summary:   &models.CompletionSummary{InterviewID: "42", OverallScore: 84.5, Recommendation: "Strong candidate"},
	}
}

func (f *fakeAPI) Questions(ctx context.Context, interviewID string) (*models.QuestionSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.questionErr != nil {
		return nil, f.questionErr
	}
	return f.questions, nil
}

func (f *fakeAPI) Start(ctx context.Context, interviewID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startCalls++
	return f.startErr
}

func (f *fakeAPI) Analyze(ctx context.Context, interviewID string, req AnalyzeRequest) (*models.Analysis, error) {
	f.mu.Lock()
	f.analyzeCalls = append(f.analyzeCalls, req)
	gate := f.analyzeGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.analyzeErr != nil {
		return nil, f.analyzeErr
	}
	a := *f.analysis
	return &a, nil
}

func (f *fakeAPI) SubmitAnswer(ctx context.Context, interviewID string, req models.AnswerRequest) (*models.AnswerResult, error) {
	if f.answerGate != nil {
		<-f.answerGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answerCalls = append(f.answerCalls, req)
	if len(f.answerErrs) > 0 {
		err := f.answerErrs[0]
		f.answerErrs = f.answerErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	v := f.verdict
	return &models.AnswerResult{QuestionID: req.QuestionID, AnswerSubmitted: true, FraudAnalysis: &v}, nil
}

func (f *fakeAPI) Complete(ctx context.Context, interviewID string, req models.CompletionRequest) (*models.CompletionSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completeCalls = append(f.completeCalls, req)
	if len(f.completeErr) > 0 {
		err := f.completeErr[0]
		f.completeErr = f.completeErr[1:]
		if err != nil {
			return nil, err
		}
	}
	s := *f.summary
	return &s, nil
}

func (f *fakeAPI) SendAdminFeedback(ctx context.Context, fb models.AdminFeedback) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.feedbackCalls = append(f.feedbackCalls, fb)
	return f.feedbackErr
}

func (f *fakeAPI) counts() (answers, analyzes, completes, feedbacks int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.answerCalls), len(f.analyzeCalls), len(f.completeCalls), len(f.feedbackCalls)
}

type fakeCapture struct {
	mu       sync.Mutex
	deny     bool
	active   int
	acquired int
}

var errPermissionDenied = errors.New("permission denied")

func (f *fakeCapture) Acquire(ctx context.Context, opts CaptureOptions) (Recording, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deny {
		return nil, errPermissionDenied
	}
	f.active++
	f.acquired++
	return &fakeRecording{owner: f}, nil
}

func (f *fakeCapture) Active() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

type fakeRecording struct {
	owner *fakeCapture
	once  sync.Once
}

func (r *fakeRecording) Stop() (Media, error) {
	r.once.Do(func() {
		r.owner.mu.Lock()
		r.owner.active--
		r.owner.mu.Unlock()
	})
	return Media{Data: []byte("RIFF....WAVE"), ContentType: "audio/wav"}, nil
}

type fakeTranscriber struct {
	text string
	conf float64
}

func (f fakeTranscriber) Transcribe(ctx context.Context, audio []byte, language string) (string, float64, error) {
	return f.text, f.conf, nil
}

type harness struct {
	c       *Controller
	api     *fakeAPI
	capture *fakeCapture
	sched   *virtualScheduler
}

func newHarness(t *testing.T, api *fakeAPI, mutate ...func(*Deps)) *harness {
	t.Helper()
	l := logrus.New()
	l.SetOutput(io.Discard)

	h := &harness{api: api, capture: &fakeCapture{}, sched: &virtualScheduler{}}
	d := Deps{
		API:       api,
		Capture:   h.capture,
		Metrics:   NewSimulatedSource(7),
		Scheduler: h.sched,
		Now:       func() time.Time { return time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC) },
		Logger:    l,
	}
	for _, m := range mutate {
		m(&d)
	}
	h.c = New(d)
	t.Cleanup(h.c.Close)
	return h
}

func (h *harness) started(t *testing.T) *harness {
	t.Helper()
	if err := h.c.Load(context.Background(), "42"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := h.c.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	return h
}

func (h *harness) snap(t *testing.T) Snapshot {
	t.Helper()
	s, ok := h.c.Snapshot()
	if !ok {
		t.Fatal("no session")
	}
	return s
}

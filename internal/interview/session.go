package interview

import (
	"time"

	"github.com/hireflow/interviewer/internal/models"
)

type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Review marks an answer whose authenticity verdict came back negative.
type Review struct {
	RequiresReview  bool
	ConfidenceScore float64
	RedFlags        []string
}

// Warning is a non-fatal failure of a best-effort call.
type Warning struct {
	Op  string
	Err error
}

func (w Warning) String() string {
	if w.Err == nil {
		return w.Op
	}
	return w.Op + ": " + w.Err.Error()
}

// session is the aggregate owned by a Controller. All access goes through the
// controller mutex.
type session struct {
	interviewID       string
	questions         []models.Question
	estimatedDuration string

	status        Status
	currentIndex  int
	timeRemaining int
	isRecording   bool
	metrics       models.EyeTracking

	answers     map[int]string
	submitted   map[int]bool
	reviews     map[int]Review
	analyses    map[int]*models.Analysis
	transcripts map[int]string
	confidence  map[int]float64 // transcription confidence per question
	recorded    map[int]int     // seconds of capture per question

	summary  *models.CompletionSummary
	warnings []Warning

	startedAt   time.Time
	completedAt time.Time
}

func newSession(interviewID string, set *models.QuestionSet) *session {
	qs := make([]models.Question, len(set.Questions))
	copy(qs, set.Questions)
	return &session{
		interviewID:       interviewID,
		questions:         qs,
		estimatedDuration: set.EstimatedDuration,
		status:            StatusNotStarted,
		metrics:           models.InitialEyeTracking(),
		answers:           map[int]string{},
		submitted:         map[int]bool{},
		reviews:           map[int]Review{},
		analyses:          map[int]*models.Analysis{},
		transcripts:       map[int]string{},
		confidence:        map[int]float64{},
		recorded:          map[int]int{},
	}
}

func (s *session) lastIndex() int { return len(s.questions) - 1 }

func (s *session) current() models.Question { return s.questions[s.currentIndex] }

// Snapshot is a read-only copy of the session state for rendering.
type Snapshot struct {
	InterviewID       string
	Questions         []models.Question
	EstimatedDuration string
	Status            Status
	CurrentIndex      int
	TimeRemaining     int
	IsRecording       bool
	Metrics           models.EyeTracking
	Answers           map[int]string
	Reviews           map[int]Review
	Analyses          map[int]models.Analysis
	Transcripts       map[int]string
	Summary           *models.CompletionSummary
	Warnings          []Warning
	StartedAt         time.Time
	CompletedAt       time.Time
}

func (s *session) snapshot() Snapshot {
	out := Snapshot{
		InterviewID:       s.interviewID,
		Questions:         append([]models.Question(nil), s.questions...),
		EstimatedDuration: s.estimatedDuration,
		Status:            s.status,
		CurrentIndex:      s.currentIndex,
		TimeRemaining:     s.timeRemaining,
		IsRecording:       s.isRecording,
		Metrics:           s.metrics,
		Answers:           make(map[int]string, len(s.answers)),
		Reviews:           make(map[int]Review, len(s.reviews)),
		Analyses:          make(map[int]models.Analysis, len(s.analyses)),
		Transcripts:       make(map[int]string, len(s.transcripts)),
		Warnings:          append([]Warning(nil), s.warnings...),
		StartedAt:         s.startedAt,
		CompletedAt:       s.completedAt,
	}
	for k, v := range s.answers {
		out.Answers[k] = v
	}
	for k, v := range s.reviews {
		v.RedFlags = append([]string(nil), v.RedFlags...)
		out.Reviews[k] = v
	}
	for k, v := range s.analyses {
		out.Analyses[k] = *v
	}
	for k, v := range s.transcripts {
		out.Transcripts[k] = v
	}
	if s.summary != nil {
		sum := *s.summary
		out.Summary = &sum
	}
	return out
}

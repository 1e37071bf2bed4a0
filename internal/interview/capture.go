package interview

import (
	"context"

	"github.com/hireflow/interviewer/internal/models"
)

// API is the Interview API collaborator. apiclient.Client implements it.
type API interface {
	Questions(ctx context.Context, interviewID string) (*models.QuestionSet, error)
	Start(ctx context.Context, interviewID string) error
	Analyze(ctx context.Context, interviewID string, req AnalyzeRequest) (*models.Analysis, error)
	SubmitAnswer(ctx context.Context, interviewID string, req models.AnswerRequest) (*models.AnswerResult, error)
	Complete(ctx context.Context, interviewID string, req models.CompletionRequest) (*models.CompletionSummary, error)
	SendAdminFeedback(ctx context.Context, fb models.AdminFeedback) error
}

// AnalyzeRequest is the multipart body of POST /interview/{id}/analyze.
type AnalyzeRequest struct {
	QuestionID int
	Media      Media
	Metrics    models.EyeTracking
}

// Media is an opaque captured audio/video blob.
type Media struct {
	Data        []byte
	ContentType string
	Seconds     int
}

type CaptureOptions struct {
	Audio bool
	Video bool
}

// AudioCapture grants exclusive access to the capture device. Acquire fails
// when access is denied or the device is already owned.
type AudioCapture interface {
	Acquire(ctx context.Context, opts CaptureOptions) (Recording, error)
}

// Recording is an acquired device. Stop releases it and returns what was captured.
type Recording interface {
	Stop() (Media, error)
}

// SpeechTranscriber turns captured audio into text. stt.GoogleSpeech satisfies it.
type SpeechTranscriber interface {
	Transcribe(ctx context.Context, audio []byte, language string) (text string, confidence float64, err error)
}

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
)

// InterviewSession is the Mongo record of one interview run.
type InterviewSession struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	InterviewID string             `bson:"interview_id" json:"interview_id"`
	CandidateID string             `bson:"candidate_id" json:"candidate_id"`
	Status      SessionStatus      `bson:"status" json:"status"`

	QuestionCount   int          `bson:"question_count" json:"question_count"`
	LastEyeTracking *EyeTracking `bson:"last_eye_tracking,omitempty" json:"last_eye_tracking,omitempty"`

	StartedAt   time.Time  `bson:"started_at" json:"started_at"`
	CompletedAt *time.Time `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
}

type AnalysisStatus string

const (
	AnalysisPending    AnalysisStatus = "pending"
	AnalysisProcessing AnalysisStatus = "processing"
	AnalysisDone       AnalysisStatus = "done"
	AnalysisFailed     AnalysisStatus = "failed"
)

// Recording points at an uploaded answer recording.
type Recording struct {
	Path        string `bson:"path" json:"path"`
	ContentType string `bson:"content_type" json:"content_type"`
	Size        int64  `bson:"size" json:"size"`
	Seconds     int    `bson:"seconds" json:"seconds"`
}

// AnswerDoc is one answer together with everything derived from it.
type AnswerDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	InterviewID string             `bson:"interview_id" json:"interview_id"`
	QuestionID  int                `bson:"question_id" json:"question_id"`

	Answer          string           `bson:"answer,omitempty" json:"answer,omitempty"`
	AudioDuration   int              `bson:"audio_duration" json:"audio_duration"`
	VoiceConfidence *float64         `bson:"voice_confidence,omitempty" json:"voice_confidence,omitempty"`
	EyeTracking     *EyeTracking     `bson:"eye_tracking,omitempty" json:"eye_tracking,omitempty"`
	Fraud           *FraudAnalysis   `bson:"fraud_analysis,omitempty" json:"fraud_analysis,omitempty"`
	Content         *ContentAnalysis `bson:"answer_analysis,omitempty" json:"answer_analysis,omitempty"`
	Analysis        *Analysis        `bson:"analysis,omitempty" json:"analysis,omitempty"`

	Recording            *Recording     `bson:"recording,omitempty" json:"recording,omitempty"`
	AnalysisStatus       AnalysisStatus `bson:"analysis_status,omitempty" json:"analysis_status,omitempty"`
	Transcript           string         `bson:"transcript,omitempty" json:"transcript,omitempty"`
	TranscriptConfidence float64        `bson:"transcript_confidence,omitempty" json:"transcript_confidence,omitempty"`
	Coaching             string         `bson:"coaching,omitempty" json:"coaching,omitempty"`
	ProcessingTimeMS     int64          `bson:"processing_time_ms,omitempty" json:"processing_time_ms,omitempty"`

	SubmittedAt *time.Time `bson:"submitted_at,omitempty" json:"submitted_at,omitempty"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
}

// InterviewData is everything stored for one interview.
type InterviewData struct {
	Session  *InterviewSession     `json:"session"`
	Answers  []AnswerDoc           `json:"answers"`
	Result   *InterviewResult      `json:"result,omitempty"`
	Feedback []AdminFeedbackRecord `json:"feedback"`
}

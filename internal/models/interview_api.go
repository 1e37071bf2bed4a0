package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Wire types shared by the interview controller (client side) and the
// Interview API server.

// ID is an opaque identifier that may arrive as a JSON number or string.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON emits canonical integer ids ("42", "-7") as JSON numbers and
// everything else, including "007" and "+5", as strings.
func (id ID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

type Question struct {
	ID        int    `json:"id"`
	Text      string `json:"question"`
	Skill     string `json:"skill"`
	Type      string `json:"type"`       // technical|behavioral|...
	TimeLimit int    `json:"time_limit"` // seconds
}

type QuestionSet struct {
	InterviewID       ID         `json:"interview_id"`
	Questions         []Question `json:"questions"`
	TotalQuestions    int        `json:"total_questions"`
	EstimatedDuration string     `json:"estimated_duration"`
}

type Gaze string

const (
	GazeCenter Gaze = "center"
	GazeLeft   Gaze = "left"
	GazeRight  Gaze = "right"
	GazeUp     Gaze = "up"
	GazeDown   Gaze = "down"
)

// EyeTracking is the simulated gaze snapshot; field names follow the browser client.
type EyeTracking struct {
	EyeMovements     int  `json:"eyeMovements" bson:"eye_movements"`
	GazeDirection    Gaze `json:"gazeDirection" bson:"gaze_direction"`
	AttentionScore   int  `json:"attentionScore" bson:"attention_score"`
	DistractionCount int  `json:"distractionCount" bson:"distraction_count"`
}

func InitialEyeTracking() EyeTracking {
	return EyeTracking{AttentionScore: 100, GazeDirection: GazeCenter}
}

// FraudDetectionConfig tells the candidate which checks run during the interview.
type FraudDetectionConfig struct {
	Enabled         bool `json:"enabled"`
	VoiceAnalysis   bool `json:"voice_analysis"`
	EyeTracking     bool `json:"eye_tracking"`
	BackgroundCheck bool `json:"background_check"`
}

type StartAck struct {
	InterviewID    ID                    `json:"interview_id"`
	Status         string                `json:"status"`
	StartedAt      string                `json:"started_at"`
	FraudDetection *FraudDetectionConfig `json:"fraud_detection,omitempty"`
	Instructions   []string              `json:"instructions,omitempty"`
}

type FraudAnalysis struct {
	IsAuthentic     bool     `json:"is_authentic" bson:"is_authentic"`
	ConfidenceScore float64  `json:"confidence_score" bson:"confidence_score"`
	RedFlags        []string `json:"red_flags" bson:"red_flags"`
}

type SpeechAnalysis struct {
	Confidence    float64 `json:"confidence" bson:"confidence"`
	Clarity       float64 `json:"clarity" bson:"clarity"`
	Pace          float64 `json:"pace" bson:"pace"`
	FillerWords   int     `json:"filler_words" bson:"filler_words"`
	Transcription string  `json:"transcription" bson:"transcription"`
}

type ContentAnalysis struct {
	RelevanceScore       float64  `json:"relevance_score" bson:"relevance_score"`
	TechnicalDepth       float64  `json:"technical_depth" bson:"technical_depth"`
	CommunicationQuality float64  `json:"communication_quality" bson:"communication_quality"`
	KeywordsFound        []string `json:"keywords_found" bson:"keywords_found"`
	Suggestions          string   `json:"suggestions,omitempty" bson:"suggestions,omitempty"`
}

type EyeTrackingAnalysis struct {
	EyeMovements     int    `json:"eye_movements" bson:"eye_movements"`
	GazeDirection    string `json:"gaze_direction" bson:"gaze_direction"`
	AttentionScore   int    `json:"attention_score" bson:"attention_score"`
	DistractionCount int    `json:"distraction_count" bson:"distraction_count"`
}

// Analysis is the result of POST /interview/{id}/analyze.
type Analysis struct {
	FraudAnalysis   `bson:",inline"`
	EyeTracking     EyeTrackingAnalysis `json:"eye_tracking" bson:"eye_tracking"`
	SpeechAnalysis  SpeechAnalysis      `json:"speech_analysis" bson:"speech_analysis"`
	ContentAnalysis ContentAnalysis     `json:"content_analysis" bson:"content_analysis"`
	OverallScore    float64             `json:"overall_score" bson:"overall_score"`
}

type AnalyzeResponse struct {
	Analysis *Analysis `json:"analysis"`
}

type AnswerRequest struct {
	QuestionID      int          `json:"question_id"`
	Answer          string       `json:"answer"`
	AudioDuration   int          `json:"audio_duration"`
	VoiceConfidence *float64     `json:"voice_confidence,omitempty"`
	EyeTracking     *EyeTracking `json:"eye_tracking,omitempty"`
}

type AnswerResult struct {
	InterviewID     ID               `json:"interview_id"`
	QuestionID      int              `json:"question_id"`
	AnswerSubmitted bool             `json:"answer_submitted"`
	FraudAnalysis   *FraudAnalysis   `json:"fraud_analysis"`
	AnswerAnalysis  *ContentAnalysis `json:"answer_analysis,omitempty"`
	NextQuestion    *int             `json:"next_question"`
	SubmittedAt     string           `json:"submitted_at,omitempty"`
}

// AnswerRecord is one entry of all_answers in the completion payload.
type AnswerRecord struct {
	QuestionID     int      `json:"question_id"`
	Question       string   `json:"question"`
	Answer         string   `json:"answer"`
	Score          *float64 `json:"score,omitempty"`
	RequiresReview bool     `json:"requires_review,omitempty"`
	RedFlags       []string `json:"red_flags,omitempty"`
}

type CompletionRequest struct {
	TotalAnswers       int            `json:"total_answers"`
	EyeTrackingSummary EyeTracking    `json:"eye_tracking_summary"`
	OverallAnalysis    *Analysis      `json:"overall_analysis"`
	AllAnswers         []AnswerRecord `json:"all_answers"`
	InterviewQuestions []Question     `json:"interview_questions"`
	CompletedAt        string         `json:"completed_at"`
}

type FraudVerdict struct {
	Passed         bool     `json:"passed"`
	Score          float64  `json:"score"`
	RedFlags       []string `json:"red_flags"`
	Recommendation string   `json:"recommendation"`
}

type AttentionSummary struct {
	AttentionScore   float64 `json:"attention_score"`
	EyeMovements     int     `json:"eye_movements"`
	DistractionCount int     `json:"distraction_count"`
	FocusQuality     string  `json:"focus_quality"`
}

type SpeechSummary struct {
	Confidence           float64 `json:"confidence"`
	Clarity              float64 `json:"clarity"`
	CommunicationQuality float64 `json:"communication_quality"`
}

type TechnicalAssessment struct {
	Score               float64  `json:"score"`
	Relevance           float64  `json:"relevance"`
	TechnicalDepth      float64  `json:"technical_depth"`
	KeywordsFound       []string `json:"keywords_found"`
	Strengths           []string `json:"strengths"`
	AreasForImprovement []string `json:"areas_for_improvement"`
}

// CompletionSummary is the response of POST /interview/{id}/complete.
type CompletionSummary struct {
	InterviewID         ID                  `json:"interview_id"`
	OverallScore        float64             `json:"overall_score"`
	FraudDetection      FraudVerdict        `json:"fraud_detection"`
	EyeTrackingAnalysis AttentionSummary    `json:"eye_tracking_analysis"`
	SpeechAnalysis      SpeechSummary       `json:"speech_analysis"`
	TechnicalAssessment TechnicalAssessment `json:"technical_assessment"`
	InterviewAnswers    []AnswerRecord      `json:"interview_answers,omitempty"`
	Recommendation      string              `json:"recommendation"`
	CompletedAt         string              `json:"completed_at"`
}

type AdminFeedback struct {
	InterviewID          ID                 `json:"interview_id"`
	CandidatePerformance *CompletionSummary `json:"candidate_performance"`
	Recommendations      string             `json:"recommendations"`
	AllAnswers           []AnswerRecord     `json:"all_answers"`
}

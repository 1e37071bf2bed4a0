package services

import (
	"math"
	"time"
	"unicode/utf8"

	"github.com/hireflow/interviewer/internal/models"
)

// Thresholds for the rule-based answer verdict.
const (
	minVoiceConfidence = 0.6
	minAudioSeconds    = 5
	minAnswerChars     = 20
	minAnswerAttention = 50
	maxAnswerDistract  = 10

	// analyze uses stricter attention rules than answer
	minAnalyzeAttention = 60
	maxAnalyzeDistract  = 5

	baseConfidence    = 0.85
	defaultAnswerMark = 8.0
	reviewBelow       = 75.0
	strongAbove       = 0.75
	fraudPassAbove    = 0.7
)

const (
	FlagLowVoiceConfidence = "Low voice confidence"
	FlagShortResponse      = "Very short response"
	FlagBriefText          = "Very brief text response"
	FlagLowAttention       = "Low attention score"
	FlagHighDistraction    = "High distraction count"
)

// Defaults used when the client does not report a value.
const (
	defaultVoiceConfidence = 0.8
	defaultRelevance       = 0.8
	defaultTechnicalDepth  = 0.7
	defaultCommunication   = 0.9
	defaultClarity         = 0.9
	defaultPace            = 0.8
	defaultFillerWords     = 2
	placeholderOverall     = 82.5
	placeholderTranscript  = "Audio transcription would appear here"
	placeholderSuggestions = "Good technical understanding demonstrated"
)

var placeholderKeywords = []string{"Python", "experience", "project"}

var startInstructions = []string{
	"Speak clearly and directly into your microphone",
	"Answer each question within the time limit",
	"Be honest and authentic in your responses",
	"The system will detect any suspicious behavior",
}

func placeholderContent() models.ContentAnalysis {
	return models.ContentAnalysis{
		RelevanceScore:       defaultRelevance,
		TechnicalDepth:       defaultTechnicalDepth,
		CommunicationQuality: defaultCommunication,
		KeywordsFound:        append([]string(nil), placeholderKeywords...),
		Suggestions:          placeholderSuggestions,
	}
}

// EvaluateAnswer applies the answer rules. Every raised flag marks the
// answer inauthentic.
func EvaluateAnswer(req models.AnswerRequest) (models.FraudAnalysis, models.ContentAnalysis) {
	voice := defaultVoiceConfidence
	if req.VoiceConfidence != nil {
		voice = *req.VoiceConfidence
	}
	eye := models.InitialEyeTracking()
	if req.EyeTracking != nil {
		eye = *req.EyeTracking
	}

	flags := []string{}
	if voice < minVoiceConfidence {
		flags = append(flags, FlagLowVoiceConfidence)
	}
	if req.AudioDuration < minAudioSeconds {
		flags = append(flags, FlagShortResponse)
	}
	// characters, not bytes, and whitespace counts
	if utf8.RuneCountInString(req.Answer) < minAnswerChars {
		flags = append(flags, FlagBriefText)
	}
	if eye.AttentionScore < minAnswerAttention {
		flags = append(flags, FlagLowAttention)
	}
	if eye.DistractionCount > maxAnswerDistract {
		flags = append(flags, FlagHighDistraction)
	}

	fraud := models.FraudAnalysis{
		IsAuthentic:     len(flags) == 0,
		ConfidenceScore: baseConfidence,
		RedFlags:        flags,
	}
	return fraud, placeholderContent()
}

// PlaceholderAnalysis is returned by analyze before the worker has
// transcribed the media. It echoes the gaze snapshot.
func PlaceholderAnalysis(duration int, eye *models.EyeTracking) models.Analysis {
	et := models.InitialEyeTracking()
	if eye != nil {
		et = *eye
		if et.GazeDirection == "" {
			et.GazeDirection = models.GazeCenter
		}
	}

	flags := []string{}
	if et.AttentionScore < minAnalyzeAttention {
		flags = append(flags, FlagLowAttention)
	}
	if et.DistractionCount > maxAnalyzeDistract {
		flags = append(flags, FlagHighDistraction)
	}
	if duration < minAudioSeconds {
		flags = append(flags, FlagShortResponse)
	}

	return models.Analysis{
		FraudAnalysis: models.FraudAnalysis{
			IsAuthentic:     true,
			ConfidenceScore: baseConfidence,
			RedFlags:        flags,
		},
		EyeTracking: models.EyeTrackingAnalysis{
			EyeMovements:     et.EyeMovements,
			GazeDirection:    string(et.GazeDirection),
			AttentionScore:   et.AttentionScore,
			DistractionCount: et.DistractionCount,
		},
		SpeechAnalysis: models.SpeechAnalysis{
			Confidence:    baseConfidence,
			Clarity:       defaultClarity,
			Pace:          defaultPace,
			FillerWords:   defaultFillerWords,
			Transcription: placeholderTranscript,
		},
		ContentAnalysis: placeholderContent(),
		OverallScore:    placeholderOverall,
	}
}

// Scores are the four components of the overall interview score.
type Scores struct {
	Fraud     float64
	Technical float64
	Attention float64
	AvgAnswer float64
	Overall   float64
}

func (s Scores) mean() float64 {
	return (s.Fraud + s.Technical + s.Attention + s.AvgAnswer/10) / 4
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ComputeScores derives the component scores of a completion request.
// Missing values fall back to the same defaults the analyze placeholder uses.
func ComputeScores(req models.CompletionRequest) Scores {
	var s Scores

	s.Fraud = baseConfidence
	s.Technical = defaultRelevance
	if oa := req.OverallAnalysis; oa != nil {
		s.Fraud = oa.ConfidenceScore
		s.Technical = orDefault(oa.ContentAnalysis.RelevanceScore, defaultRelevance)
	}

	s.Attention = baseConfidence
	if req.EyeTrackingSummary != (models.EyeTracking{}) {
		s.Attention = float64(req.EyeTrackingSummary.AttentionScore) / 100
	}

	s.AvgAnswer = defaultAnswerMark
	if len(req.AllAnswers) > 0 {
		var sum float64
		for _, a := range req.AllAnswers {
			if a.Score != nil {
				sum += *a.Score
			} else {
				sum += defaultAnswerMark
			}
		}
		s.AvgAnswer = sum / float64(len(req.AllAnswers))
	}

	s.Overall = round2(s.mean() * 100)
	return s
}

// Summarize builds the completion summary for interviewID.
func Summarize(interviewID string, req models.CompletionRequest, now time.Time) (models.CompletionSummary, Scores) {
	s := ComputeScores(req)

	var (
		flags    = []string{}
		keywords = []string{}
		content  models.ContentAnalysis
		speech   models.SpeechAnalysis
	)
	if oa := req.OverallAnalysis; oa != nil {
		if oa.RedFlags != nil {
			flags = oa.RedFlags
		}
		if oa.ContentAnalysis.KeywordsFound != nil {
			keywords = oa.ContentAnalysis.KeywordsFound
		}
		content = oa.ContentAnalysis
		speech = oa.SpeechAnalysis
	}

	fraud := models.FraudVerdict{
		Passed:         s.Fraud > fraudPassAbove,
		Score:          s.Fraud,
		RedFlags:       flags,
		Recommendation: "Requires manual review",
	}
	if fraud.Passed {
		fraud.Recommendation = "Proceed with hiring"
	}

	focus := "Needs improvement"
	if s.Attention > 0.8 {
		focus = "Good"
	}

	recommendation := "Needs further evaluation"
	if s.mean() > strongAbove {
		recommendation = "Strong candidate"
	}

	completedAt := req.CompletedAt
	if completedAt == "" {
		completedAt = now.UTC().Format(time.RFC3339)
	}

	sum := models.CompletionSummary{
		InterviewID:    models.ID(interviewID),
		OverallScore:   s.Overall,
		FraudDetection: fraud,
		EyeTrackingAnalysis: models.AttentionSummary{
			AttentionScore:   s.Attention,
			EyeMovements:     req.EyeTrackingSummary.EyeMovements,
			DistractionCount: req.EyeTrackingSummary.DistractionCount,
			FocusQuality:     focus,
		},
		SpeechAnalysis: models.SpeechSummary{
			Confidence:           orDefault(speech.Confidence, baseConfidence),
			Clarity:              orDefault(speech.Clarity, defaultClarity),
			CommunicationQuality: orDefault(content.CommunicationQuality, defaultCommunication),
		},
		TechnicalAssessment: models.TechnicalAssessment{
			Score:               s.Technical,
			Relevance:           orDefault(content.RelevanceScore, defaultRelevance),
			TechnicalDepth:      orDefault(content.TechnicalDepth, defaultTechnicalDepth),
			KeywordsFound:       keywords,
			Strengths:           []string{"Good technical knowledge", "Clear communication"},
			AreasForImprovement: []string{"Could provide more specific examples"},
		},
		InterviewAnswers: req.AllAnswers,
		Recommendation:   recommendation,
		CompletedAt:      completedAt,
	}
	return sum, s
}

// RequiresReview reports whether an overall score needs a human look.
func RequiresReview(overall float64) bool {
	return overall < reviewBelow
}

// Notify turns admin feedback into the notification sent to the dashboard.
func Notify(fb models.AdminFeedback, now time.Time) models.AdminNotification {
	var ps models.PerformanceSummary
	if p := fb.CandidatePerformance; p != nil {
		ps = models.PerformanceSummary{
			OverallScore:         p.OverallScore,
			FraudDetectionPassed: p.FraudDetection.Passed,
			AttentionScore:       p.EyeTrackingAnalysis.AttentionScore,
			TechnicalScore:       p.TechnicalAssessment.Score,
		}
	}
	rec := fb.Recommendations
	if rec == "" {
		rec = "No specific recommendations"
	}
	answers := fb.AllAnswers
	if answers == nil {
		answers = []models.AnswerRecord{}
	}
	return models.AdminNotification{
		InterviewID:        fb.InterviewID,
		CandidateID:        "candidate_" + string(fb.InterviewID),
		NotificationType:   "interview_completed",
		PerformanceSummary: ps,
		Recommendations:    rec,
		RequiresReview:     RequiresReview(ps.OverallScore),
		InterviewAnswers:   answers,
		SentAt:             now.UTC(),
	}
}

package services

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireflow/interviewer/internal/models"
)

func ptr[T any](v T) *T { return &v }

func TestEvaluateAnswer_CleanAnswer(t *testing.T) {
	fraud, content := EvaluateAnswer(models.AnswerRequest{
		QuestionID:    1,
		Answer:        "I built a data pipeline in Python for three years.",
		AudioDuration: 30,
	})
	assert.True(t, fraud.IsAuthentic)
	assert.Empty(t, fraud.RedFlags)
	assert.Equal(t, 0.85, fraud.ConfidenceScore)
	assert.Equal(t, []string{"Python", "experience", "project"}, content.KeywordsFound)
}

func TestEvaluateAnswer_EveryRuleRaisesAFlag(t *testing.T) {
	fraud, _ := EvaluateAnswer(models.AnswerRequest{
		Answer:          "short",
		AudioDuration:   3,
		VoiceConfidence: ptr(0.4),
		EyeTracking:     &models.EyeTracking{AttentionScore: 30, DistractionCount: 11},
	})
	assert.False(t, fraud.IsAuthentic)
	assert.Equal(t, []string{
		FlagLowVoiceConfidence,
		FlagShortResponse,
		FlagBriefText,
		FlagLowAttention,
		FlagHighDistraction,
	}, fraud.RedFlags)
}

func TestEvaluateAnswer_BoundariesDoNotFlag(t *testing.T) {
	fraud, _ := EvaluateAnswer(models.AnswerRequest{
		Answer:          "exactly twenty chars",
		AudioDuration:   5,
		VoiceConfidence: ptr(0.6),
		EyeTracking:     &models.EyeTracking{AttentionScore: 50, DistractionCount: 10},
	})
	assert.True(t, fraud.IsAuthentic, fraud.RedFlags)
}

func TestEvaluateAnswer_BriefTextCountsCharacters(t *testing.T) {
	cases := []struct {
		name   string
		answer string
		brief  bool
	}{
		{"19 letters", strings.Repeat("a", 19), true},
		{"20 letters", strings.Repeat("a", 20), false},
		{"padding counts", "   short answer     ", false},
		{"multibyte is one char each", strings.Repeat("é", 19), true},
		{"20 kana", strings.Repeat("あ", 20), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fraud, _ := EvaluateAnswer(models.AnswerRequest{Answer: tc.answer, AudioDuration: 30})
			if tc.brief {
				assert.Equal(t, []string{FlagBriefText}, fraud.RedFlags)
			} else {
				assert.Empty(t, fraud.RedFlags)
			}
		})
	}
}

func TestPlaceholderAnalysis_EchoesGaze(t *testing.T) {
	a := PlaceholderAnalysis(12, &models.EyeTracking{EyeMovements: 4, GazeDirection: models.GazeLeft, AttentionScore: 55, DistractionCount: 6})
	assert.True(t, a.IsAuthentic)
	assert.Equal(t, "left", a.EyeTracking.GazeDirection)
	assert.Equal(t, 4, a.EyeTracking.EyeMovements)
	assert.Equal(t, []string{FlagLowAttention, FlagHighDistraction}, a.RedFlags)
	assert.Equal(t, 82.5, a.OverallScore)
	assert.Equal(t, 2, a.SpeechAnalysis.FillerWords)

	def := PlaceholderAnalysis(2, nil)
	assert.Equal(t, "center", def.EyeTracking.GazeDirection)
	assert.Equal(t, 100, def.EyeTracking.AttentionScore)
	assert.Equal(t, []string{FlagShortResponse}, def.RedFlags)
}

func TestSummarize_Defaults(t *testing.T) {
	now := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
	sum, s := Summarize("42", models.CompletionRequest{}, now)

	assert.Equal(t, 0.85, s.Fraud)
	assert.Equal(t, 0.8, s.Technical)
	assert.Equal(t, 0.85, s.Attention)
	assert.Equal(t, 8.0, s.AvgAnswer)
	assert.Equal(t, 82.5, sum.OverallScore)
	assert.Equal(t, "Strong candidate", sum.Recommendation)
	assert.True(t, sum.FraudDetection.Passed)
	assert.Equal(t, "Proceed with hiring", sum.FraudDetection.Recommendation)
	assert.Equal(t, "Good", sum.EyeTrackingAnalysis.FocusQuality)
	assert.Equal(t, "2026-10-15T09:30:00Z", sum.CompletedAt)
	assert.NotNil(t, sum.FraudDetection.RedFlags)
	assert.False(t, RequiresReview(sum.OverallScore))
}

func TestSummarize_WeakCandidate(t *testing.T) {
	req := models.CompletionRequest{
		EyeTrackingSummary: models.EyeTracking{AttentionScore: 40, EyeMovements: 12, DistractionCount: 9, GazeDirection: models.GazeDown},
		OverallAnalysis: &models.Analysis{
			FraudAnalysis:   models.FraudAnalysis{ConfidenceScore: 0.5, RedFlags: []string{FlagLowAttention}},
			ContentAnalysis: models.ContentAnalysis{RelevanceScore: 0.6, KeywordsFound: []string{"Go"}},
		},
		AllAnswers: []models.AnswerRecord{
			{QuestionID: 1, Score: ptr(6.0)},
			{QuestionID: 2},
		},
		CompletedAt: "2026-10-15T10:00:00Z",
	}
	sum, s := Summarize("42", req, time.Now())

	assert.Equal(t, 7.0, s.AvgAnswer)
	assert.Equal(t, 0.4, s.Attention)
	assert.InDelta(t, 55.0, sum.OverallScore, 1e-9)
	assert.Equal(t, "Needs further evaluation", sum.Recommendation)
	assert.False(t, sum.FraudDetection.Passed)
	assert.Equal(t, "Requires manual review", sum.FraudDetection.Recommendation)
	assert.Equal(t, []string{FlagLowAttention}, sum.FraudDetection.RedFlags)
	assert.Equal(t, "Needs improvement", sum.EyeTrackingAnalysis.FocusQuality)
	assert.Equal(t, 12, sum.EyeTrackingAnalysis.EyeMovements)
	assert.Equal(t, []string{"Go"}, sum.TechnicalAssessment.KeywordsFound)
	assert.Equal(t, 0.7, sum.TechnicalAssessment.TechnicalDepth)
	assert.Equal(t, "2026-10-15T10:00:00Z", sum.CompletedAt)
	require.Len(t, sum.InterviewAnswers, 2)
	assert.True(t, RequiresReview(sum.OverallScore))
}

func TestNotify(t *testing.T) {
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	n := Notify(models.AdminFeedback{
		InterviewID: "42",
		CandidatePerformance: &models.CompletionSummary{
			OverallScore:        70,
			FraudDetection:      models.FraudVerdict{Passed: true},
			EyeTrackingAnalysis: models.AttentionSummary{AttentionScore: 0.9},
			TechnicalAssessment: models.TechnicalAssessment{Score: 0.8},
		},
	}, now)

	assert.Equal(t, "candidate_42", n.CandidateID)
	assert.Equal(t, "interview_completed", n.NotificationType)
	assert.Equal(t, "No specific recommendations", n.Recommendations)
	assert.True(t, n.RequiresReview)
	assert.True(t, n.PerformanceSummary.FraudDetectionPassed)
	assert.Equal(t, 0.9, n.PerformanceSummary.AttentionScore)
	assert.NotNil(t, n.InterviewAnswers)
	assert.Equal(t, now, n.SentAt)
}

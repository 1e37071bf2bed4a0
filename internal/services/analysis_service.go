package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/hireflow/interviewer/internal/models"
	mongorepo "github.com/hireflow/interviewer/internal/repositories/mongo"
	"github.com/hireflow/interviewer/internal/storage"
	"github.com/hireflow/interviewer/internal/utils"
)

// Recordings larger than this are only queued when an uploader is configured.
const maxInlineAudio = 1 << 20

type AnalyzeInput struct {
	QuestionID  int
	Duration    int
	EyeTracking *models.EyeTracking
	Audio       []byte
	ContentType string
	Language    string
}

type AnalysisService interface {
	// Analyze returns an immediate placeholder analysis and queues the
	// recording for transcription.
	Analyze(ctx context.Context, interviewID string, in AnalyzeInput) (*models.Analysis, error)
}

type analysisService struct {
	answers  mongorepo.AnswerRepository
	redis    *redis.Client
	uploader storage.Uploader
	log      *logrus.Logger
}

// NewAnalysisService accepts a nil uploader; recordings are then queued inline.
func NewAnalysisService(answers mongorepo.AnswerRepository, rdb *redis.Client, uploader storage.Uploader, log *logrus.Logger) AnalysisService {
	if log == nil {
		log = logrus.New()
	}
	return &analysisService{answers: answers, redis: rdb, uploader: uploader, log: log}
}

func (s *analysisService) Analyze(ctx context.Context, interviewID string, in AnalyzeInput) (*models.Analysis, error) {
	const op = "AnalysisService.Analyze"

	interviewID = strings.TrimSpace(interviewID)
	if interviewID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "interview_id is required", nil)
	}
	if in.Duration < 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "duration must be >= 0", nil)
	}

	analysis := PlaceholderAnalysis(in.Duration, in.EyeTracking)
	log := s.log.WithFields(logrus.Fields{"interview_id": interviewID, "question_id": in.QuestionID})

	var rec *models.Recording
	if len(in.Audio) > 0 && in.QuestionID > 0 {
		rec = &models.Recording{ContentType: in.ContentType, Size: int64(len(in.Audio)), Seconds: in.Duration}

		fields := map[string]any{
			"interview_id": interviewID,
			"question_id":  strconv.Itoa(in.QuestionID),
			"content_type": in.ContentType,
			"language":     in.Language,
		}
		switch {
		case s.uploader != nil:
			obj := storage.RecordingObject(interviewID, in.QuestionID, extensionFor(in.ContentType))
			path, err := s.uploader.Upload(ctx, obj, in.ContentType, bytes.NewReader(in.Audio))
			if err != nil {
				return nil, utils.E(utils.CodeUnavailable, op, "failed to store recording", err)
			}
			rec.Path = path
			fields["audio_path"] = path
		case len(in.Audio) <= maxInlineAudio:
			fields["audio_base64"] = base64.StdEncoding.EncodeToString(in.Audio)
		default:
			log.WithField("size", len(in.Audio)).Warn("recording too large to queue without storage, skipping transcription")
			fields = nil
		}

		if fields != nil {
			if err := s.enqueue(ctx, interviewID, in.QuestionID, fields); err != nil {
				return nil, utils.E(utils.CodeUnavailable, op, "failed to queue analysis", err)
			}
		}
	}

	if in.QuestionID > 0 {
		if err := s.answers.SaveAnalysis(ctx, interviewID, in.QuestionID, rec, &analysis); err != nil {
			return nil, utils.E(utils.CodeInternal, op, "failed to store analysis", err)
		}
	}
	return &analysis, nil
}

func (s *analysisService) enqueue(ctx context.Context, interviewID string, questionID int, fields map[string]any) error {
	fields["queued_at"] = time.Now().UTC().Format(time.RFC3339Nano)
	if err := s.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: AnalysisStream,
		MaxLen: 10000,
		Approx: true,
		Values: fields,
	}).Err(); err != nil {
		return err
	}
	if err := Publish(ctx, s.redis, StatusChannel(interviewID), Event{
		Type:       EventStatus,
		QuestionID: questionID,
		Status:     string(models.AnalysisPending),
		Message:    "queued for transcription",
	}); err != nil {
		s.log.WithError(err).WithField("interview_id", interviewID).Warn("publish queued status failed")
	}
	return nil
}

func extensionFor(contentType string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "webm"):
		return ".webm"
	case strings.Contains(ct, "ogg"):
		return ".ogg"
	case strings.Contains(ct, "flac"):
		return ".flac"
	case strings.Contains(ct, "wav"):
		return ".wav"
	default:
		return ".bin"
	}
}

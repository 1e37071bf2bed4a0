package workers

import (
	"context"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/hireflow/interviewer/internal/metrics"
	"github.com/hireflow/interviewer/internal/models"
	"github.com/hireflow/interviewer/internal/providers/llm"
	"github.com/hireflow/interviewer/internal/providers/stt"
	mongorepo "github.com/hireflow/interviewer/internal/repositories/mongo"
	"github.com/hireflow/interviewer/internal/services"
	"github.com/hireflow/interviewer/internal/storage"
)

const maxRecordingBytes = 10 << 20

// AnalysisWorkerPool consumes recordings queued by the analyze endpoint,
// transcribes them and attaches a short reviewer note to the answer.
type AnalysisWorkerPool struct {
	Redis      *redis.Client
	Answers    mongorepo.AnswerRepository
	Questions  services.QuestionService
	NumWorkers int

	STT   stt.Provider
	LLM   llm.Provider       // optional
	Store storage.Downloader // required for jobs that carry audio_path

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string
}

func (p *AnalysisWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Answers == nil || p.STT == nil {
		return errors.New("AnalysisWorkerPool missing dependency: Redis/Answers/STT must be set")
	}
	if p.Stream == "" {
		p.Stream = services.AnalysisStream
	}
	if p.Group == "" {
		p.Group = "analysis-workers"
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 3
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}

	if err := p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err(); err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return err
	}

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
	return nil
}

func (p *AnalysisWorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			p.Logger.WithError(err).WithField("consumer", consumer).Warn("xreadgroup failed")
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handleMsg(ctx, msg)
				_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

type job struct {
	interviewID string
	questionID  int
	contentType string
	language    string
	audioPath   string
	audioBase64 string
}

func parseJob(values map[string]any) (job, bool) {
	get := func(k string) string {
		s, _ := values[k].(string)
		return s
	}
	j := job{
		interviewID: get("interview_id"),
		contentType: get("content_type"),
		language:    get("language"),
		audioPath:   get("audio_path"),
		audioBase64: get("audio_base64"),
	}
	q, err := strconv.Atoi(get("question_id"))
	if err != nil || q <= 0 || j.interviewID == "" {
		return job{}, false
	}
	j.questionID = q
	return j, true
}

func (p *AnalysisWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	j, ok := parseJob(msg.Values)
	if !ok {
		p.Logger.WithField("redis_id", msg.ID).Warn("dropping malformed analysis job")
		return
	}

	log := p.Logger.WithFields(logrus.Fields{
		"redis_id":     msg.ID,
		"interview_id": j.interviewID,
		"question_id":  j.questionID,
	})
	start := time.Now()
	statusCh := services.StatusChannel(j.interviewID)
	respCh := services.ResponseChannel(j.interviewID)

	publish := func(ch string, ev services.Event) {
		ev.QuestionID = j.questionID
		if err := services.Publish(ctx, p.Redis, ch, ev); err != nil {
			log.WithError(err).Debug("publish failed")
		}
	}
	fail := func(stage, message string, err error) {
		log.WithError(err).Warn(message)
		_ = p.Answers.MarkTranscript(ctx, j.interviewID, j.questionID, "", 0, models.AnalysisFailed)
		publish(statusCh, services.Event{Type: services.EventStatus, Status: string(models.AnalysisFailed), Message: message})
		metrics.ObserveAnalysis(stage, time.Since(start))
	}

	audio, err := p.fetchAudio(ctx, j)
	if err != nil {
		fail("fetch_failed", "failed to read recording", err)
		return
	}

	// STT
	_ = p.Answers.MarkTranscript(ctx, j.interviewID, j.questionID, "", 0, models.AnalysisProcessing)
	publish(statusCh, services.Event{Type: services.EventStatus, Status: string(models.AnalysisProcessing), Message: "transcribing"})

	text, conf, err := p.STT.TranscribeAs(ctx, audio, j.contentType, j.language)
	if err != nil {
		fail("stt_failed", "transcription failed", err)
		return
	}
	status := models.AnalysisDone
	if p.LLM != nil && text != "" {
		status = models.AnalysisProcessing
	}
	if err := p.Answers.MarkTranscript(ctx, j.interviewID, j.questionID, text, conf, status); err != nil {
		log.WithError(err).Error("failed to store transcript")
	}
	publish(respCh, services.Event{Type: services.EventTranscript, Text: text, Confidence: conf, IsFinal: true})

	// LLM
	if status == models.AnalysisProcessing {
		note, err := llm.Collect(ctx, p.LLM, p.prompt(ctx, j, text), func(chunk string) {
			publish(respCh, services.Event{Type: services.EventCoaching, Text: chunk})
		})
		if err != nil {
			log.WithError(err).Warn("coaching note failed")
			_ = p.Answers.MarkCoaching(ctx, j.interviewID, j.questionID, "", models.AnalysisFailed, time.Since(start).Milliseconds())
			publish(statusCh, services.Event{Type: services.EventStatus, Status: string(models.AnalysisFailed), Message: "coaching failed"})
			metrics.ObserveAnalysis("llm_failed", time.Since(start))
			return
		}
		if err := p.Answers.MarkCoaching(ctx, j.interviewID, j.questionID, note, models.AnalysisDone, time.Since(start).Milliseconds()); err != nil {
			log.WithError(err).Error("failed to store coaching note")
		}
		publish(respCh, services.Event{Type: services.EventCoaching, Text: note, IsFinal: true})
	}

	publish(statusCh, services.Event{Type: services.EventDone, Status: string(models.AnalysisDone), Message: "recording processed"})
	metrics.ObserveAnalysis("done", time.Since(start))
}

func (p *AnalysisWorkerPool) fetchAudio(ctx context.Context, j job) ([]byte, error) {
	switch {
	case j.audioBase64 != "":
		raw := j.audioBase64
		if i := strings.Index(raw, ","); i >= 0 {
			raw = raw[i+1:] // strip data:...;base64,
		}
		return base64.StdEncoding.DecodeString(raw)
	case j.audioPath != "":
		if p.Store == nil {
			return nil, errors.New("no storage configured for audio_path")
		}
		b, err := p.Store.Download(ctx, j.audioPath, maxRecordingBytes)
		if err != nil {
			return nil, err
		}
		if len(b) == 0 {
			return nil, errors.New("empty recording")
		}
		return b, nil
	default:
		return nil, errors.New("job carries no audio")
	}
}

func (p *AnalysisWorkerPool) prompt(ctx context.Context, j job, transcript string) string {
	var question, skill string
	if p.Questions != nil {
		if set, err := p.Questions.List(ctx, j.interviewID); err == nil {
			for _, q := range set.Questions {
				if q.ID == j.questionID {
					question, skill = q.Text, q.Skill
					break
				}
			}
		}
	}
	if question == "" {
		question = "Question " + strconv.Itoa(j.questionID)
	}
	return llm.CoachingPrompt(question, skill, transcript)
}

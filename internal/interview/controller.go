// Package interview drives one AI interview from question load to completion.
//
// A Controller owns the session state, the per-question countdown and the
// simulated gaze metrics. Persistence and analysis are delegated to the
// Interview API; every network call happens outside the controller lock so
// user actions may interleave with in-flight requests.
package interview

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hireflow/interviewer/internal/models"
	"github.com/hireflow/interviewer/internal/utils"
)

const tickInterval = time.Second

type Deps struct {
	API         API
	Capture     AudioCapture
	Transcriber SpeechTranscriber // optional
	Metrics     MetricsSource     // default: simulated, random seed
	Scheduler   Scheduler         // default: TickerScheduler bound to the controller
	Now         func() time.Time
	Logger      *logrus.Logger

	Language    string // transcription language, default en-US
	Video       bool   // request the camera together with the microphone
	AutoAdvance bool   // move to the next question once an answer is accepted
}

type Controller struct {
	api         API
	capture     AudioCapture
	transcriber SpeechTranscriber
	source      MetricsSource
	sched       Scheduler
	now         func() time.Time
	log         *logrus.Logger
	language    string
	video       bool
	autoAdvance bool

	mu         sync.Mutex
	sess       *session
	rec        Recording
	countdown  Handle
	sampler    Handle
	epoch      uint64 // bumped whenever recording starts or stops
	gaze       GazeState
	acquiring  bool
	completing bool
	inflight   map[int]bool
	closed     bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(d Deps) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		api:         d.API,
		capture:     d.Capture,
		transcriber: d.Transcriber,
		source:      d.Metrics,
		sched:       d.Scheduler,
		now:         d.Now,
		log:         d.Logger,
		language:    d.Language,
		video:       d.Video,
		autoAdvance: d.AutoAdvance,
		inflight:    map[int]bool{},
		ctx:         ctx,
		cancel:      cancel,
	}
	if c.source == nil {
		c.source = NewSimulatedSource(0)
	}
	if c.sched == nil {
		c.sched = NewTickerScheduler(ctx)
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.log == nil {
		c.log = logrus.New()
	}
	if c.language == "" {
		c.language = "en-US"
	}
	return c
}

// Load fetches the question set. A malformed or failed response never
// produces a session.
func (c *Controller) Load(ctx context.Context, interviewID string) error {
	const op = "Controller.Load"

	interviewID = strings.TrimSpace(interviewID)
	if interviewID == "" {
		return fail(utils.CodeInvalidArgument, op, "interview id is required", ErrLoad, nil)
	}

	c.mu.Lock()
	if err := c.loadableLocked(op); err != nil {
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()

	set, err := c.api.Questions(ctx, interviewID)
	if err != nil {
		return fail(utils.CodeUnavailable, op, "failed to load interview questions", ErrLoad, err)
	}
	if err := validateQuestionSet(set); err != nil {
		return fail(utils.CodeInvalidArgument, op, "malformed question set", ErrLoad, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.loadableLocked(op); err != nil {
		return err
	}
	c.sess = newSession(interviewID, set)
	c.gaze = GazeState{}
	c.log.WithFields(logrus.Fields{"interview_id": interviewID, "questions": len(set.Questions)}).Debug("interview loaded")
	return nil
}

func (c *Controller) loadableLocked(op string) error {
	if c.closed {
		return fail(utils.CodePrecondition, op, "controller closed", ErrClosed, nil)
	}
	if c.sess != nil && c.sess.status == StatusInProgress {
		return invalidState(op, "interview already in progress")
	}
	return nil
}

func validateQuestionSet(set *models.QuestionSet) error {
	if set == nil {
		return errors.New("empty response")
	}
	if len(set.Questions) == 0 {
		return errors.New("no questions")
	}
	if set.TotalQuestions > 0 && set.TotalQuestions != len(set.Questions) {
		return fmt.Errorf("total_questions=%d but %d questions returned", set.TotalQuestions, len(set.Questions))
	}
	seen := make(map[int]struct{}, len(set.Questions))
	for i, q := range set.Questions {
		if strings.TrimSpace(q.Text) == "" {
			return fmt.Errorf("question %d has no text", i)
		}
		if q.TimeLimit <= 0 {
			return fmt.Errorf("question %d has non-positive time_limit %d", i, q.TimeLimit)
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("duplicate question id %d", q.ID)
		}
		seen[q.ID] = struct{}{}
	}
	return nil
}

// Start moves the session to in-progress. The API notification is best
// effort: its failure comes back as a Warning and the transition stands.
func (c *Controller) Start(ctx context.Context) (*Warning, error) {
	const op = "Controller.Start"

	c.mu.Lock()
	if err := c.usableLocked(op); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	s := c.sess
	if s.status != StatusNotStarted {
		c.mu.Unlock()
		return nil, invalidState(op, "interview already started")
	}
	s.status = StatusInProgress
	s.currentIndex = 0
	s.timeRemaining = s.current().TimeLimit
	s.metrics = models.InitialEyeTracking()
	s.startedAt = c.now().UTC()
	id := s.interviewID
	c.mu.Unlock()

	c.log.WithField("interview_id", id).Debug("interview started")

	if err := c.api.Start(ctx, id); err != nil {
		w := Warning{Op: op, Err: err}
		c.warn(s, w)
		return &w, nil
	}
	return nil, nil
}

// BeginRecording acquires the capture device and starts the countdown and
// the metrics generator.
func (c *Controller) BeginRecording(ctx context.Context) error {
	const op = "Controller.BeginRecording"

	c.mu.Lock()
	if err := c.activeLocked(op); err != nil {
		c.mu.Unlock()
		return err
	}
	s := c.sess
	switch {
	case s.isRecording || c.acquiring:
		c.mu.Unlock()
		return invalidState(op, "capture device already owned")
	case s.timeRemaining == 0:
		c.mu.Unlock()
		return invalidState(op, "no time remaining for this question")
	case c.capture == nil:
		c.mu.Unlock()
		return fail(utils.CodeUnavailable, op, "no capture device configured", ErrDeviceAccess, nil)
	}
	c.acquiring = true
	idx := s.currentIndex
	c.mu.Unlock()

	rec, err := c.capture.Acquire(ctx, CaptureOptions{Audio: true, Video: c.video})

	c.mu.Lock()
	c.acquiring = false
	if err != nil {
		c.mu.Unlock()
		return fail(utils.CodeUnavailable, op, "capture device access denied", ErrDeviceAccess, err)
	}
	if c.closed || c.completing || s.status != StatusInProgress || s.currentIndex != idx {
		c.mu.Unlock()
		_, _ = rec.Stop()
		return invalidState(op, "session changed while acquiring capture device")
	}

	c.rec = rec
	s.isRecording = true
	c.epoch++
	epoch := c.epoch
	c.countdown = c.sched.Every(tickInterval, func() { c.onCountdown(epoch) })
	c.sampler = c.sched.Every(tickInterval, func() { c.onSample(epoch) })
	c.mu.Unlock()

	c.log.WithFields(logrus.Fields{"interview_id": s.interviewID, "index": idx}).Debug("recording started")
	return nil
}

// StopRecording ends capture and hands the media to the analyze endpoint in
// the background. It is a no-op when nothing is recording.
func (c *Controller) StopRecording() error {
	const op = "Controller.StopRecording"

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return fail(utils.CodePrecondition, op, "controller closed", ErrClosed, nil)
	}
	if c.sess == nil || !c.sess.isRecording {
		c.mu.Unlock()
		return nil
	}
	h := c.stopLocked()
	c.mu.Unlock()

	c.release(h, true)
	return nil
}

// SubmitAnswer records text for the current question and sends it with the
// current metrics. The local answer survives a failed request; the caller
// may retry.
func (c *Controller) SubmitAnswer(ctx context.Context, text string) (*models.AnswerResult, error) {
	const op = "Controller.SubmitAnswer"

	c.mu.Lock()
	if err := c.activeLocked(op); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		c.mu.Unlock()
		return nil, fail(utils.CodeInvalidArgument, op, "answer text is required", ErrEmptyAnswer, nil)
	}
	s := c.sess
	idx := s.currentIndex
	if c.inflight[idx] {
		c.mu.Unlock()
		return nil, invalidState(op, "answer submission already in flight")
	}
	if s.submitted[idx] {
		c.mu.Unlock()
		return nil, invalidState(op, "answer already submitted for this question")
	}

	s.answers[idx] = text
	c.inflight[idx] = true
	metrics := s.metrics
	req := models.AnswerRequest{
		QuestionID:    s.questions[idx].ID,
		Answer:        text,
		AudioDuration: s.recorded[idx],
		EyeTracking:   &metrics,
	}
	if conf, ok := s.confidence[idx]; ok {
		req.VoiceConfidence = &conf
	}
	id := s.interviewID
	c.mu.Unlock()

	res, err := c.api.SubmitAnswer(ctx, id, req)
	if err == nil && (res == nil || res.FraudAnalysis == nil) {
		err = errors.New("response missing fraud_analysis")
	}

	c.mu.Lock()
	delete(c.inflight, idx)
	if err != nil {
		c.mu.Unlock()
		return nil, fail(utils.CodeUnavailable, op, "failed to submit answer", ErrSubmission, err)
	}

	s.submitted[idx] = true
	if fa := res.FraudAnalysis; !fa.IsAuthentic {
		s.reviews[idx] = Review{
			RequiresReview:  true,
			ConfidenceScore: fa.ConfidenceScore,
			RedFlags:        append([]string(nil), fa.RedFlags...),
		}
		c.log.WithFields(logrus.Fields{
			"interview_id": id,
			"index":        idx,
			"red_flags":    fa.RedFlags,
		}).Warn("answer flagged for review")
	}

	var h *handoff
	if c.autoAdvance && !c.closed && s.status == StatusInProgress && s.currentIndex == idx {
		h, _ = c.advanceLocked()
	}
	c.mu.Unlock()

	c.release(h, true)
	return res, nil
}

// AdvanceQuestion moves to the next question. At the last question it does
// nothing and reports false; the caller should Complete instead.
func (c *Controller) AdvanceQuestion() (bool, error) {
	const op = "Controller.AdvanceQuestion"

	c.mu.Lock()
	if err := c.activeLocked(op); err != nil {
		c.mu.Unlock()
		return false, err
	}
	h, moved := c.advanceLocked()
	c.mu.Unlock()

	c.release(h, true)
	return moved, nil
}

func (c *Controller) advanceLocked() (*handoff, bool) {
	s := c.sess
	if s.currentIndex >= s.lastIndex() {
		return nil, false
	}
	h := c.stopLocked()
	s.currentIndex++
	s.timeRemaining = s.current().TimeLimit
	s.metrics = models.InitialEyeTracking()
	c.gaze = GazeState{}
	c.log.WithFields(logrus.Fields{"interview_id": s.interviewID, "index": s.currentIndex}).Debug("advanced question")
	return h, true
}

// Complete submits every captured answer. On failure the session stays in
// progress so the call can be retried. The admin notification that follows
// success is best effort.
func (c *Controller) Complete(ctx context.Context) (*models.CompletionSummary, error) {
	const op = "Controller.Complete"

	c.mu.Lock()
	if err := c.activeLocked(op); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	h := c.stopLocked()
	s := c.sess
	req := c.completionRequestLocked()
	id := s.interviewID
	c.completing = true
	c.mu.Unlock()

	c.release(h, true)

	sum, err := c.api.Complete(ctx, id, req)
	if err == nil && sum == nil {
		err = errors.New("empty completion response")
	}

	c.mu.Lock()
	c.completing = false
	if err != nil {
		c.mu.Unlock()
		return nil, fail(utils.CodeUnavailable, op, "failed to complete interview", ErrCompletion, err)
	}
	s.status = StatusCompleted
	s.completedAt = c.now().UTC()
	s.summary = sum
	c.mu.Unlock()

	c.log.WithFields(logrus.Fields{
		"interview_id":   id,
		"overall_score":  sum.OverallScore,
		"recommendation": sum.Recommendation,
	}).Info("interview completed")

	recommendation := sum.Recommendation
	if recommendation == "" {
		recommendation = "No specific recommendations"
	}
	fb := models.AdminFeedback{
		InterviewID:          models.ID(id),
		CandidatePerformance: sum,
		Recommendations:      recommendation,
		AllAnswers:           req.AllAnswers,
	}
	if err := c.api.SendAdminFeedback(ctx, fb); err != nil {
		c.warn(s, Warning{Op: op + ".adminFeedback", Err: err})
	}
	return sum, nil
}

func (c *Controller) completionRequestLocked() models.CompletionRequest {
	s := c.sess

	idxs := make([]int, 0, len(s.answers))
	for i := range s.answers {
		idxs = append(idxs, i)
	}
	sort.Ints(idxs)

	answers := make([]models.AnswerRecord, 0, len(idxs))
	for _, i := range idxs {
		q := s.questions[i]
		rec := models.AnswerRecord{QuestionID: q.ID, Question: q.Text, Answer: s.answers[i]}
		if r, ok := s.reviews[i]; ok {
			rec.RequiresReview = r.RequiresReview
			rec.RedFlags = append([]string(nil), r.RedFlags...)
		}
		answers = append(answers, rec)
	}

	// the most recent analysis stands for the interview as a whole
	var overall *models.Analysis
	latest := -1
	for i, a := range s.analyses {
		if i > latest {
			latest, overall = i, a
		}
	}
	if overall != nil {
		cp := *overall
		overall = &cp
	}

	return models.CompletionRequest{
		TotalAnswers:       len(s.questions),
		EyeTrackingSummary: s.metrics,
		OverallAnalysis:    overall,
		AllAnswers:         answers,
		InterviewQuestions: append([]models.Question(nil), s.questions...),
		CompletedAt:        c.now().UTC().Format(time.RFC3339),
	}
}

// Close tears the controller down: timers stop, the device is released and
// in-flight background calls are cancelled and awaited. Nothing is
// resumable afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	var h *handoff
	if c.sess != nil {
		h = c.stopLocked()
	}
	c.mu.Unlock()

	c.cancel()
	c.release(h, false)
	c.wg.Wait()
}

// Wait blocks until background analysis calls have finished.
func (c *Controller) Wait() { c.wg.Wait() }

// Snapshot returns a copy of the session; ok is false before Load.
func (c *Controller) Snapshot() (snap Snapshot, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return Snapshot{}, false
	}
	return c.sess.snapshot(), true
}

// Answer returns the captured answer of any question, including earlier ones.
func (c *Controller) Answer(index int) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return "", false
	}
	a, ok := c.sess.answers[index]
	return a, ok
}

func (c *Controller) usableLocked(op string) error {
	if c.closed {
		return fail(utils.CodePrecondition, op, "controller closed", ErrClosed, nil)
	}
	if c.sess == nil {
		return invalidState(op, "no interview loaded")
	}
	return nil
}

func (c *Controller) activeLocked(op string) error {
	if err := c.usableLocked(op); err != nil {
		return err
	}
	if c.sess.status != StatusInProgress {
		return invalidState(op, "interview is not in progress")
	}
	if c.completing {
		return invalidState(op, "interview completion in flight")
	}
	return nil
}

// handoff carries a stopped recording out of the lock. Results are written
// back only while sess is still the controller's session.
type handoff struct {
	sess       *session
	index      int
	questionID int
	rec        Recording
	metrics    models.EyeTracking
	seconds    int
}

func (c *Controller) stopLocked() *handoff {
	s := c.sess
	if !s.isRecording {
		return nil
	}
	if c.countdown != nil {
		c.countdown.Stop()
	}
	if c.sampler != nil {
		c.sampler.Stop()
	}
	c.countdown, c.sampler = nil, nil
	c.epoch++
	s.isRecording = false

	h := &handoff{
		sess:       s,
		index:      s.currentIndex,
		questionID: s.current().ID,
		rec:        c.rec,
		metrics:    s.metrics,
		seconds:    s.recorded[s.currentIndex],
	}
	c.rec = nil
	return h
}

// release frees the device and, unless analyze is false, posts the media to
// the analyze endpoint on a background goroutine.
func (c *Controller) release(h *handoff, analyze bool) {
	if h == nil || h.rec == nil {
		return
	}
	media, err := h.rec.Stop()
	if err != nil {
		c.warn(h.sess, Warning{Op: "Controller.releaseDevice", Err: err})
		return
	}
	if !analyze {
		return
	}
	if media.Seconds == 0 {
		media.Seconds = h.seconds
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		c.analyze(h, media)
	}()
}

func (c *Controller) analyze(h *handoff, media Media) {
	const op = "Controller.analyze"

	if c.transcriber != nil && len(media.Data) > 0 {
		text, conf, err := c.transcriber.Transcribe(c.ctx, media.Data, c.language)
		if err != nil {
			c.warn(h.sess, Warning{Op: op + ".transcribe", Err: err})
		} else if text != "" {
			c.mu.Lock()
			if c.sess == h.sess {
				h.sess.transcripts[h.index] = text
				h.sess.confidence[h.index] = conf
			}
			c.mu.Unlock()
		}
	}

	a, err := c.api.Analyze(c.ctx, h.sess.interviewID, AnalyzeRequest{
		QuestionID: h.questionID,
		Media:      media,
		Metrics:    h.metrics,
	})
	if err == nil && a == nil {
		err = errors.New("response missing analysis")
	}
	if err != nil {
		c.warn(h.sess, Warning{Op: op, Err: err})
		return
	}

	c.mu.Lock()
	if c.sess == h.sess {
		h.sess.analyses[h.index] = a
	}
	c.mu.Unlock()
}

func (c *Controller) onCountdown(epoch uint64) {
	c.mu.Lock()
	if c.closed || epoch != c.epoch || c.sess == nil || !c.sess.isRecording {
		c.mu.Unlock()
		return
	}
	s := c.sess
	if s.timeRemaining > 0 {
		s.timeRemaining--
		s.recorded[s.currentIndex]++
	}
	var h *handoff
	if s.timeRemaining == 0 {
		h = c.stopLocked()
		c.log.WithFields(logrus.Fields{"interview_id": s.interviewID, "index": s.currentIndex}).Debug("time limit reached, recording stopped")
	}
	c.mu.Unlock()

	c.release(h, true)
}

func (c *Controller) onSample(epoch uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || epoch != c.epoch || c.sess == nil || !c.sess.isRecording {
		return
	}
	c.sess.metrics = c.source.Next(c.sess.metrics, &c.gaze)
}

// warn records w on s unless another session has been loaded since; the
// log line is written either way.
func (c *Controller) warn(s *session, w Warning) {
	c.mu.Lock()
	if s != nil && c.sess == s {
		s.warnings = append(s.warnings, w)
	}
	c.mu.Unlock()

	id := ""
	if s != nil {
		id = s.interviewID
	}
	c.log.WithFields(logrus.Fields{"interview_id": id, "op": w.Op}).WithError(w.Err).Warn("best-effort call failed")
}

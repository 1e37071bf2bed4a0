package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/hireflow/interviewer/config"
	"github.com/hireflow/interviewer/internal/apiclient"
	"github.com/hireflow/interviewer/internal/cache"
	"github.com/hireflow/interviewer/internal/capture"
	"github.com/hireflow/interviewer/internal/interview"
	"github.com/hireflow/interviewer/internal/logger"
	"github.com/hireflow/interviewer/internal/providers/stt"
	"github.com/hireflow/interviewer/internal/sessionstore"
)

const help = `commands:
  login <email> <password>   sign in and remember the token
  logout                     forget the stored token
  load <interview-id>        fetch the question set
  start                      begin the interview
  record | stop              start or stop capturing the current answer
  answer <text>              submit text for the current question
  next                       move to the next question
  complete                   finish and print the summary
  status                     show the current question and metrics
  quit`

func main() {
	var (
		interviewID = flag.String("interview", "", "interview id to load on startup")
		profile     = flag.String("profile", "default", "session profile name")
		recordings  = flag.String("recordings", "", "comma separated audio files replayed as captures")
		denyCapture = flag.Bool("deny-capture", false, "refuse capture device access")
		autoAdvance = flag.Bool("auto-advance", false, "go to the next question after an accepted answer")
		transcribe  = flag.Bool("transcribe", false, "transcribe recordings locally with Google Speech-to-Text")
	)
	flag.Parse()

	log := logger.New()
	log.SetOutput(os.Stderr)

	cfg, err := config.LoadClient()
	if err != nil {
		log.WithError(err).Fatal("config error")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store sessionstore.Store = sessionstore.NewMemory()
	if cfg.SessionStore == "redis" {
		if err := config.InitRedis(); err != nil {
			log.WithError(err).Fatal("Redis init error")
		}
		defer config.RedisClient.Close()
		store = sessionstore.NewCached(cache.NewRedisCache(config.RedisClient, "hireflow:"), *profile, cfg.SessionTTL)
	}
	httpClient, err := cfg.HTTPClient()
	if err != nil {
		log.WithError(err).Fatal("config error")
	}
	client := apiclient.New(cfg.APIURL, cfg.Timeout, store, log, apiclient.WithHTTPClient(httpClient))

	var device interview.AudioCapture = capture.Denied{}
	if !*denyCapture {
		device = capture.NewExclusive(capture.NewFile(splitPaths(*recordings)...))
	}

	var transcriber interview.SpeechTranscriber
	if *transcribe {
		speech, err := stt.NewGoogleSpeech(ctx)
		if err != nil {
			log.WithError(err).Fatal("Speech-to-Text init error")
		}
		defer speech.Close()
		transcriber = speech
	}

	var source interview.MetricsSource = interview.NewSimulatedSource(cfg.MetricsSeed)
	if cfg.MetricsMode == "static" {
		source = interview.StaticSource{}
	}

	ctrl := interview.New(interview.Deps{
		API:         client,
		Capture:     device,
		Transcriber: transcriber,
		Metrics:     source,
		Logger:      log,
		Language:    cfg.Language,
		AutoAdvance: *autoAdvance,
	})
	defer func() {
		ctrl.Close()
		ctrl.Wait()
	}()

	r := &repl{ctx: ctx, ctrl: ctrl, client: client, out: os.Stdout}
	if *interviewID != "" {
		r.exec("load " + *interviewID)
	}
	r.run(os.Stdin)
}

type repl struct {
	ctx    context.Context
	ctrl   *interview.Controller
	client *apiclient.Client
	out    io.Writer
}

func (r *repl) run(in io.Reader) {
	fmt.Fprintln(r.out, help)
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(r.out, "> ")
		if !sc.Scan() || r.ctx.Err() != nil {
			return
		}
		if !r.exec(sc.Text()) {
			return
		}
	}
}

// exec runs one command line and reports whether the loop should continue.
func (r *repl) exec(line string) bool {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	var err error
	switch cmd {
	case "":
	case "help":
		fmt.Fprintln(r.out, help)
	case "login":
		email, password, _ := strings.Cut(arg, " ")
		resp, lerr := r.client.Login(r.ctx, email, strings.TrimSpace(password))
		if err = lerr; err == nil {
			fmt.Fprintf(r.out, "signed in as %s (%s)\n", resp.User.Email, resp.User.Role)
		}
	case "logout":
		if err = r.client.Logout(r.ctx); err == nil {
			fmt.Fprintln(r.out, "signed out")
		}
	case "load":
		if err = r.ctrl.Load(r.ctx, arg); err == nil {
			r.status()
		}
	case "start":
		var w *interview.Warning
		if w, err = r.ctrl.Start(r.ctx); err == nil {
			if w != nil {
				fmt.Fprintln(r.out, "warning:", w)
			}
			r.status()
		}
	case "record":
		if err = r.ctrl.BeginRecording(r.ctx); err == nil {
			fmt.Fprintln(r.out, "recording")
		}
	case "stop":
		err = r.ctrl.StopRecording()
	case "answer":
		res, aerr := r.ctrl.SubmitAnswer(r.ctx, arg)
		if err = aerr; err == nil {
			fmt.Fprintln(r.out, "answer accepted")
			if fa := res.FraudAnalysis; fa != nil {
				fmt.Fprintf(r.out, "  authentic=%t confidence=%.2f\n", fa.IsAuthentic, fa.ConfidenceScore)
			}
		}
	case "next":
		moved, nerr := r.ctrl.AdvanceQuestion()
		if err = nerr; err == nil {
			if !moved {
				fmt.Fprintln(r.out, "last question reached, use complete")
			}
			r.status()
		}
	case "complete":
		sum, cerr := r.ctrl.Complete(r.ctx)
		if err = cerr; err == nil {
			fmt.Fprintf(r.out, "overall score %.1f: %s\n", sum.OverallScore, sum.Recommendation)
		}
	case "status":
		r.status()
	case "quit", "exit":
		return false
	default:
		fmt.Fprintf(r.out, "unknown command %q, try help\n", cmd)
	}
	if err != nil {
		fmt.Fprintln(r.out, "error:", err)
	}
	return true
}

func (r *repl) status() {
	snap, ok := r.ctrl.Snapshot()
	if !ok {
		fmt.Fprintln(r.out, "no interview loaded")
		return
	}
	fmt.Fprintf(r.out, "interview %s [%s] %d questions, %s\n",
		snap.InterviewID, snap.Status, len(snap.Questions), snap.EstimatedDuration)
	if len(snap.Questions) > 0 {
		q := snap.Questions[snap.CurrentIndex]
		fmt.Fprintf(r.out, "  Q%d/%d (%s): %s\n", snap.CurrentIndex+1, len(snap.Questions), q.Skill, q.Text)
		fmt.Fprintf(r.out, "  %ds left, recording=%t, attention=%d, distractions=%d\n",
			snap.TimeRemaining, snap.IsRecording, snap.Metrics.AttentionScore, snap.Metrics.DistractionCount)
	}
	flagged := make([]int, 0, len(snap.Reviews))
	for id, rv := range snap.Reviews {
		if rv.RequiresReview {
			flagged = append(flagged, id)
		}
	}
	sort.Ints(flagged)
	if len(flagged) > 0 {
		fmt.Fprintf(r.out, "  flagged for review: %v\n", flagged)
	}
	for _, w := range snap.Warnings {
		fmt.Fprintln(r.out, "  warning:", w)
	}
}

func splitPaths(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

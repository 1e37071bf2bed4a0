// Package apiclient talks to the Interview API over HTTP.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/hireflow/interviewer/internal/interview"
	"github.com/hireflow/interviewer/internal/models"
	"github.com/hireflow/interviewer/internal/sessionstore"
	"github.com/hireflow/interviewer/internal/utils"
)

const maxErrorBody = 64 << 10

type Client struct {
	base  string
	http  *http.Client
	store sessionstore.Store
	log   *logrus.Logger
	now   func() time.Time
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

func WithClock(now func() time.Time) Option { return func(c *Client) { c.now = now } }

// New builds a client for baseURL, e.g. "http://localhost:8000/api".
// store may be nil, in which case requests are sent without a token.
func New(baseURL string, timeout time.Duration, store sessionstore.Store, log *logrus.Logger, opts ...Option) *Client {
	if log == nil {
		log = logrus.New()
	}
	c := &Client{
		base:  strings.TrimRight(baseURL, "/"),
		http:  &http.Client{Timeout: timeout},
		store: store,
		log:   log,
		now:   time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

var _ interview.API = (*Client)(nil)

// Login exchanges credentials for a token and remembers the session.
func (c *Client) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	const op = "Client.Login"

	var out models.LoginResponse
	if err := c.doJSON(ctx, op, http.MethodPost, "/auth/login", models.LoginRequest{Email: email, Password: password}, &out, false); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, utils.E(utils.CodeInternal, op, "login response missing access_token", nil)
	}
	if c.store != nil {
		if err := c.store.Set(ctx, sessionstore.Session{Token: out.AccessToken, User: out.User}); err != nil {
			return nil, err
		}
	}
	return &out, nil
}

func (c *Client) Logout(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	return c.store.Clear(ctx)
}

func (c *Client) Questions(ctx context.Context, interviewID string) (*models.QuestionSet, error) {
	const op = "Client.Questions"
	var out models.QuestionSet
	if err := c.doJSON(ctx, op, http.MethodGet, interviewPath(interviewID, "questions"), nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Start(ctx context.Context, interviewID string) error {
	const op = "Client.Start"
	var ack models.StartAck
	return c.doJSON(ctx, op, http.MethodPost, interviewPath(interviewID, "start"), struct{}{}, &ack, true)
}

// Analyze posts captured media as multipart/form-data.
func (c *Client) Analyze(ctx context.Context, interviewID string, req interview.AnalyzeRequest) (*models.Analysis, error) {
	const op = "Client.Analyze"

	body, contentType, err := analyzeBody(req)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to encode media", err)
	}

	var out models.AnalyzeResponse
	if err := c.do(ctx, op, http.MethodPost, interviewPath(interviewID, "analyze"), body, contentType, &out, true); err != nil {
		return nil, err
	}
	if out.Analysis == nil {
		return nil, utils.E(utils.CodeInternal, op, "response missing analysis", nil)
	}
	return out.Analysis, nil
}

func analyzeBody(req interview.AnalyzeRequest) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	ct := req.Media.ContentType
	if ct == "" {
		ct = "audio/wav"
	}
	part, err := w.CreatePart(map[string][]string{
		"Content-Disposition": {fmt.Sprintf(`form-data; name="audio"; filename="%s"`, mediaFilename(ct))},
		"Content-Type":        {ct},
	})
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(req.Media.Data); err != nil {
		return nil, "", err
	}

	metrics, err := json.Marshal(req.Metrics)
	if err != nil {
		return nil, "", err
	}
	fields := [][2]string{
		{"duration", strconv.Itoa(req.Media.Seconds)},
		{"eye_tracking_data", string(metrics)},
		{"question_id", strconv.Itoa(req.QuestionID)},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

func mediaFilename(contentType string) string {
	switch {
	case strings.Contains(contentType, "webm"):
		return "recording.webm"
	case strings.Contains(contentType, "ogg"):
		return "recording.ogg"
	case strings.Contains(contentType, "flac"):
		return "recording.flac"
	default:
		return "recording.wav"
	}
}

func (c *Client) SubmitAnswer(ctx context.Context, interviewID string, req models.AnswerRequest) (*models.AnswerResult, error) {
	const op = "Client.SubmitAnswer"
	var out models.AnswerResult
	if err := c.doJSON(ctx, op, http.MethodPost, interviewPath(interviewID, "answer"), req, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Complete(ctx context.Context, interviewID string, req models.CompletionRequest) (*models.CompletionSummary, error) {
	const op = "Client.Complete"
	var out models.CompletionSummary
	if err := c.doJSON(ctx, op, http.MethodPost, interviewPath(interviewID, "complete"), req, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SendAdminFeedback(ctx context.Context, fb models.AdminFeedback) error {
	const op = "Client.SendAdminFeedback"
	return c.doJSON(ctx, op, http.MethodPost, "/admin/interview-feedback", fb, nil, true)
}

func interviewPath(id, action string) string {
	return "/interview/" + url.PathEscape(id) + "/" + action
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, in, out any, auth bool) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return utils.E(utils.CodeInternal, op, "failed to encode request", err)
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}
	return c.do(ctx, op, method, path, body, contentType, out, auth)
}

func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType string, out any, auth bool) error {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if auth {
		if tok := c.bearer(ctx); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := c.now()
	resp, err := c.http.Do(req)
	if err != nil {
		code := utils.CodeUnavailable
		var ue *url.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ue) && ue.Timeout()) {
			code = utils.CodeTimeout
		}
		return utils.E(code, op, "request failed", err)
	}
	defer resp.Body.Close()

	c.log.WithFields(logrus.Fields{
		"method":     method,
		"path":       path,
		"status":     resp.StatusCode,
		"latency_ms": c.now().Sub(start).Milliseconds(),
	}).Debug("interview api call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return remoteError(op, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to decode response", err)
	}
	return nil
}

// remoteError understands both {"code","message"} and {"detail"} bodies.
func remoteError(op string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Detail  any    `json:"detail"`
	}
	msg := http.StatusText(resp.StatusCode)
	if json.Unmarshal(raw, &body) == nil {
		switch {
		case body.Message != "":
			msg = body.Message
		case body.Detail != nil:
			if s, ok := body.Detail.(string); ok {
				msg = s
			} else if b, err := json.Marshal(body.Detail); err == nil {
				msg = string(b)
			}
		}
	}

	code := utils.CodeFromStatus(resp.StatusCode)
	if body.Code != "" && resp.StatusCode < 500 {
		code = utils.Code(body.Code)
	}
	return utils.E(code, op, msg, fmt.Errorf("http status %d", resp.StatusCode))
}

// bearer returns the stored token unless it is known to be expired. The
// signature is not checked here; the server does that.
func (c *Client) bearer(ctx context.Context) string {
	if c.store == nil {
		return ""
	}
	sess, err := c.store.Get(ctx)
	if err != nil {
		c.log.WithError(err).Warn("session store unavailable, sending request without token")
		return ""
	}
	if sess == nil || sess.Token == "" {
		return ""
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(sess.Token, &claims); err == nil {
		if claims.ExpiresAt != nil && !claims.ExpiresAt.After(c.now()) {
			c.log.WithField("user_id", sess.User.ID).Info("stored token expired, sign in again")
			return ""
		}
	}
	return sess.Token
}

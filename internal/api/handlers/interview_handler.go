package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hireflow/interviewer/internal/models"
	"github.com/hireflow/interviewer/internal/services"
	"github.com/hireflow/interviewer/internal/utils"
)

const maxUploadBytes = 25 << 20

type InterviewHandler struct {
	interviews services.InterviewService
	questions  services.QuestionService
	analysis   services.AnalysisService
	language   string
}

// NewInterviewHandler uses language for transcription when the client sends none.
func NewInterviewHandler(interviews services.InterviewService, questions services.QuestionService, analysis services.AnalysisService, language string) *InterviewHandler {
	return &InterviewHandler{interviews: interviews, questions: questions, analysis: analysis, language: language}
}

func (h *InterviewHandler) Questions(c *gin.Context) {
	set, err := h.questions.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, set)
}

type assignQuestionsRequest struct {
	Questions []models.Question `json:"questions" binding:"required"`
}

func (h *InterviewHandler) AssignQuestions(c *gin.Context) {
	var req assignQuestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "InterviewHandler.AssignQuestions", "invalid request body", err))
		return
	}

	set, err := h.questions.Assign(c.Request.Context(), c.Param("id"), req.Questions)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, set)
}

func (h *InterviewHandler) Start(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	ack, err := h.interviews.Start(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ack)
}

func (h *InterviewHandler) Answer(c *gin.Context) {
	var req models.AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "InterviewHandler.Answer", "invalid request body", err))
		return
	}

	res, err := h.interviews.SubmitAnswer(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *InterviewHandler) Complete(c *gin.Context) {
	var req models.CompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(c, utils.E(utils.CodeInvalidArgument, "InterviewHandler.Complete", "invalid request body", err))
		return
	}

	sum, err := h.interviews.Complete(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// Analyze accepts multipart/form-data with an optional "audio" file and
// the fields duration, eye_tracking_data, question_id and language.
func (h *InterviewHandler) Analyze(c *gin.Context) {
	const op = "InterviewHandler.Analyze"

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	if err := c.Request.ParseMultipartForm(8 << 20); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "expected multipart/form-data up to 25MB", err))
		return
	}

	in := services.AnalyzeInput{Language: c.PostForm("language")}
	if in.Language == "" {
		in.Language = h.language
	}

	var err error
	if in.Duration, err = formInt(c, "duration"); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "duration must be an integer", err))
		return
	}
	if in.QuestionID, err = formInt(c, "question_id"); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "question_id must be an integer", err))
		return
	}
	if raw := strings.TrimSpace(c.PostForm("eye_tracking_data")); raw != "" {
		var et models.EyeTracking
		if err := json.Unmarshal([]byte(raw), &et); err != nil {
			writeError(c, utils.E(utils.CodeInvalidArgument, op, "eye_tracking_data must be JSON", err))
			return
		}
		in.EyeTracking = &et
	}

	if fh, err := c.FormFile("audio"); err == nil {
		f, err := fh.Open()
		if err != nil {
			writeError(c, utils.E(utils.CodeInvalidArgument, op, "unreadable audio part", err))
			return
		}
		defer f.Close()
		if in.Audio, err = io.ReadAll(f); err != nil {
			writeError(c, utils.E(utils.CodeInvalidArgument, op, "unreadable audio part", err))
			return
		}
		in.ContentType = fh.Header.Get("Content-Type")
	}

	analysis, err := h.analysis.Analyze(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"interview_id": models.ID(c.Param("id")),
		"analysis":     analysis,
		"processed_at": time.Now().UTC().Format(time.RFC3339),
	})
}

func formInt(c *gin.Context, key string) (int, error) {
	v := strings.TrimSpace(c.PostForm(key))
	if v == "" {
		return 0, nil
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return int(f), nil
	}
	return strconv.Atoi(v)
}

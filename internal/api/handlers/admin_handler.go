package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hireflow/interviewer/internal/models"
	"github.com/hireflow/interviewer/internal/services"
	"github.com/hireflow/interviewer/internal/utils"
)

type AdminHandler struct {
	feedback   services.FeedbackService
	interviews services.InterviewService
}

func NewAdminHandler(feedback services.FeedbackService, interviews services.InterviewService) *AdminHandler {
	return &AdminHandler{feedback: feedback, interviews: interviews}
}

// SendFeedback is called by the interview client once an interview ends.
func (h *AdminHandler) SendFeedback(c *gin.Context) {
	var req models.AdminFeedback
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AdminHandler.SendFeedback", "invalid request body", err))
		return
	}

	ack, err := h.feedback.Submit(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ack)
}

func (h *AdminHandler) ListFeedback(c *gin.Context) {
	limit, ok := queryLimit(c, "AdminHandler.ListFeedback", 20)
	if !ok {
		return
	}

	out, err := h.feedback.ListRecent(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"feedback": out})
}

func (h *AdminHandler) RecentInterviews(c *gin.Context) {
	out, err := h.feedback.RecentInterviews(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *AdminHandler) InterviewData(c *gin.Context) {
	out, err := h.interviews.Data(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

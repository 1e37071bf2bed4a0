package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hireflow/interviewer/internal/api/handlers"
	"github.com/hireflow/interviewer/internal/api/middleware"
	"github.com/hireflow/interviewer/internal/metrics"
)

type Deps struct {
	Auth      *handlers.AuthHandler
	Interview *handlers.InterviewHandler
	Admin     *handlers.AdminHandler
	WS        *handlers.WSHandler

	JWTSecret []byte
	JWTIssuer string
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	api.POST("/auth/login", d.Auth.Login)
	api.POST("/auth/register", d.Auth.Register)

	// Protected routes (JWT)
	auth := api.Group("/")
	auth.Use(middleware.JWTAuth(d.JWTSecret, d.JWTIssuer))

	auth.GET("/auth/me", d.Auth.Me)

	auth.GET("/interview/:id/questions", d.Interview.Questions)
	auth.PUT("/interview/:id/questions", middleware.RequireAdmin(), d.Interview.AssignQuestions)
	auth.POST("/interview/:id/start", d.Interview.Start)
	auth.POST("/interview/:id/analyze", d.Interview.Analyze)
	auth.POST("/interview/:id/answer", d.Interview.Answer)
	auth.POST("/interview/:id/complete", d.Interview.Complete)

	auth.POST("/admin/interview-feedback", d.Admin.SendFeedback)

	admin := auth.Group("/admin")
	admin.Use(middleware.RequireAdmin())
	admin.GET("/interview-feedback", d.Admin.ListFeedback)
	admin.GET("/recent-interviews", d.Admin.RecentInterviews)
	admin.GET("/interview-data/:id", d.Admin.InterviewData)

	// WebSocket
	if d.WS != nil {
		auth.GET("/ws/interview/:id", d.WS.InterviewWS)
	}
}

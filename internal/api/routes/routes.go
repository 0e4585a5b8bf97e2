package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yoockh/floorscreen/internal/api/handlers"
	"github.com/yoockh/floorscreen/internal/api/middleware"
	"github.com/yoockh/floorscreen/internal/metrics"
)

type Deps struct {
	Interview *handlers.InterviewHandler
	Candidate *handlers.CandidateHandler
	WS        *handlers.WSHandler
	JWT       middleware.JWTConfig
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	r.GET("/metrics", metrics.Handler())

	// Candidate-facing interview flow; the session id is the capability.
	iv := r.Group("/interview")
	iv.POST("/start", d.Interview.Start)
	iv.POST("/respond", d.Interview.Respond)
	iv.POST("/transcribe", d.Interview.Transcribe)
	iv.POST("/complete", d.Interview.Complete)
	iv.GET("/:session_id", d.Interview.Resume)

	// Dashboard (JWT + staff role)
	staff := r.Group("/")
	staff.Use(middleware.JWTAuth(d.JWT), middleware.RequireStaff())

	staff.GET("/installers", d.Candidate.List)
	staff.POST("/installers", d.Candidate.Create)
	staff.GET("/installers/:id", d.Candidate.Get)
	staff.PATCH("/installers/:id", d.Candidate.Update)
	staff.DELETE("/installers/:id", d.Candidate.Delete)

	// WebSocket
	staff.GET("/ws/interview/:session_id", d.WS.SessionEvents)
}

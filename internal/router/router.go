package router

import (
	"net/http"
	"time"

	"github.com/examhall/cbt-backend/internal/config"
	"github.com/examhall/cbt-backend/internal/handler"
	"github.com/examhall/cbt-backend/internal/middleware"
	"github.com/examhall/cbt-backend/internal/response"
	"github.com/examhall/cbt-backend/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth        *handler.AuthHandler
	Question    *handler.QuestionHandler
	Exam        *handler.ExamHandler
	ExamPortal  *handler.ExamPortalHandler
	Session     *handler.SessionHandler
	StudentMgmt *handler.StudentManagementHandler
	WS          *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// CORS: restrict to the configured list when set, otherwise allow all
	// so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Request ID first so every response carries metadata, then compression.
	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for the login endpoint (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// Auth group.
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/admin/login", authLimiter.Middleware(), handlers.Auth.Login)
		auth.POST("/admin/logout", middleware.RequireAdminJWT(authService), handlers.Auth.Logout)
		auth.GET("/admin/me", middleware.RequireAdminJWT(authService), handlers.Auth.Me)
	}

	// Student-facing group. No auth: students identify themselves by name
	// and student number when starting a session.
	public := router.Group("/api/v1")
	{
		public.GET("/exams", handlers.ExamPortal.ListActive)
		public.GET("/exams/:id", handlers.ExamPortal.Get)
		public.GET("/exams/:id/paper", handlers.ExamPortal.GetPaper)

		public.POST("/exam-sessions", handlers.Session.Create)
		public.GET("/exam-sessions/:id", handlers.Session.Get)
		public.PATCH("/exam-sessions/:id", handlers.Session.Progress)
		public.GET("/exam-sessions/:id/questions", handlers.Session.Questions)
		public.POST("/exam-sessions/:id/submit", handlers.Session.Submit)
		public.GET("/exam-sessions/:id/result", handlers.Session.Result)

		public.GET("/results/:id", handlers.Session.ResultByID)
	}

	// WebSocket group.
	ws := router.Group("/ws/v1")
	{
		ws.GET("/sessions/:id/stream", handlers.WS.SessionStream)
	}

	// Admin group.
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService))
	{
		adminAPI.GET("/questions", handlers.Question.List)
		adminAPI.GET("/questions/:id", handlers.Question.Get)
		adminAPI.POST("/questions", handlers.Question.Create)
		adminAPI.POST("/questions/bulk", handlers.Question.CreateBulk)
		adminAPI.DELETE("/questions/:id", handlers.Question.Delete)

		adminAPI.GET("/exams", handlers.Exam.List)
		adminAPI.GET("/exams/:id", handlers.Exam.Get)
		adminAPI.POST("/exams", handlers.Exam.Create)
		adminAPI.PATCH("/exams/:id", handlers.Exam.Update)
		adminAPI.DELETE("/exams/:id", handlers.Exam.Delete)

		adminAPI.GET("/students", handlers.StudentMgmt.List)
		adminAPI.POST("/students", handlers.StudentMgmt.Create)
		adminAPI.POST("/students/bulk", handlers.StudentMgmt.CreateBulk)
		adminAPI.PATCH("/students/:id", handlers.StudentMgmt.Update)
		adminAPI.DELETE("/students/:id", handlers.StudentMgmt.Delete)

		adminAPI.GET("/results", handlers.Session.ListResults)
	}

	return router
}

package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/evalia-labs/paperdesk-backend/internal/config"
	"github.com/evalia-labs/paperdesk-backend/internal/handler"
	"github.com/evalia-labs/paperdesk-backend/internal/middleware"
	"github.com/evalia-labs/paperdesk-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Paper    *handler.PaperHandler
	Attempt  *handler.AttemptHandler
	Question *handler.QuestionHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
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

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Serve generated PDF artifacts statically.
	router.Static("/uploads", cfg.UploadDir)

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	limiter := middleware.NewRateLimiter(120, time.Minute)

	api := router.Group("/api/v1")
	api.Use(limiter.Middleware())
	api.Use(middleware.RequireAuth(cfg))
	{
		papers := api.Group("/papers")
		{
			papers.GET("", handlers.Paper.ListPapers)
			papers.POST("", handlers.Paper.CreatePaper)
			papers.GET("/:paper_id", handlers.Paper.GetPaper)
			papers.PATCH("/:paper_id", handlers.Paper.UpdatePaper)
			papers.DELETE("/:paper_id", handlers.Paper.DeletePaper)

			papers.POST("/:paper_id/sections", handlers.Paper.AddSection)
			papers.DELETE("/:paper_id/sections/:section_index", handlers.Paper.RemoveSection)

			papers.POST("/:paper_id/sections/:section_index/questions", handlers.Paper.AddQuestions)
			papers.DELETE("/:paper_id/sections/:section_index/questions/:question_number", handlers.Paper.RemoveQuestion)
			papers.PUT("/:paper_id/sections/:section_index/questions/:question_number", handlers.Paper.SwapQuestion)
			papers.PUT("/:paper_id/sections/:section_index/order", handlers.Paper.ReorderQuestions)

			papers.POST("/:paper_id/finalize", handlers.Paper.FinalizePaper)
			papers.POST("/:paper_id/unfinalize", handlers.Paper.UnfinalizePaper)
			papers.POST("/:paper_id/publish", handlers.Paper.PublishPaper)
		}

		attempts := api.Group("/attempts")
		{
			attempts.POST("/grade", handlers.Attempt.GradeAttempt)
			attempts.POST("/grade/feedback", handlers.Attempt.GradeAttemptWithFeedback)
		}

		questions := api.Group("/questions")
		{
			questions.GET("/:question_id", handlers.Question.GetQuestion)
		}
	}

	return router
}

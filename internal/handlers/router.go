package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/quiz-attempt-service/internal/services"
	"github.com/SAP-F-2025/quiz-attempt-service/internal/utils"
)

const serviceName = "quiz-attempt-service"

type HandlerManager struct {
	attemptHandler *AttemptHandler
	gradingHandler *GradingHandler
	tokenParser    TokenParser
	logger         utils.Logger
}

func NewHandlerManager(
	attemptService services.AttemptService,
	gradingService services.GradingService,
	tokenParser TokenParser,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		attemptHandler: NewAttemptHandler(attemptService, logger),
		gradingHandler: NewGradingHandler(gradingService, logger),
		tokenParser:    tokenParser,
		logger:         logger,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.Use(RequestID(), utils.LoggerMiddleware(hm.logger), utils.ContextLogger(hm.logger))

	router.GET("/health", HealthCheck)

	v1 := router.Group("/api/v1")
	v1.Use(AuthMiddleware(hm.tokenParser, hm.logger))
	{
		attempts := v1.Group("/quiz-attempts")
		{
			attempts.POST("/start", hm.attemptHandler.StartAttempt)
			attempts.GET("", hm.attemptHandler.ListAttempts)
			attempts.GET("/my-attempts", hm.attemptHandler.ListMyAttempts)
			attempts.GET("/:id", hm.attemptHandler.GetAttempt)
			attempts.POST("/:id/submit", hm.attemptHandler.SubmitAttempt)

			attempts.PUT("/:id/grade", hm.gradingHandler.GradeAttempt)
			attempts.GET("/quiz/:quiz_id/export", hm.gradingHandler.ExportResults)
		}
	}
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
	})
}

package apihandlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// PersistState saves session state after every successful mutating request.
// A failed save is logged; the response has already been written.
func (h *APIHandler) PersistState() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if c.Request.Method == http.MethodGet || c.Writer.Status() >= http.StatusBadRequest {
			return
		}
		if err := h.App.Persist(c.Request.Context()); err != nil {
			log.Warnf("Failed to persist session state after %s %s: %v", c.Request.Method, c.FullPath(), err)
		}
	}
}

// RegisterRoutes mounts the API under /api/v1 plus /health.
func (h *APIHandler) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	v1.Use(h.PersistState())
	{
		messages := v1.Group("/messages")
		{
			messages.POST("", h.SubmitMessageHandler)
			messages.GET("", h.ListMessagesHandler)
			messages.GET("/:id", h.GetMessageHandler)
			messages.POST("/:id/feedback", h.FeedbackHandler)
			messages.PUT("/:id/category", h.SetCategoryHandler)
			messages.GET("/:id/similarity", h.SimilarityHandler)
			messages.GET("/:id/report", h.TechReportHandler)
			messages.GET("/:id/prediction", h.PredictHandler)
		}

		v1.GET("/categories", h.ListCategoriesHandler)
		v1.GET("/ready", h.ReadyHandler)

		checkpoint := v1.Group("/checkpoint")
		{
			checkpoint.GET("", h.GetCheckpointHandler)
			checkpoint.POST("", h.CreateCheckpointHandler)
			checkpoint.POST("/restore", h.RestoreCheckpointHandler)
		}

		v1.POST("/reset", h.ResetHandler)
		v1.DELETE("/session", h.ShutdownHandler)
	}

	router.GET("/health", h.HealthHandler)
}

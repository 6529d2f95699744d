package apihandlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"dynai/internal/app"
	"dynai/internal/models"
	"dynai/internal/services"
)

type APIHandler struct {
	App *app.App
}

func NewAPIHandler(a *app.App) *APIHandler {
	return &APIHandler{App: a}
}

type SubmitMessageRequest struct {
	Message string `json:"message"`
}

type FeedbackRequest struct {
	Relations []models.Relation `json:"relations"`
}

type SetCategoryRequest struct {
	Category string `json:"category"`
}

// session resolves the attached session, answering the request on failure.
func (h *APIHandler) session(c *gin.Context) (*services.Session, bool) {
	s, err := h.App.Session(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return nil, false
	}
	return s, true
}

func (h *APIHandler) SubmitMessageHandler(c *gin.Context) {
	var req SubmitMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		BadRequest(c, "missing required field: message")
		return
	}
	s, ok := h.session(c)
	if !ok {
		return
	}

	id, err := s.Submit(c.Request.Context(), req.Message)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": gin.H{"message_id": id}})
}

func (h *APIHandler) ListMessagesHandler(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var (
		items []models.Message
		err   error
	)
	if category := strings.TrimSpace(c.Query("category")); category != "" {
		items, err = s.ListMessagesByCategory(category)
	} else {
		items, err = s.ListMessages()
	}
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *APIHandler) GetMessageHandler(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	msg, err := s.Message(c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": msg})
}

func (h *APIHandler) FeedbackHandler(c *gin.Context) {
	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	s, ok := h.session(c)
	if !ok {
		return
	}

	accepted, err := s.AddFeedback(c.Request.Context(), c.Param("id"), req.Relations)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"accepted": accepted}})
}

func (h *APIHandler) SetCategoryHandler(c *gin.Context) {
	var req SetCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Category) == "" {
		BadRequest(c, "missing required field: category")
		return
	}
	s, ok := h.session(c)
	if !ok {
		return
	}

	accepted, err := s.SetCategory(c.Request.Context(), c.Param("id"), req.Category)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"accepted": accepted}})
}

func (h *APIHandler) SimilarityHandler(c *gin.Context) {
	params, err := parseSimilarityParams(c)
	if err != nil {
		BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}
	s, ok := h.session(c)
	if !ok {
		return
	}

	results, err := s.Similarity(c.Request.Context(), c.Param("id"), params)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": results})
}

func (h *APIHandler) TechReportHandler(c *gin.Context) {
	params, err := parseSimilarityParams(c)
	if err != nil {
		BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}
	s, ok := h.session(c)
	if !ok {
		return
	}

	report, err := s.TechReport(c.Request.Context(), c.Param("id"), params)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"tech_report": report}})
}

func (h *APIHandler) PredictHandler(c *gin.Context) {
	params, err := parseSimilarityParams(c)
	if err != nil {
		BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}
	s, ok := h.session(c)
	if !ok {
		return
	}

	prediction, err := s.PredictCategory(c.Request.Context(), c.Param("id"), params.AccuracyLimit)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": prediction})
}

func (h *APIHandler) ListCategoriesHandler(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	items, err := s.ListCategories()
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *APIHandler) ReadyHandler(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	ready, err := s.IsReady(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"ready": ready}})
}

func (h *APIHandler) CreateCheckpointHandler(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	created, err := s.CreateCheckpoint(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"created": created}})
}

func (h *APIHandler) RestoreCheckpointHandler(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	restored, err := s.RestoreCheckpoint(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"restored": restored}})
}

func (h *APIHandler) GetCheckpointHandler(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	cp, err := s.Checkpoint()
	if err != nil {
		RespondError(c, err)
		return
	}
	if cp == nil {
		NotFound(c, models.ErrNoCheckpoint.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": cp})
}

func (h *APIHandler) ResetHandler(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.Reset(c.Request.Context()); err != nil {
		RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ShutdownHandler tears down the session and its saved state. The next
// request attaches a fresh session.
func (h *APIHandler) ShutdownHandler(c *gin.Context) {
	if err := h.App.Shutdown(c.Request.Context()); err != nil {
		RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// HealthHandler reports state store connectivity and service readiness.
func (h *APIHandler) HealthHandler(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.App.StateStore.Ping(ctx); err != nil {
		JSONError(c, http.StatusServiceUnavailable, "state_store_unavailable", err.Error())
		return
	}
	s, err := h.App.Session(ctx)
	if err != nil {
		RespondError(c, err)
		return
	}
	ready, err := s.IsReady(ctx)
	if err != nil {
		JSONError(c, http.StatusServiceUnavailable, "predictor_unavailable", err.Error())
		return
	}
	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": "ok", "session_id": s.ID(), "ready": ready})
}

// parseSimilarityParams reads accuracy_limit and block_limit. Absent values
// select the session defaults.
func parseSimilarityParams(c *gin.Context) (services.SimilarityParams, error) {
	params := services.DefaultSimilarity()
	if v := c.Query("accuracy_limit"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed < 0 || parsed > 1 {
			return params, fmt.Errorf("invalid accuracy_limit: %s", v)
		}
		params.AccuracyLimit = parsed
	}
	if v := c.Query("block_limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			return params, fmt.Errorf("invalid block_limit: %s", v)
		}
		params.BlockLimit = parsed
	}
	return params, nil
}

package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"diet-planner/internal/catalog"
	"diet-planner/internal/models"
	"diet-planner/internal/planner"
	"diet-planner/internal/session"
	"diet-planner/pkg/logger"
)

const sessionHeader = "X-Session-ID"

type handlers struct {
	tracker *session.Tracker
	foods   *catalog.Accessor
	logger  *logger.Logger
}

type planResponse struct {
	SessionID string           `json:"session_id"`
	RequestID string           `json:"request_id"`
	Empty     bool             `json:"empty"`
	Plan      *models.MealPlan `json:"plan"`
}

func (h *handlers) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.logger.Info("Handled request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start))
	}
}

func (h *handlers) health(c *gin.Context) {
	n, err := h.foods.Count(c.Request.Context())
	if err != nil {
		h.logger.Error("Catalog health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "catalog unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "OK", "foods": n})
}

func sessionID(c *gin.Context) string {
	if id := c.Query("session_id"); id != "" {
		return id
	}
	if id := c.GetHeader(sessionHeader); id != "" {
		return id
	}
	return uuid.NewString()
}

// createPlan computes a plan synchronously. Any earlier request still
// running for the same session is cancelled and answers 409.
func (h *handlers) createPlan(c *gin.Context) {
	var profile models.Profile
	if err := c.ShouldBindJSON(&profile); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	id := sessionID(c)
	c.Header(sessionHeader, id)

	plan, requestID, err := h.tracker.Run(c.Request.Context(), id, profile)
	switch {
	case errors.Is(err, planner.ErrInvalidProfile):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "session_id": id})
		return
	case errors.Is(err, session.ErrSuperseded):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "session_id": id, "request_id": requestID})
		return
	case err != nil:
		h.logger.Error("Failed to generate plan", "session", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate plan", "session_id": id, "request_id": requestID})
		return
	}

	c.JSON(http.StatusOK, planResponse{
		SessionID: id,
		RequestID: requestID,
		Empty:     plan.IsEmpty(),
		Plan:      plan,
	})
}

func (h *handlers) sessionState(c *gin.Context) {
	state, ok, err := h.tracker.State(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("Failed to read session state", "session", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read session"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *handlers) listFoods(c *gin.Context) {
	var res catalog.Result
	if category := models.Category(c.Query("category")); category != "" {
		if !category.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category"})
			return
		}
		res = h.foods.ByCategory(c.Request.Context(), category)
	} else {
		res = h.foods.All(c.Request.Context())
	}

	foods := res.Items
	if foods == nil {
		foods = []models.FoodItem{}
	}
	c.JSON(http.StatusOK, gin.H{"foods": foods, "degraded": res.Degraded()})
}

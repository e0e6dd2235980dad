package httpapi

// #region imports
import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sparkyed/sparky-engine/internal/orchestrator"
)

// #endregion imports

// #region handler

// Handler exposes the tutoring engine over HTTP. One engine serves every
// session; per-session serialization happens inside the engine.
type Handler struct {
	engine *orchestrator.Engine
}

// NewHandler wraps an engine for HTTP serving.
func NewHandler(engine *orchestrator.Engine) *Handler {
	return &Handler{engine: engine}
}

// Register mounts the API routes on the router.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/healthz", h.Health)
	api := r.Group("/api")
	api.POST("/chat", h.Chat)
	api.POST("/reset", h.Reset)
}

// #endregion handler

// #region wire-types

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message" binding:"required"`
}

type chatResponse struct {
	SessionID string   `json:"session_id"`
	Reply     string   `json:"reply"`
	Choices   []string `json:"choices,omitempty"`
}

type resetRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// #endregion wire-types

// #region routes

// POST /api/chat
// A blank session_id starts a fresh session; the assigned id comes back in
// the response and identifies the session from then on.
func (h *Handler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	rep, err := h.engine.HandleTurn(c.Request.Context(), req.SessionID, req.Message)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, chatResponse{
		SessionID: req.SessionID,
		Reply:     rep.Text,
		Choices:   rep.Choices,
	})
}

// POST /api/reset
func (h *Handler) Reset(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.engine.ResetSession(req.SessionID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": req.SessionID, "status": "reset"})
}

// GET /healthz
func (h *Handler) Health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// #endregion routes

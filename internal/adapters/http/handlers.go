package http

import (
	"net/http"

	"github.com/dkeye/Babel/internal/app"
	"github.com/gin-gonic/gin"
)

const DefaultAPILimit = 100

type HealthResponse struct {
	Status         string `json:"status"`
	ConnectedUsers int    `json:"connectedUsers"`
	TotalMessages  int    `json:"totalMessages"`
}

type messagesQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1"`
}

// Handlers serves the read-only query surface.
type Handlers struct {
	Orch     *app.Orchestrator
	APILimit int
}

func (h *Handlers) Health(c *gin.Context) {
	p := h.Orch.Registry.Presence()
	c.JSON(http.StatusOK, HealthResponse{
		Status:         "OK",
		ConnectedUsers: len(p.Roster),
		TotalMessages:  p.StoredCount,
	})
}

// Messages returns the most recent messages, oldest first. limit is clamped
// to the configured maximum.
func (h *Handlers) Messages(c *gin.Context) {
	ceiling := h.APILimit
	if ceiling <= 0 {
		ceiling = DefaultAPILimit
	}
	var q messagesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}
	if q.Limit == 0 || q.Limit > ceiling {
		q.Limit = ceiling
	}
	c.JSON(http.StatusOK, h.Orch.Relay.RecentHistory(q.Limit))
}

func (h *Handlers) Users(c *gin.Context) {
	c.JSON(http.StatusOK, h.Orch.Registry.Snapshot())
}

package handlers

import (
	"net/http"

	"github.com/anupakum/MCP-Payment-idea/internal/activity"

	"github.com/gin-gonic/gin"
)

type ActivityHandler struct {
	collector *activity.Collector
}

func NewActivityHandler(c *activity.Collector) *ActivityHandler {
	return &ActivityHandler{collector: c}
}

func (h *ActivityHandler) List(c *gin.Context) {
	var q activity.Query
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	entries := h.collector.Entries(q)
	c.JSON(http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
}

func (h *ActivityHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.collector.Stats())
}

func (h *ActivityHandler) Clear(c *gin.Context) {
	h.collector.Clear()
	c.Status(http.StatusNoContent)
}

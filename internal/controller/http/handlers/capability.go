package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/anupakum/MCP-Payment-idea/internal/capability"

	"github.com/gin-gonic/gin"
)

type CapabilityInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

type CapabilityHandler struct {
	registry *capability.Registry
}

func NewCapabilityHandler(r *capability.Registry) *CapabilityHandler {
	return &CapabilityHandler{registry: r}
}

func (h *CapabilityHandler) List(c *gin.Context) {
	caps := h.registry.List()
	out := make([]CapabilityInfo, len(caps))
	for i, cp := range caps {
		out[i] = CapabilityInfo{Name: cp.Name(), Description: cp.Description(), InputSchema: cp.InputSchema()}
	}
	c.JSON(http.StatusOK, gin.H{"capabilities": out})
}

func (h *CapabilityHandler) Invoke(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	respond(c, h.registry.Invoke(c.Request.Context(), c.Param("name"), body))
}

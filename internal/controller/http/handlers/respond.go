package handlers

import (
	"net/http"

	"github.com/anupakum/MCP-Payment-idea/internal/capability"

	"github.com/gin-gonic/gin"
)

// StatusFor maps a Result onto an HTTP status code.
func StatusFor(res capability.Result) int {
	if res.Success {
		return http.StatusOK
	}
	switch res.Kind {
	case capability.KindValidation:
		return http.StatusBadRequest
	case capability.KindNotFound:
		return http.StatusNotFound
	case capability.KindConflict:
		return http.StatusConflict
	case capability.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respond(c *gin.Context, res capability.Result) {
	c.JSON(StatusFor(res), res)
}

func badRequest(c *gin.Context, message string) {
	respond(c, capability.Result{Kind: capability.KindValidation, Message: message})
}

// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"atlas/internal/modules/refine"
	"atlas/internal/planner"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writePlanError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, planner.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, refine.ErrIterationLimitExceeded):
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

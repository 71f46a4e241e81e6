package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rpabridge/src/log"
)

type AvailabilityRequest struct {
	Date     string `json:"date" binding:"required"`
	Time     string `json:"time" binding:"required"`
	Duration any    `json:"duration" binding:"required"`
}

func (h *Handler) CheckAvailability(c *gin.Context) {
	var req AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Missing required parameters: " + missingFields(err),
			"available": false,
			"message":   "Invalid request",
		})
		return
	}

	log.Info("check availability request",
		"date", req.Date, "time", req.Time,
		"requestID", c.GetString(ctxRequestID),
	)

	input := map[string]any{
		"date":     req.Date,
		"time":     req.Time,
		"duration": req.Duration,
	}

	result, err := h.availability.Run(c.Request.Context(), input)
	if err != nil {
		h.fail(c, err, gin.H{
			"available": false,
			"message":   "Sorry, I was unable to check availability. Please try again.",
		})
		return
	}

	c.JSON(http.StatusOK, pickFields(result, "available", "message", "date", "time", "duration"))
}

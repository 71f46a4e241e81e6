package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rpabridge/src/log"
)

type BookingRequest struct {
	CustomerName string `json:"customer_name" binding:"required"`
	Phone        string `json:"phone" binding:"required"`
	Email        string `json:"email" binding:"required"`
	Date         string `json:"date" binding:"required"`
	Time         string `json:"time" binding:"required"`
	Reason       string `json:"reason"`
}

func (h *Handler) BookAppointment(c *gin.Context) {
	var req BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Missing required parameters: " + missingFields(err),
			"success": false,
			"message": "Invalid request",
		})
		return
	}

	log.Info("book appointment request",
		"customer", req.CustomerName, "date", req.Date, "time", req.Time,
		"requestID", c.GetString(ctxRequestID),
	)

	input := map[string]any{
		"customer_name": req.CustomerName,
		"phone":         req.Phone,
		"email":         req.Email,
		"date":          req.Date,
		"time":          req.Time,
		"reason":        req.Reason,
	}

	result, err := h.booking.Run(c.Request.Context(), input)
	if err != nil {
		h.fail(c, err, gin.H{
			"success": false,
			"message": "Sorry, I was unable to complete the booking. Please try again.",
		})
		return
	}

	c.JSON(http.StatusOK, pickFields(result, "success", "message", "confirmation_number"))
}

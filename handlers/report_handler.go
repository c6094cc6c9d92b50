package handlers

import (
	"errors"
	"net/http"

	"clauseguard-backend/models"
	"clauseguard-backend/notify"
	"clauseguard-backend/repository"

	"github.com/gin-gonic/gin"
)

// ReportHandler handles HTTP requests for report delivery and the precedent
// corpus
type ReportHandler struct {
	notifier *notify.Notifier
	store    repository.PrecedentStore
}

// NewReportHandler creates a new report handler
func NewReportHandler(notifier *notify.Notifier, store repository.PrecedentStore) *ReportHandler {
	return &ReportHandler{
		notifier: notifier,
		store:    store,
	}
}

type emailReportRequest struct {
	Report    models.AnalysisReport `json:"report" binding:"required"`
	Recipient string                `json:"recipient" binding:"required,email"`
	Subject   string                `json:"subject"`
}

// EmailReport handles POST /api/reports/email
func (h *ReportHandler) EmailReport(c *gin.Context) {
	var req emailReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	subject := req.Subject
	if subject == "" {
		subject = "Contract Risk Report"
	}

	html, err := notify.RenderReportHTML(&req.Report)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "RENDER_FAILED",
				"message": err.Error(),
			},
		})
		return
	}
	text := notify.RenderReportText(&req.Report)

	result, err := h.notifier.Send(c.Request.Context(), req.Recipient, subject, html, text)
	if err != nil {
		switch {
		case errors.Is(err, notify.ErrUnauthorizedRecipient):
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UNAUTHORIZED_RECIPIENT",
					"message": err.Error(),
				},
			})
		default:
			c.JSON(http.StatusBadGateway, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DELIVERY_FAILED",
					"message": err.Error(),
				},
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"recipient": req.Recipient,
			"transport": result.Transport,
		},
	})
}

type upsertPrecedentRequest struct {
	ID   string `json:"id" binding:"required"`
	Text string `json:"text" binding:"required"`
}

// UpsertPrecedent handles POST /api/precedents
func (h *ReportHandler) UpsertPrecedent(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NO_PRECEDENT_STORE",
				"message": "Precedent store is not configured",
			},
		})
		return
	}

	var req upsertPrecedentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	if err := h.store.Upsert(c.Request.Context(), req.ID, req.Text); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPSERT_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"id": req.ID,
		},
	})
}

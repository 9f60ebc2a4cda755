package handlers

import (
	"net/http"
	"time"

	"example.com/fieldops/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ScanSink is the slice of the dispatcher the ingest API needs
type ScanSink interface {
	Offer(ev models.ScanEvent) bool
	Ledger() []models.ScannedItem
	SessionID() string
}

// ScanHandler receives decoded label reads from the external
// camera/decoder collaborator
type ScanHandler struct {
	sink ScanSink
	log  *logrus.Logger
}

// NewScanHandler creates a new ScanHandler instance
func NewScanHandler(sink ScanSink, log *logrus.Logger) *ScanHandler {
	return &ScanHandler{sink: sink, log: log}
}

type scanRequest struct {
	Code       string     `json:"code" binding:"required"`
	ObservedAt *time.Time `json:"observed_at"`
	Source     string     `json:"source"`
}

// ReceiveScan handles one decoded-string event. Duplicate reads inside
// the de-duplication window are reported as accepted=false with 200;
// accepted reads answer 202 immediately while the submission proceeds
// asynchronously.
func (h *ScanHandler) ReceiveScan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.WithError(err).Warn("Invalid scan event format")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid scan event format",
		})
		return
	}

	ev := models.ScanEvent{
		Code:       req.Code,
		ObservedAt: time.Now(),
		Source:     req.Source,
	}
	if req.ObservedAt != nil {
		ev.ObservedAt = *req.ObservedAt
	}

	if !h.sink.Offer(ev) {
		c.JSON(http.StatusOK, gin.H{"accepted": false})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"accepted": true})
}

// GetLedger returns the session ledger in append order
func (h *ScanHandler) GetLedger(c *gin.Context) {
	items := h.sink.Ledger()
	c.JSON(http.StatusOK, gin.H{
		"session_id": h.sink.SessionID(),
		"count":      len(items),
		"items":      items,
	})
}

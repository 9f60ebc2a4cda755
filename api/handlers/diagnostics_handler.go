package handlers

import (
	"net/http"

	"example.com/fieldops/internal/session"

	"github.com/gin-gonic/gin"
)

// BackendInfo is the slice of the backend client the diagnostics
// surface needs
type BackendInfo interface {
	SubmitEndpoint() string
	InFlight() bool
}

// DiagnosticsHandler exposes the informational bundle shown to the
// operator when a submission fails: configured address, derived
// endpoint, login state and token presence. Purely informational.
type DiagnosticsHandler struct {
	sess    session.Store
	backend BackendInfo
}

// NewDiagnosticsHandler creates a new DiagnosticsHandler instance
func NewDiagnosticsHandler(sess session.Store, backend BackendInfo) *DiagnosticsHandler {
	return &DiagnosticsHandler{sess: sess, backend: backend}
}

// GetDiagnostics handles diagnostics requests
func (h *DiagnosticsHandler) GetDiagnostics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"configured_address": h.sess.BaseAddress(),
		"submit_endpoint":    h.backend.SubmitEndpoint(),
		"logged_in":          h.sess.LoggedIn(),
		"username":           h.sess.Username(),
		"csrf_token_present": h.sess.CSRFToken() != "",
		"request_in_flight":  h.backend.InFlight(),
	})
}

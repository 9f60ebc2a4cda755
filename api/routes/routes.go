package routes

import (
	"example.com/fieldops/api/handlers"
	"example.com/fieldops/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SetupRoutes sets up all the routes for the ingest server
func SetupRoutes(r *gin.Engine, sink handlers.ScanSink, sess session.Store, backend handlers.BackendInfo, log *logrus.Logger) {
	// Health check
	r.GET("/health", handlers.HealthCheck)

	api := r.Group("/api/v1")

	scanHandler := handlers.NewScanHandler(sink, log)
	{
		api.POST("/scans", scanHandler.ReceiveScan)
		api.GET("/ledger", scanHandler.GetLedger)
	}

	diagHandler := handlers.NewDiagnosticsHandler(sess, backend)
	api.GET("/diagnostics", diagHandler.GetDiagnostics)
}

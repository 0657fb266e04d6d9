package main

import (
	"amd-dialer/internal/httpapi"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, authMW gin.HandlerFunc) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Token issuance (public).
	r.POST("/v1/auth/token", h.IssueToken)

	// Provider webhooks (public).
	// NOTE: These endpoints should be protected by provider signature
	// validation in production.
	webhooks := r.Group("/webhooks")
	{
		webhooks.POST("/twilio/status", h.TwilioStatus)
		webhooks.POST("/twilio/speech", h.TwilioSpeech)
		webhooks.POST("/twilio/recording", h.TwilioRecording)
		webhooks.GET("/twilio/media", h.TwilioMedia)
		webhooks.POST("/telnyx/amd", h.TelnyxAMD)
		webhooks.POST("/telnyx/speech", h.TelnyxSpeech)
	}

	// Operator API (token protected).
	v1 := r.Group("/v1")
	v1.Use(authMW)
	{
		v1.POST("/calls", h.Dial)
		v1.GET("/calls/:call_id", h.GetCall)
		v1.GET("/reports/summary", h.Summary)
	}
}

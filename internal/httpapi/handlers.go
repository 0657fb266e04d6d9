package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"amd-dialer/internal/auth"
	"amd-dialer/internal/calls"
	"amd-dialer/internal/detect"
	"amd-dialer/internal/phone"
	"amd-dialer/internal/reconcile"
	"amd-dialer/internal/reporting"
	"amd-dialer/internal/streaming"
	"amd-dialer/internal/telephony"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.

type Handlers struct {
	Auth       *auth.Manager
	Reconciler *reconcile.Service
	Store      calls.Store
	Reports    *reporting.Service

	// Twilio and Telnyx execute call-control actions on live legs.
	Twilio *telephony.TwilioDialer
	Telnyx *telephony.TelnyxDialer

	Buffers *streaming.Buffers

	PublicBaseURL      string
	DefaultCountryCode string
}

// --- Auth ---

type tokenRequest struct {
	OperatorID string `json:"operator_id"`
}

// IssueToken issues an operator JWT.
//
// NOTE: This is a skeleton-only endpoint. Real systems must validate credentials.
func (h Handlers) IssueToken(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.OperatorID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "operator_id required"})
		return
	}
	tok, err := h.Auth.Issue(time.Now(), req.OperatorID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": tok})
}

// --- Calls ---

type dialRequest struct {
	PhoneNumber string `json:"phone_number"`
	Strategy    string `json:"strategy"`
}

// Dial validates the destination, admits the call through the
// concurrency gate, and places it with the requested strategy.
func (h Handlers) Dial(c *gin.Context) {
	if h.Reconciler == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "dialer not configured"})
		return
	}
	var req dialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	// Number validation comes first: a malformed destination must never
	// reach a provider.
	normalized := phone.NormalizeWithDefault(req.PhoneNumber, h.DefaultCountryCode)
	if !phone.IsValid(normalized) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid phone number"})
		return
	}

	strategyID, err := detect.ParseID(req.Strategy)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown strategy"})
		return
	}

	call, err := h.Reconciler.StartCall(c.Request.Context(), normalized, strategyID)
	if err != nil {
		if errors.Is(err, reconcile.ErrTooManyCalls) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "concurrent call limit reached"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call placement failed"})
		return
	}

	c.JSON(http.StatusCreated, callResponse(call))
}

// GetCall returns the call record plus a human-readable summary line.
func (h Handlers) GetCall(c *gin.Context) {
	if h.Store == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "store not configured"})
		return
	}
	callID := c.Param("call_id")
	call, err := h.Store.Get(c.Request.Context(), callID)
	if err != nil {
		if errors.Is(err, calls.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "call not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call lookup failed"})
		return
	}
	c.JSON(http.StatusOK, callResponse(call))
}

func callResponse(call calls.Call) gin.H {
	return gin.H{
		"call":    call,
		"message": statusMessage(call),
	}
}

// statusMessage renders the detection state for humans reading the API.
func statusMessage(call calls.Call) string {
	switch detect.Verdict(call.Verdict) {
	case detect.VerdictHuman:
		return fmt.Sprintf("A human answered (confidence %.2f).", call.Confidence)
	case detect.VerdictMachine:
		return fmt.Sprintf("An answering machine was detected (confidence %.2f).", call.Confidence)
	case detect.VerdictVoicemail:
		return fmt.Sprintf("The call reached voicemail (confidence %.2f).", call.Confidence)
	case detect.VerdictTimeout:
		return "Detection timed out before a classification was made."
	case detect.VerdictError:
		if cause, ok := call.MetaString(detect.MetaError); ok {
			return "Detection failed: " + cause
		}
		return "Detection failed."
	default:
		if call.Status.Terminal() {
			return "The call ended before detection settled."
		}
		return "Detection is still in progress."
	}
}

// --- Reports ---

// Summary aggregates detection outcomes over a window. Defaults to the
// last 24 hours when no range is given.
func (h Handlers) Summary(c *gin.Context) {
	if h.Reports == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reporting not configured"})
		return
	}

	now := time.Now().UTC()
	rng := reporting.TimeRange{From: now.Add(-24 * time.Hour), To: now}

	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from must be RFC3339"})
			return
		}
		rng.From = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "to must be RFC3339"})
			return
		}
		rng.To = t
	}

	summary, err := h.Reports.Summary(c.Request.Context(), reporting.SummaryRequest{
		Range:    rng,
		Strategy: c.Query("strategy"),
	})
	if err != nil {
		if errors.Is(err, reporting.ErrInvalidRequest) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid report range"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "report failed"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

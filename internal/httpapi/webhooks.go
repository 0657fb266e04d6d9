package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"amd-dialer/internal/calls"
	"amd-dialer/internal/detect"
	"amd-dialer/internal/reconcile"
	"amd-dialer/internal/telephony"
	"amd-dialer/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Provider webhooks. These endpoints must never return 5xx: providers
// retry on failure and a malformed or unmatchable event can never be
// fixed by retrying. Unknown events are logged and acknowledged.

const (
	humanGreeting = "Hello! This was an automated line test. Sorry for the interruption, goodbye."
	probeQuestion = "Hello, who am I speaking with?"
	actionTimeout = 5 * time.Second
)

// TwilioStatus handles status and async AMD callbacks.
func (h Handlers) TwilioStatus(c *gin.Context) {
	log := logger.From(c.Request.Context())

	form, err := telephony.ParseTwilioStatus(c.Request)
	if err != nil {
		log.Warn("twilio status parse failed", "err", err)
		c.Status(http.StatusNoContent)
		return
	}

	call, action, err := h.Reconciler.HandleProviderEvent(c.Request.Context(), form.Payload())
	if err != nil {
		log.Warn("twilio status not reconciled", "call_sid", form.CallSid, "err", err)
		c.Status(http.StatusNoContent)
		return
	}

	h.executeTwilioAction(c.Request.Context(), call, action)
	c.Status(http.StatusNoContent)
}

// TwilioSpeech handles gather results. The response body is the TwiML
// the call executes next, so the action is rendered inline.
func (h Handlers) TwilioSpeech(c *gin.Context) {
	log := logger.From(c.Request.Context())

	form, err := telephony.ParseTwilioSpeech(c.Request)
	if err != nil || form.CallSid == "" {
		log.Warn("twilio speech parse failed", "err", err)
		h.respondTwiML(c, telephony.Hangup())
		return
	}

	confidence, _ := strconv.ParseFloat(form.Confidence, 64)
	_, action, err := h.Reconciler.HandleSpeechResult(c.Request.Context(), detect.MetaTwilioCallSid, form.CallSid, form.SpeechResult, confidence)
	if err != nil {
		log.Warn("twilio speech not reconciled", "call_sid", form.CallSid, "err", err)
		h.respondTwiML(c, telephony.Hangup())
		return
	}

	switch action {
	case reconcile.ActionSpeakHangup:
		h.respondTwiML(c, telephony.Say(humanGreeting), telephony.Hangup())
	default:
		h.respondTwiML(c, telephony.Hangup())
	}
}

// TwilioRecording stores the recording reference on the call.
func (h Handlers) TwilioRecording(c *gin.Context) {
	log := logger.From(c.Request.Context())

	form, err := telephony.ParseTwilioRecording(c.Request)
	if err != nil || form.CallSid == "" {
		log.Warn("twilio recording parse failed", "err", err)
		c.Status(http.StatusNoContent)
		return
	}

	duration, _ := strconv.Atoi(form.RecordingDuration)
	if _, err := h.Reconciler.AttachRecording(c.Request.Context(), form.CallSid, form.RecordingURL, duration); err != nil {
		log.Warn("recording not attached", "call_sid", form.CallSid, "err", err)
	}
	c.Status(http.StatusNoContent)
}

// TelnyxAMD handles call control events carrying AMD results and
// lifecycle transitions.
func (h Handlers) TelnyxAMD(c *gin.Context) {
	log := logger.From(c.Request.Context())

	ev, err := telephony.ParseTelnyxEvent(c.Request)
	if err != nil || ev.CallControlID == "" {
		log.Warn("telnyx event parse failed", "err", err)
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	call, action, err := h.Reconciler.HandleProviderEvent(c.Request.Context(), ev.Payload())
	if err != nil {
		log.Warn("telnyx event not reconciled", "call_control_id", ev.CallControlID, "err", err)
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	h.executeTelnyxAction(c.Request.Context(), call, action, ev.CallControlID)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// TelnyxSpeech handles gather/transcription events.
func (h Handlers) TelnyxSpeech(c *gin.Context) {
	log := logger.From(c.Request.Context())

	ev, err := telephony.ParseTelnyxEvent(c.Request)
	if err != nil || ev.CallControlID == "" {
		log.Warn("telnyx speech parse failed", "err", err)
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	call, action, err := h.Reconciler.HandleSpeechResult(c.Request.Context(), detect.MetaTelnyxCallID, ev.CallControlID, ev.Transcript, 0)
	if err != nil {
		log.Warn("telnyx speech not reconciled", "call_control_id", ev.CallControlID, "err", err)
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	h.executeTelnyxAction(c.Request.Context(), call, action, ev.CallControlID)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h Handlers) respondTwiML(c *gin.Context, verbs ...any) {
	doc, err := telephony.RenderTwiML(verbs...)
	if err != nil {
		c.Data(http.StatusOK, "text/xml", []byte(`<?xml version="1.0" encoding="UTF-8"?><Response><Hangup/></Response>`))
		return
	}
	c.Data(http.StatusOK, "text/xml", []byte(doc))
}

// executeTwilioAction steers a live Twilio leg by replacing its TwiML.
// Best-effort: a failed update means the hold TwiML simply runs out.
func (h Handlers) executeTwilioAction(ctx context.Context, call calls.Call, action reconcile.Action) {
	if action == reconcile.ActionNone || h.Twilio == nil {
		return
	}
	sid, ok := call.MetaString(detect.MetaTwilioCallSid)
	if !ok {
		return
	}

	var verbs []any
	switch action {
	case reconcile.ActionSpeakHangup:
		verbs = []any{telephony.Say(humanGreeting), telephony.Hangup()}
	case reconcile.ActionHangup:
		verbs = []any{telephony.Hangup()}
	case reconcile.ActionProbeSpeech:
		verbs = []any{
			telephony.GatherSpeech(probeQuestion, h.PublicBaseURL+"/webhooks/twilio/speech", 5),
			telephony.Hangup(),
		}
	default:
		return
	}

	doc, err := telephony.RenderTwiML(verbs...)
	if err != nil {
		return
	}

	actionCtx, cancel := context.WithTimeout(ctx, actionTimeout)
	defer cancel()
	if err := h.Twilio.UpdateCall(actionCtx, sid, doc); err != nil {
		logger.From(ctx).Warn("twilio call update failed", "call_id", call.CallID, "action", string(action), "err", err)
	}
}

// executeTelnyxAction issues call commands on a live Telnyx leg.
func (h Handlers) executeTelnyxAction(ctx context.Context, call calls.Call, action reconcile.Action, callControlID string) {
	if action == reconcile.ActionNone || h.Telnyx == nil || callControlID == "" {
		return
	}
	log := logger.From(ctx)

	actionCtx, cancel := context.WithTimeout(ctx, actionTimeout)
	defer cancel()

	var err error
	switch action {
	case reconcile.ActionSpeakHangup:
		if err = h.Telnyx.Speak(actionCtx, callControlID, humanGreeting); err == nil {
			err = h.Telnyx.Hangup(actionCtx, callControlID)
		}
	case reconcile.ActionHangup:
		err = h.Telnyx.Hangup(actionCtx, callControlID)
	case reconcile.ActionProbeSpeech:
		err = h.Telnyx.GatherUsingSpeak(actionCtx, callControlID, probeQuestion, 5*time.Second)
	default:
		return
	}
	if err != nil {
		log.Warn("telnyx call command failed", "call_id", call.CallID, "action", string(action), "err", err)
	}
}

package reconcile

import (
	"amd-dialer/internal/calls"
	"amd-dialer/internal/detect"
)

// Action is what the call-control layer should do to the live call after
// an event was reconciled. The reconciler decides; the HTTP layer
// translates the action into provider commands (TwiML or REST).
type Action string

const (
	// ActionNone leaves the call alone (keep holding / keep streaming).
	ActionNone Action = "none"

	// ActionHangup terminates the call immediately.
	ActionHangup Action = "hangup"

	// ActionSpeakHangup plays the outcome message to the live answerer,
	// then hangs up.
	ActionSpeakHangup Action = "speak_hangup"

	// ActionProbeSpeech asks the answerer to speak so a transcript can
	// settle an inconclusive detection.
	ActionProbeSpeech Action = "probe_speech"
)

// NextAction derives the call-control step from the call's current
// verdict. A speech probe runs at most once per call: once the probe
// itself was the analysis source, an inconclusive outcome hangs up
// instead of probing again.
func NextAction(c calls.Call) Action {
	if c.Status.Terminal() {
		return ActionNone
	}

	probed := false
	if a, ok := c.MetaString(detect.MetaAnalysis); ok && a == detect.AnalysisSpeechProbe {
		probed = true
	}

	switch detect.Verdict(c.Verdict) {
	case detect.VerdictHuman:
		return ActionSpeakHangup
	case detect.VerdictMachine, detect.VerdictVoicemail:
		return ActionHangup
	case detect.VerdictTimeout:
		if probed {
			return ActionHangup
		}
		return ActionProbeSpeech
	case detect.VerdictUndecided:
		// A low-confidence signal arrived but settled nothing; only an
		// explicit inconclusive signal warrants the probe.
		if probed {
			return ActionHangup
		}
		if _, ok := c.MetaString(detect.MetaAnsweredBy); ok {
			return ActionProbeSpeech
		}
		return ActionNone
	case detect.VerdictError:
		return ActionHangup
	default:
		return ActionNone
	}
}

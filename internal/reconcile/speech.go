package reconcile

import (
	"strings"

	"amd-dialer/internal/detect"
)

const (
	speechConfidenceHuman     = 0.75
	speechConfidenceLongReply = 0.6
	speechConfidenceMachine   = 0.8
	speechConfidenceUndecided = 0.4

	// Replies longer than this are a person actually talking back, not
	// a fragment the recognizer clipped.
	speechTrivialWords = 8
)

var humanOpeners = []string{
	"hello",
	"hi",
	"hey",
	"yes",
	"yeah",
	"speaking",
	"who is",
	"who's",
	"this is",
}

var machinePhrases = []string{
	"leave a message",
	"after the tone",
	"after the beep",
	"not available",
	"voicemail",
	"has been forwarded",
	"unable to take your call",
	"leave your name",
}

// speechProbeResult classifies a probe transcript with conversational
// heuristics. It backs the non-LLM strategies when native detection came
// back inconclusive and a speech probe was issued.
func speechProbeResult(transcript string, confidence float64) detect.Result {
	meta := map[string]any{
		detect.MetaAnalysis:   detect.AnalysisSpeechProbe,
		detect.MetaTranscript: transcript,
	}

	trimmed := strings.TrimSpace(strings.ToLower(transcript))
	if trimmed == "" {
		return detect.NewResult(detect.VerdictTimeout, 0.5, meta)
	}

	for _, phrase := range machinePhrases {
		if strings.Contains(trimmed, phrase) {
			return detect.NewResult(detect.VerdictMachine, speechConfidenceMachine, meta)
		}
	}

	for _, opener := range humanOpeners {
		if trimmed == opener || strings.HasPrefix(trimmed, opener+" ") || strings.HasPrefix(trimmed, opener+",") {
			conf := speechConfidenceHuman
			if confidence > conf {
				conf = confidence
			}
			return detect.NewResult(detect.VerdictHuman, conf, meta)
		}
	}

	if len(strings.Fields(trimmed)) > speechTrivialWords {
		return detect.NewResult(detect.VerdictHuman, speechConfidenceLongReply, meta)
	}

	return detect.NewResult(detect.VerdictUndecided, speechConfidenceUndecided, meta)
}

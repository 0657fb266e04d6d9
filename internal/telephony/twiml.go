package telephony

import (
	"bytes"
	"encoding/xml"
)

// Minimal TwiML builder. It intentionally avoids any provider SDK
// dependency; only the verbs the AMD flow needs are modeled.

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlSay struct {
	XMLName xml.Name `xml:"Say"`
	Voice   string   `xml:"voice,attr,omitempty"`
	Text    string   `xml:",chardata"`
}

type twimlHangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

type twimlPause struct {
	XMLName xml.Name `xml:"Pause"`
	Length  int      `xml:"length,attr,omitempty"`
}

type twimlGather struct {
	XMLName       xml.Name `xml:"Gather"`
	Input         string   `xml:"input,attr"`
	Action        string   `xml:"action,attr"`
	Method        string   `xml:"method,attr"`
	Timeout       int      `xml:"timeout,attr,omitempty"`
	SpeechTimeout string   `xml:"speechTimeout,attr,omitempty"`
	Say           *twimlSay
}

type twimlStart struct {
	XMLName xml.Name     `xml:"Start"`
	Stream  *twimlStream `xml:"Stream"`
}

type twimlStream struct {
	URL   string `xml:"url,attr"`
	Track string `xml:"track,attr,omitempty"`
}

// Say speaks text to the callee.
func Say(text string) any {
	return twimlSay{Text: text}
}

// Hangup terminates the call.
func Hangup() any {
	return twimlHangup{}
}

// Pause keeps the leg open for length seconds.
func Pause(length int) any {
	return twimlPause{Length: length}
}

// GatherSpeech prompts the callee and posts the transcript to action.
func GatherSpeech(prompt, action string, timeoutSec int) any {
	return twimlGather{
		Input:         "speech",
		Action:        action,
		Method:        "POST",
		Timeout:       timeoutSec,
		SpeechTimeout: "auto",
		Say:           &twimlSay{Text: prompt},
	}
}

// StartStream forks inbound call audio to a websocket endpoint.
func StartStream(wsURL string) any {
	return twimlStart{Stream: &twimlStream{URL: wsURL, Track: "inbound_track"}}
}

// RenderTwiML serializes verbs into a TwiML document.
func RenderTwiML(verbs ...any) (string, error) {
	r := twimlResponse{Verbs: verbs}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

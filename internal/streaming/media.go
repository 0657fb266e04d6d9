package streaming

import (
	"encoding/base64"
	"encoding/json"
)

// Media stream wire messages. The provider sends JSON frames over the
// websocket: a start frame naming the stream and call, media frames with
// base64 audio, and a stop frame.

type MediaMessage struct {
	Event     string      `json:"event"`
	StreamSid string      `json:"streamSid,omitempty"`
	Start     *StartFrame `json:"start,omitempty"`
	Media     *MediaFrame `json:"media,omitempty"`
	Stop      *StopFrame  `json:"stop,omitempty"`
}

type StartFrame struct {
	StreamSid    string            `json:"streamSid"`
	CallSid      string            `json:"callSid"`
	Tracks       []string          `json:"tracks"`
	CustomParams map[string]string `json:"customParameters"`
}

type MediaFrame struct {
	Track   string `json:"track"`
	Payload string `json:"payload"` // base64 mu-law audio
}

type StopFrame struct {
	CallSid string `json:"callSid"`
}

// ParseMediaMessage decodes one websocket frame.
func ParseMediaMessage(data []byte) (MediaMessage, error) {
	var msg MediaMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return MediaMessage{}, err
	}
	return msg, nil
}

// Audio decodes the frame's base64 payload.
func (m *MediaFrame) Audio() ([]byte, error) {
	return base64.StdEncoding.DecodeString(m.Payload)
}

package httpapi

import (
	"net/http"
	"time"

	"amd-dialer/internal/detect"
	"amd-dialer/internal/streaming"
	"amd-dialer/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var mediaUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The provider connects server-to-server with no Origin header.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// TwilioMedia consumes a Media Streams websocket: buffers inbound audio
// per stream and classifies each full window. The socket lives for the
// duration of the call leg.
func (h Handlers) TwilioMedia(c *gin.Context) {
	log := logger.From(c.Request.Context())

	conn, err := mediaUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn("media upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	// The hijacked connection inherits the server's read/write deadlines,
	// which would cut a call leg short. The socket lives until the
	// provider closes it.
	_ = conn.UnderlyingConn().SetDeadline(time.Time{})

	ctx := c.Request.Context()
	var streamSid string

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		msg, err := streaming.ParseMediaMessage(data)
		if err != nil {
			log.Warn("media frame parse failed", "err", err)
			continue
		}

		switch msg.Event {
		case "start":
			if msg.Start == nil {
				continue
			}
			streamSid = msg.Start.StreamSid
			if streamSid == "" {
				streamSid = msg.StreamSid
			}

			callID := msg.Start.CustomParams["call_id"]
			if callID == "" {
				callID = c.Query("call_id")
			}
			if callID == "" && h.Store != nil {
				if rec, err := h.Store.FindByProviderID(ctx, detect.MetaTwilioCallSid, msg.Start.CallSid); err == nil {
					callID = rec.CallID
				}
			}
			if callID == "" {
				log.Warn("media stream for unknown call", "call_sid", msg.Start.CallSid)
				continue
			}
			h.Buffers.Register(streamSid, callID)

		case "media":
			if msg.Media == nil {
				continue
			}
			sid := msg.StreamSid
			if sid == "" {
				sid = streamSid
			}
			callID, ok := h.Buffers.CallID(sid)
			if !ok {
				continue
			}
			audio, err := msg.Media.Audio()
			if err != nil {
				log.Warn("media payload decode failed", "err", err)
				continue
			}
			window, ready := h.Buffers.Append(sid, callID, audio)
			if !ready {
				continue
			}
			if _, err := h.Reconciler.ProcessAudioWindow(ctx, callID, streaming.WAVFromMuLaw(window)); err != nil {
				log.Warn("audio window not processed", "call_id", callID, "err", err)
			}

		case "stop":
			sid := msg.StreamSid
			if sid == "" {
				sid = streamSid
			}
			h.Buffers.Release(sid)
		}
	}

	if streamSid != "" {
		h.Buffers.Release(streamSid)
	}
}

package streaming

import "sync"

// WindowBytes is one analysis window of inbound call audio:
// 2 seconds of 8kHz 8-bit mu-law, the format the media stream delivers.
const WindowBytes = 16000

// Buffers accumulates per-stream audio until a full analysis window is
// available. Streams from concurrent calls are independent; each is
// keyed by its provider stream identifier.
//
// Accumulate-until-threshold-then-flush: a returned window is never
// reprocessed, the remainder stays buffered for the next window.
type Buffers struct {
	mu       sync.Mutex
	byStream map[string]*buffer
}

type buffer struct {
	callID string
	data   []byte
}

func NewBuffers() *Buffers {
	return &Buffers{byStream: map[string]*buffer{}}
}

// Register binds a stream to its call before any audio arrives.
func (b *Buffers) Register(streamID, callID string) {
	if streamID == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.byStream[streamID]; !ok {
		b.byStream[streamID] = &buffer{callID: callID}
	}
}

// Append adds a decoded audio chunk to the stream's buffer and returns a
// full window when one is ready.
func (b *Buffers) Append(streamID, callID string, chunk []byte) (window []byte, ready bool) {
	if streamID == "" || len(chunk) == 0 {
		return nil, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	buf, ok := b.byStream[streamID]
	if !ok {
		buf = &buffer{callID: callID}
		b.byStream[streamID] = buf
	}
	buf.data = append(buf.data, chunk...)

	if len(buf.data) < WindowBytes {
		return nil, false
	}
	window = buf.data[:WindowBytes]
	buf.data = append([]byte(nil), buf.data[WindowBytes:]...)
	return window, true
}

// CallID returns the call a stream belongs to.
func (b *Buffers) CallID(streamID string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	buf, ok := b.byStream[streamID]
	if !ok {
		return "", false
	}
	return buf.callID, true
}

// Release drops a stream's buffer when the provider stops the stream.
func (b *Buffers) Release(streamID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.byStream, streamID)
}

// Active returns the number of streams currently buffering.
func (b *Buffers) Active() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.byStream)
}

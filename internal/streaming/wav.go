package streaming

import "encoding/binary"

// Media stream audio is 8kHz 8-bit mu-law. The inference service accepts
// WAV uploads, so each window is wrapped in a minimal mu-law WAV header
// (format tag 7) before posting.

const (
	wavFormatMuLaw   = 7
	wavSampleRate    = 8000
	wavBitsPerSample = 8
)

// WAVFromMuLaw wraps raw mu-law samples in a WAV container.
func WAVFromMuLaw(samples []byte) []byte {
	dataLen := uint32(len(samples))

	// RIFF header + fmt chunk (18 bytes, mu-law carries cbSize) + data chunk.
	buf := make([]byte, 0, 46+len(samples))

	buf = append(buf, 'R', 'I', 'F', 'F')
	buf = binary.LittleEndian.AppendUint32(buf, 38+dataLen)
	buf = append(buf, 'W', 'A', 'V', 'E')

	buf = append(buf, 'f', 'm', 't', ' ')
	buf = binary.LittleEndian.AppendUint32(buf, 18)
	buf = binary.LittleEndian.AppendUint16(buf, wavFormatMuLaw)
	buf = binary.LittleEndian.AppendUint16(buf, 1) // mono
	buf = binary.LittleEndian.AppendUint32(buf, wavSampleRate)
	buf = binary.LittleEndian.AppendUint32(buf, wavSampleRate) // byte rate = rate * 1 channel * 1 byte
	buf = binary.LittleEndian.AppendUint16(buf, 1)             // block align
	buf = binary.LittleEndian.AppendUint16(buf, wavBitsPerSample)
	buf = binary.LittleEndian.AppendUint16(buf, 0) // cbSize

	buf = append(buf, 'd', 'a', 't', 'a')
	buf = binary.LittleEndian.AppendUint32(buf, dataLen)
	buf = append(buf, samples...)
	return buf
}

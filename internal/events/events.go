// Package events defines the wire events the bridge sends to producer and
// observer connections, and the Kafka publisher that fans final/partial
// transcripts out to downstream consumers.
package events

import "time"

// Event type discriminators carried in the "type" field.
const (
	TypeHello      = "hello"
	TypeReady      = "ready"
	TypeTranscript = "transcript"
	TypeError      = "error"
)

// Machine-readable error codes.
const (
	CodeBadFraming      = "bad_framing"
	CodeUnauthorized    = "unauthorized"
	CodeUpstreamFailure = "upstream_failure"
)

// Hello greets a connection with the active mode and accepted-track policy.
type Hello struct {
	Type   string `json:"type"`
	TS     int64  `json:"ts"`
	Mode   string `json:"mode"`
	Tracks string `json:"tracks"`
}

// Ready acknowledges a successful start or track session.
type Ready struct {
	Type    string `json:"type"`
	TS      int64  `json:"ts"`
	Info    string `json:"info"`
	Track   string `json:"track,omitempty"`
	Channel string `json:"channel,omitempty"`
}

// Transcript is one partial or final recognition result for a track.
type Transcript struct {
	Type      string `json:"type"`
	TS        int64  `json:"ts"`
	Text      string `json:"text"`
	IsFinal   bool   `json:"isFinal"`
	Channel   string `json:"channel"`
	Track     string `json:"track"`
	SegmentID string `json:"segmentId"`
}

// Error reports a failure, scoped to a track when one is affected.
type Error struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Track   string `json:"track,omitempty"`
	Channel string `json:"channel,omitempty"`
}

func NewHello(mode, tracks string) Hello {
	return Hello{Type: TypeHello, TS: time.Now().UnixMilli(), Mode: mode, Tracks: tracks}
}

func NewReady(info, track, channel string) Ready {
	return Ready{Type: TypeReady, TS: time.Now().UnixMilli(), Info: info, Track: track, Channel: channel}
}

func NewTranscript(text string, isFinal bool, channel, track, segmentID string) Transcript {
	return Transcript{
		Type:      TypeTranscript,
		TS:        time.Now().UnixMilli(),
		Text:      text,
		IsFinal:   isFinal,
		Channel:   channel,
		Track:     track,
		SegmentID: segmentID,
	}
}

func NewError(code, message, track, channel string) Error {
	return Error{Type: TypeError, Code: code, Message: message, Track: track, Channel: channel}
}

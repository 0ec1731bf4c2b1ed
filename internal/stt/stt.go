// Package stt defines the interface for streaming speech-to-text providers.
package stt

import (
	"context"
	"errors"
)

// ErrStreamClosed is returned by Send after the stream has been closed.
var ErrStreamClosed = errors.New("stt: stream closed")

// Result is one normalized recognition result. SegmentID identifies the
// utterance: the same id repeats across partials until the final for that
// utterance arrives.
type Result struct {
	SegmentID  string
	Text       string
	Final      bool
	Confidence float64
}

// Config describes how a recognition stream is opened.
type Config struct {
	LanguageCode   string
	SampleRateHz   int
	InterimResults bool
}

// Stream is one live recognition session fed with linear PCM audio.
type Stream interface {
	// Send pushes little-endian PCM16 bytes into the stream.
	Send(ctx context.Context, pcm []byte) error

	// Results returns the channel of normalized results, in upstream order.
	// The channel is closed when the stream ends; Err reports the terminal
	// error, if any, once the channel is closed.
	Results() <-chan Result
	Err() error

	// Close signals end of input and releases resources. Idempotent.
	Close() error
}

// Provider opens recognition streams (Google, mock, ...). Implementations
// must be swappable without any change to connection handling code.
type Provider interface {
	// Name identifies the provider ("google", "mock") in logs and greetings.
	Name() string

	// OpenStream starts a streaming session. The stream is torn down when
	// ctx is cancelled or Close is called, whichever comes first.
	OpenStream(ctx context.Context, cfg Config) (Stream, error)
}

// Package mock provides a mock STT provider for development and testing
// without cloud credentials. It simulates realistic recognition behavior:
// progressive partial transcripts per audio frame and exactly one final per
// utterance, then moves on to the next canned utterance.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/WaffleHouseIndex/BilbyAI-sub000/internal/stt"
)

// Utterance is a canned utterance with progressive transcripts.
type Utterance struct {
	Partials   []string
	Final      string
	Confidence float64
}

// DefaultUtterances provides sample utterances for simulation.
var DefaultUtterances = []Utterance{
	{
		Partials:   []string{"I want", "I want to", "I want to cancel"},
		Final:      "I want to cancel my subscription",
		Confidence: 0.94,
	},
	{
		Partials:   []string{"Yes", "Yes please"},
		Final:      "Yes please go ahead",
		Confidence: 0.97,
	},
	{
		Partials:   []string{"Can you", "Can you help", "Can you help me with"},
		Final:      "Can you help me with my account",
		Confidence: 0.91,
	},
	{
		Partials:   []string{"Thank you"},
		Final:      "Thank you very much",
		Confidence: 0.98,
	},
}

// Provider implements stt.Provider with canned responses.
type Provider struct {
	// Delay between receiving audio and emitting the corresponding result.
	// Zero means synchronous emission, which tests rely on.
	Delay time.Duration

	// Utterances overrides DefaultUtterances when non-empty.
	Utterances []Utterance
}

// New creates a mock provider with a small simulated processing delay.
func New() *Provider {
	return &Provider{Delay: 25 * time.Millisecond}
}

func (p *Provider) Name() string { return "mock" }

// OpenStream starts a mock recognition session.
func (p *Provider) OpenStream(ctx context.Context, cfg stt.Config) (stt.Stream, error) {
	utterances := p.Utterances
	if len(utterances) == 0 {
		utterances = DefaultUtterances
	}
	s := &Stream{
		delay:      p.Delay,
		interim:    cfg.InterimResults,
		utterances: utterances,
		segmentID:  uuid.NewString(),
		audio:      make(chan []byte, 32),
		results:    make(chan stt.Result, 32),
		done:       make(chan struct{}),
	}
	go s.run(ctx)
	return s, nil
}

// Stream simulates one recognition session. A single goroutine owns the
// results channel, so result order matches audio order and the final for a
// segment always follows its partials.
type Stream struct {
	delay      time.Duration
	interim    bool
	utterances []Utterance

	audio   chan []byte
	results chan stt.Result
	done    chan struct{}

	closeOnce sync.Once

	// run-goroutine state
	utteranceIdx int
	segmentID    string
	partialIdx   int
}

func (s *Stream) Send(ctx context.Context, pcm []byte) error {
	select {
	case <-s.done:
		return stt.ErrStreamClosed
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	select {
	case s.audio <- pcm:
	default:
		// Bounded queue: a slow simulated recognizer drops audio rather
		// than blocking the caller.
	}
	return nil
}

func (s *Stream) Results() <-chan stt.Result { return s.results }

func (s *Stream) Err() error { return nil }

// Close signals end of input. If the current utterance received audio but no
// final was emitted yet, the final is flushed before the results channel
// closes, mirroring recognizers that finalize on end-of-stream.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}

func (s *Stream) run(ctx context.Context) {
	defer close(s.results)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			if s.partialIdx > 0 {
				s.sleep(ctx)
				s.emit(ctx, s.finalResult())
			}
			return
		case <-s.audio:
			s.sleep(ctx)
			utt := s.utterances[s.utteranceIdx%len(s.utterances)]
			if s.partialIdx < len(utt.Partials) {
				partial := stt.Result{
					SegmentID: s.segmentID,
					Text:      utt.Partials[s.partialIdx],
				}
				s.partialIdx++
				if s.interim {
					s.emit(ctx, partial)
				}
			} else {
				if !s.emit(ctx, s.finalResult()) {
					return
				}
				s.utteranceIdx++
				s.segmentID = uuid.NewString()
				s.partialIdx = 0
			}
		}
	}
}

func (s *Stream) finalResult() stt.Result {
	utt := s.utterances[s.utteranceIdx%len(s.utterances)]
	return stt.Result{
		SegmentID:  s.segmentID,
		Text:       utt.Final,
		Final:      true,
		Confidence: utt.Confidence,
	}
}

func (s *Stream) emit(ctx context.Context, r stt.Result) bool {
	select {
	case s.results <- r:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *Stream) sleep(ctx context.Context) {
	if s.delay <= 0 {
		return
	}
	t := time.NewTimer(s.delay)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

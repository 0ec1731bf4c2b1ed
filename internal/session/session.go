// Package session owns one streaming transcription session per audio track.
// A session feeds decoded PCM into an upstream STT stream through a bounded
// queue and re-emits the upstream's results as normalized transcript events.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/WaffleHouseIndex/BilbyAI-sub000/internal/events"
	"github.com/WaffleHouseIndex/BilbyAI-sub000/internal/observability/metrics"
	"github.com/WaffleHouseIndex/BilbyAI-sub000/internal/stt"
)

// State is the lifecycle state of a session.
type State int32

const (
	StateIdle State = iota
	StateStarting
	StateStreaming
	StateStopped
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateStreaming:
		return "streaming"
	case StateStopped:
		return "stopped"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// queueDepth bounds audio buffered toward a slow upstream. At 20ms frames
// this is about 1.3 seconds of audio; beyond that frames are dropped rather
// than stalling the owning connection's read loop.
const queueDepth = 64

// drainTimeout bounds how long Stop waits for the upstream to finish
// delivering in-flight results before forcing teardown.
const drainTimeout = 3 * time.Second

// EmitFunc receives the session's normalized events (events.Transcript and
// events.Error values). Called from the session's consumer goroutine.
type EmitFunc func(v any)

// Session wraps one upstream STT stream for one track.
type Session struct {
	track   string
	channel string

	provider stt.Provider
	cfg      stt.Config
	emit     EmitFunc

	ctx    context.Context
	cancel context.CancelFunc

	stream stt.Stream
	queue  chan []byte

	state       atomic.Int32
	stopOnce    sync.Once
	wg          sync.WaitGroup
	consumeDone chan struct{}

	log     zerolog.Logger
	metrics *metrics.Metrics
}

// New creates an idle session for track. channel is the label reported on
// every event the session emits.
func New(parent context.Context, provider stt.Provider, cfg stt.Config, track, channel string, emit EmitFunc, log zerolog.Logger) *Session {
	ctx, cancel := context.WithCancel(parent)
	return &Session{
		track:       track,
		channel:     channel,
		provider:    provider,
		cfg:         cfg,
		emit:        emit,
		ctx:         ctx,
		cancel:      cancel,
		queue:       make(chan []byte, queueDepth),
		consumeDone: make(chan struct{}),
		log:         log,
		metrics:     metrics.DefaultMetrics,
	}
}

// Start opens the upstream stream and begins pumping audio and consuming
// results. On upstream open failure the session transitions to errored and
// emits one error event.
func (s *Session) Start() error {
	s.state.Store(int32(StateStarting))

	stream, err := s.provider.OpenStream(s.ctx, s.cfg)
	if err != nil {
		s.state.Store(int32(StateErrored))
		s.cancel()
		s.metrics.RecordSTTError(s.provider.Name())
		s.emit(events.NewError(events.CodeUpstreamFailure, "transcription unavailable", s.track, s.channel))
		s.log.Error().Err(err).Msg("failed to open upstream stream")
		return err
	}

	s.stream = stream
	s.state.Store(int32(StateStreaming))
	s.metrics.RecordSessionStart()
	s.log.Info().Msg("transcription session streaming")

	s.wg.Add(2)
	go s.pump()
	go s.consume()
	return nil
}

// Write enqueues PCM for the upstream without blocking. Audio is dropped when
// the session is not streaming or the queue is full; the return value reports
// whether the frame was accepted.
func (s *Session) Write(pcm []byte) bool {
	if s.State() != StateStreaming {
		return false
	}
	select {
	case s.queue <- pcm:
		return true
	default:
		s.metrics.RecordFrameDropped("queue_full")
		s.log.Debug().Msg("audio queue full, frame dropped")
		return false
	}
}

// Stop signals end-of-input upstream, drains any in-flight results, and joins
// the session's goroutines before returning. Once Stop returns the session
// emits nothing further. Idempotent; safe to call from any goroutine.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		if s.state.CompareAndSwap(int32(StateStreaming), int32(StateStopped)) {
			s.metrics.RecordSessionEnd()
		} else {
			s.state.CompareAndSwap(int32(StateStarting), int32(StateStopped))
		}
		if s.stream != nil {
			if err := s.stream.Close(); err != nil {
				s.log.Debug().Err(err).Msg("upstream close")
			}
			// Cancel only after the consumer drains, so a final the upstream
			// flushes on close is emitted before Stop returns.
			select {
			case <-s.consumeDone:
			case <-time.After(drainTimeout):
				s.log.Debug().Msg("upstream drain timed out")
			}
		}
		s.cancel()
		s.wg.Wait()
		s.log.Info().Str("state", s.State().String()).Msg("transcription session stopped")
	})
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Track returns the track label this session transcribes.
func (s *Session) Track() string { return s.track }

// Channel returns the channel label reported on emitted events.
func (s *Session) Channel() string { return s.channel }

// pump drains the audio queue into the upstream stream.
func (s *Session) pump() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case pcm := <-s.queue:
			if err := s.stream.Send(s.ctx, pcm); err != nil {
				if err != stt.ErrStreamClosed && s.ctx.Err() == nil {
					s.log.Debug().Err(err).Msg("upstream send failed")
				}
				return
			}
		}
	}
}

// consume is the single goroutine reading upstream results, which preserves
// the partial-before-final order within each segment.
func (s *Session) consume() {
	defer s.wg.Done()
	defer close(s.consumeDone)
	for r := range s.stream.Results() {
		ev := events.NewTranscript(r.Text, r.Final, s.channel, s.track, r.SegmentID)
		s.metrics.RecordTranscript(r.Final)
		s.emit(ev)
	}

	if err := s.stream.Err(); err != nil {
		// One error event, then the session tears itself down. The owner
		// recreates lazily if more audio arrives for this track.
		if s.state.CompareAndSwap(int32(StateStreaming), int32(StateErrored)) {
			s.metrics.RecordSTTError(s.provider.Name())
			s.metrics.RecordSessionEnd()
			s.emit(events.NewError(events.CodeUpstreamFailure, "transcription stream failed", s.track, s.channel))
			s.log.Error().Err(err).Msg("upstream stream failed")
			s.cancel()
		}
		return
	}
	s.log.Debug().Msg("upstream results drained")
}

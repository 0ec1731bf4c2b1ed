// Package google provides a Google Cloud Speech-to-Text streaming provider.
package google

import (
	"context"
	"fmt"
	"io"
	"sync"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/WaffleHouseIndex/BilbyAI-sub000/internal/stt"
)

// Provider implements stt.Provider using Google Cloud Speech-to-Text.
// Requires GOOGLE_APPLICATION_CREDENTIALS to be set.
type Provider struct {
	client *speech.Client
}

// New creates a Google STT provider sharing one API client across streams.
func New(ctx context.Context) (*Provider, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}
	return &Provider{client: c}, nil
}

func (p *Provider) Name() string { return "google" }

// Close releases the underlying API client.
func (p *Provider) Close() error { return p.client.Close() }

// OpenStream starts a streaming recognition session and sends the initial
// configuration message.
func (p *Provider) OpenStream(ctx context.Context, cfg stt.Config) (stt.Stream, error) {
	sc, err := p.client.StreamingRecognize(ctx)
	if err != nil {
		return nil, fmt.Errorf("streaming recognize: %w", err)
	}

	err = sc.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config: &speechpb.RecognitionConfig{
					Encoding:                   speechpb.RecognitionConfig_LINEAR16,
					SampleRateHertz:            int32(cfg.SampleRateHz),
					LanguageCode:               cfg.LanguageCode,
					EnableAutomaticPunctuation: true,
				},
				InterimResults: cfg.InterimResults,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("streaming config: %w", err)
	}

	s := &Stream{
		stream:  sc,
		results: make(chan stt.Result, 32),
	}
	go s.listen()
	return s, nil
}

// Stream wraps one Google streaming recognition session.
type Stream struct {
	stream speechpb.Speech_StreamingRecognizeClient

	results chan stt.Result

	mu        sync.Mutex
	err       error
	closed    bool
	utterance int

	closeOnce sync.Once
}

func (s *Stream) Send(ctx context.Context, pcm []byte) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return stt.ErrStreamClosed
	}
	return s.stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{
			AudioContent: pcm,
		},
	})
}

func (s *Stream) Results() <-chan stt.Result { return s.results }

func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close half-closes the upstream call; the listen goroutine drains remaining
// results and closes the results channel when the server finishes.
func (s *Stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		err = s.stream.CloseSend()
	})
	return err
}

// listen receives recognition responses and normalizes them. Google's v1 API
// has no per-utterance identifier, so segment ids are synthesized from an
// utterance counter that advances on every final result.
func (s *Stream) listen() {
	defer close(s.results)
	for {
		resp, err := s.stream.Recv()
		if err != nil {
			if err != io.EOF && status.Code(err) != codes.Canceled {
				s.mu.Lock()
				s.err = err
				s.mu.Unlock()
			}
			return
		}
		for _, r := range resp.Results {
			if len(r.Alternatives) == 0 {
				continue
			}
			alt := r.Alternatives[0]

			s.mu.Lock()
			segment := fmt.Sprintf("utt-%d", s.utterance)
			if r.IsFinal {
				s.utterance++
			}
			s.mu.Unlock()

			s.results <- stt.Result{
				SegmentID:  segment,
				Text:       alt.Transcript,
				Final:      r.IsFinal,
				Confidence: float64(alt.Confidence),
			}
		}
	}
}

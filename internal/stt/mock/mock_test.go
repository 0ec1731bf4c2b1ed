package mock

import (
	"context"
	"testing"
	"time"

	"github.com/WaffleHouseIndex/BilbyAI-sub000/internal/stt"
)

func collect(t *testing.T, s stt.Stream, n int) []stt.Result {
	t.Helper()
	var out []stt.Result
	deadline := time.After(5 * time.Second)
	for len(out) < n {
		select {
		case r, ok := <-s.Results():
			if !ok {
				return out
			}
			out = append(out, r)
		case <-deadline:
			t.Fatalf("timed out after %d of %d results", len(out), n)
		}
	}
	return out
}

func TestStream_PartialsThenFinal(t *testing.T) {
	p := &Provider{Utterances: []Utterance{
		{Partials: []string{"a", "a b"}, Final: "a b c", Confidence: 0.9},
	}}
	s, err := p.OpenStream(context.Background(), stt.Config{InterimResults: true})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := s.Send(ctx, make([]byte, 320)); err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}

	results := collect(t, s, 3)
	for i, r := range results[:2] {
		if r.Final {
			t.Errorf("result %d should be partial", i)
		}
		if r.SegmentID != results[2].SegmentID {
			t.Errorf("partial %d segment %q != final segment %q", i, r.SegmentID, results[2].SegmentID)
		}
	}
	final := results[2]
	if !final.Final || final.Text != "a b c" || final.Confidence != 0.9 {
		t.Errorf("unexpected final result: %+v", final)
	}
}

func TestStream_NewSegmentPerUtterance(t *testing.T) {
	p := &Provider{Utterances: []Utterance{
		{Partials: []string{"x"}, Final: "x y", Confidence: 0.9},
	}}
	s, err := p.OpenStream(context.Background(), stt.Config{InterimResults: true})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		if err := s.Send(ctx, make([]byte, 320)); err != nil {
			t.Fatal(err)
		}
	}

	results := collect(t, s, 4)
	if results[1].SegmentID == results[3].SegmentID {
		t.Error("finals of distinct utterances share a segment id")
	}
	if !results[1].Final || !results[3].Final {
		t.Errorf("expected finals at positions 1 and 3: %+v", results)
	}
}

func TestStream_CloseFlushesFinal(t *testing.T) {
	p := &Provider{Utterances: []Utterance{
		{Partials: []string{"only", "only a"}, Final: "only a partial", Confidence: 0.8},
	}}
	s, err := p.OpenStream(context.Background(), stt.Config{InterimResults: true})
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Send(context.Background(), make([]byte, 320)); err != nil {
		t.Fatal(err)
	}
	// Let the partial come through before closing.
	results := collect(t, s, 1)
	if results[0].Final {
		t.Fatal("first result should be a partial")
	}

	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	var final *stt.Result
	for r := range s.Results() {
		r := r
		final = &r
	}
	if final == nil || !final.Final {
		t.Fatal("expected a flushed final after Close")
	}
	if final.Text != "only a partial" {
		t.Errorf("flushed final text = %q", final.Text)
	}
}

func TestStream_SendAfterClose(t *testing.T) {
	p := New()
	s, err := p.OpenStream(context.Background(), stt.Config{InterimResults: true})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal("Close must be idempotent:", err)
	}
	if err := s.Send(context.Background(), []byte{0}); err != stt.ErrStreamClosed {
		t.Errorf("Send after Close = %v, want ErrStreamClosed", err)
	}
}

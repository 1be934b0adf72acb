package speech

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

type fakeBackend struct {
	clip  *Clip
	err   error
	calls int32
}

func (b *fakeBackend) Name() string    { return "fake" }
func (b *fakeBackend) Voices() []Voice { return nil }

func (b *fakeBackend) Synthesize(ctx context.Context, u Utterance) (*Clip, error) {
	atomic.AddInt32(&b.calls, 1)
	if b.err != nil {
		return nil, b.err
	}
	return b.clip, nil
}

// fakePlayer 调用 onStart 后等待 duration；block 为 true 时一直等到取消。
type fakePlayer struct {
	duration time.Duration
	block    bool
	err      error
}

func (p *fakePlayer) Play(ctx context.Context, samples []float32, sampleRate int, onStart func()) error {
	onStart()
	if p.block {
		<-ctx.Done()
		return ctx.Err()
	}
	select {
	case <-time.After(p.duration):
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func recorder() (Handlers, chan string) {
	events := make(chan string, 32)
	return Handlers{
		OnStart:    func() { events <- "start" },
		OnBoundary: func(i int, name string) { events <- fmt.Sprintf("boundary:%d", i) },
		OnEnd:      func() { events <- "end" },
		OnError:    func(err error) { events <- "error" },
	}, events
}

func expectEvents(t *testing.T, events chan string, want ...string) {
	t.Helper()
	for _, w := range want {
		select {
		case got := <-events:
			if got != w {
				t.Fatalf("expected event %q, got %q", w, got)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %q", w)
		}
	}
}

func expectQuiet(t *testing.T, events chan string) {
	t.Helper()
	select {
	case got := <-events:
		t.Fatalf("unexpected event %q", got)
	case <-time.After(80 * time.Millisecond):
	}
}

func testClip() *Clip {
	return &Clip{
		Samples:    make([]float32, 160),
		SampleRate: 16000,
		Marks: []Mark{
			{CharIndex: 0, Name: "I", Offset: 0},
			{CharIndex: 2, Name: "went", Offset: 20 * time.Millisecond},
		},
	}
}

func TestSpeaker_EmitsStartBoundariesEnd(t *testing.T) {
	s := NewSpeaker(&fakeBackend{clip: testClip()}, &fakePlayer{duration: 150 * time.Millisecond})
	h, events := recorder()

	if err := s.Speak(Utterance{Text: "I went"}, h); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	expectEvents(t, events, "start", "boundary:0", "boundary:2", "end")
	expectQuiet(t, events)
}

func TestSpeaker_RejectsEmptyText(t *testing.T) {
	s := NewSpeaker(&fakeBackend{clip: testClip()}, &fakePlayer{})
	h, _ := recorder()
	if err := s.Speak(Utterance{}, h); err == nil {
		t.Fatal("expected error for empty text")
	}
}

func TestSpeaker_SynthesisErrorReported(t *testing.T) {
	s := NewSpeaker(&fakeBackend{err: errors.New("network down")}, &fakePlayer{})
	h, events := recorder()
	_ = s.Speak(Utterance{Text: "hello"}, h)
	expectEvents(t, events, "error")
	expectQuiet(t, events)
}

func TestSpeaker_PlaybackErrorReported(t *testing.T) {
	s := NewSpeaker(&fakeBackend{clip: &Clip{Samples: []float32{0}, SampleRate: 16000}},
		&fakePlayer{err: errors.New("device busy")})
	h, events := recorder()
	_ = s.Speak(Utterance{Text: "hello"}, h)
	expectEvents(t, events, "start", "error")
}

func TestSpeaker_CancelSilencesUtterance(t *testing.T) {
	s := NewSpeaker(&fakeBackend{clip: &Clip{
		Samples:    []float32{0},
		SampleRate: 16000,
		Marks:      []Mark{{CharIndex: 6, Name: "world", Offset: 40 * time.Millisecond}},
	}}, &fakePlayer{block: true})
	h, events := recorder()

	_ = s.Speak(Utterance{Text: "hello world"}, h)
	expectEvents(t, events, "start")
	s.Cancel()
	s.Cancel()
	expectQuiet(t, events)
}

func TestSpeaker_NewSpeakCancelsPrevious(t *testing.T) {
	s := NewSpeaker(&fakeBackend{clip: &Clip{Samples: []float32{0}, SampleRate: 16000}}, &fakePlayer{block: true})
	h1, first := recorder()
	h2, second := recorder()

	_ = s.Speak(Utterance{Text: "one"}, h1)
	expectEvents(t, first, "start")
	_ = s.Speak(Utterance{Text: "two"}, h2)
	expectEvents(t, second, "start")
	expectQuiet(t, first)
	s.Cancel()
}

func TestSpeaker_EmptyClipEndsImmediately(t *testing.T) {
	s := NewSpeaker(&fakeBackend{clip: &Clip{SampleRate: 16000}}, &fakePlayer{block: true})
	h, events := recorder()
	_ = s.Speak(Utterance{Text: "hello"}, h)
	expectEvents(t, events, "start", "end")
}

func TestSpeaker_UsesCache(t *testing.T) {
	cache, err := NewClipCache(t.TempDir(), 1)
	if err != nil {
		t.Fatalf("NewClipCache: %v", err)
	}
	backend := &fakeBackend{clip: testClip()}
	s := NewSpeaker(backend, &fakePlayer{duration: 30 * time.Millisecond}, WithCache(cache))

	for i := 0; i < 2; i++ {
		h, events := recorder()
		_ = s.Speak(Utterance{Text: "I went", Rate: 0.9}, h)
		expectEvents(t, events, "start", "boundary:0", "boundary:2", "end")
	}
	if n := atomic.LoadInt32(&backend.calls); n != 1 {
		t.Fatalf("expected backend to be called once, got %d", n)
	}
}

func TestClip_Duration(t *testing.T) {
	c := &Clip{Samples: make([]float32, 8000), SampleRate: 16000}
	if c.Duration() != 500*time.Millisecond {
		t.Fatalf("duration = %v", c.Duration())
	}
	if (&Clip{}).Duration() != 0 {
		t.Fatal("zero sample rate should give zero duration")
	}
}

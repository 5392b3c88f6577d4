package profiler

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

type fakeClock struct {
	t time.Duration
}

func (c *fakeClock) now() time.Duration { return c.t }

func TestTickLogsOncePerInterval(t *testing.T) {
	clock := &fakeClock{}
	var buf bytes.Buffer
	p := NewProfiler(
		WithClock(clock.now),
		WithInterval(time.Second),
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))),
	)

	logged := 0
	for i := 0; i < 120; i++ {
		clock.t += 10 * time.Millisecond
		p.ObserveWait(2 * time.Millisecond)
		if i == 50 {
			p.ObserveWait(6 * time.Millisecond)
		}
		if p.Tick() {
			logged++
		}
	}

	if logged != 1 {
		t.Fatalf("logged %d times in 1.2s, want 1", logged)
	}
	out := buf.String()
	for _, want := range []string{"msg=\"frame stats\"", "fps=100", "frame_max=10ms", "fence_waits=101", "fence_wait_max=6ms"} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q is missing %q", out, want)
		}
	}
}

func TestTickResetsWindow(t *testing.T) {
	clock := &fakeClock{}
	var buf bytes.Buffer
	p := NewProfiler(WithClock(clock.now), WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))

	p.ObserveWait(time.Second)
	clock.t += time.Second
	if !p.Tick() {
		t.Fatal("first interval not logged")
	}
	buf.Reset()

	clock.t += time.Second
	if !p.Tick() {
		t.Fatal("second interval not logged")
	}
	if !strings.Contains(buf.String(), "fence_waits=0") {
		t.Fatalf("wait stats leaked into the next interval: %s", buf.String())
	}
}

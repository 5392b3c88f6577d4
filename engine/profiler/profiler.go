package profiler

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/loov/hrtime"
)

// Profiler tracks frame rate, fence waits and memory statistics for performance monitoring.
// Outputs stats to the log at a configurable interval. It is not safe for concurrent use; Tick and
// ObserveWait are called from the frame loop.
type Profiler struct {
	logger         *slog.Logger
	now            func() time.Duration
	updateInterval time.Duration

	frameCount int
	lastTime   time.Duration
	frameStart time.Duration
	maxFrame   time.Duration

	waitCount int
	waitTotal time.Duration
	waitMax   time.Duration

	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// ProfilerOption is a functional option for configuring a Profiler.
type ProfilerOption func(*Profiler)

// WithInterval sets how often statistics are logged. The default is 1 second.
func WithInterval(d time.Duration) ProfilerOption {
	return func(p *Profiler) {
		p.updateInterval = d
	}
}

// WithLogger sets the logger statistics are written to. The default is slog.Default().
func WithLogger(l *slog.Logger) ProfilerOption {
	return func(p *Profiler) {
		p.logger = l
	}
}

// WithClock replaces the high resolution clock, mainly for tests.
//
// Parameters:
//   - now: returns a monotonic timestamp
//
// Returns:
//   - ProfilerOption: a function that sets the clock
func WithClock(now func() time.Duration) ProfilerOption {
	return func(p *Profiler) {
		p.now = now
	}
}

// NewProfiler creates a new Profiler with the given options applied.
// The update interval defaults to 1 second and the clock to hrtime.Now.
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerOption) *Profiler {
	p := &Profiler{
		now:            hrtime.Now,
		updateInterval: time.Second,
	}
	for _, option := range options {
		option(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	p.lastTime = p.now()
	p.frameStart = p.lastTime
	return p
}

// ObserveWait records how long one CPU wait on the GPU fence took. It matches the signature of
// renderer.WithWaitObserver.
//
// Parameters:
//   - d: the wait duration
func (p *Profiler) ObserveWait(d time.Duration) {
	p.waitCount++
	p.waitTotal += d
	p.waitMax = max(p.waitMax, d)
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: FPS, worst frame time, fence waits, heap usage, allocation rate, GC count/pause times, total memory.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.frameCount++
	currentTime := p.now()
	p.maxFrame = max(p.maxFrame, currentTime-p.frameStart)
	p.frameStart = currentTime

	elapsed := currentTime - p.lastTime
	if elapsed < p.updateInterval || elapsed <= 0 {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()

	var waitAvg time.Duration
	if p.waitCount > 0 {
		waitAvg = p.waitTotal / time.Duration(p.waitCount)
	}

	runtime.ReadMemStats(&p.memStats)
	// Alloc: live heap, TotalAlloc: cumulative churn, Sys: process footprint.
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024
	allocRateMB := float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds()

	gcCount := p.memStats.NumGC
	var lastPause, maxPause time.Duration
	if gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 GC pauses.
		lastPause = time.Duration(p.memStats.PauseNs[(gcCount-1)%256])
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			maxPause = max(maxPause, time.Duration(p.memStats.PauseNs[i%256]))
		}
	}

	p.logger.Info("frame stats",
		slog.Float64("fps", fps),
		slog.Duration("frame_max", p.maxFrame),
		slog.Int("fence_waits", p.waitCount),
		slog.Duration("fence_wait_avg", waitAvg),
		slog.Duration("fence_wait_max", p.waitMax),
		slog.Float64("heap_mb", allocMB),
		slog.Float64("alloc_rate_mb_s", allocRateMB),
		slog.Uint64("gc", uint64(gcCount)),
		slog.Duration("gc_pause_last", lastPause),
		slog.Duration("gc_pause_max", maxPause),
		slog.Float64("sys_mb", sysMB),
	)

	p.frameCount = 0
	p.maxFrame = 0
	p.waitCount = 0
	p.waitTotal = 0
	p.waitMax = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

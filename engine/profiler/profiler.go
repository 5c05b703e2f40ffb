// Package profiler reports frame rate, animation update cost and memory statistics.
package profiler

import (
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
)

// Profiler tracks frame rate, time spent updating animators and memory statistics.
// Stats are logged at a configurable interval.
type Profiler struct {
	logger         logrus.FieldLogger
	frameCount     int
	updateTime     time.Duration
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// NewProfiler creates a new Profiler logging to logger.
// Update interval defaults to 1 second.
//
// Parameters:
//   - logger: destination of the stats entries, logrus.StandardLogger() when nil
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(logger logrus.FieldLogger) *Profiler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Profiler{
		logger:         logger,
		lastTime:       time.Now(),
		updateInterval: time.Second,
	}
}

// SetInterval changes how often stats are logged. Zero logs on every Tick.
func (p *Profiler) SetInterval(d time.Duration) {
	p.updateInterval = d
}

// Observe adds the duration of one animation update to the current interval.
//
// Parameters:
//   - d: time spent in the update
func (p *Profiler) Observe(d time.Duration) {
	p.updateTime += d
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: FPS, mean update time, heap usage, allocation rate, GC count/pause times, total memory.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.frameCount++
	currentTime := time.Now()
	elapsed := currentTime.Sub(p.lastTime)

	if elapsed < p.updateInterval {
		return false
	}

	seconds := elapsed.Seconds()
	fps := 0.0
	if seconds > 0 {
		fps = float64(p.frameCount) / seconds
	}

	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024

	allocRateMB := 0.0
	if seconds > 0 {
		allocRateMB = float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / seconds
	}

	// PauseNs is a circular buffer of the last 256 GC pauses
	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000

		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			if pause := p.memStats.PauseNs[i%256] / 1000; pause > maxPauseUs {
				maxPauseUs = pause
			}
		}
	}

	p.logger.WithFields(logrus.Fields{
		"fps":             fps,
		"update_us":       p.updateTime.Microseconds() / int64(p.frameCount),
		"heap_mb":         allocMB,
		"alloc_rate_mb_s": allocRateMB,
		"gc":              gcCount,
		"gc_last_us":      lastPauseUs,
		"gc_max_us":       maxPauseUs,
		"sys_mb":          sysMB,
	}).Info("frame stats")

	p.frameCount = 0
	p.updateTime = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

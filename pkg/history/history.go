// Package history keeps a short, time-windowed record of channel readings
// for the trend display.
package history

import (
	"sync"
	"time"
)

// Point is one polled reading of a channel.
type Point struct {
	Time  time.Time
	Volts float64
	Amps  float64
}

// Buffer accumulates points and drops everything older than the window.
// Safe for one writer (the poller) and one reader (the UI).
type Buffer struct {
	mu     sync.Mutex
	points []Point
	window time.Duration
	max    int
}

// New creates a buffer covering the given time window with a hard cap on
// retained points.
func New(window time.Duration, max int) *Buffer {
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1024
	}
	return &Buffer{
		points: make([]Point, 0, max),
		window: window,
		max:    max,
	}
}

// Add appends a point and trims expired ones.
func (b *Buffer) Add(p Point) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.points = append(b.points, p)
	b.trim(p.Time)
}

// Points returns a copy of the retained points, oldest first.
func (b *Buffer) Points() []Point {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Point, len(b.points))
	copy(out, b.points)
	return out
}

// Len returns the number of retained points.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.points)
}

// Clear drops all points.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.points = b.points[:0]
}

// trim drops points outside the window ending at now, then enforces the cap.
// Caller holds the lock.
func (b *Buffer) trim(now time.Time) {
	cutoff := now.Add(-b.window)
	first := 0
	for first < len(b.points) && b.points[first].Time.Before(cutoff) {
		first++
	}
	if first > 0 {
		b.points = append(b.points[:0], b.points[first:]...)
	}
	if len(b.points) > b.max {
		over := len(b.points) - b.max
		b.points = append(b.points[:0], b.points[over:]...)
	}
}

// Downsample reduces src to at most max points by stride-picking, reusing dst
// when it has the capacity. The last point is always kept so the trace ends
// at the newest reading.
func Downsample(dst, src []Point, max int) []Point {
	if max <= 0 || len(src) <= max {
		return append(dst[:0], src...)
	}

	dst = dst[:0]
	stride := float64(len(src)-1) / float64(max-1)
	for i := 0; i < max-1; i++ {
		dst = append(dst, src[int(float64(i)*stride)])
	}
	return append(dst, src[len(src)-1])
}

// Package trend provides a small strip-chart Fyne widget showing the recent
// voltage and current history of one power-supply channel.
package trend

import (
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/gopsu/pkg/history"
)

// Widget is a custom Fyne widget rendering voltage and current traces over
// time. Voltage auto-scales on the left axis; current is scaled independently
// against the right axis.
type Widget struct {
	widget.BaseWidget

	// Data (protected by mu)
	mu     sync.RWMutex
	points []history.Point

	// Display buffer (reused for downsampling)
	display []history.Point

	// Auto-scaling
	vMin, vMax float64
	aMax       float64
	xMin, xMax time.Time

	maxDisplayPoints int
}

// New creates an empty trend widget.
func New() *Widget {
	w := &Widget{
		points:           make([]history.Point, 0),
		display:          make([]history.Point, 0, 256),
		maxDisplayPoints: 256,
	}
	w.ExtendBaseWidget(w)
	w.Refresh()
	return w
}

// SetPoints replaces the displayed history. Call from the main thread
// (wrap in fyne.Do when updating from a poller goroutine).
func (w *Widget) SetPoints(points []history.Point) {
	w.mu.Lock()
	w.points = points
	w.display = history.Downsample(w.display, points, w.maxDisplayPoints)
	w.updateScale()
	w.mu.Unlock()

	// Refresh outside the lock; the renderer takes it again.
	w.Refresh()
}

// updateScale recomputes axis ranges from the display buffer. Caller holds mu.
func (w *Widget) updateScale() {
	if len(w.display) == 0 {
		w.vMin, w.vMax = 0, 1
		w.aMax = 1
		w.xMin = time.Now()
		w.xMax = w.xMin.Add(10 * time.Second)
		return
	}

	w.vMin = w.display[0].Volts
	w.vMax = w.display[0].Volts
	w.aMax = 0
	for _, p := range w.display {
		if p.Volts < w.vMin {
			w.vMin = p.Volts
		}
		if p.Volts > w.vMax {
			w.vMax = p.Volts
		}
		if p.Amps > w.aMax {
			w.aMax = p.Amps
		}
	}

	// 10% margin so the trace doesn't hug the frame
	span := w.vMax - w.vMin
	if span == 0 {
		span = 1
	}
	w.vMin -= span * 0.1
	w.vMax += span * 0.1
	if w.aMax <= 0 {
		w.aMax = 1
	} else {
		w.aMax *= 1.1
	}

	w.xMin = w.display[0].Time
	w.xMax = w.display[len(w.display)-1].Time
	if w.xMax.Sub(w.xMin) < 10*time.Second {
		w.xMax = w.xMin.Add(10 * time.Second)
	}
}

// CreateRenderer creates the widget renderer.
func (w *Widget) CreateRenderer() fyne.WidgetRenderer {
	return newRenderer(w)
}

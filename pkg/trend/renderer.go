package trend

import (
	"fmt"
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"

	"github.com/itohio/gopsu/pkg/history"
)

var (
	bgColor      = color.RGBA{R: 20, G: 20, B: 20, A: 255}
	gridColor    = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	labelColor   = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	voltsColor   = color.RGBA{R: 255, G: 165, B: 0, A: 255}   // orange
	ampsColor    = color.RGBA{R: 100, G: 180, B: 255, A: 255} // light blue
	marginLeft   = float32(48)
	marginRight  = float32(40)
	marginTop    = float32(8)
	marginBottom = float32(18)
)

// renderer draws the trend widget.
type renderer struct {
	trend *Widget

	bg      *canvas.Rectangle
	objects []fyne.CanvasObject

	lastSize fyne.Size
}

func newRenderer(w *Widget) *renderer {
	bg := canvas.NewRectangle(bgColor)
	return &renderer{
		trend:   w,
		bg:      bg,
		objects: []fyne.CanvasObject{bg},
	}
}

// MinSize returns the minimum size of the widget.
func (r *renderer) MinSize() fyne.Size {
	return fyne.NewSize(260, 120)
}

// Layout arranges the widget components.
func (r *renderer) Layout(size fyne.Size) {
	r.bg.Resize(size)

	if r.lastSize != size {
		r.lastSize = size
		// Redraw the traces for the new dimensions.
		r.trend.BaseWidget.Refresh()
	}
}

// Refresh rebuilds the grid and traces from the current display buffer.
func (r *renderer) Refresh() {
	r.trend.mu.RLock()
	points := r.trend.display
	vMin, vMax := r.trend.vMin, r.trend.vMax
	aMax := r.trend.aMax
	xMin, xMax := r.trend.xMin, r.trend.xMax
	r.trend.mu.RUnlock()

	size := r.trend.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}

	plotW := size.Width - marginLeft - marginRight
	plotH := size.Height - marginTop - marginBottom
	plotX := marginLeft
	plotY := marginTop

	r.objects = []fyne.CanvasObject{r.bg}
	r.drawGrid(plotX, plotY, plotW, plotH, vMin, vMax, aMax, xMin, xMax)
	if len(points) > 1 {
		r.drawTrace(plotX, plotY, plotW, plotH, points, xMin, xMax, voltsColor, 1.5, func(p history.Point) float64 {
			return (p.Volts - vMin) / (vMax - vMin)
		})
		r.drawTrace(plotX, plotY, plotW, plotH, points, xMin, xMax, ampsColor, 1, func(p history.Point) float64 {
			return p.Amps / aMax
		})
	}

	canvas.Refresh(r.trend)
}

// drawGrid draws the horizontal grid lines with voltage labels on the left
// and current labels on the right.
func (r *renderer) drawGrid(plotX, plotY, plotW, plotH float32, vMin, vMax, aMax float64, xMin, xMax time.Time) {
	const hLines = 4
	for i := 0; i < hLines+1; i++ {
		y := plotY + float32(i)*plotH/float32(hLines)
		line := canvas.NewLine(gridColor)
		line.Position1 = fyne.NewPos(plotX, y)
		line.Position2 = fyne.NewPos(plotX+plotW, y)
		line.StrokeWidth = 1
		r.objects = append(r.objects, line)

		volts := vMax - float64(i)*(vMax-vMin)/float64(hLines)
		left := canvas.NewText(fmt.Sprintf("%.2fV", volts), labelColor)
		left.TextSize = 9
		left.Alignment = fyne.TextAlignTrailing
		left.Move(fyne.NewPos(plotX-4, y-6))
		r.objects = append(r.objects, left)

		amps := aMax - float64(i)*aMax/float64(hLines)
		right := canvas.NewText(fmt.Sprintf("%.2fA", amps), labelColor)
		right.TextSize = 9
		right.Move(fyne.NewPos(plotX+plotW+4, y-6))
		r.objects = append(r.objects, right)
	}

	// Time span label
	span := xMax.Sub(xMin).Round(time.Second)
	label := canvas.NewText(span.String(), labelColor)
	label.TextSize = 9
	label.Move(fyne.NewPos(plotX+plotW/2-12, plotY+plotH+3))
	r.objects = append(r.objects, label)
}

// drawTrace draws one series as connected line segments. norm maps a point to
// 0..1 on the vertical axis.
func (r *renderer) drawTrace(plotX, plotY, plotW, plotH float32, points []history.Point, xMin, xMax time.Time, col color.Color, stroke float32, norm func(history.Point) float64) {
	span := xMax.Sub(xMin)
	if span <= 0 {
		return
	}

	toPos := func(p history.Point) fyne.Position {
		fx := float64(p.Time.Sub(xMin)) / float64(span)
		fy := clamp01(norm(p))
		return fyne.NewPos(
			plotX+float32(fx)*plotW,
			plotY+plotH-float32(fy)*plotH,
		)
	}

	prev := toPos(points[0])
	for _, p := range points[1:] {
		cur := toPos(p)
		line := canvas.NewLine(col)
		line.Position1 = prev
		line.Position2 = cur
		line.StrokeWidth = stroke
		r.objects = append(r.objects, line)
		prev = cur
	}
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// Objects returns the canvas objects to render.
func (r *renderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up renderer resources.
func (r *renderer) Destroy() {}

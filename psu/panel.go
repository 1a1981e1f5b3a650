package main

import (
	"fmt"
	"image/color"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/gopsu/pkg/history"
	"github.com/itohio/gopsu/pkg/trend"
)

// channelColors tints each panel so the four channels are easy to tell
// apart at a glance: yellow, green, blue, purple.
var channelColors = []color.Color{
	color.NRGBA{R: 0xFF, G: 0xF5, B: 0x9D, A: 0x46},
	color.NRGBA{R: 0xA5, G: 0xD6, B: 0xA7, A: 0x46},
	color.NRGBA{R: 0x90, G: 0xCA, B: 0xF9, A: 0x46},
	color.NRGBA{R: 0xCE, G: 0x93, B: 0xD8, A: 0x46},
}

// channelPanel is the control block for one output channel: setpoint entries,
// a Set button, the latest readings, and a short trend chart. Each panel runs
// its own poller goroutine against the shared supply driver.
type channelPanel struct {
	state   *appState
	channel int

	voltsEntry *widget.Entry
	ampsEntry  *widget.Entry
	setBtn     *widget.Button
	outputBtn  *widget.Button
	outputOn   bool
	readings   *widget.Label
	chart      *trend.Widget
	buf        *history.Buffer

	ticker *time.Ticker
	done   chan struct{}

	root fyne.CanvasObject
}

func newChannelPanel(state *appState, channel int) *channelPanel {
	p := &channelPanel{
		state:   state,
		channel: channel,
		buf:     history.New(state.cfg.Polling.Window, 512),
		done:    make(chan struct{}),
	}

	p.voltsEntry = widget.NewEntry()
	p.voltsEntry.SetPlaceHolder("0.000")
	p.ampsEntry = widget.NewEntry()
	p.ampsEntry.SetPlaceHolder("0.000")

	p.setBtn = widget.NewButton("Set", p.applySettings)
	p.outputBtn = widget.NewButton("Output", p.toggleOutput)

	p.readings = widget.NewLabel("Measured: --- V, --- A\nLimit: --- A")

	p.chart = trend.New()

	form := container.NewGridWithColumns(2,
		widget.NewLabel("Voltage (V):"), p.voltsEntry,
		widget.NewLabel("Current Limit (A):"), p.ampsEntry,
	)

	content := container.NewVBox(
		widget.NewLabelWithStyle(fmt.Sprintf("Channel %d", channel), fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		form,
		container.NewGridWithColumns(2, p.setBtn, p.outputBtn),
		p.readings,
		p.chart,
	)

	bg := canvas.NewRectangle(channelColors[(channel-1)%len(channelColors)])
	p.root = container.NewStack(bg, container.NewPadded(content))

	return p
}

// start launches the periodic poller for this channel.
func (p *channelPanel) start(period time.Duration) {
	p.ticker = time.NewTicker(period)
	go func() {
		if on, err := p.state.psu.Output(p.channel); err == nil {
			fyne.Do(func() {
				p.outputOn = on
				p.updateOutputButton()
			})
		}
		for {
			select {
			case <-p.done:
				return
			case <-p.ticker.C:
				p.poll()
			}
		}
	}()
}

// stop halts the poller. Must be called before the session is closed.
func (p *channelPanel) stop() {
	if p.ticker != nil {
		p.ticker.Stop()
	}
	close(p.done)
}

// setPeriod changes the polling period of a running poller.
func (p *channelPanel) setPeriod(period time.Duration) {
	if p.ticker != nil {
		p.ticker.Reset(period)
	}
}

// applySettings validates the entries, programs the channel, and refreshes
// the readings immediately so the operator sees what the instrument took.
// Bad input never reaches the bus.
func (p *channelPanel) applySettings() {
	volts, err := strconv.ParseFloat(p.voltsEntry.Text, 64)
	if err != nil || volts < 0 || volts > p.state.cfg.Supply.MaxVoltage {
		dialog.ShowError(fmt.Errorf("voltage must be a number between 0 and %g V", p.state.cfg.Supply.MaxVoltage), p.state.window)
		return
	}
	amps, err := strconv.ParseFloat(p.ampsEntry.Text, 64)
	if err != nil || amps < 0 || amps > p.state.cfg.Supply.MaxCurrent {
		dialog.ShowError(fmt.Errorf("current limit must be a number between 0 and %g A", p.state.cfg.Supply.MaxCurrent), p.state.window)
		return
	}

	// Bus I/O happens off the UI thread; results come back via fyne.Do.
	go func() {
		if err := p.state.psu.Apply(p.channel, volts, amps); err != nil {
			fyne.Do(func() {
				dialog.ShowError(fmt.Errorf("channel %d set error: %w", p.channel, err), p.state.window)
			})
			return
		}
		p.poll()
	}()
}

// toggleOutput flips the channel's output enable. The button only changes
// state after the instrument confirms the write.
func (p *channelPanel) toggleOutput() {
	target := !p.outputOn
	go func() {
		if err := p.state.psu.SetOutput(p.channel, target); err != nil {
			fyne.Do(func() {
				dialog.ShowError(fmt.Errorf("channel %d output error: %w", p.channel, err), p.state.window)
			})
			return
		}
		fyne.Do(func() {
			p.outputOn = target
			p.updateOutputButton()
		})
		p.poll()
	}()
}

func (p *channelPanel) updateOutputButton() {
	if p.outputOn {
		p.outputBtn.SetText("Output On")
		p.outputBtn.Importance = widget.HighImportance
	} else {
		p.outputBtn.SetText("Output Off")
		p.outputBtn.Importance = widget.MediumImportance
	}
	p.outputBtn.Refresh()
}

// poll reads one snapshot of the channel and updates the panel. Failures are
// shown in place of the readings; the next tick retries naturally.
func (p *channelPanel) poll() {
	m, err := p.state.psu.Snapshot(p.channel)
	if err != nil {
		fyne.Do(func() {
			p.readings.SetText(fmt.Sprintf("Read error: %v", err))
		})
		return
	}

	p.buf.Add(history.Point{Time: time.Now(), Volts: m.Voltage, Amps: m.Current})
	points := p.buf.Points()

	fyne.Do(func() {
		p.readings.SetText(fmt.Sprintf("Measured: %.3f V, %.3f A\nLimit: %.3f A", m.Voltage, m.Current, m.Limit))
		p.chart.SetPoints(points)
	})
}

// Command psu is a desktop monitor and control panel for a multi-channel
// bench power supply: one panel per channel with live readings, a trend
// chart, and voltage/current-limit setpoints.
package main

import (
	"flag"
	"fmt"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/gopsu/pkg/config"
	"github.com/itohio/gopsu/pkg/supply"
	"github.com/itohio/gopsu/pkg/visa"
)

func main() {
	var (
		configFlag   = flag.String("config", "config.yaml", "Configuration file path")
		resourceFlag = flag.String("r", "", "VISA resource override (e.g., GPIB0::5::INSTR)")
		mockFlag     = flag.Bool("mock", false, "Use simulated instrument instead of the bus")
	)
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Override resource if provided via command line
	if *resourceFlag != "" {
		cfg.Connection.Resource = *resourceFlag
	}

	// The session is opened once here and shared by every panel. Opening a
	// second session on the same link would race two timeouts on one bus.
	opts := []visa.Option{
		visa.WithTimeout(cfg.Connection.Timeout),
		visa.WithAdapterPort(cfg.Connection.AdapterPort),
	}
	if *mockFlag {
		opts = append(opts, visa.WithTransport(visa.NewSim(&cfg.Mock)))
	}
	sess, err := visa.Open(cfg.Connection.Resource, opts...)
	if err != nil {
		log.Fatalf("Could not connect to instrument at %s: %v", cfg.Connection.Resource, err)
	}
	log.Printf("Connected to: %s", sess.Identity())

	// Create Fyne application
	application := app.NewWithID("com.itohio.gopsu")

	window := application.NewWindow(fmt.Sprintf("Power Supply - %d Channel Monitor", cfg.Supply.Channels))
	window.Resize(fyne.NewSize(820, 680))
	window.CenterOnScreen()

	state := &appState{
		cfg:    cfg,
		sess:   sess,
		psu:    supply.New(sess, cfg.Supply.Channels),
		window: window,
	}

	for ch := 1; ch <= cfg.Supply.Channels; ch++ {
		state.panels = append(state.panels, newChannelPanel(state, ch))
	}

	grid := container.NewGridWithColumns(2)
	for _, p := range state.panels {
		grid.Add(p.root)
	}

	window.SetContent(container.NewBorder(
		createToolbar(state),
		nil,
		nil,
		nil,
		grid,
	))

	// Start the per-channel pollers. They all funnel through the shared
	// supply driver, which keeps the bus single-flight.
	for _, p := range state.panels {
		p.start(cfg.Polling.Period)
	}

	window.ShowAndRun()

	// Window closed: stop polling, then release the bus exactly once.
	for _, p := range state.panels {
		p.stop()
	}
	if err := sess.Close(); err != nil {
		log.Printf("Error closing session: %v", err)
	}
}

// appState holds the application state shared by the panels.
type appState struct {
	cfg    *config.Config
	sess   *visa.Session
	psu    *supply.Supply
	window fyne.Window
	panels []*channelPanel
}

// createToolbar creates the toolbar with the settings button and the
// instrument identity.
func createToolbar(state *appState) fyne.CanvasObject {
	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})

	identity := widget.NewLabel(state.sess.Identity())
	identity.Truncation = fyne.TextTruncateEllipsis

	return container.NewBorder(
		nil, // top
		nil, // bottom
		settingsBtn, // left
		nil,         // right
		identity,    // center
	)
}

package main

import (
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// showSettingsDialog displays a settings dialog with tabs for all
// configuration options.
func showSettingsDialog(state *appState) {
	tabs := container.NewAppTabs(
		createConnectionTab(state),
		createPollingTab(state),
		createMockTab(state),
	)

	content := container.NewBorder(nil, nil, nil, nil, tabs)
	content.Resize(fyne.NewSize(520, 380))

	d := dialog.NewCustom("Settings", "Close", content, state.window)
	d.Resize(fyne.NewSize(520, 380))
	d.Show()
}

// createConnectionTab creates the Connection configuration tab. The session
// is opened once at startup, so changes here take effect on the next run.
func createConnectionTab(state *appState) *container.TabItem {
	resourceEntry := widget.NewEntry()
	resourceEntry.SetText(state.cfg.Connection.Resource)

	adapterEntry := widget.NewEntry()
	adapterEntry.SetText(state.cfg.Connection.AdapterPort)

	timeoutEntry := widget.NewEntry()
	timeoutEntry.SetText(state.cfg.Connection.Timeout.String())

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "VISA Resource", Widget: resourceEntry},
			{Text: "GPIB Adapter Port", Widget: adapterEntry},
			{Text: "Response Timeout", Widget: timeoutEntry},
		},
		OnSubmit: func() {
			state.cfg.Connection.Resource = resourceEntry.Text
			state.cfg.Connection.AdapterPort = adapterEntry.Text
			if d, err := time.ParseDuration(timeoutEntry.Text); err == nil {
				state.cfg.Connection.Timeout = d
			}
			if err := state.cfg.Save("config.yaml"); err != nil {
				dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
				return
			}
			dialog.ShowInformation("Settings",
				"Connection settings saved. They take effect on the next start.",
				state.window)
		},
	}

	return container.NewTabItem("Connection", form)
}

// createPollingTab creates the Polling configuration tab. The period applies
// to the running pollers immediately.
func createPollingTab(state *appState) *container.TabItem {
	periodEntry := widget.NewEntry()
	periodEntry.SetText(state.cfg.Polling.Period.String())

	windowEntry := widget.NewEntry()
	windowEntry.SetText(state.cfg.Polling.Window.String())

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Polling Period", Widget: periodEntry},
			{Text: "Trend Window", Widget: windowEntry},
		},
		OnSubmit: func() {
			if d, err := time.ParseDuration(periodEntry.Text); err == nil && d > 0 {
				state.cfg.Polling.Period = d
				for _, p := range state.panels {
					p.setPeriod(d)
				}
			}
			if d, err := time.ParseDuration(windowEntry.Text); err == nil && d > 0 {
				state.cfg.Polling.Window = d
			}
			if err := state.cfg.Save("config.yaml"); err != nil {
				dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
			}
		},
	}

	return container.NewTabItem("Polling", form)
}

// createMockTab creates the simulated instrument configuration tab.
func createMockTab(state *appState) *container.TabItem {
	identityEntry := widget.NewEntry()
	identityEntry.SetText(state.cfg.Mock.Identity)

	noiseEntry := widget.NewEntry()
	noiseEntry.SetText(fmt.Sprintf("%.6f", state.cfg.Mock.NoiseLevel))

	loadEntry := widget.NewEntry()
	loadEntry.SetText(fmt.Sprintf("%.1f", state.cfg.Mock.LoadOhms))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Identity", Widget: identityEntry},
			{Text: "Noise Level (V)", Widget: noiseEntry},
			{Text: "Load (Ω)", Widget: loadEntry},
		},
		OnSubmit: func() {
			state.cfg.Mock.Identity = identityEntry.Text
			if nl, err := strconv.ParseFloat(noiseEntry.Text, 64); err == nil {
				state.cfg.Mock.NoiseLevel = nl
			}
			if lo, err := strconv.ParseFloat(loadEntry.Text, 64); err == nil {
				state.cfg.Mock.LoadOhms = lo
			}
			if err := state.cfg.Save("config.yaml"); err != nil {
				dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
			}
		},
	}

	return container.NewTabItem("Mock", form)
}

package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"quarry/internal/module"
	"quarry/internal/trace"
	"quarry/internal/ui"
)

type loadOutcome struct {
	catalog *module.Catalog
	err     error
}

// runLoadWithUI drives loadCatalog behind a Bubble Tea progress view.
func runLoadWithUI(ctx context.Context, title string, manifest *projectManifest, tracer trace.Tracer) (*module.Catalog, error) {
	files := allUnitFiles(manifest)
	events := make(chan ui.Event, 256)
	outcomeCh := make(chan loadOutcome, 1)

	go func() {
		sink := eventSink(func(ev ui.Event) { events <- ev })
		catalog, err := loadCatalog(ctx, manifest, tracer, sink)
		outcomeCh <- loadOutcome{catalog: catalog, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.catalog, uiErr
	}
	return outcome.catalog, outcome.err
}

// loadProjectCatalog loads the catalog with or without the TUI.
func loadProjectCatalog(ctx context.Context, title string, manifest *projectManifest, tracer trace.Tracer, mode uiMode) (*module.Catalog, error) {
	if shouldUseTUI(mode, isTerminal(os.Stdout)) {
		return runLoadWithUI(ctx, title, manifest, tracer)
	}
	return loadCatalog(ctx, manifest, tracer, nil)
}

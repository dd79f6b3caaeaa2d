package main

import (
	"context"
	"fmt"
	"os"

	"quarry/internal/module"
	"quarry/internal/records"
	"quarry/internal/trace"
	"quarry/internal/ui"
)

// eventSink receives progress events; nil sinks are allowed.
type eventSink func(ui.Event)

func (s eventSink) send(ev ui.Event) {
	if s != nil {
		s(ev)
	}
}

// allUnitFiles lists every unit file the manifest names, in module order.
func allUnitFiles(manifest *projectManifest) []string {
	var files []string
	for _, mod := range manifest.Config.Modules {
		files = append(files, manifest.unitPaths(mod)...)
	}
	return files
}

// readUnitFile loads one msgpack unit file.
func readUnitFile(path string) ([]*records.Unit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open unit file: %w", err)
	}
	defer f.Close()
	units, err := records.ReadUnits(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return units, nil
}

// loadCatalog reads every module the manifest names and indexes it,
// reporting per-file progress through the sink.
func loadCatalog(ctx context.Context, manifest *projectManifest, tracer trace.Tracer, sink eventSink) (*module.Catalog, error) {
	catalog := &module.Catalog{}
	for _, mod := range manifest.Config.Modules {
		var units []*records.Unit
		for _, path := range manifest.unitPaths(mod) {
			sink.send(ui.Event{File: path, Stage: ui.StageRead, Status: ui.StatusWorking})
			fileUnits, err := readUnitFile(path)
			if err != nil {
				sink.send(ui.Event{File: path, Stage: ui.StageRead, Status: ui.StatusError, Err: err})
				return nil, err
			}
			units = append(units, fileUnits...)
			sink.send(ui.Event{File: path, Stage: ui.StageRead, Status: ui.StatusDone})
		}

		sink.send(ui.Event{Stage: ui.StageIndex, Status: ui.StatusWorking})
		m, err := module.Load(ctx, mod.Name, units, tracer)
		if err != nil {
			return nil, fmt.Errorf("module %q: %w", mod.Name, err)
		}
		loadAddr, err := parseLoadAddress(mod.LoadAddress)
		if err != nil {
			return nil, fmt.Errorf("module %q: %w", mod.Name, err)
		}
		catalog.Add(m, loadAddr)
	}
	sink.send(ui.Event{Stage: ui.StageIndex, Status: ui.StatusDone})
	return catalog, nil
}

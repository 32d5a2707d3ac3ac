// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	v1 "github.com/microrover/missionctl/internal/storage/memory/export/v1"
	"github.com/microrover/missionctl/pkg/core"
)

// exportJSON writes the run data to a JSON file, gzipped when configured.
// Caller holds b.mu.
func (b *Backend) exportJSON() error {
	export := b.buildExport()

	// Build filename
	runName := strings.ReplaceAll(b.run.Name, " ", "_")
	runName = strings.ReplaceAll(runName, ":", "_")
	timestamp := b.run.StartTime.Format("20060102_150405")

	var filename string
	if b.cfg.CompressOutput {
		filename = fmt.Sprintf("%s_%s.json.gz", runName, timestamp)
	} else {
		filename = fmt.Sprintf("%s_%s.json", runName, timestamp)
	}

	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if b.cfg.CompressOutput {
		if err := writeGzipJSON(outputPath, export); err != nil {
			return err
		}
	} else {
		if err := writeJSON(outputPath, export); err != nil {
			return err
		}
	}

	b.lastExportPath = outputPath
	return nil
}

func (b *Backend) buildExport() v1.Export {
	var arena core.Arena
	if b.arena != nil {
		arena = *b.arena
	}

	builder := v1.NewBuilder(*b.run, arena)
	for _, s := range b.ticks {
		builder.AddTick(s)
	}
	for _, pc := range b.phases {
		builder.AddPhaseChange(pc)
	}
	for _, d := range b.detections {
		builder.AddScanDetection(d)
	}
	for _, ev := range b.controls {
		builder.AddControlEvent(ev)
	}
	return builder.Build()
}

func writeJSON(path string, data v1.Export) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	return encoder.Encode(data)
}

func writeGzipJSON(path string, data v1.Export) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	defer gzWriter.Close()

	encoder := json.NewEncoder(gzWriter)
	return encoder.Encode(data)
}

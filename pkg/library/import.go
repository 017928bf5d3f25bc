package library

import (
	"fmt"

	"github.com/coolbeans/kmdp/pkg/ontology"
)

// Import adds every ontology file matching the patterns. Files whose version
// is already stored are skipped unless force is set. A failing file is
// recorded in the report and does not stop the import.
func Import(lib *Library, patterns []string, force bool) (*ImportReport, error) {
	files, err := ontology.Expand(patterns)
	if err != nil {
		return nil, err
	}

	report := &ImportReport{
		Attempted: len(files),
		Files:     make([]ImportState, 0, len(files)),
	}

	loader := ontology.NewLoader(lib.logger)
	for _, path := range files {
		state := ImportState{Path: path}

		ont, err := loader.LoadFile(path)
		if err != nil {
			report.Failed++
			state.Status = "failed"
			state.Error = err.Error()
			report.Files = append(report.Files, state)
			continue
		}

		state.ID = EntryID(DeriveName(path), VersionTag(ont))
		if existing, ok := lib.Entry(DeriveName(path), VersionTag(ont)); ok && existing.Status == StatusReady && !force {
			report.Skipped++
			state.Status = "skipped"
			report.Files = append(report.Files, state)
			continue
		}

		if _, err := lib.AddOntologyFile(path, AddOptions{Force: true}); err != nil {
			report.Failed++
			state.Status = "failed"
			state.Error = fmt.Sprintf("failed to store: %v", err)
			report.Files = append(report.Files, state)
			continue
		}

		report.Succeeded++
		state.Status = "imported"
		report.Files = append(report.Files, state)
	}

	lib.logger.Info("Import complete",
		"attempted", report.Attempted,
		"imported", report.Succeeded,
		"skipped", report.Skipped,
		"failed", report.Failed)

	return report, nil
}

package entities

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"
)

// ExportVersion is the version of the export payload layout.
const ExportVersion = 1

// ErrInvalidImport is returned when imported data is not a JSON object.
var ErrInvalidImport = errors.New("import data is not a JSON object")

// ExportPayload is the document produced by export and accepted by import.
type ExportPayload struct {
	Version    int             `json:"version"`
	ExportedAt time.Time       `json:"exportedAt"`
	Progress   *ProgressRecord `json:"progress"`
	Settings   *Settings       `json:"settings"`
}

// NewExportPayload bundles progress and settings for export.
func NewExportPayload(p *ProgressRecord, s *Settings, now time.Time) ExportPayload {
	return ExportPayload{
		Version:    ExportVersion,
		ExportedAt: now.UTC(),
		Progress:   p,
		Settings:   s,
	}
}

// ParseImport reads either a full export payload or a bare progress record.
// Settings are nil when the document carries none.
func ParseImport(data []byte, today string) (*ProgressRecord, *Settings, error) {
	data = bytes.TrimSpace(data)

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil || doc == nil {
		return nil, nil, ErrInvalidImport
	}

	progressFields := doc
	if raw, ok := doc["progress"]; ok {
		var nested map[string]json.RawMessage
		if err := json.Unmarshal(raw, &nested); err != nil || nested == nil {
			return nil, nil, ErrInvalidImport
		}
		progressFields = nested
	}

	var settings *Settings
	if raw, ok := doc["settings"]; ok {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err == nil && fields != nil {
			settings = settingsFromFields(fields)
		}
	}

	// A bare record may not carry envelope keys into its extras.
	if _, wrapped := doc["progress"]; !wrapped {
		delete(progressFields, "settings")
		delete(progressFields, "exportedAt")
	}

	return progressFromFields(progressFields, today), settings, nil
}

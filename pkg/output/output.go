// Package output writes the harvest result and the citation diagnostic file.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/Sternrassler/bibharvest/pkg/record"
	"github.com/rs/zerolog/log"
)

// Indent is the indentation used for every JSON file the harvester writes.
const Indent = "    "

// Persist writes records to path as an indented JSON array and reports
// whether any records were present. Nothing is written for an empty slice.
// Only write failures are returned as errors.
func Persist(records []record.Record, path string) (bool, error) {
	logger := log.With().Str("component", "output").Logger()

	if len(records) == 0 {
		logger.Warn().Msg("No records found for this institution")
		return false, nil
	}

	if err := WriteJSON(path, records); err != nil {
		return true, err
	}

	logger.Info().
		Int("count", len(records)).
		Str("path", path).
		Msg("Records saved")

	return true, nil
}

// WriteJSON encodes v with Indent and replaces the file at path.
func WriteJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", Indent)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

package app

import (
	"context"
	"path/filepath"
	"strings"

	"orbitviz/domain/dataset"
	"orbitviz/internal/errors"
	"orbitviz/ports"
)

// ReadersByExtension dispatches to a reader by lowercase file extension,
// dot included.
type ReadersByExtension map[string]ports.ObservationReader

var _ ports.ObservationReader = ReadersByExtension(nil)

// ReadObservations picks the reader registered for path's extension.
func (m ReadersByExtension) ReadObservations(ctx context.Context, path string, phaseOf ports.PhaseFunc) (*dataset.DataSet, error) {
	ext := strings.ToLower(filepath.Ext(path))
	reader, ok := m[ext]
	if !ok {
		return nil, errors.InvalidInput("no reader for " + ext + " files")
	}
	return reader.ReadObservations(ctx, path, phaseOf)
}

// Package overrides persists manual field overrides in a JSON side-file
package overrides

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chemprice/backend/internal/domain"
	"go.uber.org/zap"
)

// JSONStore keeps overrides as {"product": {"field": value}} in one file.
//
// Set is a read-modify-write of the whole file without locking: two writers racing
// can lose one update.
type JSONStore struct {
	path   string
	logger *zap.Logger
}

// NewJSONStore creates a store backed by path; the file need not exist yet
func NewJSONStore(path string, logger *zap.Logger) *JSONStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JSONStore{path: path, logger: logger.Named("overrides")}
}

// Load reads all overrides. A missing file is an empty set; a corrupt one is an
// empty set plus an error.
func (s *JSONStore) Load(ctx context.Context) (domain.Overrides, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.Overrides{}, nil
		}
		return domain.Overrides{}, fmt.Errorf("reading %s: %w", s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return domain.Overrides{}, nil
	}

	out := domain.Overrides{}
	if err := json.Unmarshal(data, &out); err != nil {
		return domain.Overrides{}, fmt.Errorf("decoding %s: %w", s.path, err)
	}
	return out, nil
}

// Set stores value for field of the exact product name and rewrites the file
func (s *JSONStore) Set(ctx context.Context, name, field string, value float64) error {
	current, err := s.Load(ctx)
	if err != nil {
		s.logger.Warn("discarding unreadable overrides file", zap.String("path", s.path), zap.Error(err))
		current = domain.Overrides{}
	}

	if current[name] == nil {
		current[name] = map[string]float64{}
	}
	current[name][field] = value

	return s.save(current)
}

func (s *JSONStore) save(all domain.Overrides) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(all); err != nil {
		return fmt.Errorf("encoding overrides: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(s.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", s.path, err)
	}
	return nil
}

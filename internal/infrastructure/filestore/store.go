// Package filestore keeps the uploaded source spreadsheets on local disk
package filestore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chemprice/backend/internal/domain"
	"github.com/chemprice/backend/internal/infrastructure/spreadsheet"
	"go.uber.org/zap"
)

// Config names the data directory and the fixed base name of each source file
type Config struct {
	Dir       string
	CostsName string // e.g. "data_precios"
	RulesName string // e.g. "data_reglas"
}

// Store saves each source under "<base name><ext>" in Dir, one file per kind
type Store struct {
	dir    string
	names  map[domain.SourceKind]string
	logger *zap.Logger
}

// NewStore creates a file store, creating the directory if needed
func NewStore(cfg Config, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	return &Store{
		dir: cfg.Dir,
		names: map[domain.SourceKind]string{
			domain.SourceCosts: cfg.CostsName,
			domain.SourceRules: cfg.RulesName,
		},
		logger: logger.Named("filestore"),
	}, nil
}

// Save overwrites the stored file for kind and removes copies with another extension
func (s *Store) Save(ctx context.Context, kind domain.SourceKind, filename string, r io.Reader) (string, error) {
	base, ok := s.names[kind]
	if !ok {
		return "", fmt.Errorf("%w: unknown source %q", domain.ErrInvalidRequest, kind)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !spreadsheet.IsSupported(ext) {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, ext)
	}

	path := filepath.Join(s.dir, base+ext)
	tmp, err := os.CreateTemp(s.dir, base+"-*"+ext+".tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("replacing %s: %w", path, err)
	}

	for _, other := range spreadsheet.Extensions {
		if other == ext {
			continue
		}
		stale := filepath.Join(s.dir, base+other)
		if err := os.Remove(stale); err == nil {
			s.logger.Debug("removed stale source", zap.String("path", stale))
		}
	}
	return path, nil
}

// Read parses the current file for kind; ErrSourceNotFound when none is stored
func (s *Store) Read(ctx context.Context, kind domain.SourceKind) (domain.Table, error) {
	path, err := s.Locate(kind)
	if err != nil {
		return nil, err
	}
	return spreadsheet.ReadFile(path)
}

// Locate returns the path of the stored file for kind. When several extensions are
// present the most recently modified one wins.
func (s *Store) Locate(kind domain.SourceKind) (string, error) {
	base, ok := s.names[kind]
	if !ok {
		return "", fmt.Errorf("%w: unknown source %q", domain.ErrInvalidRequest, kind)
	}

	var (
		found  string
		newest int64
	)
	for _, ext := range spreadsheet.Extensions {
		path := filepath.Join(s.dir, base+ext)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		if mod := info.ModTime().UnixNano(); found == "" || mod > newest {
			found, newest = path, mod
		}
	}
	if found == "" {
		return "", domain.ErrSourceNotFound
	}
	return found, nil
}

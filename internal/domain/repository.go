package domain

import (
	"context"
	"io"
)

// Table is a raw, row-oriented spreadsheet: every cell as text, no header interpretation
type Table [][]string

// SourceKind identifies which spreadsheet a file store slot holds
type SourceKind string

const (
	SourceCosts SourceKind = "costs"
	SourceRules SourceKind = "rules"
)

// SourceStore persists uploaded spreadsheets under fixed names and reads them back
type SourceStore interface {
	// Save replaces the stored file for kind; the extension is taken from filename
	Save(ctx context.Context, kind SourceKind, filename string, r io.Reader) (string, error)
	// Read returns the current table for kind, or ErrSourceNotFound
	Read(ctx context.Context, kind SourceKind) (Table, error)
}

// OverrideStore persists manual field overrides keyed by exact product name
type OverrideStore interface {
	Load(ctx context.Context) (Overrides, error)
	Set(ctx context.Context, name, field string, value float64) error
}

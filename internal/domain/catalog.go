package domain

import "time"

// Snapshot is one immutable, fully built product list
type Snapshot struct {
	Version  uint64          `json:"version"`
	BuiltAt  time.Time       `json:"builtAt"`
	Products []ProductRecord `json:"-"`
}

// Len returns the number of products in the snapshot
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Products)
}

// ProductCache holds the current snapshot; Publish replaces it wholesale
type ProductCache interface {
	Current() *Snapshot
	Publish(products []ProductRecord) *Snapshot
}

package docsystem

import (
	"fmt"
	"strings"
	"time"
)

// Default search configuration values
const (
	DefaultSearchLimit = 500
	MaxSearchLimit     = 5000
)

// SearchOptions configures a case-insensitive name search under RootPath.
type SearchOptions struct {
	// Query is matched as a substring of the node name (required)
	Query string

	// RootPath limits the scan to this subtree (default "/")
	RootPath string

	// Limit caps the number of results (default 500)
	Limit int
}

// ApplyDefaults fills in default values for unset fields
func (opts *SearchOptions) ApplyDefaults() {
	if opts.RootPath == "" {
		opts.RootPath = "/"
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultSearchLimit
	}
}

// Validate checks that required fields are set and values are reasonable
func (opts *SearchOptions) Validate() error {
	if strings.TrimSpace(opts.Query) == "" {
		return fmt.Errorf("search query cannot be empty")
	}
	if opts.Limit > MaxSearchLimit {
		return fmt.Errorf("limit cannot exceed %d (requested: %d)", MaxSearchLimit, opts.Limit)
	}
	return nil
}

// FilterCriteria holds optional predicates. Every non-nil predicate must hold
// for a node to match; nil predicates impose no constraint. Size and time
// bounds are inclusive.
type FilterCriteria struct {
	RootPath      string
	IsFolder      *bool
	MinSize       *int64
	MaxSize       *int64
	OwnerEmail    *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Limit         int

	// OwnerID is resolved from OwnerEmail by the service before matching.
	OwnerID string `json:"-"`
}

// ApplyDefaults fills in default values for unset fields
func (c *FilterCriteria) ApplyDefaults() {
	if c.RootPath == "" {
		c.RootPath = "/"
	}
	if c.Limit <= 0 {
		c.Limit = DefaultSearchLimit
	}
}

// Validate rejects contradictory or out-of-range bounds.
func (c *FilterCriteria) Validate() error {
	if c.MinSize != nil && *c.MinSize < 0 {
		return fmt.Errorf("min_size cannot be negative")
	}
	if c.MaxSize != nil && *c.MaxSize < 0 {
		return fmt.Errorf("max_size cannot be negative")
	}
	if c.MinSize != nil && c.MaxSize != nil && *c.MinSize > *c.MaxSize {
		return fmt.Errorf("min_size (%d) is greater than max_size (%d)", *c.MinSize, *c.MaxSize)
	}
	if c.CreatedAfter != nil && c.CreatedBefore != nil && c.CreatedAfter.After(*c.CreatedBefore) {
		return fmt.Errorf("created_after is later than created_before")
	}
	if c.Limit > MaxSearchLimit {
		return fmt.Errorf("limit cannot exceed %d (requested: %d)", MaxSearchLimit, c.Limit)
	}
	return nil
}

// Matches reports whether n satisfies every provided predicate.
func (c *FilterCriteria) Matches(n *Node) bool {
	if c.IsFolder != nil && n.IsFolder != *c.IsFolder {
		return false
	}
	if c.MinSize != nil && n.Size < *c.MinSize {
		return false
	}
	if c.MaxSize != nil && n.Size > *c.MaxSize {
		return false
	}
	if c.OwnerEmail != nil && n.Owner != c.OwnerID {
		return false
	}
	if c.CreatedAfter != nil && n.CreatedAt.Before(*c.CreatedAfter) {
		return false
	}
	if c.CreatedBefore != nil && n.CreatedAt.After(*c.CreatedBefore) {
		return false
	}
	return true
}

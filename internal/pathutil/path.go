// Package pathutil canonicalizes and compares hierarchical node paths.
//
// A canonical path is absolute, '/'-delimited, has no empty, "." or ".."
// segments and no trailing separator (except the root "/"). Two paths are
// equal iff their canonical forms are byte-equal.
package pathutil

import (
	"fmt"
	"strings"

	"github.com/YugenJarwal13/InternalDMS/internal/config"
	"github.com/YugenJarwal13/InternalDMS/internal/domain"
)

// Root is the canonical root path.
const Root = "/"

// Normalizer canonicalizes raw paths and rejects paths outside its root.
type Normalizer struct {
	root string
}

// NewNormalizer creates a normalizer confined to root. root itself must be a
// valid absolute path; an empty root means "/".
func NewNormalizer(root string) (*Normalizer, error) {
	if root == "" {
		root = Root
	}
	canonical, err := clean(root)
	if err != nil {
		return nil, err
	}
	return &Normalizer{root: canonical}, nil
}

// MustNormalizer is NewNormalizer for static roots.
func MustNormalizer(root string) *Normalizer {
	n, err := NewNormalizer(root)
	if err != nil {
		panic(err)
	}
	return n
}

// Root returns the configured root.
func (n *Normalizer) Root() string {
	return n.root
}

// Normalize returns the canonical form of raw or an *domain.InvalidPathError.
func (n *Normalizer) Normalize(raw string) (string, error) {
	canonical, err := clean(raw)
	if err != nil {
		return "", err
	}
	if !IsWithin(n.root, canonical) {
		return "", &domain.InvalidPathError{Path: raw, Reason: fmt.Sprintf("outside of root %s", n.root)}
	}
	return canonical, nil
}

// Join normalizes parent and appends a validated name.
func (n *Normalizer) Join(parent, name string) (string, error) {
	p, err := n.Normalize(parent)
	if err != nil {
		return "", err
	}
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return Join(p, name), nil
}

func clean(raw string) (string, error) {
	if raw == "" {
		return "", &domain.InvalidPathError{Path: raw, Reason: "path cannot be empty"}
	}
	if len(raw) > config.MaxPathLength {
		return "", &domain.InvalidPathError{Path: raw, Reason: fmt.Sprintf("path exceeds maximum length of %d characters", config.MaxPathLength)}
	}
	if !strings.HasPrefix(raw, "/") {
		return "", &domain.InvalidPathError{Path: raw, Reason: "path must be absolute"}
	}
	if strings.ContainsRune(raw, 0) {
		return "", &domain.InvalidPathError{Path: raw, Reason: "path contains a null byte"}
	}
	if strings.ContainsRune(raw, '\\') {
		return "", &domain.InvalidPathError{Path: raw, Reason: "path contains a backslash"}
	}

	segments := make([]string, 0, strings.Count(raw, "/"))
	for _, seg := range strings.Split(raw, "/") {
		switch seg {
		case "", ".":
			continue
		case "..":
			return "", &domain.InvalidPathError{Path: raw, Reason: "path contains a '..' segment"}
		}
		if len(seg) > config.MaxNameLength {
			return "", &domain.InvalidPathError{Path: raw, Reason: fmt.Sprintf("segment exceeds maximum length of %d characters", config.MaxNameLength)}
		}
		segments = append(segments, seg)
	}
	if len(segments) == 0 {
		return Root, nil
	}
	return "/" + strings.Join(segments, "/"), nil
}

// ValidateName checks a single path segment supplied as a node name.
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return &domain.ValidationError{Message: "name cannot be empty"}
	case name == "." || name == "..":
		return &domain.ValidationError{Message: fmt.Sprintf("%q is not a valid name", name)}
	case strings.ContainsAny(name, "/\\"):
		return &domain.ValidationError{Message: "name cannot contain path separators"}
	case strings.ContainsRune(name, 0):
		return &domain.ValidationError{Message: "name cannot contain a null byte"}
	case len(name) > config.MaxNameLength:
		return &domain.ValidationError{Message: fmt.Sprintf("name exceeds maximum length of %d characters", config.MaxNameLength)}
	}
	return nil
}

// IsAncestor reports whether a is a strict ancestor of b. Both must be canonical.
func IsAncestor(a, b string) bool {
	if a == b {
		return false
	}
	if a == Root {
		return true
	}
	return strings.HasPrefix(b, a) && b[len(a)] == '/'
}

// IsWithin reports whether b equals a or lies under it.
func IsWithin(a, b string) bool {
	return a == b || IsAncestor(a, b)
}

// Parent returns the parent of a canonical path, or "" for the root.
func Parent(p string) string {
	if p == Root {
		return ""
	}
	i := strings.LastIndexByte(p, '/')
	if i == 0 {
		return Root
	}
	return p[:i]
}

// Base returns the final segment of a canonical path ("" for the root).
func Base(p string) string {
	if p == Root {
		return ""
	}
	return p[strings.LastIndexByte(p, '/')+1:]
}

// Join appends name to a canonical parent without validation.
func Join(parent, name string) string {
	if parent == Root {
		return "/" + name
	}
	return parent + "/" + name
}

// Rebase rewrites p, which must be within oldPrefix, to sit under newPrefix.
func Rebase(p, oldPrefix, newPrefix string) string {
	if p == oldPrefix {
		return newPrefix
	}
	rel := p[len(oldPrefix):]
	if oldPrefix == Root {
		rel = p
	}
	if newPrefix == Root {
		return rel
	}
	return newPrefix + rel
}

// Segments splits a canonical path into its names (none for the root).
func Segments(p string) []string {
	if p == Root {
		return nil
	}
	return strings.Split(p[1:], "/")
}

// Depth returns the number of segments in p.
func Depth(p string) int {
	if p == Root {
		return 0
	}
	return strings.Count(p, "/")
}

// CommonAncestor returns the deepest path that is within-or-equal to both a and b.
func CommonAncestor(a, b string) string {
	as, bs := Segments(a), Segments(b)
	n := 0
	for n < len(as) && n < len(bs) && as[n] == bs[n] {
		n++
	}
	if n == 0 {
		return Root
	}
	return "/" + strings.Join(as[:n], "/")
}

// Ext returns the extension of name including the dot, lowercased.
// Names like ".env" have no extension.
func Ext(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return ""
	}
	return strings.ToLower(name[i:])
}

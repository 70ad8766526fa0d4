package core

import (
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/gosimple/slug"
)

// suggestDistance is the maximum edit distance at which an existing category
// is reported as a likely match for a new name.
const suggestDistance = 2

// DefaultCategories returns the categories a new registry is seeded with.
func DefaultCategories() []string {
	return []string{"Food", "Transport", "Entertainment", "Utilities", "Other"}
}

// Registry is the ordered list of categories offered to the user.
// Insertion order is preserved. Names are not validated: duplicates and
// empty strings are stored as given.
type Registry struct {
	names []string
}

// NewRegistry returns a registry seeded with DefaultCategories.
func NewRegistry() *Registry {
	return &Registry{names: DefaultCategories()}
}

// Add appends name to the registry.
func (r *Registry) Add(name string) {
	r.names = append(r.names, name)
}

// List returns the categories in insertion order.
func (r *Registry) List() []string {
	return append([]string(nil), r.names...)
}

// Len returns the number of entries, duplicates included.
func (r *Registry) Len() int {
	return len(r.names)
}

// Contains reports whether name is registered (exact, case-sensitive match).
func (r *Registry) Contains(name string) bool {
	for _, n := range r.names {
		if n == name {
			return true
		}
	}
	return false
}

// Suggest returns registered names that look like name: exact matches,
// case-insensitive matches and names within a small edit distance.
// Each distinct name is reported once, in registry order.
func (r *Registry) Suggest(name string) []string {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, n := range r.names {
		if _, ok := seen[n]; ok {
			continue
		}
		candidate := strings.ToLower(strings.TrimSpace(n))
		if candidate == "" {
			continue
		}
		if levenshtein.ComputeDistance(needle, candidate) <= suggestDistance {
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	return out
}

// Slug returns a URL and HTML-id safe key for a category name.
// Names without any sluggable characters map to "uncategorized".
func Slug(name string) string {
	s := slug.Make(name)
	if s == "" {
		return "uncategorized"
	}
	return s
}

// Package lookup defines the read-only location hierarchy collaborator: a
// list of regions and the sub-regions keyed by a selected region. The editor
// queries it reactively whenever the governing field changes.
package lookup

import (
	"context"
	"sort"
)

// RegionProvider serves the two-level location hierarchy. Implementations
// may hit a remote service; the editor tolerates slow responses by dropping
// results that arrive for a region the user has already moved away from.
type RegionProvider interface {
	Regions(ctx context.Context) ([]string, error)
	Districts(ctx context.Context, region string) ([]string, error)
}

// Static is an in-memory RegionProvider for tests and offline hosts.
type Static struct {
	hierarchy map[string][]string
}

// NewStatic builds a provider from a region -> districts map. The map is
// copied; district order is preserved, regions are sorted.
func NewStatic(hierarchy map[string][]string) *Static {
	copied := make(map[string][]string, len(hierarchy))
	for region, districts := range hierarchy {
		copied[region] = append([]string(nil), districts...)
	}
	return &Static{hierarchy: copied}
}

// Regions returns the sorted region list.
func (s *Static) Regions(_ context.Context) ([]string, error) {
	out := make([]string, 0, len(s.hierarchy))
	for region := range s.hierarchy {
		out = append(out, region)
	}
	sort.Strings(out)
	return out, nil
}

// Districts returns the districts for a region; unknown regions yield an
// empty list, not an error, because a cleared governing field is a normal
// editor state.
func (s *Static) Districts(_ context.Context, region string) ([]string, error) {
	return append([]string(nil), s.hierarchy[region]...), nil
}

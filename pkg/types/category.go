package types

import (
	"slices"
	"strings"
)

type CategoryNode struct {
	Id       int            `json:"id"`
	Name     string         `json:"name"`
	Children []CategoryNode `json:"children,omitempty"`
}

// CategoryMap resolves lower-cased category names to ids.
type CategoryMap map[string]int

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// BuildCategoryMap indexes a category tree. Parents and their direct
// children both contribute entries, deeper levels are ignored.
func BuildCategoryMap(nodes []CategoryNode) CategoryMap {
	result := make(CategoryMap)
	add := func(n CategoryNode) {
		key := normalizeName(n.Name)
		if key == "" {
			return
		}
		if _, found := result[key]; !found {
			result[key] = n.Id
		}
	}
	for _, parent := range nodes {
		add(parent)
		for _, child := range parent.Children {
			add(child)
		}
	}
	return result
}

func (m CategoryMap) Resolve(name string) (int, bool) {
	if m == nil {
		return 0, false
	}
	id, ok := m[normalizeName(name)]
	return id, ok
}

// NameOf does the reverse lookup. When several names share an id the
// lexically smallest one wins so parsing stays deterministic.
func (m CategoryMap) NameOf(id int) (string, bool) {
	found := false
	result := ""
	for name, v := range m {
		if v != id {
			continue
		}
		if !found || name < result {
			result = name
			found = true
		}
	}
	return result, found
}

// Ids resolves names to a sorted, unique id list. Unknown names are dropped.
func (m CategoryMap) Ids(names []string) []int {
	ids := make([]int, 0, len(names))
	for _, name := range names {
		if id, ok := m.Resolve(name); ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}

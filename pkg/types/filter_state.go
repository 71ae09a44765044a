package types

import (
	"slices"
	"strings"
)

const (
	DefaultPriceMin = 0
	DefaultPriceMax = 90000
)

// FilterState is the structured form of the catalog query. It is always
// derived from the location query and never stored on its own.
type FilterState struct {
	MinVal int        `json:"minVal"`
	MaxVal int        `json:"maxVal"`
	Types  []string   `json:"types"`
	Sizes  []string   `json:"sizes"`
	Colors []string   `json:"colors"`
	Sort   SortOption `json:"sort"`
	Page   int        `json:"page"`
}

func DefaultFilterState() FilterState {
	return FilterState{
		MinVal: DefaultPriceMin,
		MaxVal: DefaultPriceMax,
		Types:  []string{},
		Sizes:  []string{},
		Colors: []string{},
		Sort:   SortAll,
		Page:   0,
	}
}

// NormalizeSet trims, drops empty values, sorts and removes duplicates.
// The result is never nil.
func NormalizeSet(values []string) []string {
	result := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		result = append(result, v)
	}
	slices.Sort(result)
	return slices.Compact(result)
}

func (s FilterState) Equal(other FilterState) bool {
	return s.MinVal == other.MinVal &&
		s.MaxVal == other.MaxVal &&
		s.Sort == other.Sort &&
		s.Page == other.Page &&
		slices.Equal(s.Types, other.Types) &&
		slices.Equal(s.Sizes, other.Sizes) &&
		slices.Equal(s.Colors, other.Colors)
}

func (s FilterState) Clone() FilterState {
	s.Types = slices.Clone(s.Types)
	s.Sizes = slices.Clone(s.Sizes)
	s.Colors = slices.Clone(s.Colors)
	return s
}

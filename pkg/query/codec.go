package query

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/schema"
	"github.com/matst80/slask-catalog/pkg/types"
)

const (
	KeyTypes  = "types"
	KeyMinVal = "minVal"
	KeyMaxVal = "maxVal"
	KeySizes  = "sizes"
	KeyColors = "colors"
	KeySort   = "sort"
	KeyPage   = "page"
)

// filterRequest holds the scalar part of the query. Types need the
// category table and are decoded separately.
type filterRequest struct {
	MinVal int      `schema:"minVal"`
	MaxVal int      `schema:"maxVal"`
	Sizes  []string `schema:"sizes"`
	Colors []string `schema:"colors"`
	Sort   string   `schema:"sort"`
	Page   int      `schema:"page"`
}

var decoder = schema.NewDecoder()

func init() {
	decoder.IgnoreUnknownKeys(true)
}

// Codec maps between the location query and types.FilterState.
// It never fails, malformed input degrades to defaults.
type Codec struct {
	PriceMin int
	PriceMax int
}

func NewCodec() *Codec {
	return &Codec{
		PriceMin: types.DefaultPriceMin,
		PriceMax: types.DefaultPriceMax,
	}
}

func clamp(value, lo, hi int) int {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

// ClampPrice brings a price into the codec bounds.
func (c *Codec) ClampPrice(v int) int {
	return clamp(v, c.PriceMin, c.PriceMax)
}

func (c *Codec) makeBaseRequest() *filterRequest {
	return &filterRequest{
		MinVal: c.PriceMin,
		MaxVal: c.PriceMax,
		Sizes:  []string{},
		Colors: []string{},
		Sort:   string(types.SortAll),
		Page:   0,
	}
}

// Parse decodes a raw query string, with or without the leading '?'.
func (c *Codec) Parse(raw string, cats types.CategoryMap) types.FilterState {
	// ParseQuery keeps every pair it could read, the error only names the first bad one
	values, _ := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	return c.ParseValues(values, cats)
}

var scalarKeys = []string{KeyMinVal, KeyMaxVal, KeySort, KeyPage}

// firstValues keeps only the first value of every scalar key, the way a
// browser's URLSearchParams.get reads a repeated key.
func firstValues(values url.Values) url.Values {
	result := make(url.Values, len(values))
	for key, v := range values {
		result[key] = v
	}
	for _, key := range scalarKeys {
		if v := values[key]; len(v) > 1 {
			result[key] = v[:1]
		}
	}
	return result
}

func (c *Codec) ParseValues(values url.Values, cats types.CategoryMap) types.FilterState {
	fr := c.makeBaseRequest()
	// conversion errors leave the prefilled default in place
	_ = decoder.Decode(fr, firstValues(values))

	state := types.FilterState{
		MinVal: fr.MinVal,
		MaxVal: fr.MaxVal,
		Types:  decodeTypes(values[KeyTypes], cats),
		Sizes:  fr.Sizes,
		Colors: fr.Colors,
		Sort:   types.ParseSort(fr.Sort),
		Page:   fr.Page,
	}
	c.Sanitize(&state)
	return state
}

func decodeTypes(raw []string, cats types.CategoryMap) []string {
	names := make([]string, 0, len(raw))
	for _, v := range raw {
		id, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			continue
		}
		name, ok := cats.NameOf(id)
		if !ok {
			continue
		}
		names = append(names, name)
	}
	return names
}

// Sanitize brings a state into its canonical form.
func (c *Codec) Sanitize(s *types.FilterState) {
	s.MinVal = c.ClampPrice(s.MinVal)
	s.MaxVal = c.ClampPrice(s.MaxVal)
	s.Page = max(0, s.Page)
	s.Sort = types.ParseSort(string(s.Sort))
	s.Types = types.NormalizeSet(s.Types)
	s.Sizes = types.NormalizeSet(s.Sizes)
	s.Colors = types.NormalizeSet(s.Colors)
}

// Encode returns the minimal query for a state. Fields at their default
// are left out so equal states always give equal queries.
func (c *Codec) Encode(state types.FilterState, cats types.CategoryMap) url.Values {
	result := url.Values{}
	for _, id := range cats.Ids(state.Types) {
		result.Add(KeyTypes, strconv.Itoa(id))
	}
	if state.MinVal != c.PriceMin {
		result.Set(KeyMinVal, strconv.Itoa(state.MinVal))
	}
	if state.MaxVal != c.PriceMax {
		result.Set(KeyMaxVal, strconv.Itoa(state.MaxVal))
	}
	for _, size := range types.NormalizeSet(state.Sizes) {
		result.Add(KeySizes, size)
	}
	for _, color := range types.NormalizeSet(state.Colors) {
		result.Add(KeyColors, color)
	}
	if !state.Sort.IsDefault() {
		result.Set(KeySort, string(state.Sort))
	}
	if state.Page > 0 {
		result.Set(KeyPage, strconv.Itoa(state.Page))
	}
	return result
}

func (c *Codec) EncodeString(state types.FilterState, cats types.CategoryMap) string {
	return c.Encode(state, cats).Encode()
}

package query

import (
	"maps"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/matst80/slask-catalog/pkg/types"
)

// Navigation is the result of a query change, applied by a Router.
type Navigation struct {
	Query   url.Values
	Replace bool
}

func (n Navigation) String() string {
	return n.Query.Encode()
}

// Router owns the current location query.
type Router interface {
	Query() url.Values
	Navigate(nav Navigation)
}

type MutateOptions struct {
	// PreserveHistory pushes a new history entry instead of replacing the current one.
	PreserveHistory bool
}

// Change sets a single key. Nil or empty Values remove the key.
type Change struct {
	Key    string
	Values []string
}

type Patch []Change

func cloneValues(v url.Values) url.Values {
	result := make(url.Values, len(v))
	for key, values := range maps.All(v) {
		result[key] = slices.Clone(values)
	}
	return result
}

// isNoop reports whether a change only restates a default, those keys are
// removed so equal states keep serializing to the same query.
func (c *Codec) isNoop(ch Change) bool {
	if len(ch.Values) == 0 {
		return true
	}
	first := strings.TrimSpace(ch.Values[0])
	if len(ch.Values) == 1 && first == "" {
		return true
	}
	switch ch.Key {
	case KeyMinVal:
		return first == strconv.Itoa(c.PriceMin)
	case KeyMaxVal:
		return first == strconv.Itoa(c.PriceMax)
	case KeySort:
		return types.ParseSort(first).IsDefault()
	}
	return false
}

// Mutate merges patch over current. Keys the patch does not name are kept
// as they are, so independent widgets never clobber each other.
func (c *Codec) Mutate(current url.Values, patch Patch, opts MutateOptions) Navigation {
	next := cloneValues(current)
	for _, ch := range patch {
		if c.isNoop(ch) {
			next.Del(ch.Key)
			continue
		}
		next[ch.Key] = slices.Clone(ch.Values)
	}
	return Navigation{
		Query:   next,
		Replace: !opts.PreserveHistory,
	}
}

// ResetAll drops every filter. It always replaces the history entry.
func (c *Codec) ResetAll() Navigation {
	return Navigation{
		Query:   url.Values{KeyPage: []string{"0"}},
		Replace: true,
	}
}

func MinVal(v int) Change {
	return Change{Key: KeyMinVal, Values: []string{strconv.Itoa(v)}}
}

func MaxVal(v int) Change {
	return Change{Key: KeyMaxVal, Values: []string{strconv.Itoa(v)}}
}

// Price is the patch a committed price change produces, page is always reset.
func Price(lo, hi int) Patch {
	return Patch{MinVal(lo), MaxVal(hi), Page(0)}
}

func Types(ids ...int) Change {
	ids = slices.Clone(ids)
	slices.Sort(ids)
	values := make([]string, 0, len(ids))
	for _, id := range slices.Compact(ids) {
		values = append(values, strconv.Itoa(id))
	}
	return Change{Key: KeyTypes, Values: values}
}

func TypeNames(cats types.CategoryMap, names ...string) Change {
	return Types(cats.Ids(names)...)
}

func Sizes(values ...string) Change {
	return Change{Key: KeySizes, Values: types.NormalizeSet(values)}
}

func Colors(values ...string) Change {
	return Change{Key: KeyColors, Values: types.NormalizeSet(values)}
}

func Sort(s types.SortOption) Change {
	return Change{Key: KeySort, Values: []string{string(s)}}
}

func Page(p int) Change {
	return Change{Key: KeyPage, Values: []string{strconv.Itoa(max(0, p))}}
}

func Unset(key string) Change {
	return Change{Key: key}
}

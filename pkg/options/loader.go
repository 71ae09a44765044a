package options

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/matst80/slask-catalog/pkg/cache"
	"github.com/matst80/slask-catalog/pkg/types"
)

const (
	cacheKey   = "catalog:filter-options"
	DefaultTTL = 5 * time.Minute
)

type OptionsSource interface {
	FilterOptions(ctx context.Context) (*types.FilterOptions, error)
}

type Result struct {
	Options    types.FilterOptions
	Categories types.CategoryMap
	FromCache  bool
	Fallback   bool
}

// Loader fetches the facet vocabulary. It never fails, when the source is
// unavailable the built in defaults are used so browsing keeps working.
type Loader struct {
	source OptionsSource
	cache  cache.Cache
	ttl    time.Duration

	once   sync.Once
	result Result
}

type Option func(*Loader)

func WithCache(c cache.Cache) Option {
	return func(l *Loader) {
		l.cache = c
	}
}

func WithTTL(ttl time.Duration) Option {
	return func(l *Loader) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

func NewLoader(source OptionsSource, opts ...Option) *Loader {
	l := &Loader{
		source: source,
		ttl:    DefaultTTL,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func sanitize(o types.FilterOptions) types.FilterOptions {
	defaults := types.DefaultFilterOptions()
	if o.MaxPrice <= o.MinPrice || o.MinPrice < 0 {
		o.MinPrice = defaults.MinPrice
		o.MaxPrice = defaults.MaxPrice
	}
	if o.Categories == nil {
		o.Categories = defaults.Categories
	}
	o.Sizes = types.NormalizeSet(o.Sizes)
	o.Colors = types.NormalizeSet(o.Colors)
	return o
}

func makeResult(o types.FilterOptions) Result {
	o = sanitize(o)
	return Result{
		Options:    o,
		Categories: types.BuildCategoryMap(o.Categories),
	}
}

func (l *Loader) Load(ctx context.Context) Result {
	if l.cache != nil {
		var cached types.FilterOptions
		if err := l.cache.Get(ctx, cacheKey, &cached); err == nil {
			r := makeResult(cached)
			r.FromCache = true
			return r
		}
	}

	if l.source == nil {
		r := makeResult(types.DefaultFilterOptions())
		r.Fallback = true
		return r
	}
	loaded, err := l.source.FilterOptions(ctx)
	if err != nil || loaded == nil {
		log.Printf("filter options unavailable, using defaults: %v", err)
		r := makeResult(types.DefaultFilterOptions())
		r.Fallback = true
		return r
	}

	if l.cache != nil {
		if err := l.cache.Set(ctx, cacheKey, loaded, l.ttl); err != nil {
			log.Printf("could not cache filter options: %v", err)
		}
	}
	return makeResult(*loaded)
}

// LoadOnce loads on the first call and returns the same result afterwards.
func (l *Loader) LoadOnce(ctx context.Context) Result {
	l.once.Do(func() {
		l.result = l.Load(ctx)
	})
	return l.result
}

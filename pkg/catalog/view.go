package catalog

import (
	"context"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/matst80/slask-catalog/pkg/fetch"
	"github.com/matst80/slask-catalog/pkg/location"
	"github.com/matst80/slask-catalog/pkg/options"
	"github.com/matst80/slask-catalog/pkg/query"
	"github.com/matst80/slask-catalog/pkg/rangectl"
	"github.com/matst80/slask-catalog/pkg/tracking"
	"github.com/matst80/slask-catalog/pkg/types"
)

// Location is the navigable query a view is bound to.
type Location interface {
	query.Router
	Subscribe(fn location.Listener) func()
}

// Sessions hands out per view tracking.
type Sessions interface {
	Session(id string) tracking.Tracking
}

type Config struct {
	Codec        *query.Codec
	PageSize     int
	PriceDelay   time.Duration
	Notifier     fetch.Notifier
	Sessions     Sessions
	FetchOptions []fetch.Option
}

// View runs the filter loop of one catalog page: every location change is
// parsed into a filter state, mirrored into the price controller and handed
// to the orchestrator.
type View struct {
	Id string

	codec        *query.Codec
	location     Location
	loader       *options.Loader
	orchestrator *fetch.Orchestrator
	price        *rangectl.Controller

	// loop serializes location deliveries so parse, sync and update
	// always see the newest query
	loop sync.Mutex

	mu          sync.Mutex
	ready       bool
	closed      bool
	result      options.Result
	state       types.FilterState
	unsubscribe func()
}

func NewView(loc Location, searcher fetch.Searcher, loader *options.Loader, cfg Config) *View {
	codec := cfg.Codec
	if codec == nil {
		codec = query.NewCodec()
	}
	id := uuid.NewString()

	fetchOpts := []fetch.Option{
		fetch.WithCodec(codec),
		fetch.WithPageSize(cfg.PageSize),
	}
	if cfg.Sessions != nil {
		fetchOpts = append(fetchOpts, fetch.WithTracker(cfg.Sessions.Session(id)))
	}
	fetchOpts = append(fetchOpts, cfg.FetchOptions...)

	v := &View{
		Id:           id,
		codec:        codec,
		location:     loc,
		loader:       loader,
		orchestrator: fetch.New(searcher, cfg.Notifier, fetchOpts...),
		result: options.Result{
			Options:    types.DefaultFilterOptions(),
			Categories: types.CategoryMap{},
		},
	}
	v.state = codec.ParseValues(loc.Query(), v.result.Categories)
	v.price = rangectl.New(
		rangectl.CodecCommitter{Codec: codec, Router: loc},
		v.state.MinVal, v.state.MaxVal,
		rangectl.WithDelay(cfg.PriceDelay),
	)
	v.unsubscribe = loc.Subscribe(v.onLocation)
	return v
}

// Start loads the filter options and issues the first fetch.
func (v *View) Start(ctx context.Context) {
	result := v.loader.LoadOnce(ctx)
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.result = result
	v.ready = true
	v.mu.Unlock()
	if result.Fallback {
		log.Printf("view %s started with default filter options", v.Id)
	}
	v.refresh()
}

// onLocation ignores the delivered query, deliveries from different
// goroutines may arrive out of order.
func (v *View) onLocation(url.Values) {
	v.refresh()
}

func (v *View) refresh() {
	v.loop.Lock()
	defer v.loop.Unlock()

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	cats := v.result.Categories
	state := v.codec.ParseValues(v.location.Query(), cats)
	v.state = state
	ready := v.ready
	v.mu.Unlock()

	v.price.Sync(state.MinVal, state.MaxVal)
	v.orchestrator.Update(ready, state, cats)
}

func (v *View) State() types.FilterState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state.Clone()
}

func (v *View) Categories() types.CategoryMap {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.result.Categories
}

func (v *View) FilterOptions() types.FilterOptions {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.result.Options
}

func (v *View) Results() fetch.View {
	return v.orchestrator.Snapshot()
}

// OnResults listeners run inside the view loop and must not mutate the
// view synchronously.
func (v *View) OnResults(fn func(fetch.View)) func() {
	return v.orchestrator.Subscribe(fn)
}

func (v *View) Mutate(patch query.Patch, preserveHistory bool) {
	nav := v.codec.Mutate(v.location.Query(), patch, query.MutateOptions{PreserveHistory: preserveHistory})
	v.location.Navigate(nav)
}

func (v *View) Reset() {
	v.location.Navigate(v.codec.ResetAll())
}

func (v *View) SetPriceMin(value int) {
	v.price.SetMin(value)
}

func (v *View) SetPriceMax(value int) {
	v.price.SetMax(value)
}

func (v *View) FlushPrice() bool {
	return v.price.Flush()
}

// Price is the range the slider shows, including uncommitted edits.
func (v *View) Price() (int, int) {
	return v.price.Values()
}

func (v *View) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	v.mu.Unlock()

	v.unsubscribe()
	v.price.Close()
	v.orchestrator.Close()
}

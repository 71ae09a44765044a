package fetch

import (
	"context"
	"errors"
	"log"
	"slices"
	"sync"

	"github.com/matst80/slask-catalog/pkg/query"
	"github.com/matst80/slask-catalog/pkg/types"
)

const DefaultPageSize = 24

// View is what the result list shows.
type View struct {
	Items      []types.Product
	TotalPages int
	Loading    bool
	Generation uint64
	State      types.FilterState
	version    uint64
}

type Option func(*Orchestrator)

func WithPageSize(size int) Option {
	return func(o *Orchestrator) {
		if size > 0 {
			o.pageSize = size
		}
	}
}

func WithCodec(codec *query.Codec) Option {
	return func(o *Orchestrator) {
		o.codec = codec
	}
}

func WithTracker(tracker Tracker) Option {
	return func(o *Orchestrator) {
		o.tracker = tracker
	}
}

// WithObserver is called once for every finished request.
func WithObserver(fn func(Completion)) Option {
	return func(o *Orchestrator) {
		o.observer = fn
	}
}

func WithContext(ctx context.Context) Option {
	return func(o *Orchestrator) {
		o.parent = ctx
	}
}

// Orchestrator turns filter states into product pages. Every request is
// tagged with a generation and only the newest generation may touch the
// view, whatever order the responses arrive in.
type Orchestrator struct {
	searcher Searcher
	notifier Notifier
	tracker  Tracker
	observer func(Completion)
	codec    *query.Codec
	pageSize int
	parent   context.Context

	mu         sync.Mutex
	root       context.Context
	stop       context.CancelFunc
	generation uint64
	cancel     context.CancelFunc
	view       View
	hasLast    bool
	lastReady  bool
	lastState  types.FilterState
	listeners  map[int]func(View)
	nextId     int
	closed     bool
	wg         sync.WaitGroup

	pubMu     sync.Mutex
	delivered uint64
}

func New(searcher Searcher, notifier Notifier, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		searcher:  searcher,
		notifier:  notifier,
		codec:     query.NewCodec(),
		pageSize:  DefaultPageSize,
		parent:    context.Background(),
		listeners: make(map[int]func(View)),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.notifier == nil {
		o.notifier = LogNotifier{}
	}
	o.root, o.stop = context.WithCancel(o.parent)
	o.view.State = types.DefaultFilterState()
	return o
}

// Params translates a state into the search call. Default prices become
// "no filter" and unknown category names are left out.
func (o *Orchestrator) Params(state types.FilterState, cats types.CategoryMap) types.SearchParams {
	params := types.SearchParams{
		Status:   state.Sort.Status(),
		Page:     state.Page,
		PageSize: o.pageSize,
	}
	if state.MinVal != o.codec.PriceMin {
		v := state.MinVal
		params.PriceMin = &v
	}
	if state.MaxVal != o.codec.PriceMax {
		v := state.MaxVal
		params.PriceMax = &v
	}
	if ids := cats.Ids(state.Types); len(ids) > 0 {
		params.CategoryIds = ids
	}
	if len(state.Sizes) > 0 {
		params.Sizes = slices.Clone(state.Sizes)
	}
	if len(state.Colors) > 0 {
		params.Colors = slices.Clone(state.Colors)
	}
	return params
}

// Update starts a fetch when ready and the (ready, state) pair changed.
// A request still in flight is cancelled.
func (o *Orchestrator) Update(ready bool, state types.FilterState, cats types.CategoryMap) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	if o.hasLast && o.lastReady == ready && o.lastState.Equal(state) {
		o.mu.Unlock()
		return
	}
	o.hasLast = true
	o.lastReady = ready
	o.lastState = state.Clone()
	if !ready {
		o.mu.Unlock()
		return
	}

	if o.cancel != nil {
		o.cancel()
	}
	o.generation++
	gen := o.generation
	ctx, cancel := context.WithCancel(o.root)
	o.cancel = cancel
	o.view.Loading = true
	o.view.Generation = gen
	o.view.State = state.Clone()
	params := o.Params(state, cats)
	snapshot := o.snapshot()
	o.wg.Add(1)
	o.mu.Unlock()

	fetchesStarted.Inc()
	o.publish(snapshot)
	go o.run(ctx, cancel, gen, state.Clone(), params)
}

func (o *Orchestrator) run(ctx context.Context, cancel context.CancelFunc, gen uint64, state types.FilterState, params types.SearchParams) {
	defer o.wg.Done()
	defer cancel()
	result, err := o.searcher.Search(ctx, params)
	o.complete(ctx, gen, state, params, result, err)
}

func isCancellation(ctx context.Context, err error) bool {
	return errors.Is(err, context.Canceled) || ctx.Err() != nil
}

func (o *Orchestrator) complete(ctx context.Context, gen uint64, state types.FilterState, params types.SearchParams, result *types.SearchResult, err error) {
	o.mu.Lock()
	if gen != o.generation {
		o.mu.Unlock()
		o.finish(Completion{Generation: gen, Outcome: Discarded, Err: err})
		return
	}
	if o.closed || (err != nil && isCancellation(ctx, err)) {
		o.mu.Unlock()
		o.finish(Completion{Generation: gen, Outcome: Cancelled, Err: err})
		return
	}
	o.cancel = nil
	o.view.Loading = false
	if err != nil {
		snapshot := o.snapshot()
		o.mu.Unlock()

		o.notifier.NotifyFailure(err)
		if o.tracker != nil {
			if terr := o.tracker.TrackFailure(state, err); terr != nil {
				log.Printf("could not track failed search: %v", terr)
			}
		}
		o.publish(snapshot)
		o.finish(Completion{Generation: gen, Outcome: Failed, Err: err})
		return
	}
	if result == nil {
		result = &types.SearchResult{}
	}
	o.view.Items = slices.Clone(result.Items)
	o.view.TotalPages = result.TotalPages
	snapshot := o.snapshot()
	o.mu.Unlock()

	if o.tracker != nil {
		if terr := o.tracker.TrackSearch(state, params, result); terr != nil {
			log.Printf("could not track search: %v", terr)
		}
	}
	o.publish(snapshot)
	o.finish(Completion{Generation: gen, Outcome: Applied})
}

func (o *Orchestrator) finish(c Completion) {
	countOutcome(c.Outcome)
	if o.observer != nil {
		o.observer(c)
	}
}

// snapshot copies the view, caller holds mu.
func (o *Orchestrator) snapshot() View {
	o.view.version++
	v := o.view
	v.Items = slices.Clone(o.view.Items)
	v.State = o.view.State.Clone()
	return v
}

func (o *Orchestrator) publish(v View) {
	o.pubMu.Lock()
	defer o.pubMu.Unlock()
	if v.version <= o.delivered {
		return
	}
	o.delivered = v.version
	o.mu.Lock()
	listeners := make([]func(View), 0, len(o.listeners))
	for id := 0; id < o.nextId; id++ {
		if fn, ok := o.listeners[id]; ok {
			listeners = append(listeners, fn)
		}
	}
	o.mu.Unlock()
	for _, fn := range listeners {
		fn(v)
	}
}

func (o *Orchestrator) Snapshot() View {
	o.mu.Lock()
	defer o.mu.Unlock()
	v := o.view
	v.Items = slices.Clone(o.view.Items)
	v.State = o.view.State.Clone()
	return v
}

func (o *Orchestrator) Generation() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.generation
}

// Subscribe registers a listener for view changes. Listeners must not
// call back into Update synchronously.
func (o *Orchestrator) Subscribe(fn func(View)) func() {
	o.mu.Lock()
	defer o.mu.Unlock()
	id := o.nextId
	o.nextId++
	o.listeners[id] = fn
	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		delete(o.listeners, id)
	}
}

// Close cancels the request in flight without notifying anyone and waits
// for it to return. Later updates are ignored.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	o.stop()
	o.mu.Unlock()
	o.wg.Wait()
}

package fetch

import (
	"context"
	"log"

	"github.com/matst80/slask-catalog/pkg/types"
)

// Searcher is the paginated search call of the catalog api. It must
// return ctx.Err() (or an error wrapping it) when ctx is cancelled.
type Searcher interface {
	Search(ctx context.Context, params types.SearchParams) (*types.SearchResult, error)
}

type SearcherFunc func(ctx context.Context, params types.SearchParams) (*types.SearchResult, error)

func (f SearcherFunc) Search(ctx context.Context, params types.SearchParams) (*types.SearchResult, error) {
	return f(ctx, params)
}

// Notifier shows a fetch failure to the user.
type Notifier interface {
	NotifyFailure(err error)
}

type NotifierFunc func(err error)

func (f NotifierFunc) NotifyFailure(err error) {
	f(err)
}

type LogNotifier struct{}

func (LogNotifier) NotifyFailure(err error) {
	log.Printf("could not load products: %v", err)
}

// Tracker receives authoritative outcomes only.
type Tracker interface {
	TrackSearch(state types.FilterState, params types.SearchParams, result *types.SearchResult) error
	TrackFailure(state types.FilterState, err error) error
}

type Outcome int

const (
	Applied Outcome = iota
	Discarded
	Cancelled
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Discarded:
		return "discarded"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Completion describes how a finished request was handled.
type Completion struct {
	Generation uint64
	Outcome    Outcome
	Err        error
}

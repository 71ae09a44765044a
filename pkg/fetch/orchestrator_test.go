package fetch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/matst80/slask-catalog/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type outcome struct {
	result *types.SearchResult
	err    error
}

type pendingCall struct {
	params  types.SearchParams
	release chan outcome
}

// controlledSearcher blocks every call until the test releases it.
type controlledSearcher struct {
	honourContext bool
	calls         chan *pendingCall
}

func newControlledSearcher(honourContext bool) *controlledSearcher {
	return &controlledSearcher{
		honourContext: honourContext,
		calls:         make(chan *pendingCall, 16),
	}
}

func (s *controlledSearcher) Search(ctx context.Context, params types.SearchParams) (*types.SearchResult, error) {
	call := &pendingCall{params: params, release: make(chan outcome, 1)}
	s.calls <- call
	if s.honourContext {
		select {
		case o := <-call.release:
			return o.result, o.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	o := <-call.release
	return o.result, o.err
}

func (s *controlledSearcher) next(t *testing.T) *pendingCall {
	t.Helper()
	select {
	case c := <-s.calls:
		return c
	case <-time.After(time.Second):
		t.Fatal("no search call")
		return nil
	}
}

type notifications struct {
	mu   sync.Mutex
	errs []error
}

func (n *notifications) NotifyFailure(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errs = append(n.errs, err)
}

func (n *notifications) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.errs)
}

func completions() (chan Completion, Option) {
	ch := make(chan Completion, 16)
	return ch, WithObserver(func(c Completion) { ch <- c })
}

func waitFor(t *testing.T, ch chan Completion) Completion {
	t.Helper()
	select {
	case c := <-ch:
		return c
	case <-time.After(time.Second):
		t.Fatal("request never completed")
		return Completion{}
	}
}

func page(ids ...string) *types.SearchResult {
	items := make([]types.Product, 0, len(ids))
	for _, id := range ids {
		items = append(items, types.Product{Id: id, Name: id})
	}
	return &types.SearchResult{Items: items, TotalPages: len(ids)}
}

func stateWithPage(p int) types.FilterState {
	s := types.DefaultFilterState()
	s.Page = p
	return s
}

func TestOlderResponseNeverOverwritesNewer(t *testing.T) {
	searcher := newControlledSearcher(false)
	done, observe := completions()
	o := New(searcher, &notifications{}, observe)

	o.Update(true, stateWithPage(1), nil)
	a := searcher.next(t)
	o.Update(true, stateWithPage(2), nil)
	b := searcher.next(t)

	b.release <- outcome{result: page("b1", "b2")}
	assert.Equal(t, Applied, waitFor(t, done).Outcome)

	a.release <- outcome{result: page("a1")}
	c := waitFor(t, done)
	assert.Equal(t, Discarded, c.Outcome)
	assert.Equal(t, uint64(1), c.Generation)

	view := o.Snapshot()
	require.Len(t, view.Items, 2)
	assert.Equal(t, "b1", view.Items[0].Id)
	assert.Equal(t, 2, view.TotalPages)
	assert.False(t, view.Loading)
	o.Close()
}

func TestStaleCompletionKeepsLoading(t *testing.T) {
	searcher := newControlledSearcher(false)
	done, observe := completions()
	o := New(searcher, &notifications{}, observe)

	o.Update(true, stateWithPage(1), nil)
	a := searcher.next(t)
	o.Update(true, stateWithPage(2), nil)
	b := searcher.next(t)

	a.release <- outcome{result: page("a1")}
	assert.Equal(t, Discarded, waitFor(t, done).Outcome)
	assert.True(t, o.Snapshot().Loading)
	assert.Empty(t, o.Snapshot().Items)

	b.release <- outcome{result: page("b1")}
	waitFor(t, done)
	assert.False(t, o.Snapshot().Loading)
	o.Close()
}

func TestSupersededRequestIsCancelledSilently(t *testing.T) {
	searcher := newControlledSearcher(true)
	n := &notifications{}
	done, observe := completions()
	o := New(searcher, n, observe)

	o.Update(true, stateWithPage(1), nil)
	searcher.next(t)
	o.Update(true, stateWithPage(2), nil)
	b := searcher.next(t)

	first := waitFor(t, done)
	assert.Equal(t, Discarded, first.Outcome)
	assert.ErrorIs(t, first.Err, context.Canceled)
	assert.Equal(t, 0, n.count())
	assert.True(t, o.Snapshot().Loading)

	b.release <- outcome{result: page("b1")}
	assert.Equal(t, Applied, waitFor(t, done).Outcome)
	assert.Equal(t, 0, n.count())
	o.Close()
}

func TestCloseCancelsWithoutNotification(t *testing.T) {
	searcher := newControlledSearcher(true)
	n := &notifications{}
	done, observe := completions()
	o := New(searcher, n, observe)

	o.Update(true, stateWithPage(1), nil)
	searcher.next(t)
	o.Close()

	c := waitFor(t, done)
	assert.Equal(t, Cancelled, c.Outcome)
	assert.Equal(t, 0, n.count())

	o.Update(true, stateWithPage(5), nil)
	assert.Equal(t, uint64(1), o.Generation())
}

func TestFailureNotifiesOnceAndKeepsResults(t *testing.T) {
	searcher := newControlledSearcher(false)
	n := &notifications{}
	done, observe := completions()
	o := New(searcher, n, observe)

	o.Update(true, stateWithPage(0), nil)
	searcher.next(t).release <- outcome{result: page("x1", "x2")}
	waitFor(t, done)

	o.Update(true, stateWithPage(1), nil)
	searcher.next(t).release <- outcome{err: errors.New("502 bad gateway")}
	assert.Equal(t, Failed, waitFor(t, done).Outcome)

	assert.Equal(t, 1, n.count())
	view := o.Snapshot()
	assert.Len(t, view.Items, 2)
	assert.False(t, view.Loading)

	o.Update(true, stateWithPage(2), nil)
	searcher.next(t).release <- outcome{result: page("y1")}
	assert.Equal(t, Applied, waitFor(t, done).Outcome)
	assert.Equal(t, "y1", o.Snapshot().Items[0].Id)
	o.Close()
}

func TestStaleFailureIsNotReported(t *testing.T) {
	searcher := newControlledSearcher(false)
	n := &notifications{}
	done, observe := completions()
	o := New(searcher, n, observe)

	o.Update(true, stateWithPage(1), nil)
	a := searcher.next(t)
	o.Update(true, stateWithPage(2), nil)
	b := searcher.next(t)

	a.release <- outcome{err: errors.New("timeout")}
	assert.Equal(t, Discarded, waitFor(t, done).Outcome)
	b.release <- outcome{result: page("b1")}
	waitFor(t, done)
	assert.Equal(t, 0, n.count())
	o.Close()
}

func TestUpdateWaitsForReadiness(t *testing.T) {
	searcher := newControlledSearcher(false)
	done, observe := completions()
	o := New(searcher, &notifications{}, observe)

	state := stateWithPage(0)
	o.Update(false, state, nil)
	assert.Equal(t, uint64(0), o.Generation())
	assert.Empty(t, searcher.calls)

	o.Update(true, state, nil)
	o.Update(true, state.Clone(), nil)
	assert.Equal(t, uint64(1), o.Generation())
	searcher.next(t).release <- outcome{result: page()}
	waitFor(t, done)
	assert.Empty(t, searcher.calls)
	o.Close()
}

func TestParams(t *testing.T) {
	cats := types.BuildCategoryMap([]types.CategoryNode{
		{Id: 4, Name: "Платья", Children: []types.CategoryNode{{Id: 40, Name: "Вечерние"}}},
	})
	o := New(newControlledSearcher(false), nil, WithPageSize(12))

	state := types.FilterState{
		MinVal: types.DefaultPriceMin,
		MaxVal: 5000,
		Types:  []string{"вечерние", "ещё не загружено"},
		Sizes:  []string{"M"},
		Colors: []string{},
		Sort:   types.SortComingSoon,
		Page:   3,
	}
	params := o.Params(state, cats)
	assert.Nil(t, params.PriceMin)
	require.NotNil(t, params.PriceMax)
	assert.Equal(t, 5000, *params.PriceMax)
	assert.Equal(t, []int{40}, params.CategoryIds)
	assert.Equal(t, []string{"M"}, params.Sizes)
	assert.Nil(t, params.Colors)
	assert.Equal(t, types.StatusComingSoon, params.Status)
	assert.Equal(t, 3, params.Page)
	assert.Equal(t, 12, params.PageSize)

	state.Sort = types.SortAll
	state.MaxVal = types.DefaultPriceMax
	params = o.Params(state, nil)
	assert.Equal(t, types.StatusNone, params.Status)
	assert.Nil(t, params.PriceMax)
	assert.Nil(t, params.CategoryIds)
}

func TestSubscribersSeeLoadingThenResult(t *testing.T) {
	searcher := newControlledSearcher(false)
	done, observe := completions()
	o := New(searcher, &notifications{}, observe)

	var mu sync.Mutex
	var seen []bool
	o.Subscribe(func(v View) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, v.Loading)
	})

	o.Update(true, stateWithPage(0), nil)
	searcher.next(t).release <- outcome{result: page("p")}
	waitFor(t, done)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{true, false}, seen)
	o.Close()
}

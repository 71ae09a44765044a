package location

import (
	"maps"
	"net/url"
	"slices"
	"sync"

	"github.com/matst80/slask-catalog/pkg/query"
)

type Listener func(q url.Values)

// Location is an in-memory navigable query with back/forward history.
// Listeners are called after every change, outside the lock.
type Location struct {
	mu        sync.Mutex
	entries   []url.Values
	index     int
	listeners map[int]Listener
	nextId    int
}

func New(initial url.Values) *Location {
	if initial == nil {
		initial = url.Values{}
	}
	return &Location{
		entries:   []url.Values{clone(initial)},
		listeners: make(map[int]Listener),
	}
}

func Parse(raw string) *Location {
	q, _ := url.ParseQuery(raw)
	return New(q)
}

func clone(v url.Values) url.Values {
	result := make(url.Values, len(v))
	for key, values := range v {
		result[key] = slices.Clone(values)
	}
	return result
}

func (l *Location) Query() url.Values {
	l.mu.Lock()
	defer l.mu.Unlock()
	return clone(l.entries[l.index])
}

func (l *Location) String() string {
	return l.Query().Encode()
}

// Navigate applies a navigation, replacing the current entry or pushing a
// new one. Pushing drops any forward history.
func (l *Location) Navigate(nav query.Navigation) {
	l.mu.Lock()
	next := clone(nav.Query)
	if nav.Replace {
		l.entries[l.index] = next
	} else {
		l.entries = append(l.entries[:l.index+1], next)
		l.index++
	}
	l.mu.Unlock()
	l.emit()
}

func (l *Location) Back() bool {
	l.mu.Lock()
	if l.index == 0 {
		l.mu.Unlock()
		return false
	}
	l.index--
	l.mu.Unlock()
	l.emit()
	return true
}

func (l *Location) Forward() bool {
	l.mu.Lock()
	if l.index >= len(l.entries)-1 {
		l.mu.Unlock()
		return false
	}
	l.index++
	l.mu.Unlock()
	l.emit()
	return true
}

func (l *Location) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Subscribe registers a listener and returns a function removing it.
func (l *Location) Subscribe(fn Listener) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.nextId
	l.nextId++
	l.listeners[id] = fn
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.listeners, id)
	}
}

func (l *Location) emit() {
	l.mu.Lock()
	current := l.entries[l.index]
	ids := slices.Sorted(maps.Keys(l.listeners))
	listeners := make([]Listener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, l.listeners[id])
	}
	l.mu.Unlock()
	for _, fn := range listeners {
		fn(clone(current))
	}
}

var _ query.Router = (*Location)(nil)

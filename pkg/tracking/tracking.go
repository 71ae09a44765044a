package tracking

import (
	"github.com/matst80/slask-catalog/pkg/types"
)

// Tracking records authoritative search outcomes of one catalog view.
type Tracking interface {
	TrackSearch(state types.FilterState, params types.SearchParams, result *types.SearchResult) error
	TrackFailure(state types.FilterState, err error) error
}

type NoTracking struct{}

func (NoTracking) TrackSearch(types.FilterState, types.SearchParams, *types.SearchResult) error {
	return nil
}

func (NoTracking) TrackFailure(types.FilterState, error) error {
	return nil
}

const (
	eventSearch  uint16 = 1
	eventFailure uint16 = 9
)

type BaseEvent struct {
	SessionId string `json:"session_id"`
	Country   string `json:"country,omitempty"`
	Context   string `json:"context,omitempty"`
	Event     uint16 `json:"event"`
}

type SearchEventData struct {
	*BaseEvent
	Filters         types.FilterState `json:"filters"`
	CategoryIds     []int             `json:"categoryIds,omitempty"`
	NumberOfResults int               `json:"noi"`
	TotalPages      int               `json:"totalPages"`
	Page            int               `json:"page"`
}

type FailureEventData struct {
	*BaseEvent
	Filters types.FilterState `json:"filters"`
	Error   string            `json:"error"`
}

func searchEvent(base BaseEvent, state types.FilterState, params types.SearchParams, result *types.SearchResult) *SearchEventData {
	base.Event = eventSearch
	e := &SearchEventData{
		BaseEvent:   &base,
		Filters:     state,
		CategoryIds: params.CategoryIds,
		Page:        params.Page,
	}
	if result != nil {
		e.NumberOfResults = len(result.Items)
		e.TotalPages = result.TotalPages
	}
	return e
}

func failureEvent(base BaseEvent, state types.FilterState, err error) *FailureEventData {
	base.Event = eventFailure
	e := &FailureEventData{
		BaseEvent: &base,
		Filters:   state,
	}
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

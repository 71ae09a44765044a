package tracking

import (
	"context"

	"github.com/matst80/slask-catalog/pkg/messaging"
	"github.com/matst80/slask-catalog/pkg/types"
	amqp "github.com/rabbitmq/amqp091-go"
)

const exchangePrefix = "global"

type RabbitTracking struct {
	country    string
	connection *amqp.Connection
	publisher  *messaging.Publisher
}

func NewRabbitTracking(url, country string) (*RabbitTracking, error) {
	ret := RabbitTracking{
		country: country,
	}
	if err := ret.connect(url); err != nil {
		return nil, err
	}
	return &ret, nil
}

func (t *RabbitTracking) connect(url string) error {
	conn, err := amqp.Dial(url)
	if err != nil {
		return err
	}
	t.connection = conn
	t.publisher = messaging.NewPublisher(conn, exchangePrefix, t.country)
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()
	if err = messaging.DeclareTopic(ch, exchangePrefix, messaging.SearchTopic); err != nil {
		return err
	}
	return messaging.DeclareTopic(ch, exchangePrefix, messaging.FailureTopic)
}

func (t *RabbitTracking) Close() error {
	return t.connection.Close()
}

// Session returns a Tracking bound to one catalog view.
func (t *RabbitTracking) Session(sessionId string) Tracking {
	return &sessionTracking{
		rt: t,
		base: BaseEvent{
			SessionId: sessionId,
			Country:   t.country,
			Context:   "catalog",
		},
	}
}

type sessionTracking struct {
	rt   *RabbitTracking
	base BaseEvent
}

func (s *sessionTracking) TrackSearch(state types.FilterState, params types.SearchParams, result *types.SearchResult) error {
	return s.rt.publisher.Publish(context.Background(), messaging.SearchTopic, searchEvent(s.base, state, params, result))
}

func (s *sessionTracking) TrackFailure(state types.FilterState, err error) error {
	return s.rt.publisher.Publish(context.Background(), messaging.FailureTopic, failureEvent(s.base, state, err))
}

package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Envelope wraps every catalog event on the wire.
type Envelope struct {
	Topic   ChangeTopic `json:"topic"`
	Country string      `json:"country,omitempty"`
	SentAt  time.Time   `json:"sentAt"`
	Data    any         `json:"data"`
}

func exchangeName(prefix string, topic ChangeTopic) string {
	return fmt.Sprintf("%s_%s", prefix, topic)
}

// RoutingKey scopes a topic to one country, e.g. "catalog_search.se".
func RoutingKey(topic ChangeTopic, country string) string {
	if country == "" {
		country = "all"
	}
	return fmt.Sprintf("%s.%s", topic, country)
}

// DeclareTopic declares the exchange of a topic and a durable queue that
// receives its events for every country.
func DeclareTopic(ch *amqp.Channel, prefix string, topic ChangeTopic) error {
	name := exchangeName(prefix, topic)
	if err := ch.ExchangeDeclare(name, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", name, err)
	}
	q, err := ch.QueueDeclare(name, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", name, err)
	}
	return ch.QueueBind(q.Name, string(topic)+".#", name, false, nil)
}

func Encode(topic ChangeTopic, country string, data any, sentAt time.Time) ([]byte, error) {
	return sonic.Marshal(Envelope{
		Topic:   topic,
		Country: country,
		SentAt:  sentAt.UTC(),
		Data:    data,
	})
}

// Publisher sends catalog events for one country.
type Publisher struct {
	conn    *amqp.Connection
	prefix  string
	country string
}

func NewPublisher(conn *amqp.Connection, prefix, country string) *Publisher {
	return &Publisher{conn: conn, prefix: prefix, country: country}
}

func (p *Publisher) Publish(ctx context.Context, topic ChangeTopic, data any) error {
	now := time.Now()
	body, err := Encode(topic, p.country, data, now)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", topic, err)
	}
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()
	return ch.PublishWithContext(ctx,
		exchangeName(p.prefix, topic),
		RoutingKey(topic, p.country),
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Timestamp:   now,
			Body:        body,
		},
	)
}

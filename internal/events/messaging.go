package events

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EventsExchange          = "dataeng.events"
	DatasetLoadedRoutingKey = "dataset.loaded.v1"
	producerName            = "data-eng-hw"
)

// Dial connects to RabbitMQ at the given URL.
func Dial(url string) (*amqp.Connection, error) {
	return amqp.Dial(url)
}

func declareEventsExchange(ch *amqp.Channel) error {
	return ch.ExchangeDeclare(
		EventsExchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
}

// Package service provides the RabbitMQ publisher for domain events.
// Errors are logged and returned to allow callers to ignore failures
// without interrupting the dialogue.
package service

import (
    "context"
    "encoding/json"
    "time"

    "github.com/google/uuid"
    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"

    q "github.com/iliyamo/venue-reservation-bot/internal/queue"
)

// Publisher dials the broker per publish.  Event volume is one message
// per reservation, so a long-lived channel is not worth its reconnect
// handling.
type Publisher struct {
    url string
    log logrus.FieldLogger
}

// NewPublisher returns a publisher for the broker at url.
func NewPublisher(url string, log logrus.FieldLogger) *Publisher {
    return &Publisher{url: url, log: log}
}

// PublishReservationCreated publishes to the "reservation.created" queue.
func (p *Publisher) PublishReservationCreated(ctx context.Context, event q.ReservationCreatedEvent) error {
    return p.publish(ctx, q.ReservationCreatedQueue, event)
}

// PublishBroadcast publishes to the "broadcast.requested" queue.
func (p *Publisher) PublishBroadcast(ctx context.Context, event q.BroadcastRequestedEvent) error {
    return p.publish(ctx, q.BroadcastRequestedQueue, event)
}

// publish attempts to be robust and to never panic; any error is logged
// and returned so the caller can choose to ignore it.  Messages are
// marked as persistent.
func (p *Publisher) publish(ctx context.Context, queueName string, event interface{}) error {
    log := p.log.WithField("queue", queueName)
    conn, err := amqp.Dial(p.url)
    if err != nil {
        log.WithError(err).Warn("rabbitmq: dial failed")
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        log.WithError(err).Warn("rabbitmq: channel open failed")
        return err
    }
    defer func() { _ = ch.Close() }()

    // Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(
        queueName, // name
        true,      // durable
        false,     // autoDelete
        false,     // exclusive
        false,     // noWait
        nil,       // args
    ); err != nil {
        log.WithError(err).Warn("rabbitmq: queue declare failed")
        return err
    }

    body, err := json.Marshal(event)
    if err != nil {
        log.WithError(err).Warn("rabbitmq: marshal event failed")
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent, // store on disk
        MessageId:    uuid.NewString(),
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }

    if err := ch.PublishWithContext(ctx,
        "",        // default exchange
        queueName, // routing key = queue name
        false,     // mandatory
        false,     // immediate
        pub,
    ); err != nil {
        log.WithError(err).Warn("rabbitmq: publish failed")
        return err
    }
    return nil
}

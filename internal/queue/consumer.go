// Package queue contains the background consumer that listens to the
// reservation.created and broadcast.requested queues and writes one
// audit line per message under the log directory.
package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"
)

// Consumer drains both event queues into audit log files.
type Consumer struct {
    URL    string
    LogDir string
    Log    logrus.FieldLogger
}

// Start connects to RabbitMQ, declares both queues (durable) and consumes
// until ctx is cancelled.  It runs a reconnect loop with exponential
// backoff; processing errors are logged and the offending message is
// rejected so the server keeps operating.
func (c *Consumer) Start(ctx context.Context) error {
    backoff := time.Second
    for {
        if ctx.Err() != nil {
            return ctx.Err()
        }
        conn, err := amqp.Dial(c.URL)
        if err != nil {
            c.Log.WithError(err).Warnf("event-consumer: failed to dial broker; retrying in %s", backoff)
            if !sleepCtx(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = c.consumeLoop(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        c.Log.WithError(err).Warn("event-consumer: consume loop ended; reconnecting")
        if !sleepCtx(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.Log.WithError(err).Warn("event-consumer: set QoS failed")
    }

    deliveries := make(map[string]<-chan amqp.Delivery, 2)
    for _, name := range []string{ReservationCreatedQueue, BroadcastRequestedQueue} {
        if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
            return fmt.Errorf("queue declare %s: %w", name, err)
        }
        msgs, err := ch.Consume(name, "", false, false, false, false, nil)
        if err != nil {
            return fmt.Errorf("queue consume %s: %w", name, err)
        }
        deliveries[name] = msgs
    }

    reservations := deliveries[ReservationCreatedQueue]
    broadcasts := deliveries[BroadcastRequestedQueue]
    for {
        var (
            d  amqp.Delivery
            ok bool
        )
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok = <-reservations:
        case d, ok = <-broadcasts:
        }
        if !ok {
            return errors.New("deliveries channel closed")
        }
        if err := c.handle(d.RoutingKey, d.Body); err != nil {
            c.Log.WithError(err).WithField("queue", d.RoutingKey).Warn("event-consumer: handle message failed")
            _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
            continue
        }
        _ = d.Ack(false)
    }
}

func (c *Consumer) handle(queueName string, body []byte) error {
    var (
        file string
        line string
    )
    switch queueName {
    case ReservationCreatedQueue:
        var ev ReservationCreatedEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return fmt.Errorf("unmarshal: %w", err)
        }
        file = "reservations.log"
        line = FormatReservation(ev)
    case BroadcastRequestedQueue:
        var ev BroadcastRequestedEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return fmt.Errorf("unmarshal: %w", err)
        }
        file = "broadcasts.log"
        line = FormatBroadcast(ev)
    default:
        return fmt.Errorf("unexpected routing key %q", queueName)
    }
    return appendLine(c.LogDir, file, line)
}

// FormatReservation renders a reservation event as a single audit line.
func FormatReservation(ev ReservationCreatedEvent) string {
    return fmt.Sprintf("[%s] Reservation created | reservation_id=%d | sender=%s | name=%q | kind=%s | party=%d | referral=%s\n",
        ev.CreatedAt, ev.ReservationID, ev.Sender, ev.FullName, ev.Kind, ev.PartySize, ev.Referral)
}

// FormatBroadcast renders a broadcast request as a single audit line.
func FormatBroadcast(ev BroadcastRequestedEvent) string {
    return fmt.Sprintf("[%s] Broadcast requested | by=%s | recipients=%d | message=%q\n",
        ev.RequestedAt, ev.RequestedBy, len(ev.Recipients), ev.Message)
}

func appendLine(dir, name, line string) error {
    if dir == "" {
        dir = "logs"
    }
    if err := os.MkdirAll(dir, 0o755); err != nil {
        return fmt.Errorf("mkdir %s: %w", dir, err)
    }
    f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()
    if _, err := f.WriteString(line); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

package rabbitmq

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// The api publisher and the background worker both declare the queue
// topology at startup. RabbitMQ rejects a redeclaration with different
// arguments, so the shape is defined once here and shared by both sides:
//
//	main queue  -> rejected deliveries dead-letter to the DLQ
//	retry queue -> parked deliveries expire back to the main queue
//	dlq         -> terminal, kept for inspection
const (
	retrySuffix = ".retry"
	dlqSuffix   = ".dlq"

	// RetryDelay parks a failed delivery before the retry queue routes it
	// back to the main queue for another attempt.
	RetryDelay = 15 * time.Second
)

func RetryQueue(queue string) string { return queue + retrySuffix }

func DeadLetterQueue(queue string) string { return queue + dlqSuffix }

type queueDeclarer interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
}

// DeclareTopology declares the three queues. Every caller gets identical
// arguments, so api and worker can start in either order.
func DeclareTopology(ch queueDeclarer, queue string) error {
	if _, err := ch.QueueDeclare(
		DeadLetterQueue(queue),
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		return err
	}

	if _, err := ch.QueueDeclare(
		RetryQueue(queue),
		true,
		false,
		false,
		false,
		amqp.Table{
			"x-message-ttl":             int32(RetryDelay / time.Millisecond),
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": queue,
		},
	); err != nil {
		return err
	}

	_, err := ch.QueueDeclare(
		queue,
		true,
		false,
		false,
		false,
		amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": DeadLetterQueue(queue),
		},
	)
	return err
}

const attemptHeader = "x-attempt"

// AttemptFrom reads the delivery attempt number from the headers. A first
// delivery carries no header and counts as attempt 1.
func AttemptFrom(headers amqp.Table) int {
	if headers == nil {
		return 1
	}
	switch n := headers[attemptHeader].(type) {
	case int32:
		return int(n)
	case int64:
		return int(n)
	}
	return 1
}

// PublishRetry parks a failed delivery on the retry queue; after RetryDelay
// it dead-letters back to the main queue carrying the incremented attempt.
func PublishRetry(ctx context.Context, ch *amqp.Channel, queue string, body []byte, attempt int) error {
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return ch.PublishWithContext(cctx,
		"",                // default exchange
		RetryQueue(queue), // routing key = queue
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Headers:      amqp.Table{attemptHeader: int32(attempt)},
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
}

// Publisher enqueues summarize jobs for the background worker. The worker
// runs in its own process and may be restarted by the host at any time; the
// queue is the only channel between the two domains.
type Publisher struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

type JobMessage struct {
	JobID string `json:"job_id"`
}

func NewPublisher(url, queue string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := DeclareTopology(ch, queue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	return &Publisher{conn: conn, ch: ch, queue: queue}, nil
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// PublishJob hands one job id to the background domain.
func (p *Publisher) PublishJob(ctx context.Context, jobID string) error {
	body, err := json.Marshal(JobMessage{JobID: jobID})
	if err != nil {
		return err
	}

	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(cctx,
		"",      // default exchange
		p.queue, // routing key = queue
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
}

// Package queue feeds export requests published on a RabbitMQ queue into
// the worker pool.
package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"videothingy/internal/db"
	"videothingy/internal/worker"
	"videothingy/models"
)

// Outcome is what happens to a delivery after it has been handled.
type Outcome int

const (
	// Ack removes the message from the queue.
	Ack Outcome = iota
	// Requeue hands the message back to the broker for redelivery.
	Requeue
	// Drop rejects the message without redelivery.
	Drop
)

func (o Outcome) String() string {
	switch o {
	case Ack:
		return "ack"
	case Requeue:
		return "requeue"
	default:
		return "drop"
	}
}

// RequeueDelay throttles redelivery while the worker queue is full.
const RequeueDelay = 2 * time.Second

// ExportSubmitter queues an export request.
type ExportSubmitter interface {
	SubmitExport(ctx context.Context, req models.ExportRequest) (*models.ExportAck, error)
}

// Consumer reads JSON encoded export requests from a queue.
type Consumer struct {
	url       string
	queue     string
	submitter ExportSubmitter
	log       logrus.FieldLogger

	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewConsumer creates a consumer for queue on the broker at url.
func NewConsumer(url, queue string, submitter ExportSubmitter, log logrus.FieldLogger) *Consumer {
	return &Consumer{url: url, queue: queue, submitter: submitter, log: log.WithField("queue", queue)}
}

// Run consumes until ctx is cancelled or the broker closes the channel.
func (c *Consumer) Run(ctx context.Context) error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return errors.Wrap(err, "failed to connect to RabbitMQ")
	}
	c.conn = conn
	defer c.Close()

	ch, err := conn.Channel()
	if err != nil {
		return errors.Wrap(err, "failed to open a channel")
	}
	c.ch = ch

	q, err := ch.QueueDeclare(
		c.queue, // name
		true,    // durable
		false,   // delete when unused
		false,   // exclusive
		false,   // no-wait
		nil,     // arguments
	)
	if err != nil {
		return errors.Wrap(err, "failed to declare a queue")
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return errors.Wrap(err, "failed to set QoS")
	}

	msgs, err := ch.Consume(
		q.Name, // queue
		"",     // consumer
		false,  // auto-ack
		false,  // exclusive
		false,  // no-local
		false,  // no-wait
		nil,    // args
	)
	if err != nil {
		return errors.Wrap(err, "failed to register a consumer")
	}

	c.log.Info("Waiting for export requests")
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}
			c.settle(ctx, d, c.Handle(ctx, d.Body))
		}
	}
}

func (c *Consumer) settle(ctx context.Context, d amqp.Delivery, outcome Outcome) {
	var err error
	switch outcome {
	case Ack:
		err = d.Ack(false)
	case Requeue:
		select {
		case <-ctx.Done():
		case <-time.After(RequeueDelay):
		}
		err = d.Nack(false, true)
	default:
		err = d.Nack(false, false)
	}
	if err != nil {
		c.log.WithError(err).WithField("outcome", outcome.String()).Error("Failed to settle delivery")
	}
}

// Handle decodes and submits one message body.
func (c *Consumer) Handle(ctx context.Context, body []byte) Outcome {
	var req models.ExportRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.log.WithError(err).Warn("Dropping undecodable export request")
		return Drop
	}

	log := c.log.WithField("project_id", req.ProjectID)
	ack, err := c.submitter.SubmitExport(ctx, req)
	var verrs validator.ValidationErrors
	switch {
	case err == nil:
		log.WithField("export_id", ack.ExportID).Info("Export request accepted")
		return Ack
	case errors.Is(err, worker.ErrQueueFull):
		log.Warn("Worker queue full, requeueing export request")
		return Requeue
	case errors.As(err, &verrs), errors.Is(err, db.ErrProjectNotFound):
		log.WithError(err).Warn("Dropping rejected export request")
		return Drop
	default:
		log.WithError(err).Error("Failed to submit export request")
		return Requeue
	}
}

// Close releases the channel and connection.
func (c *Consumer) Close() error {
	if c.ch != nil {
		c.ch.Close()
		c.ch = nil
	}
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

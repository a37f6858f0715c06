package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ResizeTask is the message consumed by the external image worker.
type ResizeTask struct {
	ImagePath string `json:"image_path"`
	NewWidth  int    `json:"new_width"`
	NewHeight int    `json:"new_height"`
}

// Publisher sends persistent JSON messages to one durable queue. The
// connection is opened on first use and reopened after the broker drops it.
type Publisher struct {
	url    string
	queue  string
	logger *slog.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewPublisher(url, queue string, logger *slog.Logger) *Publisher {
	return &Publisher{
		url:    url,
		queue:  queue,
		logger: logger.With(slog.String("component", "rabbitmq"), slog.String("queue", queue)),
	}
}

// PublishResize enqueues a resize task.
func (p *Publisher) PublishResize(ctx context.Context, task ResizeTask) error {
	body, err := encode(task)
	if err != nil {
		return err
	}
	if err := p.publish(ctx, body); err != nil {
		return err
	}
	p.logger.Info("resize task published",
		slog.String("image_path", task.ImagePath),
		slog.Int("new_width", task.NewWidth),
		slog.Int("new_height", task.NewHeight),
	)
	return nil
}

func (p *Publisher) publish(ctx context.Context, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureChannel(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		p.reset()
		return fmt.Errorf("publish to %s: %w", p.queue, err)
	}
	return nil
}

func (p *Publisher) ensureChannel() error {
	if p.conn != nil && !p.conn.IsClosed() && p.ch != nil && !p.ch.IsClosed() {
		return nil
	}
	p.reset()

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("declare queue %s: %w", p.queue, err)
	}

	p.conn, p.ch = conn, ch
	p.logger.Info("connected to rabbitmq")
	return nil
}

func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}

func encode(task ResizeTask) ([]byte, error) {
	if task.ImagePath == "" {
		return nil, fmt.Errorf("resize task without image path")
	}
	return json.Marshal(task)
}

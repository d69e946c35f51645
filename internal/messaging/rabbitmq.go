package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"commung/internal/domain"

	amqp "github.com/rabbitmq/amqp091-go"
)

const roomsExchange = "chat.rooms"

// RelayedMessage is the wire format for cross-instance room message
// fan-out. Origin identifies the publishing server instance so it can
// skip its own deliveries; it already broadcast locally.
type RelayedMessage struct {
	Origin    string    `json:"origin"`
	ID        string    `json:"id"`
	RoomID    string    `json:"room_id"`
	ProfileID string    `json:"profile_id"`
	Handle    string    `json:"handle"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// RabbitMQ relays room messages between server instances through a
// fanout exchange. Each instance binds its own auto-deleted queue.
type RabbitMQ struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	instanceID string
}

// NewRabbitMQ connects and declares the rooms exchange.
func NewRabbitMQ(url, instanceID string) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	rmq := &RabbitMQ{
		conn:       conn,
		channel:    ch,
		instanceID: instanceID,
	}

	if err := rmq.setup(); err != nil {
		rmq.Close()
		return nil, err
	}

	return rmq, nil
}

// NewRabbitMQWithRetry keeps dialing until the broker is reachable or
// the context expires. The broker often comes up after the API server
// in compose environments.
func NewRabbitMQWithRetry(ctx context.Context, url, instanceID string) (*RabbitMQ, error) {
	var lastErr error
	for {
		rmq, err := NewRabbitMQ(url, instanceID)
		if err == nil {
			return rmq, nil
		}
		lastErr = err

		slog.Warn("rabbitmq not ready, retrying", slog.String("error", err.Error()))

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("giving up connecting to RabbitMQ: %w", lastErr)
		case <-time.After(2 * time.Second):
		}
	}
}

func (r *RabbitMQ) setup() error {
	if err := r.channel.ExchangeDeclare(
		roomsExchange, // name
		"fanout",      // type
		true,          // durable
		false,         // auto-deleted
		false,         // internal
		false,         // no-wait
		nil,           // arguments
	); err != nil {
		return fmt.Errorf("failed to declare rooms exchange: %w", err)
	}

	slog.Info("rabbitmq setup completed successfully")
	return nil
}

// PublishRoomMessage relays a persisted room message to the other
// server instances.
func (r *RabbitMQ) PublishRoomMessage(ctx context.Context, msg *domain.RoomMessage) error {
	relayed := &RelayedMessage{
		Origin:    r.instanceID,
		ID:        msg.ID,
		RoomID:    msg.RoomID,
		ProfileID: msg.ProfileID,
		Handle:    msg.Handle,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}

	body, err := json.Marshal(relayed)
	if err != nil {
		return fmt.Errorf("failed to marshal relayed message: %w", err)
	}

	err = r.channel.PublishWithContext(
		ctx,
		roomsExchange,
		"",
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Transient,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish room message: %w", err)
	}

	return nil
}

func (r *RabbitMQ) IsClosed() bool {
	return r.conn == nil || r.conn.IsClosed()
}

func (r *RabbitMQ) Close() error {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

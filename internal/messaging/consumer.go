package messaging

import (
	"context"
	"encoding/json"
	"log/slog"

	"commung/internal/websocket"
)

// RelayConsumer feeds room messages published by other server
// instances into this instance's local hub.
type RelayConsumer struct {
	rmq *RabbitMQ
	hub *websocket.Hub
}

func NewRelayConsumer(rmq *RabbitMQ, hub *websocket.Hub) *RelayConsumer {
	return &RelayConsumer{
		rmq: rmq,
		hub: hub,
	}
}

func (c *RelayConsumer) Start(ctx context.Context) error {
	queue, err := c.rmq.channel.QueueDeclare(
		"",    // auto-generated name
		false, // durable
		true,  // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return err
	}

	if err := c.rmq.channel.QueueBind(
		queue.Name,    // queue name
		"",            // routing key
		roomsExchange, // exchange
		false,
		nil,
	); err != nil {
		return err
	}

	msgs, err := c.rmq.channel.Consume(
		queue.Name, // queue
		"",         // consumer
		true,       // auto-ack
		false,      // exclusive
		false,      // no-local
		false,      // no-wait
		nil,        // args
	)
	if err != nil {
		return err
	}

	slog.Info("started consuming relayed room messages",
		slog.String("queue", queue.Name),
		slog.String("exchange", roomsExchange))

	go func() {
		for {
			select {
			case <-ctx.Done():
				slog.Info("stopping relay consumer")
				return
			case msg, ok := <-msgs:
				if !ok {
					slog.Warn("relay consumer channel closed")
					return
				}

				var relayed RelayedMessage
				if err := json.Unmarshal(msg.Body, &relayed); err != nil {
					slog.Error("error unmarshaling relayed message",
						slog.String("error", err.Error()),
						slog.String("body", string(msg.Body)))
					continue
				}

				// Our own instance already broadcast this locally
				if relayed.Origin == c.rmq.instanceID {
					continue
				}

				serverMsg := websocket.ServerMessage{
					Type:      "chat_message",
					ID:        relayed.ID,
					ProfileID: relayed.ProfileID,
					Handle:    relayed.Handle,
					Content:   relayed.Content,
					CreatedAt: &relayed.CreatedAt,
				}

				data, err := json.Marshal(serverMsg)
				if err != nil {
					slog.Error("failed to marshal relayed message",
						slog.String("error", err.Error()),
						slog.String("message_id", relayed.ID))
					continue
				}

				c.hub.Broadcast(relayed.RoomID, data)
			}
		}
	}()

	return nil
}

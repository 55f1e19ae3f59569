// Package events publishes order lifecycle events to redis pub/sub and,
// when brokers are configured, to a kafka topic.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"servora-system/internal/database/models"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventOrderPaid          = "order.paid"

	ChannelPrefix = "orders:events:"
	ChannelAll    = "orders:events:all"
)

type OrderEvent struct {
	ID             string             `json:"id"`
	EventType      string             `json:"event_type"`
	RestaurantID   int64              `json:"restaurant_id"`
	OrderID        int64              `json:"order_id"`
	OrderNumber    string             `json:"order_number"`
	Status         models.OrderStatus `json:"status"`
	PreviousStatus models.OrderStatus `json:"previous_status,omitempty"`
	TotalAmount    string             `json:"total_amount"`
	Timestamp      time.Time          `json:"timestamp"`
	Order          *models.Order      `json:"order,omitempty"`
}

// NewOrderEvent fills the event from order, stamping a fresh id.
func NewOrderEvent(eventType string, order *models.Order, previous models.OrderStatus) OrderEvent {
	return OrderEvent{
		ID:             uuid.NewString(),
		EventType:      eventType,
		RestaurantID:   order.RestaurantID,
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber(),
		Status:         order.Status,
		PreviousStatus: previous,
		TotalAmount:    order.TotalAmount.StringFixed(2),
		Timestamp:      time.Now().UTC(),
		Order:          order,
	}
}

type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
}

type Nop struct{}

func (Nop) Publish(context.Context, OrderEvent) error { return nil }

// RedisPublisher sends each event to its type channel and to the catch-all channel.
type RedisPublisher struct {
	redis *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{redis: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, event OrderEvent) error {
	if p.redis == nil {
		return nil
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	channel := ChannelPrefix + event.EventType
	if err := p.redis.Publish(ctx, channel, eventJSON).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	if err := p.redis.Publish(ctx, ChannelAll, eventJSON).Err(); err != nil {
		return fmt.Errorf("failed to publish to all channel: %w", err)
	}

	return nil
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher keys messages by restaurant so one tenant's events stay ordered.
type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event OrderEvent) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(event.RestaurantID, 10)),
		Value: eventJSON,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write kafka message: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Multi fans out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, event OrderEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

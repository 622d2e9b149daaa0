package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/ikkim/gadgetshop-backend/internal/app/model"
	"github.com/ikkim/gadgetshop-backend/pkg/logger"
	"github.com/segmentio/kafka-go"
)

const (
	EventOrderPlaced = "order.placed"
	writeTimeout     = 5 * time.Second
)

// OrderPlaced is the payload of an order.placed message.
type OrderPlaced struct {
	Type          string    `json:"type"`
	OrderID       uint      `json:"order_id"`
	CustomerID    uint      `json:"customer_id"`
	CartID        *uint     `json:"cart_id,omitempty"`
	Status        string    `json:"status"`
	BuyingType    string    `json:"buying_type"`
	TotalPrice    string    `json:"total_price"`
	RequestedDate string    `json:"requested_date"`
	PlacedAt      time.Time `json:"placed_at"`
}

// Producer publishes order events to one Kafka topic.
type Producer struct {
	writer *kafka.Writer
	topic  string
}

func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
		topic: topic,
	}
}

func (p *Producer) PublishOrderPlaced(ctx context.Context, order *model.Order) error {
	msg, err := orderPlacedMessage(order)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		logger.Error("Failed to publish order event", err, map[string]interface{}{
			"topic":    p.topic,
			"order_id": order.ID,
		})
		return fmt.Errorf("kafka: write %s: %w", EventOrderPlaced, err)
	}

	logger.Debug("Order event published", map[string]interface{}{
		"topic":    p.topic,
		"order_id": order.ID,
	})
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// orderPlacedMessage keys the message by customer so one customer's events
// stay on one partition.
func orderPlacedMessage(order *model.Order) (kafka.Message, error) {
	event := OrderPlaced{
		Type:          EventOrderPlaced,
		OrderID:       order.ID,
		CustomerID:    order.CustomerID,
		CartID:        order.CartID,
		Status:        string(order.Status),
		BuyingType:    string(order.BuyingType),
		TotalPrice:    order.TotalPrice.StringFixed(2),
		RequestedDate: order.RequestedDate.Format("2006-01-02"),
		PlacedAt:      order.CreatedAt,
	}

	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("kafka: json.Marshal failed: %w", err)
	}

	return kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(order.CustomerID), 10)),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventOrderPlaced)},
		},
	}, nil
}

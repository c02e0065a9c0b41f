package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
)

type HandlerFunc func(ctx context.Context, body []byte) error

func (c *Client) ConsumeWithRetry(queue string, handler HandlerFunc, maxRetries int, retryDelay time.Duration) error {
	msgs, err := c.ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	for msg := range msgs {
		ctx := context.Background()
		err := handler(ctx, msg.Body)
		if err == nil {
			_ = msg.Ack(false)
			continue
		}

		retryCount := getRetryCount(msg.Headers)
		if retryCount >= maxRetries {
			_ = msg.Nack(false, false)
			continue
		}

		retryCount++
		headers := msg.Headers
		if headers == nil {
			headers = amqp.Table{}
		}
		headers["x-retry-count"] = retryCount

		time.Sleep(retryDelay)
		_ = c.ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
			ContentType: msg.ContentType,
			Body:        msg.Body,
			Headers:     headers,
			Timestamp:   time.Now(),
		})
		_ = msg.Ack(false)
	}

	return errors.New("consumer closed")
}

func getRetryCount(headers amqp.Table) int {
	if headers == nil {
		return 0
	}
	if v, ok := headers["x-retry-count"]; ok {
		switch t := v.(type) {
		case int32:
			return int(t)
		case int64:
			return int(t)
		case int:
			return t
		}
	}
	return 0
}

type orderEvent struct {
	Type      string `json:"type"`
	OrderID   *int64 `json:"orderId"`
	OrderCode string `json:"orderCode"`
}

// RecordOrderEvent appends a published order event to the order_events audit
// table, kept for out-of-band inspection of order activity.
func RecordOrderEvent(ctx context.Context, pool *pgxpool.Pool, body []byte) error {
	var event orderEvent
	if err := json.Unmarshal(body, &event); err != nil {
		// Malformed payloads are dropped, not retried.
		return nil
	}
	if event.Type == "" {
		return nil
	}

	_, err := pool.Exec(ctx, `
		insert into order_events (event_type, order_id, order_code, payload, created_at)
		values ($1, $2, $3, $4, now())
	`, event.Type, event.OrderID, nullIfEmpty(event.OrderCode), body)
	return err
}

func nullIfEmpty(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

// Package worker delivers order notifications to the shop's admins over
// RabbitMQ, decoupled from the checkout path.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/cloudsupply/storebot/internal/model"
	"github.com/cloudsupply/storebot/internal/repository"
	"github.com/cloudsupply/storebot/internal/telegram"
)

const (
	orderQueueName = "orders.placed"
	dlxExchange    = "orders.dlx"
	dlqQueueName   = "orders.dlq"
	idempotencyTTL = 24 * time.Hour
)

// SetupRabbitMQ declares the order queue with its dead-letter wiring.
func SetupRabbitMQ(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(dlxExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(dlqQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}
	if err := ch.QueueBind(dlqQueueName, orderQueueName, dlxExchange, false, nil); err != nil {
		return fmt.Errorf("bind DLQ: %w", err)
	}
	if _, err := ch.QueueDeclare(orderQueueName, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    dlxExchange,
		"x-dead-letter-routing-key": orderQueueName,
	}); err != nil {
		return fmt.Errorf("declare order queue: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}
	return nil
}

// Publisher pushes order-placed events onto the queue.
type Publisher struct {
	channel *amqp.Channel
}

func NewPublisher(ch *amqp.Channel) *Publisher {
	return &Publisher{channel: ch}
}

func (p *Publisher) PublishOrderPlaced(ctx context.Context, msg model.OrderPlaced) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal order placed: %w", err)
	}
	err = p.channel.PublishWithContext(ctx, "", orderQueueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish order placed: %w", err)
	}
	return nil
}

// Notifier consumes order-placed events and messages each admin chat.
// Redis keys make the delivery idempotent across restarts and redeliveries.
type Notifier struct {
	channel      *amqp.Channel
	tg           *telegram.Client
	orderRepo    repository.OrderRepository
	userRepo     repository.UserRepository
	redisClient  *redis.Client
	adminHandles []string
	log          *slog.Logger
	done         chan struct{}
}

func NewNotifier(
	ch *amqp.Channel,
	tg *telegram.Client,
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	redisClient *redis.Client,
	adminHandles []string,
	log *slog.Logger,
) *Notifier {
	return &Notifier{
		channel:      ch,
		tg:           tg,
		orderRepo:    orderRepo,
		userRepo:     userRepo,
		redisClient:  redisClient,
		adminHandles: adminHandles,
		log:          log,
		done:         make(chan struct{}),
	}
}

func (n *Notifier) Start(ctx context.Context) error {
	msgs, err := n.channel.Consume(orderQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				n.processMessage(ctx, msg)
			case <-n.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	n.log.Info("order notifier started")
	return nil
}

func (n *Notifier) Stop() { close(n.done) }

func (n *Notifier) processMessage(ctx context.Context, msg amqp.Delivery) {
	var placed model.OrderPlaced
	if err := json.Unmarshal(msg.Body, &placed); err != nil {
		n.log.Error("unmarshal order placed", "error", err)
		_ = msg.Nack(false, false)
		return
	}

	log := n.log.With("order_id", placed.OrderID, "user_id", placed.UserID)

	order, err := n.orderRepo.GetByID(ctx, placed.OrderID)
	if err != nil {
		log.Error("get order", "error", err)
		_ = msg.Nack(false, true)
		return
	}
	if order == nil {
		// Deleted before we got to it; nothing to announce.
		_ = msg.Ack(false)
		return
	}

	// Amendments re-use the order id, so the key carries the order's
	// last-modified time to let each amendment through once.
	key := fmt.Sprintf("order_notified:%s:%d", placed.OrderID, order.UpdatedAt.Unix())
	exists, err := n.redisClient.Exists(ctx, key).Result()
	if err != nil {
		log.Error("check idempotency key", "error", err)
		_ = msg.Nack(false, true)
		return
	}
	if exists > 0 {
		log.Info("notification already sent, skipping")
		_ = msg.Ack(false)
		return
	}

	if err := n.notify(ctx, placed, order); err != nil {
		log.Error("notify admins", "error", err)
		_ = msg.Nack(false, false)
		return
	}

	if err := n.redisClient.Set(ctx, key, "1", idempotencyTTL).Err(); err != nil {
		log.Error("set idempotency key", "error", err)
	}
	_ = msg.Ack(false)
	log.Info("admins notified")
}

func (n *Notifier) notify(ctx context.Context, placed model.OrderPlaced, order *model.Order) error {
	buyer, err := n.userRepo.GetByID(ctx, order.UserID)
	if err != nil {
		return fmt.Errorf("get buyer: %w", err)
	}

	var sb strings.Builder
	if placed.Amended {
		fmt.Fprintf(&sb, "🔔 Order #%s updated\n", order.ID.String()[:8])
	} else {
		fmt.Fprintf(&sb, "🔔 New order #%s\n", order.ID.String()[:8])
	}
	if buyer != nil {
		name := buyer.FirstName
		if buyer.Username != "" {
			name += " (@" + buyer.Username + ")"
		}
		fmt.Fprintf(&sb, "From: %s\n", name)
	}
	fmt.Fprintf(&sb, "Total: %s €\nItems: %d", order.TotalPrice.StringFixed(2), len(order.Items))
	if order.ContactInfo != "" {
		fmt.Fprintf(&sb, "\nContact: %s", order.ContactInfo)
	}
	text := sb.String()

	notified := 0
	for _, handle := range n.adminHandles {
		admin, err := n.userRepo.GetByUsername(ctx, handle)
		if err != nil {
			return fmt.Errorf("look up admin %s: %w", handle, err)
		}
		if admin == nil {
			// The admin has never talked to the bot; no chat to write to.
			continue
		}
		if _, err := n.tg.SendMessage(ctx, telegram.SendMessageParams{ChatID: admin.TelegramID, Text: text}); err != nil {
			return fmt.Errorf("send notification: %w", err)
		}
		notified++
	}
	if notified == 0 {
		n.log.Warn("no admin chats known, notification dropped", "order_id", placed.OrderID)
	}
	return nil
}

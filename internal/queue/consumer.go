package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// MailSink drains the mail and admin-notification queues and appends one
// line per message to <Dir>/mail.log.  It stands in for an SMTP relay.
type MailSink struct {
	URL string
	Dir string

	mu sync.Mutex // serialises writes to the log file
}

func NewMailSink(url, dir string) *MailSink {
	if dir == "" {
		dir = "logs"
	}
	return &MailSink{URL: url, Dir: dir}
}

// Run connects to the broker and consumes until ctx is cancelled.  Broken
// connections are re-dialled with exponential backoff capped at 30s.
func (s *MailSink) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(s.URL)
		if err != nil {
			log.Printf("mail-consumer: dial broker: %v; retrying in %s", err, backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = s.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("mail-consumer: consume loop ended: %v; reconnecting", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (s *MailSink) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(20, 0, false); err != nil {
		log.Printf("mail-consumer: set QoS failed: %v", err)
	}

	mail, err := declareAndConsume(ch, MailQueue)
	if err != nil {
		return err
	}
	admin, err := declareAndConsume(ch, AdminQueue)
	if err != nil {
		return err
	}

	for {
		var (
			d     amqp.Delivery
			ok    bool
			queue string
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok = <-mail:
			queue = MailQueue
		case d, ok = <-admin:
			queue = AdminQueue
		}
		if !ok {
			return errors.New("deliveries channel closed")
		}
		if err := s.handleMessage(queue, d.Body); err != nil {
			log.Printf("mail-consumer: %s: %v", queue, err)
			_ = d.Nack(false, false) // drop malformed messages instead of looping on them
			continue
		}
		_ = d.Ack(false)
	}
}

func declareAndConsume(ch *amqp.Channel, queue string) (<-chan amqp.Delivery, error) {
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("queue declare %s: %w", queue, err)
	}
	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("queue consume %s: %w", queue, err)
	}
	return msgs, nil
}

// handleMessage formats one event from queue as a log line and appends it.
func (s *MailSink) handleMessage(queue string, body []byte) error {
	var line string
	switch queue {
	case MailQueue:
		var ev ActivationEmailEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
		if ev.Email == "" || ev.ActivationURL == "" {
			return errors.New("activation event without recipient or link")
		}
		line = fmt.Sprintf("[%s] Activation email | to=%s | user_id=%d | link=%s | temporary_password=%s | expires=%s\n",
			ev.RequestedAt, ev.Email, ev.UserID, ev.ActivationURL, ev.TemporaryPassword, ev.ExpiresAt)
	case AdminQueue:
		var ev AdminNotificationEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
		line = fmt.Sprintf("[%s] Admin notification | id=%d | kind=%s | user_id=%d | email=%s | %s\n",
			ev.CreatedAt, ev.NotificationID, ev.Kind, ev.UserID, ev.Email, ev.Message)
	default:
		return fmt.Errorf("unknown queue %q", queue)
	}
	return s.appendLine(line)
}

func (s *MailSink) appendLine(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", s.Dir, err)
	}
	f, err := os.OpenFile(filepath.Join(s.Dir, "mail.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

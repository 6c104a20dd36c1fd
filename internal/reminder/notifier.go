package reminder

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// Notification is emitted when a reminder fires.
type Notification struct {
	EventID string    `json:"eventId"`
	UserID  string    `json:"userId"`
	Name    string    `json:"name"`
	Time    time.Time `json:"time"`
}

func (n Notification) String() string {
	return fmt.Sprintf("Reminder: Event %q is coming up at %s", n.Name, n.Time.Format(time.RFC1123Z))
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, n Notification) error {
	log.WithField("event", n.EventID).WithField("user", n.UserID).Info(n.String())
	return nil
}

type Publisher interface {
	Publish(body []byte) error
}

// QueueNotifier hands notifications over to a message queue for the sender.
type QueueNotifier struct {
	publisher Publisher
}

func NewQueueNotifier(p Publisher) *QueueNotifier {
	return &QueueNotifier{publisher: p}
}

func (q *QueueNotifier) Notify(_ context.Context, n Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	if err := q.publisher.Publish(data); err != nil {
		return fmt.Errorf("failed to publish notification for event %q: %w", n.EventID, err)
	}
	return nil
}

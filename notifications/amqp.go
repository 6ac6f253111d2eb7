package notifications

import (
	"context"
	"time"

	"randevu/types"

	jsoniter "github.com/json-iterator/go"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// AmqpNotifier publishes reminder events to a durable topic exchange. The
// routing key is the event name, so consumers can bind per event kind.
type AmqpNotifier struct {
	ch       *amqp.Channel
	exchange string
	logger   *zap.SugaredLogger
}

func NewAmqpNotifier(ch *amqp.Channel, exchange string, logger *zap.SugaredLogger) (*AmqpNotifier, error) {
	err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)

	if err != nil {
		return nil, err
	}

	return &AmqpNotifier{
		ch:       ch,
		exchange: exchange,
		logger:   logger,
	}, nil
}

func (n *AmqpNotifier) ReminderReady(ctx context.Context, r types.AppointmentReminder) error {
	return n.publish(ctx, EventReminderReady, r)
}

func (n *AmqpNotifier) ReminderEscalated(ctx context.Context, r types.AppointmentReminder) error {
	return n.publish(ctx, EventReminderEscalated, r)
}

func (n *AmqpNotifier) publish(ctx context.Context, event string, r types.AppointmentReminder) error {
	body, err := json.Marshal(ReminderEvent{
		Event:         event,
		ReminderID:    r.ID,
		WorkspaceID:   r.WorkspaceID,
		AppointmentID: r.AppointmentID,
		Channel:       r.Channel,
		ScheduledFor:  r.ScheduledFor,
		Payload:       r.Payload,
		OccurredAt:    time.Now(),
	})

	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = n.ch.PublishWithContext(
		ctx,
		n.exchange,
		event,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
		},
	)

	if err != nil {
		n.logger.Error("Failed to publish reminder event", zap.Error(err), zap.String("event", event), zap.String("reminder_id", r.ID))
		return err
	}

	return nil
}

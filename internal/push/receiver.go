package push

import (
	"context"
	"time"

	apperrors "chatpush/internal/errors"
	"chatpush/internal/metrics"
	"chatpush/internal/service"
	"chatpush/internal/tracing"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// Displayer shows notifications on behalf of a worker. ShowNotification
// returns once the notification is displayed.
type Displayer interface {
	ShowNotification(ctx context.Context, n *Notification) error
}

// Receiver handles push events for one worker profile
type Receiver struct {
	profile   Profile
	displayer Displayer
	logger    logrus.FieldLogger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// ReceiverOption customises a Receiver
type ReceiverOption func(*Receiver)

// WithClock overrides the arrival timestamp source
func WithClock(now func() time.Time) ReceiverOption {
	return func(r *Receiver) {
		r.now = now
	}
}

// WithMetrics sets the metrics sink
func WithMetrics(m *metrics.Metrics) ReceiverOption {
	return func(r *Receiver) {
		r.metrics = m
	}
}

func NewReceiver(profile Profile, displayer Displayer, logger logrus.FieldLogger, opts ...ReceiverOption) *Receiver {
	r := &Receiver{
		profile:   profile,
		displayer: displayer,
		logger:    logger.WithField(service.LogFieldComponent, "push-"+profile.Name),
		metrics:   metrics.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Profile returns the worker profile this receiver applies
func (r *Receiver) Profile() Profile {
	return r.profile
}

// Receive handles one push event. An empty payload is logged and nothing is
// shown; the returned notification is nil in that case. Otherwise it blocks
// until the displayer has shown the notification.
func (r *Receiver) Receive(ctx context.Context, raw []byte) (*Notification, error) {
	ctx, span := tracing.StartSpan(ctx, "push.receive",
		attribute.String("push.profile", r.profile.Name),
		attribute.Int("push.payload_size", len(raw)),
	)
	defer span.End()

	if len(raw) == 0 {
		r.logger.Info("Push event received without payload")
		r.metrics.EmptyPush(r.profile.Name)
		return nil, nil
	}

	payload := ParsePayload(raw)
	if payload.PlainText {
		r.logger.Debug("Push payload is not JSON, showing it as text")
	}

	notification := r.profile.Build(payload, r.now())

	if err := r.displayer.ShowNotification(ctx, notification); err != nil {
		displayErr := apperrors.NewDisplayError(notification.Tag, err)
		tracing.RecordError(ctx, displayErr)
		return nil, displayErr
	}

	r.metrics.NotificationShown(r.profile.Name, payload.PlainText)
	r.logger.WithFields(logrus.Fields{
		service.LogFieldTag:            notification.Tag,
		service.LogFieldMessageType:    notification.Data.Type,
		service.LogFieldConversationID: notification.Data.ConversationID,
	}).Info("Notification displayed")

	return notification, nil
}

package push

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"chatpush/internal/constants"
	apperrors "chatpush/internal/errors"
	"chatpush/internal/metrics"
	"chatpush/internal/service"
	"chatpush/internal/tracing"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// ClickMessageType is the type of the message posted to a focused window
const ClickMessageType = "NOTIFICATION_CLICK"

// ClientType filters client enumeration
type ClientType string

const (
	ClientTypeWindow ClientType = "window"
	ClientTypeAll    ClientType = "all"
)

// MatchOptions mirrors the options of a client enumeration
type MatchOptions struct {
	Type ClientType
	// IncludeUncontrolled also returns windows not controlled by the worker
	IncludeUncontrolled bool
}

// WindowClient is an open application window
type WindowClient interface {
	ID() string
	URL() string
	Focus(ctx context.Context) error
	PostMessage(ctx context.Context, msg interface{}) error
}

// Clients enumerates and opens application windows
type Clients interface {
	MatchAll(ctx context.Context, opts MatchOptions) ([]WindowClient, error)
	OpenWindow(ctx context.Context, target string) (WindowClient, error)
}

// NotificationCloser closes a displayed notification
type NotificationCloser interface {
	CloseNotification(ctx context.Context, tag string) error
}

// ClickMessage is posted to the focused window
type ClickMessage struct {
	Type string `json:"type"`
	Data Data   `json:"data"`
}

// ClickEvent is a user interaction with a displayed notification
type ClickEvent struct {
	Notification *Notification
	// Action is the chosen action button, empty for a click on the body
	Action string
}

// ClickOutcome reports which branch the router took
type ClickOutcome string

const (
	OutcomeDismissed ClickOutcome = "dismissed"
	OutcomeFocused   ClickOutcome = "focused"
	OutcomeOpened    ClickOutcome = "opened"
)

// Router routes notification clicks back into application windows
type Router struct {
	origin  *url.URL
	clients Clients
	closer  NotificationCloser
	logger  logrus.FieldLogger
	metrics *metrics.Metrics
}

// NewRouter creates a router for windows on appOrigin (scheme://host[:port])
func NewRouter(appOrigin string, clients Clients, closer NotificationCloser, logger logrus.FieldLogger) (*Router, error) {
	origin, err := url.Parse(appOrigin)
	if err != nil || origin.Scheme == "" || origin.Host == "" {
		return nil, apperrors.NewConfigError("push.appOrigin", fmt.Sprintf("invalid app origin %q", appOrigin))
	}

	return &Router{
		origin:  origin,
		clients: clients,
		closer:  closer,
		logger:  logger.WithField(service.LogFieldComponent, "click-router"),
		metrics: metrics.Default(),
	}, nil
}

// WithMetrics sets the metrics sink and returns the router
func (r *Router) WithMetrics(m *metrics.Metrics) *Router {
	r.metrics = m
	return r
}

// HandleClick closes the notification, then focuses the first same-origin
// window and posts it the click data, or opens a new window when none is
// open. The close action stops after closing.
func (r *Router) HandleClick(ctx context.Context, ev ClickEvent) (ClickOutcome, error) {
	if ev.Notification == nil {
		return "", apperrors.NewValidationError("notification", "click event has no notification")
	}

	ctx, span := tracing.StartSpan(ctx, "push.click",
		attribute.String("notification.tag", ev.Notification.Tag),
		attribute.String("notification.action", ev.Action),
	)
	defer span.End()

	if err := r.closer.CloseNotification(ctx, ev.Notification.Tag); err != nil {
		return "", apperrors.NewWindowError("close_notification", err)
	}

	logger := r.logger.WithFields(logrus.Fields{
		service.LogFieldTag:    ev.Notification.Tag,
		service.LogFieldAction: ev.Action,
	})

	if ev.Action == constants.NotificationActionClose {
		r.metrics.NotificationClick(string(OutcomeDismissed))
		logger.Debug("Notification dismissed")
		return OutcomeDismissed, nil
	}

	windows, err := r.clients.MatchAll(ctx, MatchOptions{Type: ClientTypeWindow, IncludeUncontrolled: true})
	if err != nil {
		return "", apperrors.NewWindowError("match_all", err)
	}

	for _, w := range windows {
		if !r.sameOrigin(w.URL()) {
			continue
		}

		if err := w.Focus(ctx); err != nil {
			return "", apperrors.NewWindowError("focus", err)
		}
		if err := w.PostMessage(ctx, ClickMessage{Type: ClickMessageType, Data: ev.Notification.Data}); err != nil {
			return "", apperrors.NewWindowError("post_message", err)
		}

		r.metrics.NotificationClick(string(OutcomeFocused))
		logger.WithField(service.LogFieldClientID, w.ID()).Info("Focused existing window for notification click")
		return OutcomeFocused, nil
	}

	target := ev.Notification.Data.URL
	if target == "" {
		target = constants.DefaultNotificationURL
	}
	if _, err := r.clients.OpenWindow(ctx, target); err != nil {
		return "", apperrors.NewWindowError("open", err)
	}

	r.metrics.NotificationClick(string(OutcomeOpened))
	logger.WithField(service.LogFieldURL, target).Info("Opened new window for notification click")
	return OutcomeOpened, nil
}

func (r *Router) sameOrigin(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Scheme, r.origin.Scheme) && strings.EqualFold(u.Host, r.origin.Host)
}

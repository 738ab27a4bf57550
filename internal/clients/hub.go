package clients

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"chatpush/internal/constants"
	apperrors "chatpush/internal/errors"
	"chatpush/internal/metrics"
	"chatpush/internal/privacy"
	"chatpush/internal/push"
	"chatpush/internal/service"
	"chatpush/internal/validation"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrNoLauncher is returned by OpenWindow when no shell is connected
var ErrNoLauncher = errors.New("no shell connected to open a window")

// ClickHandler acts on a click reported by a window
type ClickHandler interface {
	HandleClick(ctx context.Context, ev push.ClickEvent) (push.ClickOutcome, error)
}

// Hub tracks connected windows and the notifications currently shown.
// It is the platform the push receiver and the click router run against.
type Hub struct {
	logger       logrus.FieldLogger
	metrics      *metrics.Metrics
	originHosts  []string
	writeTimeout time.Duration

	mu     sync.RWMutex
	conns  []*Conn
	active map[string]*push.Notification
	clicks ClickHandler
}

var (
	_ push.Displayer          = (*Hub)(nil)
	_ push.Clients            = (*Hub)(nil)
	_ push.NotificationCloser = (*Hub)(nil)
)

// NewHub creates an empty hub. originHosts lists the hosts allowed to
// connect in addition to same-host requests.
func NewHub(logger logrus.FieldLogger, originHosts ...string) *Hub {
	return &Hub{
		logger:       logger.WithField(service.LogFieldComponent, "window-hub"),
		metrics:      metrics.Default(),
		originHosts:  originHosts,
		writeTimeout: defaultWriteTimeout(),
		active:       make(map[string]*push.Notification),
	}
}

// WithMetrics sets the metrics sink and returns the hub
func (h *Hub) WithMetrics(m *metrics.Metrics) *Hub {
	h.metrics = m
	return h
}

// SetClickHandler sets where reported clicks are routed
func (h *Hub) SetClickHandler(handler ClickHandler) {
	h.mu.Lock()
	h.clicks = handler
	h.mu.Unlock()
}

// ServeHTTP upgrades the request and serves the connection until it closes.
// Query parameters: url (the window's current URL), role (window or shell),
// controlled (false for windows not controlled by the worker).
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	role := Role(q.Get("role"))
	if role == "" {
		role = RoleWindow
	}
	if role != RoleWindow && role != RoleShell {
		http.Error(w, "invalid role", http.StatusBadRequest)
		return
	}

	windowURL := q.Get("url")
	if role == RoleWindow {
		if err := validation.ValidateWindowURL(windowURL); err != nil {
			http.Error(w, apperrors.GetUserMessage(err), http.StatusBadRequest)
			return
		}
	}

	controlled := true
	if v := q.Get("controlled"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			http.Error(w, "invalid controlled flag", http.StatusBadRequest)
			return
		}
		controlled = parsed
	}

	// the server's read and write timeouts must not apply to a long-lived connection
	rc := http.NewResponseController(w)
	_ = rc.SetReadDeadline(time.Time{})
	_ = rc.SetWriteDeadline(time.Time{})

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.originHosts})
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	ws.SetReadLimit(constants.DefaultWebsocketReadLimitBytes)

	c := &Conn{
		id:         uuid.NewString(),
		role:       role,
		controlled: controlled,
		hub:        h,
		out:        &wsSender{conn: ws, writeTimeout: h.writeTimeout},
		url:        windowURL,
	}
	h.register(c)
	defer h.unregister(c)

	h.readLoop(r.Context(), ws, c)
}

func (h *Hub) readLoop(ctx context.Context, ws *websocket.Conn, c *Conn) {
	for {
		var msg Inbound
		if err := wsjson.Read(ctx, ws, &msg); err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && ctx.Err() == nil {
				h.logger.WithError(err).WithField(service.LogFieldClientID, c.id).Debug("Websocket read ended")
			}
			return
		}
		h.HandleInbound(ctx, c, msg)
	}
}

func (h *Hub) register(c *Conn) {
	h.mu.Lock()
	h.conns = append(h.conns, c)
	h.mu.Unlock()

	h.metrics.ConnectionOpened(string(c.role))
	h.logger.WithFields(logrus.Fields{
		service.LogFieldClientID: c.id,
		service.LogFieldRole:     c.role,
		service.LogFieldURL:      privacy.MaskWindowURL(c.URL()),
	}).Info("Client connected")
}

func (h *Hub) unregister(c *Conn) {
	h.mu.Lock()
	for i, existing := range h.conns {
		if existing == c {
			h.conns = append(h.conns[:i], h.conns[i+1:]...)
			break
		}
	}
	h.mu.Unlock()

	h.metrics.ConnectionClosed(string(c.role))
	h.logger.WithField(service.LogFieldClientID, c.id).Info("Client disconnected")
}

// HandleInbound dispatches one message received from c
func (h *Hub) HandleInbound(ctx context.Context, c *Conn, msg Inbound) {
	h.metrics.HubMessage("in", msg.Type)
	logger := h.logger.WithFields(logrus.Fields{
		service.LogFieldClientID:    c.id,
		service.LogFieldMessageType: msg.Type,
	})

	switch msg.Type {
	case TypeNotificationClicked:
		n := h.Notification(msg.Tag)
		if n == nil {
			logger.WithField(service.LogFieldTag, msg.Tag).Warn("Click for unknown notification")
			return
		}

		h.mu.RLock()
		clicks := h.clicks
		h.mu.RUnlock()
		if clicks == nil {
			logger.Warn("No click handler registered")
			return
		}

		if _, err := clicks.HandleClick(ctx, push.ClickEvent{Notification: n, Action: msg.Action}); err != nil {
			apperrors.LogError(logger, err, "Notification click failed")
		}

	case TypeNotificationClosed:
		if err := h.CloseNotification(ctx, msg.Tag); err != nil {
			apperrors.LogError(logger, err, "Failed to propagate notification close")
		}

	case TypeNavigated:
		if err := validation.ValidateWindowURL(msg.URL); err != nil {
			logger.WithError(err).Debug("Ignoring invalid navigation URL")
			return
		}
		c.setURL(msg.URL)

	default:
		logger.Debug("Ignoring unknown message type")
	}
}

// ShowNotification records n as displayed, replacing any notification with
// the same tag, and sends it to every connection. It fails only when
// connections exist and none received it.
func (h *Hub) ShowNotification(ctx context.Context, n *push.Notification) error {
	h.mu.Lock()
	h.active[n.Tag] = n
	targets := append([]*Conn(nil), h.conns...)
	h.mu.Unlock()

	return h.broadcast(ctx, targets, Outbound{Type: TypeShowNotification, Notification: n})
}

// CloseNotification removes the notification with tag and tells every
// connection to close it
func (h *Hub) CloseNotification(ctx context.Context, tag string) error {
	h.mu.Lock()
	delete(h.active, tag)
	targets := append([]*Conn(nil), h.conns...)
	h.mu.Unlock()

	return h.broadcast(ctx, targets, Outbound{Type: TypeCloseNotification, Tag: tag})
}

func (h *Hub) broadcast(ctx context.Context, targets []*Conn, msg Outbound) error {
	if len(targets) == 0 {
		return nil
	}

	var failed int
	var lastErr error
	for _, c := range targets {
		if err := c.write(ctx, msg); err != nil {
			failed++
			lastErr = err
			h.logger.WithError(err).WithField(service.LogFieldClientID, c.id).Debug("Send to client failed")
		}
	}

	if failed == len(targets) {
		return fmt.Errorf("%s not delivered to any of %d clients: %w", msg.Type, failed, lastErr)
	}
	return nil
}

// Notification returns the displayed notification with tag, or nil
func (h *Hub) Notification(tag string) *push.Notification {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.active[tag]
}

// ActiveCount returns how many notifications are displayed
func (h *Hub) ActiveCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.active)
}

// ConnectionCount returns how many clients are connected
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// MatchAll lists connections in the order they connected
func (h *Hub) MatchAll(ctx context.Context, opts push.MatchOptions) ([]push.WindowClient, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]push.WindowClient, 0, len(h.conns))
	for _, c := range h.conns {
		if opts.Type != push.ClientTypeAll && c.role != RoleWindow {
			continue
		}
		if !opts.IncludeUncontrolled && !c.controlled {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// OpenWindow asks the first connected shell to open target. The new window
// registers itself when it connects, so no client is returned.
func (h *Hub) OpenWindow(ctx context.Context, target string) (push.WindowClient, error) {
	h.mu.RLock()
	var shell *Conn
	for _, c := range h.conns {
		if c.role == RoleShell {
			shell = c
			break
		}
	}
	h.mu.RUnlock()

	if shell == nil {
		return nil, ErrNoLauncher
	}
	if err := shell.write(ctx, Outbound{Type: TypeOpenWindow, URL: target}); err != nil {
		return nil, err
	}
	return nil, nil
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.RLock()
	targets := append([]*Conn(nil), h.conns...)
	h.mu.RUnlock()

	for _, c := range targets {
		_ = c.out.close("server shutting down")
	}
}

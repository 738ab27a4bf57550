package clients

import "chatpush/internal/push"

// Messages sent to connected windows and shells
const (
	TypeShowNotification  = "SHOW_NOTIFICATION"
	TypeCloseNotification = "CLOSE_NOTIFICATION"
	TypeFocus             = "FOCUS"
	TypeOpenWindow        = "OPEN_WINDOW"
)

// Messages received from connected windows and shells
const (
	TypeNotificationClicked = "NOTIFICATION_CLICKED"
	TypeNotificationClosed  = "NOTIFICATION_CLOSED"
	TypeNavigated           = "NAVIGATED"
)

// Outbound is a hub-to-client message
type Outbound struct {
	Type         string             `json:"type"`
	Notification *push.Notification `json:"notification,omitempty"`
	Tag          string             `json:"tag,omitempty"`
	URL          string             `json:"url,omitempty"`
}

// Inbound is a client-to-hub message
type Inbound struct {
	Type   string `json:"type"`
	Tag    string `json:"tag,omitempty"`
	Action string `json:"action,omitempty"`
	URL    string `json:"url,omitempty"`
}

// messageType names a message for logs and metrics
func messageType(v interface{}) string {
	switch m := v.(type) {
	case Outbound:
		return m.Type
	case push.ClickMessage:
		return m.Type
	case Inbound:
		return m.Type
	default:
		return "custom"
	}
}

package push

import (
	"encoding/json"
	"strconv"
	"time"

	"chatpush/internal/constants"
)

// Payload is the decoded body of a push event. Every field is optional.
type Payload struct {
	Title          string `json:"title,omitempty"`
	Body           string `json:"body,omitempty"`
	Icon           string `json:"icon,omitempty"`
	URL            string `json:"url,omitempty"`
	Type           string `json:"type,omitempty"`
	ConversationID string `json:"conversationId,omitempty"`
	Location       string `json:"location,omitempty"`
	Tag            string `json:"tag,omitempty"`

	// PlainText is set when the body was not JSON and was wrapped as text
	PlainText bool `json:"-"`
}

// Action is a button shown on a notification
type Action struct {
	Action string `json:"action"`
	Title  string `json:"title"`
}

// Data travels with a displayed notification and is handed back on click
type Data struct {
	URL            string `json:"url"`
	Type           string `json:"type"`
	ConversationID string `json:"conversationId"`
	Location       string `json:"location"`
	Timestamp      int64  `json:"timestamp"`
}

// Notification is what the worker asks the platform to display
type Notification struct {
	Title              string   `json:"title"`
	Body               string   `json:"body"`
	Icon               string   `json:"icon"`
	Badge              string   `json:"badge"`
	Tag                string   `json:"tag"`
	Renotify           bool     `json:"renotify"`
	RequireInteraction bool     `json:"requireInteraction"`
	Vibrate            []int    `json:"vibrate"`
	Actions            []Action `json:"actions"`
	Data               Data     `json:"data"`
}

// ParsePayload decodes a push body. It never fails: a body that is not valid
// JSON becomes a plain-text payload whose body is the raw text. Valid JSON
// other than an object carries no fields, so every default applies.
func ParsePayload(raw []byte) Payload {
	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Payload{
			Title:     constants.DefaultNotificationTitle,
			Icon:      constants.DefaultNotificationIcon,
			Body:      string(raw),
			PlainText: true,
		}
	}

	fields, ok := decoded.(map[string]interface{})
	if !ok {
		return Payload{}
	}

	return Payload{
		Title:          stringField(fields, "title"),
		Body:           stringField(fields, "body"),
		Icon:           stringField(fields, "icon"),
		URL:            stringField(fields, "url"),
		Type:           stringField(fields, "type"),
		ConversationID: stringField(fields, "conversationId"),
		Location:       stringField(fields, "location"),
		Tag:            stringField(fields, "tag"),
	}
}

// stringField reads a scalar field as a string; other kinds read as empty
func stringField(fields map[string]interface{}, key string) string {
	switch v := fields[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// Build derives the notification for payload under this profile.
// Empty fields take the literal defaults.
func (p Profile) Build(payload Payload, arrived time.Time) *Notification {
	icon := firstNonEmpty(payload.Icon, p.Icon, constants.DefaultNotificationIcon)

	return &Notification{
		Title:              firstNonEmpty(payload.Title, constants.DefaultNotificationTitle),
		Body:               firstNonEmpty(payload.Body, constants.DefaultNotificationBody),
		Icon:               icon,
		Badge:              firstNonEmpty(p.Icon, constants.DefaultNotificationIcon),
		Tag:                firstNonEmpty(payload.Tag, p.DefaultTag),
		Renotify:           true,
		RequireInteraction: p.RequireInteraction,
		Vibrate:            append([]int(nil), p.Vibrate...),
		Actions: []Action{
			{Action: constants.NotificationActionOpen, Title: "Open"},
			{Action: constants.NotificationActionClose, Title: "Close"},
		},
		Data: Data{
			URL:            firstNonEmpty(payload.URL, constants.DefaultNotificationURL),
			Type:           firstNonEmpty(payload.Type, constants.DefaultNotificationType),
			ConversationID: payload.ConversationID,
			Location:       payload.Location,
			Timestamp:      arrived.UnixMilli(),
		},
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

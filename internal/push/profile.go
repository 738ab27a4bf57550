package push

import (
	"chatpush/internal/constants"
)

// Profile captures the option differences between the two notification
// workers the application ships. Both are served side by side.
type Profile struct {
	Name               string
	DefaultTag         string
	Vibrate            []int
	RequireInteraction bool
	// Icon overrides the default icon and badge when set
	Icon string
}

const (
	ProfileStandard   = "standard"
	ProfilePersistent = "persistent"
)

// StandardProfile shows transient notifications
func StandardProfile() Profile {
	return Profile{
		Name:       ProfileStandard,
		DefaultTag: constants.StandardNotificationTag,
		Vibrate:    constants.StandardVibratePattern,
	}
}

// PersistentProfile shows notifications that stay until dismissed
func PersistentProfile() Profile {
	return Profile{
		Name:               ProfilePersistent,
		DefaultTag:         constants.PersistentNotificationTag,
		Vibrate:            constants.PersistentVibratePattern,
		RequireInteraction: true,
	}
}

// Profiles returns both worker profiles keyed by name
func Profiles(icon string) map[string]Profile {
	standard := StandardProfile()
	persistent := PersistentProfile()
	standard.Icon = icon
	persistent.Icon = icon
	return map[string]Profile{
		standard.Name:   standard,
		persistent.Name: persistent,
	}
}

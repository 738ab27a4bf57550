package constants

// Push notification defaults
const (
	DefaultNotificationTitle = "New Message"
	DefaultNotificationBody  = "You have a new message"
	DefaultNotificationIcon  = "/icons/icon-192x192.png"
	DefaultNotificationURL   = "/"
	DefaultNotificationType  = "message"

	StandardNotificationTag   = "chat-message"
	PersistentNotificationTag = "chat-notification"

	NotificationActionOpen  = "open"
	NotificationActionClose = "close"
)

// Vibration patterns in milliseconds, alternating vibrate/pause
var (
	StandardVibratePattern   = []int{200, 100, 200}
	PersistentVibratePattern = []int{300, 100, 300, 100, 300}
)

// Admin purge defaults
const (
	DefaultPurgeSinceMinutes = 180
	DefaultPurgeLocation     = "lobby"
	AdminSecretHeader        = "x-admin-secret"
	AdminResponseVersion     = 2
	MaxDeleteBatchSize       = 1000
	MaxAdminRequestBodyBytes = 1 << 20

	// MaxPurgeSinceMinutes is the longest window a time.Duration can hold
	MaxPurgeSinceMinutes = 153722867
)

// Request body limits for the push and assistant endpoints
const (
	MaxPushPayloadBytes      = 64 * 1024
	MaxAssistantRequestBytes = 16 * 1024
)

// DefaultPurgeUserIDs is the fixed pair of accounts whose recent messages the purge removes
var DefaultPurgeUserIDs = []string{
	"00000000-0000-0000-0000-0000000000a1",
	"00000000-0000-0000-0000-0000000000a2",
}

// Default timeout values
const (
	DefaultDatabaseRetryAttempts = 3
	DefaultRetryBackoffMs        = 1000
	DefaultMaxBackoffMs          = 60000
	DefaultGracefulShutdownSec   = 30
	DefaultServerPort            = 8082
	DefaultServerReadTimeoutSec  = 15
	DefaultServerWriteTimeoutSec = 15
	DefaultServerIdleTimeoutSec  = 60
	DefaultConfigPollIntervalSec = 5
	ServerErrorChannelSize       = 1
)

// Window hub settings
const (
	DefaultWebsocketWriteTimeoutSec = 10
	DefaultWebsocketReadLimitBytes  = 64 * 1024
	MaxWindowURLLength              = 2048
)

// Assistant defaults
const (
	DefaultAssistantModel           = "gpt-4o-mini"
	DefaultAssistantTimeoutSec      = 30
	DefaultAssistantMaxFailures     = 5
	DefaultAssistantBreakerResetSec = 60
	MaxAssistantPromptLength        = 4000
)

// Privacy settings
const (
	DefaultIDMaskLength    = 4
	DefaultMessageIDLength = 8
	MaxMessageIDLength     = 256
)

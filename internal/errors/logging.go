package errors

import (
	"chatpush/internal/privacy"

	"github.com/sirupsen/logrus"
)

// Fields returns structured log fields describing err
func Fields(err error) logrus.Fields {
	fields := logrus.Fields{}
	appErr, ok := As(err)
	if !ok {
		return fields
	}

	fields["error_code"] = appErr.Code
	fields["retryable"] = appErr.Retryable
	for k, v := range privacy.MaskSensitiveFields(appErr.Context) {
		// Never log secrets carried in context
		if k == "secret" || k == "token" || k == "password" {
			continue
		}
		fields[k] = v
	}
	return fields
}

// LogError logs err at error level, or warn level when it is retryable
func LogError(logger logrus.FieldLogger, err error, message string) {
	entry := logger.WithError(err).WithFields(Fields(err))
	if IsRetryable(err) {
		entry.Warn(message)
		return
	}
	entry.Error(message)
}

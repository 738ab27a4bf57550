package middleware

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"chatpush/internal/constants"
	"chatpush/internal/httputil"
	"chatpush/internal/privacy"
	"chatpush/internal/service"
	"chatpush/internal/tracing"

	"github.com/sirupsen/logrus"
)

const maskedValue = "***MASKED***"

// DetailedLoggingConfig controls what gets logged
type DetailedLoggingConfig struct {
	LogRequestHeaders  bool
	LogRequestBody     bool
	LogResponseBody    bool
	MaxBodySize        int      // Maximum bytes to log
	SensitiveHeaders   []string // Headers to mask
	SensitiveBodyPaths []string // Endpoints whose bodies are never logged
	SkipEndpoints      []string // Endpoints to skip detailed logging
}

// DefaultDetailedLoggingConfig returns sensible defaults
func DefaultDetailedLoggingConfig() DetailedLoggingConfig {
	return DetailedLoggingConfig{
		LogRequestHeaders: true,
		LogRequestBody:    true,
		LogResponseBody:   false,
		MaxBodySize:       1024,
		SensitiveHeaders: []string{
			"authorization", "apikey", constants.AdminSecretHeader,
			"cookie", "set-cookie",
		},
		SensitiveBodyPaths: []string{"/assistant/reply"},
		SkipEndpoints:      []string{"/metrics", "/health", "/ws"},
	}
}

// DetailedLoggingMiddleware logs request and response details at debug level
func DetailedLoggingMiddleware(logger *logrus.Logger, config DetailedLoggingConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !logger.IsLevelEnabled(logrus.DebugLevel) || hasPrefix(r.URL.Path, config.SkipEndpoints) {
				next.ServeHTTP(w, r)
				return
			}

			requestInfo := tracing.GetRequestInfo(r.Context())
			logRequestDetails(logger, r, requestInfo, config)

			if !config.LogResponseBody {
				next.ServeHTTP(w, r)
				return
			}

			capture := &responseCaptureWrapper{
				ResponseWriter: w,
				body:           bytes.NewBuffer(nil),
				statusCode:     http.StatusOK,
			}
			next.ServeHTTP(capture, r)
			logResponseDetails(logger, r, capture, requestInfo, config)
		})
	}
}

func logRequestDetails(logger *logrus.Logger, r *http.Request, requestInfo *tracing.RequestInfo, config DetailedLoggingConfig) {
	fields := logrus.Fields{
		service.LogFieldRequestID: requestInfo.RequestID,
		service.LogFieldTraceID:   requestInfo.TraceID,
		service.LogFieldMethod:    r.Method,
		service.LogFieldURL:       privacy.MaskWindowURL(r.URL.String()),
		service.LogFieldRemoteIP:  httputil.GetClientIP(r),
		"content_length":          r.ContentLength,
		"protocol":                r.Proto,
	}

	if config.LogRequestHeaders {
		fields["request_headers"] = maskHeaders(r.Header, config.SensitiveHeaders)
	}

	if config.LogRequestBody && shouldLogBody(r) && !hasPrefix(r.URL.Path, config.SensitiveBodyPaths) {
		if r.ContentLength > 0 && r.ContentLength <= int64(config.MaxBodySize) {
			body, err := io.ReadAll(r.Body)
			if err == nil {
				// Restore body for the actual handler
				r.Body = io.NopCloser(bytes.NewReader(body))
				fields["request_body"] = string(body)
			}
		}
	}

	logger.WithFields(fields).Debug("Detailed request logging")
}

func logResponseDetails(logger *logrus.Logger, r *http.Request, capture *responseCaptureWrapper, requestInfo *tracing.RequestInfo, config DetailedLoggingConfig) {
	fields := logrus.Fields{
		service.LogFieldRequestID:  requestInfo.RequestID,
		service.LogFieldTraceID:    requestInfo.TraceID,
		service.LogFieldStatusCode: capture.statusCode,
		service.LogFieldSize:       capture.body.Len(),
	}

	if capture.body.Len() > 0 && !hasPrefix(r.URL.Path, config.SensitiveBodyPaths) {
		if capture.body.Len() <= config.MaxBodySize {
			fields["response_body"] = capture.body.String()
		} else {
			fields["response_body"] = fmt.Sprintf("***TRUNCATED*** (size: %d bytes)", capture.body.Len())
		}
	}

	logger.WithFields(fields).Debug("Detailed response logging")
}

// responseCaptureWrapper captures response data for logging
type responseCaptureWrapper struct {
	http.ResponseWriter
	body       *bytes.Buffer
	statusCode int
}

func (rc *responseCaptureWrapper) Write(data []byte) (int, error) {
	n, err := rc.ResponseWriter.Write(data)
	if err == nil {
		rc.body.Write(data[:n])
	}
	return n, err
}

func (rc *responseCaptureWrapper) WriteHeader(statusCode int) {
	rc.statusCode = statusCode
	rc.ResponseWriter.WriteHeader(statusCode)
}

func maskHeaders(header http.Header, sensitive []string) map[string]string {
	headers := make(map[string]string, len(header))
	for name, values := range header {
		if isSensitiveHeader(name, sensitive) {
			headers[name] = maskedValue
		} else {
			headers[name] = strings.Join(values, ", ")
		}
	}
	return headers
}

// isSensitiveHeader checks if a header should be masked
func isSensitiveHeader(headerName string, sensitiveHeaders []string) bool {
	for _, sensitive := range sensitiveHeaders {
		if strings.EqualFold(sensitive, headerName) {
			return true
		}
	}
	return false
}

// shouldLogBody determines if we should attempt to log the request body
func shouldLogBody(r *http.Request) bool {
	contentType := r.Header.Get("Content-Type")
	for _, textType := range []string{"application/json", "text/"} {
		if strings.Contains(contentType, textType) {
			return true
		}
	}
	return false
}

func hasPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

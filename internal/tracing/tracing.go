package tracing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type requestInfoKey struct{}

// RequestInfo identifies one HTTP request across logs and spans
type RequestInfo struct {
	RequestID string    `json:"request_id"`
	TraceID   string    `json:"trace_id"`
	StartTime time.Time `json:"start_time"`
}

// Fields returns the ids as log fields
func (i *RequestInfo) Fields() logrus.Fields {
	return logrus.Fields{
		"request_id": i.RequestID,
		"trace_id":   i.TraceID,
	}
}

// GenerateRequestID generates a unique request ID
func GenerateRequestID() string {
	return "req_" + uuid.NewString()
}

// StartRequest stores the request info in ctx. The trace ID is taken from
// the span in ctx and falls back to the request ID without one.
func StartRequest(ctx context.Context, requestID string, start time.Time) context.Context {
	traceID := GetOtelTraceID(ctx)
	if traceID == "" {
		traceID = requestID
	}
	return context.WithValue(ctx, requestInfoKey{}, RequestInfo{
		RequestID: requestID,
		TraceID:   traceID,
		StartTime: start,
	})
}

// GetRequestInfo returns the request info in ctx, zero valued outside a request
func GetRequestInfo(ctx context.Context) *RequestInfo {
	info, _ := ctx.Value(requestInfoKey{}).(RequestInfo)
	return &info
}

func GetRequestID(ctx context.Context) string {
	return GetRequestInfo(ctx).RequestID
}

func GetTraceID(ctx context.Context) string {
	return GetRequestInfo(ctx).TraceID
}

// Duration is the time elapsed since the request started
func Duration(ctx context.Context) time.Duration {
	start := GetRequestInfo(ctx).StartTime
	if start.IsZero() {
		return 0
	}
	return time.Since(start)
}

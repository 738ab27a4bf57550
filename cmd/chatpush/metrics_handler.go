package main

import (
	"net/http"

	"chatpush/internal/tracing"
)

// handleMetrics serves the Prometheus registry
func (s *Server) handleMetrics() http.HandlerFunc {
	promHandler := s.metrics.Handler()

	return func(w http.ResponseWriter, r *http.Request) {
		s.logger.WithFields(tracing.GetRequestInfo(r.Context()).Fields()).
			WithField("endpoint", "/metrics").
			Debug("Serving metrics endpoint")

		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		promHandler.ServeHTTP(w, r)
	}
}

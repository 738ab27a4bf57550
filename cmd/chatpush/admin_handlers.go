package main

import (
	"encoding/json"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"chatpush/internal/constants"
	apperrors "chatpush/internal/errors"
	"chatpush/internal/httputil"
	"chatpush/internal/service"
)

const messageIDsRequiredMessage = "messageIds must be a non-empty array"

// handleDeleteRecentMessages purges the configured users' recent messages.
// The admin secret is checked before the body is looked at.
func (s *Server) handleDeleteRecentMessages() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !verifyAdminSecret(r, s.cfg.Admin.Secret) {
			s.metrics.AdminAuthFailure()
			s.logger.WithField(service.LogFieldRemoteIP, httputil.GetClientIP(r)).Warn("Rejected purge request with invalid admin secret")
			s.writeError(w, r, apperrors.NewAuthError("invalid admin secret"))
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, constants.MaxAdminRequestBodyBytes))
		if err != nil {
			s.logger.WithError(err).Debug("Failed to read purge request body, using default window")
			body = nil
		}
		sinceMinutes := parseSinceMinutes(body)

		result, err := s.admin.PurgeRecent(r.Context(), sinceMinutes)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		s.writeJSON(w, http.StatusOK, result)
	}
}

// parseSinceMinutes reads sinceMinutes leniently. Anything that is not a
// positive number, or a string holding one, yields 0 so the policy default
// applies. Fractions are truncated and windows longer than
// MaxPurgeSinceMinutes are clamped to it.
func parseSinceMinutes(body []byte) int {
	var req struct {
		SinceMinutes interface{} `json:"sinceMinutes"`
	}
	if len(body) == 0 || json.Unmarshal(body, &req) != nil {
		return 0
	}

	var minutes float64
	switch v := req.SinceMinutes.(type) {
	case float64:
		minutes = v
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		minutes = parsed
	default:
		return 0
	}

	if math.IsNaN(minutes) || minutes < 1 {
		return 0
	}
	if minutes > constants.MaxPurgeSinceMinutes {
		return constants.MaxPurgeSinceMinutes
	}
	return int(minutes)
}

// handleDeleteMessages deletes the listed messages. It is unauthenticated.
func (s *Server) handleDeleteMessages() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids, err := decodeMessageIDs(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		result, err := s.admin.DeleteByIDs(r.Context(), ids)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		s.writeJSON(w, http.StatusOK, result)
	}
}

func decodeMessageIDs(r *http.Request) ([]string, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, constants.MaxAdminRequestBodyBytes))
	if err != nil {
		return nil, apperrors.NewValidationError("body", "failed to read request body")
	}

	var req struct {
		MessageIDs json.RawMessage `json:"messageIds"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, apperrors.NewValidationError("body", "invalid JSON body")
	}

	var ids []string
	if len(req.MessageIDs) == 0 || json.Unmarshal(req.MessageIDs, &ids) != nil || len(ids) == 0 {
		return nil, apperrors.NewValidationError("messageIds", messageIDsRequiredMessage)
	}
	return ids, nil
}

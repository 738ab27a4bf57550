package main

import (
	"errors"
	"io"
	"net/http"

	"chatpush/internal/constants"
	apperrors "chatpush/internal/errors"
	"chatpush/internal/service"
	"chatpush/internal/validation"

	"github.com/gorilla/mux"
)

// handlePush delivers a push event to the named worker profile and answers
// once the notification is displayed.
func (s *Server) handlePush() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile := mux.Vars(r)["profile"]
		receiver, ok := s.receivers[profile]
		if !ok {
			s.writeError(w, r, apperrors.NewNotFoundError("push profile", profile))
			return
		}

		if err := validation.ValidateHTTPRequestSize(r, constants.MaxPushPayloadBytes); err != nil {
			s.writeJSON(w, http.StatusRequestEntityTooLarge, apperrors.HTTPErrorResponse{Error: "push payload too large"})
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, constants.MaxPushPayloadBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				s.writeJSON(w, http.StatusRequestEntityTooLarge, apperrors.HTTPErrorResponse{Error: "push payload too large"})
				return
			}
			s.writeError(w, r, apperrors.NewValidationError("body", "failed to read push payload"))
			return
		}

		notification, err := receiver.Receive(r.Context(), body)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if notification == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		s.logger.WithField(service.LogFieldProfile, profile).Debug("Push event handled")
		s.writeJSON(w, http.StatusAccepted, notification)
	}
}

package main

import (
	"encoding/json"
	"net/http"

	"chatpush/internal/constants"
	apperrors "chatpush/internal/errors"
)

type assistantRequest struct {
	Prompt string `json:"prompt"`
}

type assistantResponse struct {
	Enabled bool   `json:"enabled"`
	Reply   string `json:"reply"`
}

func (s *Server) handleAssistantReply() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.assistant == nil || !s.assistant.Enabled() {
			s.writeJSON(w, http.StatusOK, assistantResponse{Enabled: false})
			return
		}

		var req assistantRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, constants.MaxAssistantRequestBytes)).Decode(&req); err != nil {
			s.writeError(w, r, apperrors.NewValidationError("body", "invalid JSON body"))
			return
		}

		reply, err := s.assistant.Reply(r.Context(), req.Prompt)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		s.writeJSON(w, http.StatusOK, assistantResponse{Enabled: true, Reply: reply})
	}
}

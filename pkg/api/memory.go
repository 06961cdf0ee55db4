package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

type addMessageRequest struct {
	Role     string  `json:"role"`
	Content  string  `json:"content"`
	Metadata *string `json:"metadata,omitempty"`
	UserID   *string `json:"userId,omitempty"`
}

func (s *Server) handleAddMessage(w http.ResponseWriter, r *http.Request) {
	session := mux.Vars(r)["session"]

	var req addMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "invalid message request"))
		return
	}
	if req.Role == "" || req.Content == "" {
		writeError(w, http.StatusBadRequest, errors.New("role and content are required"))
		return
	}

	if err := s.store.InitializeSession(r.Context(), session, req.UserID); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	id, err := s.store.AddMessage(r.Context(), session, req.Role, req.Content, req.Metadata)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	session := mux.Vars(r)["session"]

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	messages, err := s.store.ChatHistory(r.Context(), session, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func (s *Server) handleGetFacts(w http.ResponseWriter, r *http.Request) {
	facts, err := s.store.LearnedFacts(r.Context(), mux.Vars(r)["session"])
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"facts": facts})
}

type putFactsRequest struct {
	Facts string `json:"facts"`
}

func (s *Server) handlePutFacts(w http.ResponseWriter, r *http.Request) {
	session := mux.Vars(r)["session"]

	var req putFactsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "invalid facts request"))
		return
	}
	if err := s.store.UpdateLearnedFacts(r.Context(), session, req.Facts); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleClearSession(w http.ResponseWriter, r *http.Request) {
	if err := s.store.ClearSession(r.Context(), mux.Vars(r)["session"]); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

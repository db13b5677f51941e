package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/clearstack/opsdesk/internal/domain"
)

type sendMessageRequest struct {
	Text string `json:"text"`
}

type sendMessageResponse struct {
	Reply     *domain.ChatMessage `json:"reply,omitempty"`
	Sent      bool                `json:"sent"`
	SessionID int64               `json:"sessionId,omitempty"`
}

type transcriptResponse struct {
	Messages      []domain.ChatMessage `json:"messages"`
	SessionID     int64                `json:"sessionId,omitempty"`
	AwaitingReply bool                 `json:"awaitingReply"`
	ProjectID     string               `json:"projectId,omitempty"`
	ProjectName   string               `json:"projectName,omitempty"`
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	ctrl, err := s.controller(r, r.PathValue("surface"))
	if err != nil {
		writeControllerError(w, err)
		return
	}

	var req sendMessageRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reply, sent := ctrl.SendMessage(r.Context(), req.Text)
	resp := sendMessageResponse{Sent: sent, SessionID: ctrl.ActiveSessionID()}
	if sent {
		resp.Reply = &reply
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	ctrl, err := s.controller(r, r.PathValue("surface"))
	if err != nil {
		writeControllerError(w, err)
		return
	}

	projectID, projectName := ctrl.Project()
	writeJSON(w, http.StatusOK, transcriptResponse{
		Messages:      ctrl.Transcript(),
		SessionID:     ctrl.ActiveSessionID(),
		AwaitingReply: ctrl.AwaitingReply(),
		ProjectID:     projectID,
		ProjectName:   projectName,
	})
}

func (s *Server) handleNewSession(w http.ResponseWriter, r *http.Request) {
	ctrl, err := s.controller(r, r.PathValue("surface"))
	if err != nil {
		writeControllerError(w, err)
		return
	}
	ctrl.NewSession()
	writeJSON(w, http.StatusOK, transcriptResponse{
		Messages: ctrl.Transcript(),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctrl, err := s.controller(r, r.PathValue("surface"))
	if err != nil {
		writeControllerError(w, err)
		return
	}
	history := ctrl.History()
	if history == nil {
		history = []domain.ChatSession{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": history})
}

func (s *Server) handleLoadSession(w http.ResponseWriter, r *http.Request) {
	ctrl, err := s.controller(r, r.PathValue("surface"))
	if err != nil {
		writeControllerError(w, err)
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	if err := ctrl.LoadHistorySession(id); err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, transcriptResponse{
		Messages:  ctrl.Transcript(),
		SessionID: ctrl.ActiveSessionID(),
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	ctrl, err := s.controller(r, r.PathValue("surface"))
	if err != nil {
		writeControllerError(w, err)
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	ctrl.DeleteSession(id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func writeControllerError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrNotSignedIn) {
		writeError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	writeError(w, http.StatusNotFound, "unknown chat surface")
}

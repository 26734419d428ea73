package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/smartinbox/smartinbox/internal/assistant"
)

// Per-owner daily ceiling on assistant calls. The upstream model API is
// metered, so unbounded chat would be an easy way to burn the account.
const chatDailyLimit = 200

type chatRequest struct {
	Message string              `json:"message"`
	History []assistant.Message `json:"history"`
}

type chatResponse struct {
	Reply        string `json:"reply"`
	EmailsLoaded int    `json:"emailsLoaded"`
}

// chat answers a natural-language question about the owner's mailbox.
func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipal(r.Context())
	if p == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if !s.assistant.Configured() {
		http.Error(w, "assistant not configured", http.StatusServiceUnavailable)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}

	v := NewValidator()
	v.ValidateRequired("message", req.Message)
	v.ValidateMaxLength("message", req.Message, 4000)
	if v.HasErrors() {
		http.Error(w, v.Err().Error(), http.StatusBadRequest)
		return
	}

	allowed, err := s.recordChatInteraction(r, p.OwnerID)
	if err != nil {
		log.Error().Err(err).Msg("chat accounting failed")
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
		return
	}
	if !allowed {
		http.Error(w, "daily chat limit reached", http.StatusTooManyRequests)
		return
	}

	reply, emailsLoaded, err := s.assistant.Reply(r.Context(), p.OwnerID, req.History, req.Message)
	if err != nil {
		log.Error().Err(err).Msg("assistant call failed")
		http.Error(w, "assistant unavailable", http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Reply: reply, EmailsLoaded: emailsLoaded})
}

// recordChatInteraction bumps today's per-owner counter and reports whether
// the owner is still under the daily ceiling.
func (s *Server) recordChatInteraction(r *http.Request, ownerID string) (bool, error) {
	day := time.Now().UTC().Format("2006-01-02")
	_, err := s.db.ExecContext(r.Context(),
		`INSERT INTO chat_interactions (owner_id, day, count) VALUES (?, ?, 1)
		 ON CONFLICT(owner_id, day) DO UPDATE SET count = count + 1`,
		ownerID, day)
	if err != nil {
		return false, err
	}

	var count int
	err = s.db.QueryRowContext(r.Context(),
		"SELECT count FROM chat_interactions WHERE owner_id = ? AND day = ?",
		ownerID, day).Scan(&count)
	if err != nil {
		return false, err
	}
	return count <= chatDailyLimit, nil
}

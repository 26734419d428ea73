package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/smartinbox/smartinbox/internal/mail"
	"github.com/smartinbox/smartinbox/internal/store"
)

// listThreads returns the owner's threads for one folder, newest first.
// The folder defaults to the inbox; an unknown folder name is a client error
// rather than an empty listing.
func (s *Server) listThreads(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipal(r.Context())
	if p == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	folder := mail.FolderInbox
	if raw := r.URL.Query().Get("folder"); raw != "" {
		parsed, err := mail.ParseFolder(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		folder = parsed
	}

	threads, err := s.store.ThreadsForOwner(r.Context(), p.OwnerID, &folder)
	if err != nil {
		log.Error().Err(err).Str("folder", string(folder)).Msg("thread listing failed")
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
		return
	}

	for i := range threads {
		s.sanitizeThread(&threads[i])
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"threads": threads,
		"total":   len(threads),
	})
}

// getThread returns a single thread with its emails oldest first.
func (s *Server) getThread(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipal(r.Context())
	if p == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	threadID := chi.URLParam(r, "id")
	thread, err := s.store.GetThread(r.Context(), p.OwnerID, threadID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "thread not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("thread_id", threadID).Msg("thread fetch failed")
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
		return
	}

	s.sanitizeThread(thread)
	writeJSON(w, http.StatusOK, thread)
}

// sanitizeThread scrubs stored HTML before it reaches a browser. Bodies are
// sanitized on the way out rather than at ingest so policy updates apply to
// mail already on disk.
func (s *Server) sanitizeThread(t *mail.Thread) {
	for i := range t.Emails {
		if t.Emails[i].Body != "" {
			t.Emails[i].Body = s.sanitizer.SanitizeHTML(t.Emails[i].Body)
		}
	}
}

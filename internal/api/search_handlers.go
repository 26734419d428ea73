package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/smartinbox/smartinbox/internal/mail"
	"github.com/smartinbox/smartinbox/internal/search"
)

type searchResponse struct {
	Results []search.Result `json:"results"`
	Total   int             `json:"total"`
	Query   string          `json:"query"`
}

// searchThreads runs the relevance-ranked search for the authenticated owner.
// A blank query short-circuits to an empty result set; plain listings go
// through /threads instead.
func (s *Server) searchThreads(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipal(r.Context())
	if p == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		writeJSON(w, http.StatusOK, searchResponse{Results: []search.Result{}, Total: 0, Query: query})
		return
	}

	filter, err := parseFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	results, err := s.engine.Search(r.Context(), p.OwnerID, query, filter)
	if err != nil {
		var invalid *search.InvalidFilterError
		if errors.As(err, &invalid) {
			http.Error(w, invalid.Error(), http.StatusBadRequest)
			return
		}
		// An empty response would be indistinguishable from "no matches",
		// so storage failures surface as retryable errors
		log.Error().Err(err).Msg("search failed")
		http.Error(w, "search backend unavailable", http.StatusServiceUnavailable)
		return
	}

	// Result threads carry stored bodies, which are scrubbed on egress the
	// same as the listing endpoints.
	for i := range results {
		s.sanitizeThread(&results[i].Thread)
	}

	writeJSON(w, http.StatusOK, searchResponse{Results: results, Total: len(results), Query: query})
}

// searchSuggestions returns autocomplete candidates for a partial query.
func (s *Server) searchSuggestions(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipal(r.Context())
	if p == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	partial := r.URL.Query().Get("q")
	suggestions, err := s.engine.Suggest(r.Context(), p.OwnerID, partial)
	if err != nil {
		log.Error().Err(err).Msg("suggestion scan failed")
		http.Error(w, "search backend unavailable", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]string{"suggestions": suggestions})
}

// searchAnalytics returns corpus-wide counts for the owner.
func (s *Server) searchAnalytics(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipal(r.Context())
	if p == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	summary, err := s.engine.Analytics(r.Context(), p.OwnerID)
	if err != nil {
		log.Error().Err(err).Msg("analytics computation failed")
		http.Error(w, "search backend unavailable", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, map[string]*search.Summary{"analytics": summary})
}

// parseFilter builds a search filter from query parameters, rejecting
// malformed values before any storage access. Absent parameters stay absent;
// hasAttachments distinguishes "no constraint" from "must be false".
func parseFilter(r *http.Request) (*search.Filter, error) {
	q := r.URL.Query()
	v := NewValidator()
	filter := &search.Filter{}

	if raw := q.Get("folder"); raw != "" {
		folder, err := mail.ParseFolder(raw)
		if err != nil {
			v.AddError("folder", err.Error())
		} else {
			filter.Folder = &folder
		}
	}

	filter.Sender = q.Get("sender")

	switch raw := q.Get("hasAttachments"); raw {
	case "":
	case "true":
		t := true
		filter.HasAttachments = &t
	case "false":
		f := false
		filter.HasAttachments = &f
	default:
		v.AddError("hasAttachments", "must be true or false")
	}

	if raw := q.Get("sensitivity"); raw != "" {
		sensitivity, err := mail.ParseSensitivity(raw)
		if err != nil {
			v.AddError("sensitivity", err.Error())
		} else {
			filter.Sensitivity = &sensitivity
		}
	}

	startRaw, endRaw := q.Get("startDate"), q.Get("endDate")
	if startRaw != "" || endRaw != "" {
		start := v.ParseTimestamp("startDate", startRaw)
		end := v.ParseTimestamp("endDate", endRaw)
		if !v.HasErrors() {
			if start.After(end) {
				v.AddError("dateRange", "startDate is after endDate")
			} else {
				filter.DateRange = &search.DateRange{Start: start, End: end}
			}
		}
	}

	if v.HasErrors() {
		return nil, v.Err()
	}
	return filter, nil
}

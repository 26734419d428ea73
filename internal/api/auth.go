package api

import (
	"net/http"
	"os"
)

// There is no login handler: credentials live with the external identity
// provider, which provisions and revokes sessions through the webhook. This
// file only exposes the session the provider already established.

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipal(r.Context())
	if p == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"ownerId": p.OwnerID})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipal(r.Context())
	if p == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	// Delete all sessions for the owner
	_, _ = s.db.Exec("DELETE FROM sessions WHERE owner_id = ?", p.OwnerID)

	// Clear the session cookie
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   os.Getenv("ENV") == "production",
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1, // Delete cookie immediately
	})

	w.WriteHeader(http.StatusNoContent)
}

package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/smartinbox/smartinbox/internal/store"
)

const (
	webhookMaxBody      = 1 << 20 // 1 MiB
	webhookMaxTimeSkew  = 5 * time.Minute
	webhookSecretPrefix = "whsec_"
)

type identityEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type identityUser struct {
	ID           string `json:"id"`
	EmailAddress string `json:"emailAddress"`
	Name         string `json:"name"`
}

type identitySession struct {
	UserID    string    `json:"userId"`
	Token     string    `json:"token,omitempty"`
	TokenHash string    `json:"tokenHash,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// identityWebhook receives account and session lifecycle events from the
// identity provider. The provider owns credentials; this endpoint is the only
// way sessions get provisioned.
func (s *Server) identityWebhook(w http.ResponseWriter, r *http.Request) {
	if s.cfg.WebhookSecret == "" {
		http.Error(w, "webhook ingestion not configured", http.StatusServiceUnavailable)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, webhookMaxBody))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	if !s.verifyWebhookSignature(r, body) {
		log.Warn().Str("remote", r.RemoteAddr).Msg("webhook signature rejected")
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var evt identityEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		http.Error(w, "malformed event", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	switch evt.Type {
	case "user.created", "user.updated":
		var user identityUser
		if err := json.Unmarshal(evt.Data, &user); err != nil || user.ID == "" {
			http.Error(w, "malformed user event", http.StatusBadRequest)
			return
		}
		v := NewValidator()
		v.ValidateEmail("emailAddress", user.EmailAddress)
		v.ValidateMaxLength("name", user.Name, 200)
		if v.HasErrors() {
			log.Warn().Str("owner", user.ID).Interface("errors", v.Errors()).Msg("rejected user event")
			http.Error(w, v.Err().Error(), http.StatusBadRequest)
			return
		}
		_, err = s.store.UpsertAccount(ctx, store.AccountParams{
			OwnerID:      user.ID,
			Provider:     "identity",
			EmailAddress: user.EmailAddress,
			Name:         user.Name,
		})
		if err != nil {
			log.Error().Err(err).Str("owner", user.ID).Msg("account upsert failed")
			http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
			return
		}

	case "user.deleted":
		var user identityUser
		if err := json.Unmarshal(evt.Data, &user); err != nil || user.ID == "" {
			http.Error(w, "malformed user event", http.StatusBadRequest)
			return
		}
		if err := s.store.DeleteOwner(ctx, user.ID); err != nil {
			log.Error().Err(err).Str("owner", user.ID).Msg("owner deletion failed")
			http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
			return
		}

	case "session.created":
		var sess identitySession
		if err := json.Unmarshal(evt.Data, &sess); err != nil || sess.UserID == "" {
			http.Error(w, "malformed session event", http.StatusBadRequest)
			return
		}
		hash := sess.TokenHash
		if hash == "" {
			if sess.Token == "" {
				http.Error(w, "session event carries no token", http.StatusBadRequest)
				return
			}
			hash = HashToken(sess.Token)
		}
		expires := sess.ExpiresAt
		if expires.IsZero() {
			expires = time.Now().Add(time.Duration(s.cfg.SessionTimeoutHours) * time.Hour)
		}
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO sessions (token_hash, owner_id, expires_at) VALUES (?, ?, ?)
			 ON CONFLICT(token_hash) DO UPDATE SET expires_at = excluded.expires_at`,
			hash, sess.UserID, expires.UTC().Format("2006-01-02 15:04:05"))
		if err != nil {
			log.Error().Err(err).Str("owner", sess.UserID).Msg("session provisioning failed")
			http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
			return
		}

	case "session.ended", "session.removed", "session.revoked":
		var sess identitySession
		if err := json.Unmarshal(evt.Data, &sess); err != nil {
			http.Error(w, "malformed session event", http.StatusBadRequest)
			return
		}
		hash := sess.TokenHash
		if hash == "" && sess.Token != "" {
			hash = HashToken(sess.Token)
		}
		if hash == "" {
			http.Error(w, "session event carries no token", http.StatusBadRequest)
			return
		}
		if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE token_hash = ?", hash); err != nil {
			log.Error().Err(err).Msg("session teardown failed")
			http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
			return
		}

	default:
		// Unknown event types are acknowledged so the provider stops retrying
		log.Debug().Str("type", evt.Type).Msg("ignoring webhook event")
	}

	w.WriteHeader(http.StatusNoContent)
}

// verifyWebhookSignature checks the svix-style signature headers: HMAC-SHA256
// over "<id>.<timestamp>.<body>". The timestamp must be within a small skew
// window to block replays.
func (s *Server) verifyWebhookSignature(r *http.Request, body []byte) bool {
	id := r.Header.Get("webhook-id")
	timestamp := r.Header.Get("webhook-timestamp")
	signatures := r.Header.Get("webhook-signature")
	if id == "" || timestamp == "" || signatures == "" {
		return false
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	skew := time.Since(time.Unix(ts, 0))
	if skew > webhookMaxTimeSkew || skew < -webhookMaxTimeSkew {
		return false
	}

	secret := s.cfg.WebhookSecret
	key := []byte(secret)
	if strings.HasPrefix(secret, webhookSecretPrefix) {
		if decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(secret, webhookSecretPrefix)); err == nil {
			key = decoded
		}
	}

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(id + "." + timestamp + "."))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	// The header may carry several space-separated "v1,<sig>" entries during
	// secret rotation; any valid one passes.
	for _, part := range strings.Fields(signatures) {
		sig := part
		if i := strings.Index(part, ","); i >= 0 {
			sig = part[i+1:]
		}
		if subtle.ConstantTimeCompare([]byte(sig), []byte(expected)) == 1 {
			return true
		}
	}
	return false
}

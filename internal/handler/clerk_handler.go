package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/Flickmart/flickmart-sub000/internal/domain"
	"github.com/Flickmart/flickmart-sub000/internal/repository"
	"github.com/Flickmart/flickmart-sub000/pkg/response"
)

// ClerkHandler syncs user records from the identity provider's webhooks so
// deposits can be initialized with the user's verified email.
type ClerkHandler struct {
	users         repository.UserRepository
	webhookSecret string
	logger        *zap.Logger
}

func NewClerkHandler(users repository.UserRepository, webhookSecret string, logger *zap.Logger) *ClerkHandler {
	return &ClerkHandler{users: users, webhookSecret: webhookSecret, logger: logger}
}

type clerkEvent struct {
	Type string `json:"type"`
	Data struct {
		ID             string `json:"id"`
		FirstName      string `json:"first_name"`
		LastName       string `json:"last_name"`
		EmailAddresses []struct {
			EmailAddress string `json:"email_address"`
		} `json:"email_addresses"`
	} `json:"data"`
}

func (h *ClerkHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeBadRequest(w, "unreadable body")
		return
	}
	if !h.validSignature(payload, r.Header) {
		h.logger.Warn("identity webhook signature rejected", zap.String("remote_addr", r.RemoteAddr))
		response.Error(w, http.StatusUnauthorized, "invalid_signature", "signature verification failed")
		return
	}

	var event clerkEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		writeBadRequest(w, "invalid event payload")
		return
	}

	switch event.Type {
	case "user.created", "user.updated":
		email := ""
		if len(event.Data.EmailAddresses) > 0 {
			email = event.Data.EmailAddresses[0].EmailAddress
		}
		err = h.users.Upsert(r.Context(), &domain.User{
			ID:        event.Data.ID,
			Email:     email,
			FirstName: event.Data.FirstName,
			LastName:  event.Data.LastName,
		})
	case "user.deleted":
		err = h.users.Delete(r.Context(), event.Data.ID)
	default:
		h.logger.Info("identity event ignored", zap.String("type", event.Type))
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// validSignature implements the svix scheme Clerk signs with: HMAC-SHA256
// over "<id>.<timestamp>.<body>" keyed by the base64 secret after the
// "whsec_" prefix, matched against any of the space-separated "v1,<sig>"
// entries in the svix-signature header.
func (h *ClerkHandler) validSignature(payload []byte, header http.Header) bool {
	msgID := header.Get("svix-id")
	timestamp := header.Get("svix-timestamp")
	signatures := header.Get("svix-signature")
	if msgID == "" || timestamp == "" || signatures == "" {
		return false
	}

	secret, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(h.webhookSecret, "whsec_"))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(msgID + "." + timestamp + "."))
	mac.Write(payload)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	for _, entry := range strings.Fields(signatures) {
		sig, ok := strings.CutPrefix(entry, "v1,")
		if ok && hmac.Equal([]byte(sig), []byte(expected)) {
			return true
		}
	}
	return false
}

package httpapi

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"sparrow-api/pkg/logger"
)

const webhookSecretHeader = "X-Webhook-Secret"

type identityEvent struct {
	Type string `json:"type"`
	Data struct {
		Subject string `json:"subject"`
		Email   string `json:"email"`
	} `json:"data"`
}

// IdentityWebhook receives identity-provider callbacks and syncs emails onto
// local user rows. This is how placeholder emails from first contact get
// corrected. Authenticated by a shared secret, compared in constant time.
func (h *Handlers) IdentityWebhook(c *gin.Context) {
	got := strings.TrimSpace(c.GetHeader(webhookSecretHeader))
	if h.IdentitySecret == "" ||
		subtle.ConstantTimeCompare([]byte(got), []byte(h.IdentitySecret)) != 1 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook secret"})
		return
	}

	var ev identityEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	log := logger.From(c.Request.Context())
	switch ev.Type {
	case "user.created", "user.updated":
		if ev.Data.Subject == "" || ev.Data.Email == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "subject and email are required"})
			return
		}
		// Update only: a subject we have never seen has no row to fix.
		if err := h.Users.ApplyIdentityUpdate(c.Request.Context(), ev.Data.Subject, ev.Data.Email); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	default:
		// Unknown event types are acknowledged so the provider stops retrying.
		log.Info("ignoring identity event", "type", ev.Type)
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
	}
}

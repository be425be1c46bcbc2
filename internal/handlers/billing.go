package handlers

import (
	"io"
	"net/http"

	"codeloom/internal/services"

	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 1 << 16

type BillingHandler struct {
	billing *services.BillingService
}

func NewBillingHandler(billing *services.BillingService) *BillingHandler {
	return &BillingHandler{billing: billing}
}

func (h *BillingHandler) CreateSubscription(c *gin.Context) {
	result, err := h.billing.CreateSubscription(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *BillingHandler) CancelSubscription(c *gin.Context) {
	if err := h.billing.CancelSubscription(c.Request.Context(), currentUser(c).ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Subscription cancellation requested"})
}

func (h *BillingHandler) Prices(c *gin.Context) {
	prices, err := h.billing.Prices(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prices)
}

// Webhook needs the raw body for signature verification.
func (h *BillingHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		badRequest(c, "Unreadable body")
		return
	}
	if err := h.billing.HandleWebhook(payload, c.GetHeader("Stripe-Signature")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

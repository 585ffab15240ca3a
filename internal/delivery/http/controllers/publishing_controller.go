package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	h "gedenkseiten/internal/delivery/http/helpers"
	"gedenkseiten/internal/delivery/http/middleware"
	"gedenkseiten/internal/domain"
)

// RequestPublishRequest is the request body for POST /memorials/{id}/publish
type RequestPublishRequest struct {
	TierID string `json:"tier_id"`
}

// Validate implements Validator.
func (p RequestPublishRequest) Validate() []string {
	if strings.TrimSpace(p.TierID) == "" {
		return []string{"tier_id is required"}
	}
	return nil
}

// PaymentSuccessRequest is the request body for POST /payments/success.
// Field name matches the checkout provider's callback payload.
type PaymentSuccessRequest struct {
	SessionID string `json:"sessionId"`
}

// PaymentSuccessResponse is the response body for POST /payments/success
type PaymentSuccessResponse struct {
	Success       bool   `json:"success"`
	OrderID       string `json:"orderId"`
	PaymentStatus string `json:"paymentStatus"`
}

type PublishingController struct {
	Logger  *slog.Logger
	Service domain.PublishingService
}

func NewPublishingController(logger *slog.Logger, svc domain.PublishingService) *PublishingController {
	return &PublishingController{
		Logger:  logger,
		Service: svc,
	}
}

// Tiers godoc
// @Summary List publishing tiers
// @Description Return the fixed tier table: durations, prices in euro cents, and the forever option.
// @Tags publishing
// @Produce json
// @Success 200 {object} helpers.APIResponse "data contains the tiers"
// @Router /publishing/tiers [get]
func (c *PublishingController) Tiers(w http.ResponseWriter, r *http.Request) {
	h.WriteJSONSuccess(w, http.StatusOK, c.Service.Tiers())
}

// RequestPublish godoc
// @Summary Request publication of a memorial
// @Description Free tier publishes immediately. Paid tiers create an order and return a checkout redirect URL; the page publishes once payment is confirmed.
// @Tags publishing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Memorial ID"
// @Param body body RequestPublishRequest true "Tier selection"
// @Success 200 {object} helpers.APIResponse "data contains either the published memorial or order_id and redirect_url"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /memorials/{id}/publish [post]
func (c *PublishingController) RequestPublish(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "not authenticated")
		return
	}
	var req RequestPublishRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	result, err := c.Service.RequestPublish(r.Context(), r.PathValue("id"), userID, strings.TrimSpace(req.TierID))
	if err != nil {
		h.WriteDomainError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, result)
}

// PaymentSuccess godoc
// @Summary Confirm a paid checkout session
// @Description Called after checkout. Verifies the session with the payment provider and publishes the memorial of the matching order.
// @Tags publishing
// @Accept json
// @Produce json
// @Param body body PaymentSuccessRequest true "Checkout session"
// @Success 200 {object} helpers.APIResponse "data contains success, orderId, paymentStatus"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /payments/success [post]
func (c *PublishingController) PaymentSuccess(w http.ResponseWriter, r *http.Request) {
	var req PaymentSuccessRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	conf, err := c.Service.ConfirmPayment(r.Context(), strings.TrimSpace(req.SessionID))
	if err != nil {
		h.WriteDomainError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, PaymentSuccessResponse{
		Success:       true,
		OrderID:       conf.OrderID,
		PaymentStatus: string(conf.PaymentStatus),
	})
}
